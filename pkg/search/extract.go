package search

import (
	"fmt"
	"strings"
)

// maxExtractDepth bounds recursion so cyclic or absurdly nested display
// trees degrade to empty text instead of overflowing the stack.
const maxExtractDepth = 64

// textAttrs are the node attributes that contribute searchable text in
// addition to a node's children.
var textAttrs = []string{"title", "alt", "placeholder", "label", "value"}

// Node is a structured display value: a rendered element carrying child
// content plus optional text-bearing attributes. Renderers that need
// more than a plain string can return one of these (or a tree of them).
type Node struct {
	Props map[string]any
}

// Children returns the node's child content, or nil.
func (n *Node) Children() any {
	if n == nil || n.Props == nil {
		return nil
	}
	return n.Props["children"]
}

// ExtractText flattens an arbitrary display value into a single
// searchable string. Strings and numbers stringify, sequences join
// their non-empty extractions with one space, nodes contribute their
// children plus any string-valued text attributes. Everything else
// (nil, booleans, unrecognized shapes) degrades to "". It never panics.
func ExtractText(node any) string {
	return extractText(node, 0)
}

func extractText(node any, depth int) string {
	if node == nil || depth > maxExtractDepth {
		return ""
	}

	switch v := node.(type) {
	case string:
		return v
	case bool:
		return ""
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v)
	case []any:
		return joinExtracted(v, depth)
	case []string:
		parts := make([]any, len(v))
		for i, s := range v {
			parts[i] = s
		}
		return joinExtracted(parts, depth)
	case Node:
		return extractNodeProps(v.Props, depth)
	case *Node:
		if v == nil {
			return ""
		}
		return extractNodeProps(v.Props, depth)
	case map[string]any:
		// Map-shaped nodes come from config- or JSON-described display
		// values: {"props": {"children": ..., "title": ...}}.
		if props, ok := v["props"].(map[string]any); ok {
			return extractNodeProps(props, depth)
		}
		return ""
	default:
		return ""
	}
}

func extractNodeProps(props map[string]any, depth int) string {
	if props == nil {
		return ""
	}
	pieces := make([]string, 0, 1+len(textAttrs))
	if child, ok := props["children"]; ok {
		if s := extractText(child, depth+1); s != "" {
			pieces = append(pieces, s)
		}
	}
	for _, attr := range textAttrs {
		if s, ok := props[attr].(string); ok && s != "" {
			pieces = append(pieces, s)
		}
	}
	return strings.Join(pieces, " ")
}

func joinExtracted(items []any, depth int) string {
	pieces := make([]string, 0, len(items))
	for _, item := range items {
		if s := extractText(item, depth+1); s != "" {
			pieces = append(pieces, s)
		}
	}
	return strings.Join(pieces, " ")
}
