package search

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one searchable data row: an opaque mapping from field name
// to value. The filter never mutates a record.
type Record = map[string]any

// RenderFunc computes the display value a user actually sees for a
// field. It receives the raw field value and the full record, and may
// return a primitive, a sequence, or a Node tree. Search then operates
// on the rendered text rather than the raw value, which matters when
// raw values are codes and rendered text is a translated label.
type RenderFunc func(value any, rec Record) any

// Column describes how one field contributes searchable text.
type Column struct {
	Key    string
	Label  string
	Render RenderFunc
}

// maxWalkDepth bounds the no-columns deep walk, mirroring the extract
// bound: cyclic record shapes degrade to partial text, not a crash.
const maxWalkDepth = 64

// CollectText derives a record's searchable text. With columns it reads
// each column's field, passing it through the column renderer when one
// is set; without columns it deep-walks every field and collects all
// primitive values. The result is always defined, possibly empty.
func CollectText(rec Record, cols []Column) string {
	if rec == nil {
		return ""
	}
	if len(cols) > 0 {
		return collectByColumns(rec, cols)
	}
	var pieces []string
	walkPrimitives(rec, 0, &pieces)
	return strings.Join(pieces, " ")
}

func collectByColumns(rec Record, cols []Column) string {
	pieces := make([]string, 0, len(cols))
	for _, col := range cols {
		value := rec[col.Key]
		var text string
		if col.Render != nil {
			text = ExtractText(safeRender(col.Render, value, rec))
		} else {
			text = coerceScalar(value)
		}
		if text != "" {
			pieces = append(pieces, text)
		}
	}
	return strings.Join(pieces, " ")
}

// safeRender shields the collector from misbehaving caller renderers; a
// panic inside a renderer contributes empty text instead of unwinding
// through the filter.
func safeRender(render RenderFunc, value any, rec Record) (out any) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return render(value, rec)
}

// walkPrimitives recurses into nested maps but not into sequences of
// maps, collecting string/number/bool primitives. Map keys are visited
// in sorted order so the joined text is deterministic.
func walkPrimitives(node any, depth int, pieces *[]string) {
	if node == nil || depth > maxWalkDepth {
		return
	}
	switch v := node.(type) {
	case string:
		if v != "" {
			*pieces = append(*pieces, v)
		}
	case bool:
		*pieces = append(*pieces, fmt.Sprint(v))
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		*pieces = append(*pieces, fmt.Sprint(v))
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkPrimitives(v[k], depth+1, pieces)
		}
	case []any:
		for _, item := range v {
			// Sequences of scalars contribute; nested maps inside
			// sequences do not.
			if _, isMap := item.(map[string]any); isMap {
				continue
			}
			walkPrimitives(item, depth+1, pieces)
		}
	case []string:
		for _, s := range v {
			if s != "" {
				*pieces = append(*pieces, s)
			}
		}
	}
}

// coerceScalar stringifies a raw column value when no renderer is set.
func coerceScalar(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return fmt.Sprint(v)
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
