// Package loader reads record collections for filtering, auto-detecting
// the input format. Supported inputs: a single JSON object/array,
// newline-delimited JSON, single or multi-document YAML, and TOML.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/zhizhunbao/fieldsift/pkg/search"
)

// LoadData parses input into a slice of documents, auto-detecting the
// format. Single-document inputs return a one-element slice.
func LoadData(input string) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	// Multi-document YAML is the most restrictive shape, so test first.
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return loadMultiDocYAML(input)
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return loadNDJSON(input)
	}

	// TOML before JSON: a [section] header would otherwise look like a
	// JSON array.
	if isLikelyTOML(input) {
		return loadTOML(input)
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return loadJSON(input)
	}

	return loadYAML(input)
}

// LoadRecords parses input and flattens the result into a record
// collection for filtering:
//   - an array of maps becomes one record per element
//   - a single map becomes a one-record collection
//   - NDJSON / multi-doc inputs contribute one record per document
//
// Non-map elements are skipped with a debug log; they carry no fields
// to search.
func LoadRecords(input string, lgr logr.Logger) ([]search.Record, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}

	// A single top-level array is the common case: unwrap it so each
	// element becomes a candidate record.
	if len(docs) == 1 {
		if arr, ok := docs[0].([]any); ok {
			docs = arr
		}
	}

	records := make([]search.Record, 0, len(docs))
	for i, doc := range docs {
		switch rec := doc.(type) {
		case map[string]any:
			records = append(records, rec)
		default:
			lgr.V(1).Info("skipping non-record element", "index", i, "type", fmt.Sprintf("%T", doc))
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input contains no record objects")
	}
	return records, nil
}

// LoadRecordsFile reads a file and parses it into a record collection.
func LoadRecordsFile(path string, lgr logr.Logger) ([]search.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRecords(string(data), lgr)
}

// LoadRecordsReader consumes a reader (typically stdin) into a record
// collection.
func LoadRecordsReader(r io.Reader, lgr logr.Logger) ([]search.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return LoadRecords(string(data), lgr)
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

func loadYAML(input string) ([]any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{normalizeYAML(data)}, nil
}

func loadMultiDocYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))

	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			results = append(results, normalizeYAML(doc))
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses newline-delimited JSON. Lines that fail to parse
// are kept as plain strings rather than aborting the whole input.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

func loadTOML(input string) ([]any, error) {
	var data any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}

// normalizeYAML converts map[any]any nodes (yaml.v3 emits these for
// non-string keys) into map[string]any so records have a uniform shape.
func normalizeYAML(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return node
	}
}

// isLikelyNDJSON: a majority of non-empty lines must start with '{' or
// '[' for the input to classify as NDJSON. This keeps YAML list files
// from being misread.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}

	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	// TOML section headers: [server], [[items]], [a."b.c"]. Distinct
	// from JSON arrays, which carry commas/spaces without quotes.
	tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// TOML key = value lines (key: value is YAML).
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

func isLikelyTOML(input string) bool {
	lines := strings.Split(input, "\n")

	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}
