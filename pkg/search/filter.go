package search

import "strings"

// Normalize lowers a string and strips every '-' so formatted
// identifiers compare equal to their unformatted query form
// ("123-45-67890" matches "1234567890").
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "-", "")
}

// Filter returns the records whose searchable text contains the
// normalized keyword, preserving original relative order. An empty or
// whitespace-only keyword (or a nil collection) is an identity
// passthrough. Filtering is pure: the input collection and its records
// are never mutated.
//
// Matching is whole-text substring over the space-joined field texts,
// not per-field: a keyword may match across the boundary of two
// adjacent fields. Use FilterPerField for boundary-strict matching.
func Filter(records []Record, keyword string, cols []Column) []Record {
	if records == nil || strings.TrimSpace(keyword) == "" {
		return records
	}
	needle := Normalize(strings.TrimSpace(keyword))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(Normalize(CollectText(rec, cols)), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterPerField is the boundary-strict variant of Filter: each
// column's (or, without columns, each top-level field's) text is tested
// independently and a record survives when any single field matches.
// Keywords can no longer match text spanning two unrelated fields.
func FilterPerField(records []Record, keyword string, cols []Column) []Record {
	if records == nil || strings.TrimSpace(keyword) == "" {
		return records
	}
	needle := Normalize(strings.TrimSpace(keyword))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if matchAnyField(rec, needle, cols) {
			out = append(out, rec)
		}
	}
	return out
}

func matchAnyField(rec Record, needle string, cols []Column) bool {
	if len(cols) > 0 {
		for _, col := range cols {
			if strings.Contains(Normalize(CollectText(rec, []Column{col})), needle) {
				return true
			}
		}
		return false
	}
	for key := range rec {
		var pieces []string
		walkPrimitives(rec[key], 0, &pieces)
		if strings.Contains(Normalize(strings.Join(pieces, " ")), needle) {
			return true
		}
	}
	return false
}
