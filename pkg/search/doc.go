// Package search filters collections of heterogeneous records by a
// user-typed keyword. A record is an opaque field map; what gets matched
// is the text a user would actually see for it, derived either from
// column renderers or from a deep walk over the record's primitive
// fields. Matching is case-insensitive substring containment with '-'
// stripped from both sides, so formatted identifiers (phone numbers,
// license numbers) match their unformatted query form.
//
// The package also ships a Controller that debounces raw keystroke
// input and re-runs the filter, suppressing redundant result deliveries
// when the matched set has not materially changed.
package search
