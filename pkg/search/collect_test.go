package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectTextWithColumns(t *testing.T) {
	rec := Record{
		"status":  "active",
		"name":    "Acme Corp",
		"count":   3,
		"ignored": "should not appear",
	}

	tests := []struct {
		name string
		cols []Column
		want string
	}{
		{
			name: "raw values in column order",
			cols: []Column{{Key: "name"}, {Key: "count"}},
			want: "Acme Corp 3",
		},
		{
			name: "render output replaces raw value",
			cols: []Column{{
				Key: "status",
				Render: func(v any, _ Record) any {
					if v == "active" {
						return "Running"
					}
					return v
				},
			}},
			want: "Running",
		},
		{
			name: "render sees the whole record",
			cols: []Column{{
				Key: "status",
				Render: func(_ any, r Record) any {
					return r["name"]
				},
			}},
			want: "Acme Corp",
		},
		{
			name: "missing key contributes nothing",
			cols: []Column{{Key: "nope"}, {Key: "name"}},
			want: "Acme Corp",
		},
		{
			name: "render returning node tree",
			cols: []Column{{
				Key: "name",
				Render: func(v any, _ Record) any {
					return &Node{Props: map[string]any{
						"children": v,
						"title":    "company",
					}}
				},
			}},
			want: "Acme Corp company",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollectText(rec, tt.cols))
		})
	}
}

func TestCollectTextDeepWalk(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "flat primitives in sorted key order",
			rec:  Record{"b": "two", "a": "one", "c": 3},
			want: "one two 3",
		},
		{
			name: "recurses into nested maps",
			rec:  Record{"meta": map[string]any{"owner": "Kim"}},
			want: "Kim",
		},
		{
			name: "does not recurse into sequences of maps",
			rec: Record{
				"items": []any{map[string]any{"hidden": "x"}, "visible"},
			},
			want: "visible",
		},
		{
			name: "booleans collected as text",
			rec:  Record{"ok": true},
			want: "true",
		},
		{name: "nil record", rec: nil, want: ""},
		{name: "empty record", rec: Record{}, want: ""},
		{
			name: "nil and empty values skipped",
			rec:  Record{"a": nil, "b": "", "c": "kept"},
			want: "kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollectText(tt.rec, nil))
		})
	}
}

func TestCollectTextPanickingRenderer(t *testing.T) {
	rec := Record{"a": "x", "b": "y"}
	cols := []Column{
		{Key: "a", Render: func(any, Record) any { panic("renderer bug") }},
		{Key: "b"},
	}
	assert.NotPanics(t, func() {
		assert.Equal(t, "y", CollectText(rec, cols))
	})
}
