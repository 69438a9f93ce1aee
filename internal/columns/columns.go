// Package columns loads column descriptor files. A columns file names
// the fields search should read and, optionally, a CEL expression that
// computes the displayed text for each field, so filtering operates on
// what users see instead of raw stored codes.
package columns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhizhunbao/fieldsift/internal/cel"
	"github.com/zhizhunbao/fieldsift/pkg/search"
)

// Spec is one column entry in a columns file.
type Spec struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label,omitempty"`
	Expr  string `yaml:"expr,omitempty"`
}

// File is the parsed shape of a columns file. Both a bare top-level
// list and a document with a `columns:` key unmarshal into it.
type File struct {
	Columns []Spec `yaml:"columns"`
}

// UnmarshalYAML accepts either a mapping with a columns key or a bare
// sequence of column entries.
func (f *File) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&f.Columns)
	}
	type plain File
	return value.Decode((*plain)(f))
}

// Parse decodes columns-file bytes and compiles each expression into a
// search.Column renderer.
func Parse(data []byte) ([]search.Column, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid columns file: %w", err)
	}
	if len(file.Columns) == 0 {
		return nil, fmt.Errorf("columns file declares no columns")
	}

	cols := make([]search.Column, 0, len(file.Columns))
	for i, spec := range file.Columns {
		if spec.Key == "" {
			return nil, fmt.Errorf("column %d: missing key", i)
		}
		col := search.Column{Key: spec.Key, Label: spec.Label}
		if spec.Expr != "" {
			prg, err := cel.Compile(spec.Expr)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", spec.Key, err)
			}
			col.Render = renderFunc(prg)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// Load reads and parses a columns file.
func Load(path string) ([]search.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func renderFunc(prg *cel.Program) search.RenderFunc {
	return func(value any, rec search.Record) any {
		return prg.Render(value, rec)
	}
}
