package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvReturnsCachedInstance(t *testing.T) {
	first, err := Env()
	require.NoError(t, err)
	second, err := Env()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCompileAndRender(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		value  any
		record map[string]any
		want   any
	}{
		{
			name:  "conditional label mapping",
			expr:  `value == 'active' ? 'Running' : string(value)`,
			value: "active",
			want:  "Running",
		},
		{
			name:  "pass through other codes",
			expr:  `value == 'active' ? 'Running' : string(value)`,
			value: "stopped",
			want:  "stopped",
		},
		{
			name:   "record access",
			expr:   `record.name + ' (' + string(value) + ')'`,
			value:  int64(3),
			record: map[string]any{"name": "Acme"},
			want:   "Acme (3)",
		},
		{
			name:  "string extension functions",
			expr:  `value.upperAscii()`,
			value: "abc",
			want:  "ABC",
		},
		{
			name:  "list result",
			expr:  `[string(value), 'suffix']`,
			value: "x",
			want:  []any{"x", "suffix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prg.Render(tt.value, tt.record))
		})
	}
}

func TestCompileError(t *testing.T) {
	_, err := Compile(`value ==`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation error")
}

func TestRenderErrorDegradesToNil(t *testing.T) {
	// Indexing a missing field fails at eval time; Render swallows it.
	prg, err := Compile(`record.missing.deeper`)
	require.NoError(t, err)
	assert.Nil(t, prg.Render(nil, map[string]any{}))

	_, evalErr := prg.Eval(nil, map[string]any{})
	require.Error(t, evalErr)
}
