// Package cel compiles CEL expressions into record renderers. Column
// files declare how a raw field value maps to the text users actually
// see; each expression is compiled once and evaluated per record with
// the variables `value` (the raw field value) and `record` (the whole
// record).
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// baseEnv is the shared CEL environment. Building it is not free, so it
// is created lazily exactly once and every caller gets the cached
// result, including a cached construction error.
var (
	baseEnvOnce sync.Once
	baseEnv     *cel.Env
	baseEnvErr  error
)

// Env returns the shared base environment for render expressions.
func Env() (*cel.Env, error) {
	baseEnvOnce.Do(func() {
		baseEnv, baseEnvErr = cel.NewEnv(
			cel.Variable("value", cel.DynType),
			cel.Variable("record", cel.DynType),
			// Common extension libraries so render expressions have the
			// usual string/list/math helpers available.
			celext.Strings(),
			celext.Encoders(),
			celext.Lists(),
			celext.Math(),
		)
		if baseEnvErr != nil {
			baseEnvErr = fmt.Errorf("failed to create CEL environment: %w", baseEnvErr)
		}
	})
	return baseEnv, baseEnvErr
}

// Program is a compiled render expression.
type Program struct {
	prg cel.Program
}

// Compile parses and type-checks a render expression against the shared
// environment, returning a reusable Program.
func Compile(expr string) (*Program, error) {
	env, err := Env()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{prg: prg}, nil
}

// Render evaluates the compiled expression for one field of one record.
// Evaluation errors degrade to nil: a broken expression contributes
// empty searchable text rather than failing the whole filter run.
func (p *Program) Render(value any, record map[string]any) any {
	result, _, err := p.prg.Eval(map[string]any{
		"value":  value,
		"record": record,
	})
	if err != nil {
		return nil
	}
	return ToGo(result)
}

// Eval evaluates and surfaces the error, for callers that want to
// validate an expression against sample data.
func (p *Program) Eval(value any, record map[string]any) (any, error) {
	result, _, err := p.prg.Eval(map[string]any{
		"value":  value,
		"record": record,
	})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// ToGo converts CEL types to Go native types recursively, handling both
// primitive types and collection types (List, Map).
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	if valuer, ok := val.(interface{ Value() any }); ok {
		innerVal := valuer.Value()

		if refSlice, ok := innerVal.([]ref.Val); ok {
			result := make([]any, len(refSlice))
			for i, elem := range refSlice {
				result[i] = ToGo(elem)
			}
			return result
		}

		if slice, ok := innerVal.([]any); ok {
			result := make([]any, len(slice))
			for i, elem := range slice {
				if refVal, ok := elem.(ref.Val); ok {
					result[i] = ToGo(refVal)
				} else if elemMap, ok := elem.(map[string]any); ok {
					result[i] = convertMapValues(elemMap)
				} else {
					result[i] = elem
				}
			}
			return result
		}

		if m, ok := innerVal.(map[string]any); ok {
			return convertMapValues(m)
		}

		if m, ok := innerVal.(map[ref.Val]ref.Val); ok {
			result := make(map[string]any)
			for k, v := range m {
				keyStr := ""
				if keyVal, ok := k.(interface{ Value() any }); ok {
					keyStr = fmt.Sprintf("%v", keyVal.Value())
				} else {
					keyStr = fmt.Sprintf("%v", k)
				}
				result[keyStr] = ToGo(v)
			}
			return result
		}

		return innerVal
	}

	return val
}

// convertMapValues recursively converts map values from CEL types.
func convertMapValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if refVal, ok := v.(ref.Val); ok {
			result[k] = ToGo(refVal)
		} else if innerMap, ok := v.(map[string]any); ok {
			result[k] = convertMapValues(innerMap)
		} else if slice, ok := v.([]any); ok {
			converted := make([]any, len(slice))
			for i, elem := range slice {
				if refVal, ok := elem.(ref.Val); ok {
					converted[i] = ToGo(refVal)
				} else {
					converted[i] = elem
				}
			}
			result[k] = converted
		} else {
			result[k] = v
		}
	}
	return result
}
