package queuestore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// inputFilter wraps a compiled CEL program evaluated against submitted job
// input. When disabled, Eval always returns true.
type inputFilter struct {
	prog    cel.Program
	enabled bool
}

func newInputFilter(expr string) (inputFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return inputFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		// Parsed job input (map/list/scalar, or null when absent)
		cel.Variable("input", cel.DynType),
		cel.Variable("text", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("queue", cel.StringType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return inputFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return inputFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return inputFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return inputFilter{}, err
	}
	return inputFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a job's input bytes. When
// disabled, returns true. Evaluation errors reject the input.
func (f inputFilter) Eval(queue string, input []byte) bool {
	if !f.enabled {
		return true
	}
	var inputObj any
	_ = json.Unmarshal(input, &inputObj)
	out, _, err := f.prog.Eval(map[string]any{
		"input":  inputObj,
		"text":   string(input),
		"size":   int64(len(input)),
		"queue":  queue,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
