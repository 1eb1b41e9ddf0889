package pipeline

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// celProgram adapts a compiled CEL program to the narrow CELProgram
// interface conditional.go depends on, keeping cel-go's richer types out
// of this package's public surface.
type celProgram struct {
	prg cel.Program
}

func (p *celProgram) Eval(vars map[string]any) (bool, error) {
	out, _, err := p.prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("if expression did not evaluate to a bool: %v", out.Value())
	}
	return b, nil
}

// CELVariables are the request attributes every <If> guard may reference,
// bound as CEL string/map variables rather than a single opaque request
// object so guard expressions stay simple ("method == 'GET'") the way
// ap_if_walk's embedded expression parser's variables do.
var CELVariables = []cel.EnvOption{
	cel.Variable("path", cel.StringType),
	cel.Variable("method", cel.StringType),
	cel.Variable("query", cel.StringType),
	cel.Variable("remote_ip", cel.StringType),
	cel.Variable("header", cel.MapType(cel.StringType, cel.StringType)),
}

// CompileIf compiles an <If> guard expression once at config-load time,
// the way the rest of the pack precompiles request matchers instead of
// re-parsing on every request.
func CompileIf(expr string) (CELProgram, error) {
	opts := append(append([]cel.EnvOption{}, CELVariables...), ext.Strings())
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("building cel environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling if expression %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building cel program for %q: %w", expr, err)
	}
	return &celProgram{prg: prg}, nil
}
