package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// NewExpressionEnv declares the variables an expression rule can read:
//
//	value      - the text being matched ("" when null)
//	is_null    - whether the matched value is null
//	name       - field name, property path, or "message"
//	submission - map with fields, message, duration (seconds), honeypot, device,
//	             platform, browser, has_utm_source, grade, ip_address and type
func NewExpressionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("value", cel.StringType),
		cel.Variable("is_null", cel.BoolType),
		cel.Variable("name", cel.StringType),
		cel.Variable("submission", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func compileExpression(env *cel.Env, expr string) (cel.Program, error) {
	ast, iss := env.Parse(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, checked.OutputType())
	}

	return env.Program(checked)
}
