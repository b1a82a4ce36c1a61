package eval

import (
	"log/slog"
	"math"

	"github.com/expr-lang/expr/ast"
)

// divisionPatcher rewrites "/" and "%" into calls of div and mod so that
// integer division truncates and a zero divisor is reported as
// ErrDivisionByZero instead of producing Inf or a runtime panic.
type divisionPatcher struct{}

// Visit implements ast.Visitor for divisionPatcher.
func (divisionPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}

	var callee string

	switch bin.Operator {
	case "/":
		callee = callDivide
	case "%":
		callee = callModulus
	default:
		return
	}

	ast.Patch(node, &ast.CallNode{
		Callee: &ast.IdentifierNode{Value: callee},
		Arguments: []ast.Node{
			&ast.IdentifierNode{Value: envFuncs},
			bin.Left,
			bin.Right,
		},
	})
}

func divide(params ...any) (any, error) {
	t, l, r := params[0].(*table), params[1], params[2]

	if li, ok := toInt(l); ok {
		if ri, ok := toInt(r); ok {
			if ri == 0 {
				return nil, t.fail(ErrDivisionByZero.With(slog.Int64("dividend", li)))
			}

			return li / ri, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)

	if !lok || !rok {
		return nil, t.fail(ErrTypeMismatch.With(slog.String("operator", "/")))
	}

	if rf == 0 {
		return nil, t.fail(ErrDivisionByZero.With(slog.Float64("dividend", lf)))
	}

	return lf / rf, nil
}

func modulus(params ...any) (any, error) {
	t, l, r := params[0].(*table), params[1], params[2]

	if li, ok := toInt(l); ok {
		if ri, ok := toInt(r); ok {
			if ri == 0 {
				return nil, t.fail(ErrDivisionByZero.With(slog.Int64("dividend", li)))
			}

			return li % ri, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)

	if !lok || !rok {
		return nil, t.fail(ErrTypeMismatch.With(slog.String("operator", "%")))
	}

	if rf == 0 {
		return nil, t.fail(ErrDivisionByZero.With(slog.Float64("dividend", lf)))
	}

	return math.Mod(lf, rf), nil
}
