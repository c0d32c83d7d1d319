package eval

import (
	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/pathexpr"
	"github.com/morph-lang/morph/internal/uv"
)

func (e *Evaluator) evalExpr(expr *ast.Expr, scope uv.Value) (uv.Value, error) {
	switch expr.Kind {
	case ast.ExprLiteral:
		return literalValue(expr), nil
	case ast.ExprPath:
		return e.evalPath(expr.Path, scope), nil
	case ast.ExprBinary:
		return e.evalBinary(expr, scope)
	case ast.ExprUnary:
		return e.evalUnary(expr, scope)
	case ast.ExprCall:
		return e.callFunction(expr, scope)
	case ast.ExprInterp:
		return e.evalInterp(expr, scope)
	case ast.ExprArray:
		out := make([]uv.Value, len(expr.Elements))
		for i := range expr.Elements {
			v, err := e.evalExpr(&expr.Elements[i], scope)
			if err != nil {
				return uv.Null, err
			}
			out[i] = v
		}
		return uv.NewArray(out), nil
	default:
		return uv.Null, simpleError("TypeError", "unhandled expression kind")
	}
}

func literalValue(expr *ast.Expr) uv.Value {
	switch expr.LitKind {
	case ast.LitNull:
		return uv.Null
	case ast.LitBool:
		return uv.NewBool(expr.Bool)
	case ast.LitInt:
		return uv.NewInt(expr.Int)
	case ast.LitFloat:
		return uv.NewFloat(expr.Float)
	default:
		return uv.NewString(expr.Str)
	}
}

func (e *Evaluator) evalPath(p *ast.Path, scope uv.Value) uv.Value {
	vals := pathexpr.Get(scope, *p)
	switch len(vals) {
	case 0:
		return uv.Null
	case 1:
		return vals[0]
	default:
		return uv.NewArray(vals)
	}
}

func (e *Evaluator) evalInterp(expr *ast.Expr, scope uv.Value) (uv.Value, error) {
	var b []byte
	for _, seg := range expr.Segments {
		if seg.Literal {
			b = append(b, seg.Text...)
			continue
		}
		v := e.evalPath(seg.Path, scope)
		s, _, err := uv.Cast(v, uv.KindString)
		if err != nil {
			return uv.Null, simpleError("CastError", "interpolation of %s: %v", seg.Path.String(), err)
		}
		b = append(b, s.Str...)
	}
	return uv.NewString(string(b)), nil
}

func (e *Evaluator) evalUnary(expr *ast.Expr, scope uv.Value) (uv.Value, error) {
	v, err := e.evalExpr(expr.Operand, scope)
	if err != nil {
		return uv.Null, err
	}
	switch expr.UnaryOp {
	case ast.OpNot:
		return uv.NewBool(!v.Truthy()), nil
	default: // OpNeg
		switch v.Kind {
		case uv.KindInt:
			return uv.NewInt(-v.Int), nil
		case uv.KindFloat:
			return uv.NewFloat(-v.Float), nil
		default:
			return uv.Null, simpleError("TypeError", "unary '-' requires a number, found %s", v.TypeOf())
		}
	}
}

func (e *Evaluator) evalBinary(expr *ast.Expr, scope uv.Value) (uv.Value, error) {
	if expr.BinOp == ast.OpAnd {
		left, err := e.evalExpr(expr.Left, scope)
		if err != nil {
			return uv.Null, err
		}
		if !left.Truthy() {
			return uv.NewBool(false), nil
		}
		right, err := e.evalExpr(expr.Right, scope)
		if err != nil {
			return uv.Null, err
		}
		return uv.NewBool(right.Truthy()), nil
	}
	if expr.BinOp == ast.OpOr {
		left, err := e.evalExpr(expr.Left, scope)
		if err != nil {
			return uv.Null, err
		}
		if left.Truthy() {
			return uv.NewBool(true), nil
		}
		right, err := e.evalExpr(expr.Right, scope)
		if err != nil {
			return uv.Null, err
		}
		return uv.NewBool(right.Truthy()), nil
	}

	left, err := e.evalExpr(expr.Left, scope)
	if err != nil {
		return uv.Null, err
	}
	right, err := e.evalExpr(expr.Right, scope)
	if err != nil {
		return uv.Null, err
	}

	switch expr.BinOp {
	case ast.OpEq:
		return uv.NewBool(uv.Equal(left, right)), nil
	case ast.OpNotEq:
		return uv.NewBool(!uv.Equal(left, right)), nil
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		cmp, ok := uv.Compare(left, right)
		if !ok {
			return uv.Null, simpleError("TypeError", "cannot compare %s and %s", left.TypeOf(), right.TypeOf())
		}
		switch expr.BinOp {
		case ast.OpLt:
			return uv.NewBool(cmp < 0), nil
		case ast.OpLtEq:
			return uv.NewBool(cmp <= 0), nil
		case ast.OpGt:
			return uv.NewBool(cmp > 0), nil
		default:
			return uv.NewBool(cmp >= 0), nil
		}
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arithmetic(expr.BinOp, left, right)
	default:
		return uv.Null, simpleError("TypeError", "unhandled operator")
	}
}

func arithmetic(op ast.BinOp, left, right uv.Value) (uv.Value, error) {
	if !isNumeric(left) || !isNumeric(right) {
		return uv.Null, simpleError("TypeError", "arithmetic requires numbers, found %s and %s", left.TypeOf(), right.TypeOf())
	}
	if left.Kind == uv.KindInt && right.Kind == uv.KindInt {
		a, b := left.Int, right.Int
		switch op {
		case ast.OpAdd:
			return uv.NewInt(a + b), nil
		case ast.OpSub:
			return uv.NewInt(a - b), nil
		case ast.OpMul:
			return uv.NewInt(a * b), nil
		case ast.OpDiv:
			if b == 0 {
				return uv.Null, simpleError("TypeError", "division by zero")
			}
			return uv.NewInt(a / b), nil
		default:
			if b == 0 {
				return uv.Null, simpleError("TypeError", "modulo by zero")
			}
			return uv.NewInt(a % b), nil
		}
	}
	a, b := asFloatVal(left), asFloatVal(right)
	switch op {
	case ast.OpAdd:
		return uv.NewFloat(a + b), nil
	case ast.OpSub:
		return uv.NewFloat(a - b), nil
	case ast.OpMul:
		return uv.NewFloat(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return uv.Null, simpleError("TypeError", "division by zero")
		}
		return uv.NewFloat(a / b), nil
	default:
		return uv.Null, simpleError("TypeError", "'%%' requires integer operands")
	}
}

func isNumeric(v uv.Value) bool { return v.Kind == uv.KindInt || v.Kind == uv.KindFloat }

func asFloatVal(v uv.Value) float64 {
	if v.Kind == uv.KindInt {
		return float64(v.Int)
	}
	return v.Float
}
