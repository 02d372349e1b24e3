package bind

import (
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/esdl"
)

// evalExpr folds one restricted expression to a concrete value against the
// given scope. All folding happens at bind time; the interpreter never sees
// an expression.
func evalExpr(e esdl.Expr, scope config.Snapshot) (cty.Value, error) {
	switch e := e.(type) {
	case *esdl.Literal:
		return e.Value, nil

	case *esdl.Ref:
		v, ok := scope.Lookup(e.Name())
		if !ok {
			return cty.NilVal, &UnresolvedVariableError{Name: e.Name(), At: e.At}
		}
		return v, nil

	case *esdl.Unary:
		x, err := evalExpr(e.X, scope)
		if err != nil {
			return cty.NilVal, err
		}
		switch e.Op {
		case "-":
			if x.Type() != cty.Number {
				return cty.NilVal, bindErrf(e.At, "unary - needs a number, got %s", x.Type().FriendlyName())
			}
			return x.Negate(), nil
		case "not":
			if x.Type() != cty.Bool {
				return cty.NilVal, bindErrf(e.At, "not needs a boolean, got %s", x.Type().FriendlyName())
			}
			return x.Not(), nil
		}
		return cty.NilVal, bindErrf(e.At, "unknown unary operator %q", e.Op)

	case *esdl.Binary:
		l, err := evalExpr(e.L, scope)
		if err != nil {
			return cty.NilVal, err
		}
		r, err := evalExpr(e.R, scope)
		if err != nil {
			return cty.NilVal, err
		}
		return evalBinary(e, l, r)
	}
	return cty.NilVal, bindErrf(e.Pos(), "unsupported expression")
}

func evalBinary(e *esdl.Binary, l, r cty.Value) (cty.Value, error) {
	switch e.Op {
	case "==":
		return l.Equals(r), nil
	case "!=":
		return l.Equals(r).Not(), nil
	case "and", "or":
		if l.Type() != cty.Bool || r.Type() != cty.Bool {
			return cty.NilVal, bindErrf(e.At, "%s needs booleans", e.Op)
		}
		if e.Op == "and" {
			return l.And(r), nil
		}
		return l.Or(r), nil
	}

	// Everything below is numeric.
	if l.Type() != cty.Number || r.Type() != cty.Number {
		return cty.NilVal, bindErrf(e.At, "%s needs numbers, got %s and %s",
			e.Op, l.Type().FriendlyName(), r.Type().FriendlyName())
	}
	switch e.Op {
	case "+":
		return l.Add(r), nil
	case "-":
		return l.Subtract(r), nil
	case "*":
		return l.Multiply(r), nil
	case "/", "%":
		if r.Equals(cty.Zero).True() {
			return cty.NilVal, bindErrf(e.At, "division by zero")
		}
		if e.Op == "/" {
			return l.Divide(r), nil
		}
		return l.Modulo(r), nil
	case "^":
		lf, _ := l.AsBigFloat().Float64()
		rf, _ := r.AsBigFloat().Float64()
		return cty.NumberFloatVal(math.Pow(lf, rf)), nil
	case "<":
		return l.LessThan(r), nil
	case "<=":
		return l.LessThanOrEqualTo(r), nil
	case ">":
		return l.GreaterThan(r), nil
	case ">=":
		return l.GreaterThanOrEqualTo(r), nil
	}
	return cty.NilVal, bindErrf(e.At, "unknown operator %q", e.Op)
}

// evalCount folds a SELECT count expression to a concrete non-negative
// integer.
func evalCount(e esdl.Expr, scope config.Snapshot) (int, error) {
	v, err := evalExpr(e, scope)
	if err != nil {
		return 0, err
	}
	if v.Type() != cty.Number {
		return 0, bindErrf(e.Pos(), "SELECT count must be a number, got %s", v.Type().FriendlyName())
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, bindErrf(e.Pos(), "SELECT count must be an integer, got %s", bf.String())
	}
	n, _ := bf.Int64()
	if n < 0 {
		return 0, bindErrf(e.Pos(), "SELECT count must not be negative, got %d", n)
	}
	return int(n), nil
}
