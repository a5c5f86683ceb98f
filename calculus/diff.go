// Package calculus differentiates, integrates and takes limits and Taylor
// expansions of expression trees.
package calculus

import (
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
)

// variable checks that v names a symbol and returns it.
func variable(v expr.Expr) (*expr.Sym, error) {
	s, ok := v.(*expr.Sym)
	if !ok {
		return nil, errs.New(errs.UnsupportedOperationError, "variable must be a symbol, got %s", v)
	}
	return s, nil
}

// Diff differentiates e with respect to the symbol v.
func Diff(e, v expr.Expr) (expr.Expr, error) {
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	return diff(e, x.Name())
}

// DiffN returns the n-th derivative of e with respect to v.
func DiffN(e, v expr.Expr, n int) (expr.Expr, error) {
	if n < 0 {
		return nil, errs.New(errs.RangeError, "derivative order must be non-negative, got %d", n)
	}
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if e, err = diff(e, x.Name()); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Partial differentiates e with respect to each of vars in turn.
func Partial(e expr.Expr, vars ...expr.Expr) (expr.Expr, error) {
	if len(vars) == 0 {
		return nil, errs.New(errs.RangeError, "partial derivative needs at least one variable")
	}
	var err error
	for _, v := range vars {
		if e, err = Diff(e, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func diff(e expr.Expr, x string) (expr.Expr, error) {
	if !expr.Has(e, x) {
		return expr.N(0), nil
	}
	switch v := e.(type) {
	case *expr.Sym:
		return expr.N(1), nil

	case *expr.Add:
		ts := v.Terms()
		out := make([]expr.Expr, len(ts))
		for i, t := range ts {
			d, err := diff(t, x)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return expr.AddOf(out...), nil

	case *expr.Mul:
		fs := v.Factors()
		var out []expr.Expr
		for i, f := range fs {
			if !expr.Has(f, x) {
				continue
			}
			d, err := diff(f, x)
			if err != nil {
				return nil, err
			}
			term := append(append([]expr.Expr{d}, fs[:i]...), fs[i+1:]...)
			out = append(out, expr.MulOf(term...))
		}
		return expr.AddOf(out...), nil

	case *expr.Pow:
		b, k := v.Base(), v.Exp()
		if !expr.Has(k, x) {
			db, err := diff(b, x)
			if err != nil {
				return nil, err
			}
			km1 := expr.AddOf(k, expr.N(-1))
			return expr.MulOf(k, expr.PowOf(b, km1), db), nil
		}
		dk, err := diff(k, x)
		if err != nil {
			return nil, err
		}
		if !expr.Has(b, x) {
			return expr.MulOf(v, expr.LnOf(b), dk), nil
		}
		// d(b^k) = b^k (k' ln b + k b'/b)
		db, err := diff(b, x)
		if err != nil {
			return nil, err
		}
		return expr.MulOf(v, expr.AddOf(
			expr.MulOf(dk, expr.LnOf(b)),
			expr.MulOf(k, db, expr.InvOf(b)),
		)), nil

	case *expr.Func:
		args := v.Args()
		if len(args) != 1 {
			return nil, errs.New(errs.UnsupportedOperationError, "cannot differentiate %s", v)
		}
		u := args[0]
		outer, ok := derivative(v.Name(), u)
		if !ok {
			return nil, errs.New(errs.UnsupportedOperationError, "cannot differentiate %s", v)
		}
		du, err := diff(u, x)
		if err != nil {
			return nil, err
		}
		return expr.MulOf(outer, du), nil
	}
	return nil, errs.New(errs.UnsupportedOperationError, "cannot differentiate %s", e)
}

// derivative returns f'(u) for the elementary function f.
func derivative(name string, u expr.Expr) (expr.Expr, bool) {
	one := expr.N(1)
	switch name {
	case "sin":
		return expr.CosOf(u), true
	case "cos":
		return expr.NegOf(expr.SinOf(u)), true
	case "tan":
		return expr.PowOf(expr.SecOf(u), expr.N(2)), true
	case "cot":
		return expr.NegOf(expr.PowOf(expr.CscOf(u), expr.N(2))), true
	case "sec":
		return expr.MulOf(expr.SecOf(u), expr.TanOf(u)), true
	case "csc":
		return expr.NegOf(expr.MulOf(expr.CscOf(u), expr.CotOf(u))), true
	case "asin":
		return expr.PowOf(expr.MinusOf(one, expr.PowOf(u, expr.N(2))), expr.F(-1, 2)), true
	case "acos":
		return expr.NegOf(expr.PowOf(expr.MinusOf(one, expr.PowOf(u, expr.N(2))), expr.F(-1, 2))), true
	case "atan":
		return expr.InvOf(expr.AddOf(one, expr.PowOf(u, expr.N(2)))), true
	case "sinh":
		return expr.CoshOf(u), true
	case "cosh":
		return expr.SinhOf(u), true
	case "tanh":
		return expr.MinusOf(one, expr.PowOf(expr.TanhOf(u), expr.N(2))), true
	case "ln":
		return expr.InvOf(u), true
	case "abs":
		return expr.MulOf(u, expr.InvOf(expr.AbsOf(u))), true
	}
	return nil, false
}
