package discrete

import (
	"math/big"

	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/poly"
)

// productClosed handles constants, products of factors, powers with
// constant exponent, linear factors a v + b with b/a an integer, and
// r^f(v) through the sum of the exponents.
func productClosed(r *rng, e expr.Expr) (expr.Expr, error) {
	if err := budget.Spend(r.ctx, 1); err != nil {
		return nil, err
	}
	x := r.v.Name()
	if !expr.Has(e, x) {
		if expr.IsNum(e, 0) || expr.IsNum(e, 1) {
			return e, nil
		}
		return expr.PowOf(e, r.count()), nil
	}
	switch v := e.(type) {
	case *expr.Mul:
		fs := v.Factors()
		out := make([]expr.Expr, len(fs))
		for i, f := range fs {
			p, err := productClosed(r, f)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return expr.MulOf(out...), nil

	case *expr.Pow:
		b, k := v.Base(), v.Exp()
		if !expr.Has(k, x) {
			p, err := productClosed(r, b)
			if err != nil {
				return nil, err
			}
			return expr.PowOf(p, k), nil
		}
		if !expr.Has(b, x) {
			s, err := sumClosed(r, k)
			if err != nil {
				return nil, err
			}
			return expr.PowOf(b, s), nil
		}
	}
	if p, ok := r.rising(e); ok {
		return p, nil
	}
	return nil, unavailable("product", e)
}

// rising computes Π (a v + b) = a^count (end + c)! / (start + c - 1)! for
// c = b/a an integer.
func (r *rng) rising(e expr.Expr) (expr.Expr, bool) {
	p, ok := poly.FromExpr(e, r.v)
	if !ok || p.Degree() != 1 {
		return nil, false
	}
	a := p.Coeff(1)
	c := new(big.Rat).Quo(p.Coeff(0), a)
	if !c.IsInt() {
		return nil, false
	}
	shift := expr.R(c)
	below := expr.AddOf(r.start, shift, expr.N(-1))
	if n, ok := below.(*expr.Num); ok && n.IsNegative() {
		// The range may pass through the zero factor.
		return nil, false
	}
	top := expr.FactorialOf(expr.AddOf(r.end, shift))
	bottom := expr.FactorialOf(below)
	return expr.MulOf(expr.PowOf(expr.R(a), r.count()), top, expr.InvOf(bottom)), true
}
