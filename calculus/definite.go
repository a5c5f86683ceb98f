package calculus

import (
	"context"
	"fmt"
	"math/big"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/latex"
	"github.com/njchilds90/mathflow/poly"
)

// Bound is one variable of integration with its limits.
type Bound struct {
	Var          expr.Expr
	Lower, Upper expr.Expr
}

// Definite integrates e over v from lower to upper as F(upper) - F(lower).
// A bound where F is undefined, or an infinite bound, is replaced by the
// one-sided limit of F there.
func Definite(ctx context.Context, e, v, lower, upper expr.Expr) (expr.Expr, error) {
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	if err := interiorPoles(ctx, e, x, lower, upper); err != nil {
		return nil, err
	}
	F, err := Integrate(ctx, e, x)
	if err != nil {
		return nil, err
	}
	upDir, loDir := FromBelow, FromAbove
	if lo, okLo := expr.Float(lower, nil); okLo {
		if hi, okHi := expr.Float(upper, nil); okHi && lo > hi {
			upDir, loDir = FromAbove, FromBelow
		}
	}
	hi, err := boundValue(ctx, F, x, upper, upDir)
	if err != nil {
		return nil, err
	}
	lo, err := boundValue(ctx, F, x, lower, loDir)
	if err != nil {
		return nil, err
	}
	r := expr.MinusOf(hi, lo)
	if expr.Undefined(r) {
		return nil, errs.New(errs.IntegrationUnsupportedError, "integral of %s from %s to %s diverges",
			latex.Format(e), latex.Format(lower), latex.Format(upper))
	}
	return r, nil
}

func boundValue(ctx context.Context, F expr.Expr, x *expr.Sym, b expr.Expr, dir Direction) (expr.Expr, error) {
	if _, inf := expr.IsInf(b); !inf {
		if s, ok := substitute(F, x.Name(), b); ok && !expr.Contains(s, expr.Inf) {
			return s, nil
		}
	}
	r, err := Limit(ctx, F, x, b, dir)
	if errs.Has(err, errs.LimitUndefinedError) {
		return nil, errs.Wrap(errs.IntegrationUnsupportedError, err, "antiderivative %s has no value at %s = %s",
			latex.Format(F), x.Name(), latex.Format(b))
	}
	return r, err
}

// interiorPoles rejects integrands whose denominator vanishes strictly
// inside numeric bounds.
func interiorPoles(ctx context.Context, e expr.Expr, x *expr.Sym, lower, upper expr.Expr) error {
	lo, okLo := expr.Float(lower, nil)
	hi, okHi := expr.Float(upper, nil)
	if !okLo || !okHi {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	_, den := algebra.NumerDenom(e)
	d, err := algebra.Expand(ctx, den)
	if err != nil {
		return err
	}
	p, ok := poly.FromExpr(d, x)
	if !ok || p.Degree() < 1 {
		return nil
	}
	_, factors, err := poly.Factorize(ctx, p)
	if err != nil {
		return err
	}
	for _, f := range factors {
		var roots []float64
		switch f.P.Degree() {
		case 1:
			r, _ := new(big.Rat).Quo(new(big.Rat).Neg(f.P.Coeff(0)), f.P.Coeff(1)).Float64()
			roots = []float64{r}
		case 2:
			m := f.P.Monic()
			roots = quadraticRoots(m.Coeff(1), m.Coeff(0))
		}
		for _, r := range roots {
			if lo < r && r < hi {
				return errs.New(errs.IntegrationUnsupportedError, "integrand %s has a pole at %s = %s inside the interval",
					latex.Format(e), x.Name(), formatRoot(r))
			}
		}
	}
	return nil
}

func formatRoot(r float64) string {
	return fmt.Sprintf("%g", r)
}

// Multiple integrates e over each bound in turn, the first bound innermost.
// Inner bounds may mention outer variables.
func Multiple(ctx context.Context, e expr.Expr, bounds []Bound) (expr.Expr, error) {
	if len(bounds) == 0 {
		return nil, errs.New(errs.RangeError, "multiple integral needs at least one variable")
	}
	cur := e
	for i, b := range bounds {
		r, err := Definite(ctx, cur, b.Var, b.Lower, b.Upper)
		if err != nil {
			return nil, fmt.Errorf("integral %d of %d over %s: %w", i+1, len(bounds), b.Var, err)
		}
		if cur, err = algebra.Expand(ctx, r); err != nil {
			return nil, err
		}
	}
	return cur, nil
}
