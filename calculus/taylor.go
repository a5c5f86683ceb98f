package calculus

import (
	"context"
	"math/big"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
)

// Taylor returns Σ_{k<order} f^(k)(p)/k! (v - p)^k for f = e. A derivative
// that is undefined at p is replaced by its limit there.
func Taylor(ctx context.Context, e, v, point expr.Expr, order int) (expr.Expr, error) {
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	if max := budget.LimitsOf(ctx).MaxSeriesOrder; order <= 0 || order > max {
		return nil, errs.New(errs.RangeError, "series order must be between 1 and %d, got %d", max, order)
	}
	if _, inf := expr.IsInf(point); inf {
		return nil, errs.New(errs.RangeError, "expansion point must be finite, got %s", latex.Format(point))
	}
	shift := expr.MinusOf(x, point)
	fact := big.NewInt(1)
	d := e
	var terms []expr.Expr
	for k := 0; k < order; k++ {
		if k > 0 {
			if d, err = diff(d, x.Name()); err != nil {
				return nil, err
			}
			fact.Mul(fact, big.NewInt(int64(k)))
		}
		if err := budget.Spend(ctx, int64(expr.Size(d))); err != nil {
			return nil, err
		}
		c, ok := substitute(d, x.Name(), point)
		if !ok || expr.Contains(c, expr.Inf) {
			if c, err = Limit(ctx, d, x, point, TwoSided); err != nil {
				return nil, err
			}
			if _, inf := expr.IsInf(c); inf {
				return nil, errs.New(errs.LimitUndefinedError, "derivative %d of %s is unbounded at %s = %s",
					k, latex.Format(e), x.Name(), latex.Format(point))
			}
		}
		terms = append(terms, expr.MulOf(c, expr.InvOf(expr.I(fact)), expr.PowOf(shift, expr.N(int64(k)))))
	}
	return expr.AddOf(terms...), nil
}

// Remainder is the argument of the order term O((v - p)^order) that
// follows a Taylor polynomial.
func Remainder(v, point expr.Expr, order int) expr.Expr {
	return expr.PowOf(expr.MinusOf(v, point), expr.N(int64(order)))
}
