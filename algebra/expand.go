// Package algebra rewrites expressions into expanded, factored and
// simplified forms.
//
// Every entry point takes a context and spends from its step budget, so a
// request that asks for (x+y)^60 or a degree-40 factorization fails with a
// ComputationTimeoutError instead of running unbounded.
package algebra

import (
	"context"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
)

// Expand distributes products over sums, multiplies out integer powers of
// sums, and expands function arguments. The bases of negative integer powers
// are expanded too. Expand is idempotent. A power of a sum above the
// MaxExpandPower limit is an ExpressionTooLargeError.
func Expand(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	x := &expander{ctx: ctx, maxPower: int64(budget.LimitsOf(ctx).MaxExpandPower)}
	return x.expand(e)
}

type expander struct {
	ctx      context.Context
	maxPower int64
}

func (x *expander) expand(e expr.Expr) (expr.Expr, error) {
	if err := budget.Spend(x.ctx, 1); err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *expr.Add, *expr.Func:
		return expr.MapErr(v, x.expand)
	case *expr.Mul:
		acc := []expr.Expr{expr.N(1)}
		for _, f := range v.Factors() {
			ef, err := x.expand(f)
			if err != nil {
				return nil, err
			}
			acc, err = x.distribute(acc, terms(ef))
			if err != nil {
				return nil, err
			}
		}
		return expr.AddOf(acc...), nil
	case *expr.Pow:
		base, err := x.expand(v.Base())
		if err != nil {
			return nil, err
		}
		exp, err := x.expand(v.Exp())
		if err != nil {
			return nil, err
		}
		if sum, ok := base.(*expr.Add); ok {
			if k, ok := intExp(exp); ok && (k >= 2 || k <= -2) {
				if abs(k) > x.maxPower {
					return nil, errs.New(errs.ExpressionTooLargeError,
						"power %d of a sum exceeds the expansion limit of %d", k, x.maxPower)
				}
				p, err := x.power(sum, abs(k))
				if err != nil {
					return nil, err
				}
				if k < 0 {
					return expr.InvOf(p), nil
				}
				return p, nil
			}
		}
		return expr.PowOf(base, exp), nil
	}
	return e, nil
}

// power multiplies out sum^k.
func (x *expander) power(sum *expr.Add, k int64) (expr.Expr, error) {
	acc := []expr.Expr{expr.N(1)}
	var err error
	for i := int64(0); i < k; i++ {
		acc, err = x.distribute(acc, sum.Terms())
		if err != nil {
			return nil, err
		}
	}
	return expr.AddOf(acc...), nil
}

// distribute returns the terms of (Σa)(Σb) with like terms collected.
func (x *expander) distribute(a, b []expr.Expr) ([]expr.Expr, error) {
	out := make([]expr.Expr, 0, len(a)*len(b))
	for _, s := range a {
		for _, t := range b {
			// One step per product; Spend also checks the deadline.
			if err := budget.Spend(x.ctx, 1); err != nil {
				return nil, err
			}
			p := expr.MulOf(s, t)
			if x.pending(p) {
				var err error
				if p, err = x.expand(p); err != nil {
					return nil, err
				}
			}
			out = append(out, p)
		}
	}
	return terms(expr.AddOf(out...)), nil
}

// pending reports whether a freshly built product still holds a sum that
// expand would multiply out.
func (x *expander) pending(e expr.Expr) bool {
	factors := []expr.Expr{e}
	if m, ok := e.(*expr.Mul); ok {
		factors = m.Factors()
	}
	for _, f := range factors {
		switch v := f.(type) {
		case *expr.Add:
			return true
		case *expr.Pow:
			if _, ok := v.Base().(*expr.Add); ok {
				if k, ok := intExp(v.Exp()); ok && (k >= 2 || k <= -2) {
					return true
				}
			}
		}
	}
	return false
}

func terms(e expr.Expr) []expr.Expr {
	if a, ok := e.(*expr.Add); ok {
		return a.Terms()
	}
	return []expr.Expr{e}
}

func intExp(e expr.Expr) (int64, bool) {
	n, ok := e.(*expr.Num)
	if !ok {
		return 0, false
	}
	return n.Int64()
}

func abs(k int64) int64 {
	if k < 0 {
		return -k
	}
	return k
}
