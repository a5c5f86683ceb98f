// Package discrete evaluates sums and products of an expression over an
// inclusive integer range.
//
// Concrete ranges with at most MaxTerms terms are accumulated term by term.
// Symbolic or longer ranges go through the closed forms in sum.go and
// product.go; an infinite upper bound takes the limit of the closed form.
package discrete

import (
	"context"
	"math/big"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/calculus"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
)

// endVar stands for an infinite upper bound while the closed form is built.
const endVar = "_n"

// Sum returns Σ_{v=start}^{end} e.
func Sum(ctx context.Context, e, v, start, end expr.Expr) (expr.Expr, error) {
	return run(ctx, &op{name: "sum", identity: expr.N(0), combine: expr.AddOf, closed: sumClosed}, e, v, start, end)
}

// Product returns Π_{v=start}^{end} e.
func Product(ctx context.Context, e, v, start, end expr.Expr) (expr.Expr, error) {
	return run(ctx, &op{name: "product", identity: expr.N(1), combine: expr.MulOf, closed: productClosed}, e, v, start, end)
}

type op struct {
	name     string
	identity expr.Expr
	combine  func(...expr.Expr) expr.Expr
	closed   func(r *rng, e expr.Expr) (expr.Expr, error)
}

// rng is a range of the bound variable with a finite upper end.
type rng struct {
	ctx        context.Context
	v          *expr.Sym
	start, end expr.Expr
}

// count is the number of terms, end - start + 1.
func (r *rng) count() expr.Expr {
	return expr.AddOf(r.end, expr.NegOf(r.start), expr.N(1))
}

func unavailable(kind string, e expr.Expr) error {
	return errs.New(errs.ClosedFormUnavailableError, "no closed form for the %s of %s", kind, latex.Format(e))
}

func run(ctx context.Context, o *op, e, v, start, end expr.Expr) (expr.Expr, error) {
	x, ok := v.(*expr.Sym)
	if !ok {
		return nil, errs.New(errs.UnsupportedOperationError, "%s variable must be a symbol, got %s", o.name, v)
	}
	if err := checkBound("lower", start, x, false); err != nil {
		return nil, err
	}
	if err := checkBound("upper", end, x, true); err != nil {
		return nil, err
	}

	lo, loOK := integer(start)
	hi, hiOK := integer(end)
	if loOK && hiOK {
		n := new(big.Int).Sub(hi, lo)
		n.Add(n, big.NewInt(1))
		switch {
		case n.Sign() < 0:
			return nil, errs.New(errs.RangeError, "%s range is inverted: %s to %s", o.name, lo, hi)
		case n.Sign() == 0:
			return o.identity, nil
		case n.IsInt64() && n.Int64() <= int64(budget.LimitsOf(ctx).MaxTerms):
			return accumulate(ctx, o, e, x, lo, n.Int64())
		}
	}

	r := &rng{ctx: ctx, v: x, start: start, end: end}
	_, infinite := expr.IsInf(end)
	if infinite {
		r.end = expr.S(endVar)
	}
	c, err := o.closed(r, e)
	if err != nil {
		return nil, err
	}
	if infinite {
		c, err = calculus.Limit(ctx, c, r.end, expr.Inf, calculus.TwoSided)
		if errs.Has(err, errs.LimitUndefinedError) {
			return nil, errs.Wrap(errs.ClosedFormUnavailableError, err, "infinite %s of %s does not converge",
				o.name, latex.Format(e))
		}
		if err != nil {
			return nil, err
		}
	}
	return algebra.Simplify(ctx, c)
}

// checkBound rejects bounds that are numeric but not integers, infinite
// where not allowed, or that mention the bound variable.
func checkBound(which string, b expr.Expr, x *expr.Sym, upper bool) error {
	if sign, inf := expr.IsInf(b); inf {
		if upper && sign > 0 {
			return nil
		}
		return errs.New(errs.RangeError, "%s bound cannot be %s", which, latex.Format(b))
	}
	if expr.Has(b, x.Name()) {
		return errs.New(errs.RangeError, "%s bound %s mentions the variable %s", which, latex.Format(b), x.Name())
	}
	if !expr.IsConstant(b) {
		return nil
	}
	if _, ok := integer(b); !ok {
		return errs.New(errs.RangeError, "%s bound must be an integer, got %s", which, latex.Format(b))
	}
	return nil
}

func integer(e expr.Expr) (*big.Int, bool) {
	n, ok := e.(*expr.Num)
	if !ok || !n.IsInteger() {
		return nil, false
	}
	return n.Numer(), true
}

func accumulate(ctx context.Context, o *op, e expr.Expr, x *expr.Sym, lo *big.Int, n int64) (expr.Expr, error) {
	terms := make([]expr.Expr, 0, n)
	i := new(big.Int).Set(lo)
	for k := int64(0); k < n; k++ {
		if err := budget.Spend(ctx, 1); err != nil {
			return nil, err
		}
		t := e.Sub(x.Name(), expr.I(i))
		if expr.Undefined(t) {
			return nil, errs.New(errs.RangeError, "%s is undefined at %s = %s", latex.Format(e), x.Name(), i)
		}
		terms = append(terms, t)
		i.Add(i, big.NewInt(1))
	}
	return o.combine(terms...), nil
}
