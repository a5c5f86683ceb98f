package algebra

import (
	"context"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
)

// maxRounds caps the number of full simplification rounds.
const maxRounds = 8

// Simplify searches a fixed set of rewrites for the smallest equivalent
// form. Each round simplifies function arguments, then scores the current
// tree against its trigonometric, logarithmic, cancelled, expanded and
// factored rewrites by node count, keeping the first smallest. Rounds
// repeat until nothing changes.
func Simplify(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	cur := rebuild(e)
	for i := 0; i < maxRounds; i++ {
		next, err := simplifyOnce(ctx, cur)
		if err != nil {
			return nil, err
		}
		if next.Equal(cur) {
			break
		}
		cur = next
	}
	return cur, nil
}

// rebuild reconstructs e through the constructors.
func rebuild(e expr.Expr) expr.Expr {
	return expr.Map(e, rebuild)
}

func simplifyOnce(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	if err := budget.Spend(ctx, 1); err != nil {
		return nil, err
	}
	e, err := simplifyArgs(ctx, e)
	if err != nil {
		return nil, err
	}
	if len(expr.FreeSymbols(e)) == 0 && expr.Size(e) == 1 {
		return e, nil
	}

	best, cost := e, Cost(e)
	consider := func(c expr.Expr) {
		if k := Cost(c); k < cost {
			best, cost = c, k
		}
	}
	consider(trigPass(e))
	consider(logPass(e))
	for _, pass := range []func(context.Context, expr.Expr) (expr.Expr, error){Cancel, Expand, Factor} {
		c, err := pass(ctx, e)
		if errs.Has(err, errs.ExpressionTooLargeError) {
			continue
		}
		if err != nil {
			return nil, err
		}
		consider(c)
		if c2 := trigPass(c); !c2.Equal(c) {
			consider(c2)
		}
	}
	return best, nil
}

// simplifyArgs simplifies the argument of every function application.
func simplifyArgs(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	if f, ok := e.(*expr.Func); ok {
		args := f.Args()
		for i, a := range args {
			s, err := Simplify(ctx, a)
			if err != nil {
				return nil, err
			}
			args[i] = s
		}
		return expr.FuncOf(f.Name(), args...), nil
	}
	return expr.MapErr(e, func(c expr.Expr) (expr.Expr, error) { return simplifyArgs(ctx, c) })
}

// Cost is the node count used to compare candidate forms.
func Cost(e expr.Expr) int { return expr.Size(e) }
