package algebra

import (
	"github.com/njchilds90/mathflow/expr"
)

// logPass combines logarithms in sums, Σ k_i ln a_i = ln Π a_i^k_i, and
// pulls logarithms out of exponents, e^(u + k ln a) = a^k e^u. The reverse
// identities ln e^u = u and e^(ln u) = u are applied by the constructors.
func logPass(e expr.Expr) expr.Expr {
	e = expr.Map(e, logPass)
	switch v := e.(type) {
	case *expr.Add:
		return combineLogs(v)
	case *expr.Pow:
		if v.Base().Equal(expr.E) {
			return expLogs(v.Exp())
		}
	}
	return e
}

// lnTerm splits c * ln(a).
func lnTerm(t expr.Expr) (coeff, arg expr.Expr, ok bool) {
	c, rest := expr.CoeffTerm(t)
	f, isFunc := rest.(*expr.Func)
	if !isFunc || f.Name() != "ln" {
		return nil, nil, false
	}
	return c, f.Arg(), true
}

func combineLogs(a *expr.Add) expr.Expr {
	var args, others []expr.Expr
	for _, t := range a.Terms() {
		if c, arg, ok := lnTerm(t); ok {
			args = append(args, expr.PowOf(arg, c))
			continue
		}
		others = append(others, t)
	}
	if len(args) < 2 {
		return a
	}
	return expr.AddOf(append(others, expr.LnOf(expr.MulOf(args...)))...)
}

func expLogs(exp expr.Expr) expr.Expr {
	var factors, rest []expr.Expr
	for _, t := range terms(exp) {
		if c, arg, ok := lnTerm(t); ok {
			factors = append(factors, expr.PowOf(arg, c))
			continue
		}
		rest = append(rest, t)
	}
	return expr.MulOf(append(factors, expr.ExpOf(expr.AddOf(rest...)))...)
}
