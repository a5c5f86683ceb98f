package algebra

import (
	"github.com/njchilds90/mathflow/expr"
)

// trigPass applies, bottom-up, the Pythagorean identities
// sin²u + cos²u = 1 and cosh²u - sinh²u = 1 inside sums, and the
// quotient and double-angle identities inside products.
func trigPass(e expr.Expr) expr.Expr {
	e = expr.Map(e, trigPass)
	switch v := e.(type) {
	case *expr.Add:
		return pythagorean(v)
	case *expr.Mul:
		return doubleAngle(quotients(v))
	}
	return e
}

// square is a term c * rest * f(arg)^2.
type square struct {
	fn    string
	arg   expr.Expr
	coeff *expr.Num
	rest  expr.Expr
}

func (s square) key() string { return s.arg.String() + "|" + s.rest.String() }

var squared = map[string]bool{"sin": true, "cos": true, "sinh": true, "cosh": true}

func splitSquare(t expr.Expr) (square, bool) {
	c, rest := expr.CoeffTerm(t)
	fs := []expr.Expr{rest}
	if m, ok := rest.(*expr.Mul); ok {
		fs = m.Factors()
	}
	for i, f := range fs {
		p, ok := f.(*expr.Pow)
		if !ok || !expr.IsNum(p.Exp(), 2) {
			continue
		}
		fn, ok := p.Base().(*expr.Func)
		if !ok || !squared[fn.Name()] {
			continue
		}
		others := append(append([]expr.Expr(nil), fs[:i]...), fs[i+1:]...)
		return square{fn: fn.Name(), arg: fn.Arg(), coeff: c, rest: expr.MulOf(others...)}, true
	}
	return square{}, false
}

// partner names the function paired with fn and the coefficient ratio the
// pair must have.
var partner = map[string]struct {
	fn   string
	sign int64
}{
	"sin":  {"cos", 1},
	"cos":  {"sin", 1},
	"cosh": {"sinh", -1},
}

func pythagorean(a *expr.Add) expr.Expr {
	ts := a.Terms()
	for i, ti := range ts {
		si, ok := splitSquare(ti)
		if !ok {
			continue
		}
		p, ok := partner[si.fn]
		if !ok {
			continue
		}
		for j, tj := range ts {
			if i == j {
				continue
			}
			sj, ok := splitSquare(tj)
			if !ok || sj.fn != p.fn || sj.key() != si.key() {
				continue
			}
			if !expr.MulOf(expr.N(p.sign), si.coeff).Equal(sj.coeff) {
				continue
			}
			out := []expr.Expr{expr.MulOf(si.coeff, si.rest)}
			for k, t := range ts {
				if k != i && k != j {
					out = append(out, t)
				}
			}
			return expr.AddOf(out...)
		}
	}
	return a
}

// quotients rewrites sin(u)^k cos(u)^-k as tan(u)^k, and cot for negative k.
func quotients(m *expr.Mul) expr.Expr {
	fs := m.Factors()
	for i, fi := range fs {
		bi, ki := expr.BaseExp(fi)
		si, ok := bi.(*expr.Func)
		if !ok || si.Name() != "sin" {
			continue
		}
		for j, fj := range fs {
			bj, kj := expr.BaseExp(fj)
			cj, ok := bj.(*expr.Func)
			if !ok || cj.Name() != "cos" || !cj.Arg().Equal(si.Arg()) {
				continue
			}
			if !expr.NegOf(kj).Equal(ki) {
				continue
			}
			var q expr.Expr
			if expr.NegativeLeading(ki) {
				q = expr.PowOf(expr.CotOf(si.Arg()), expr.NegOf(ki))
			} else {
				q = expr.PowOf(expr.TanOf(si.Arg()), ki)
			}
			out := []expr.Expr{q}
			for k, f := range fs {
				if k != i && k != j {
					out = append(out, f)
				}
			}
			return expr.MulOf(out...)
		}
	}
	return m
}

// doubleAngle rewrites 2 sin(u) cos(u) as sin(2u).
func doubleAngle(e expr.Expr) expr.Expr {
	m, ok := e.(*expr.Mul)
	if !ok {
		return e
	}
	c, _ := expr.CoeffTerm(m)
	if c.IsOne() || c.IsNegOne() {
		return m
	}
	fs := m.Factors()
	for i, fi := range fs {
		si, ok := fi.(*expr.Func)
		if !ok || si.Name() != "sin" {
			continue
		}
		for j, fj := range fs {
			cj, ok := fj.(*expr.Func)
			if !ok || cj.Name() != "cos" || !cj.Arg().Equal(si.Arg()) {
				continue
			}
			out := []expr.Expr{expr.F(1, 2), expr.SinOf(expr.MulOf(expr.N(2), si.Arg()))}
			for k, f := range fs {
				if k != i && k != j {
					out = append(out, f)
				}
			}
			return expr.MulOf(out...)
		}
	}
	return m
}
