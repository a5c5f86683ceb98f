package poly

import (
	"math/big"

	"github.com/njchilds90/mathflow/expr"
)

// FromExpr reads e as a polynomial in gen with rational coefficients.
func FromExpr(e, gen expr.Expr) (Poly, bool) {
	if e.Equal(gen) {
		return X(), true
	}
	switch v := e.(type) {
	case *expr.Num:
		return Const(v.Rat()), true
	case *expr.Add:
		acc := Poly{}
		for _, t := range v.Terms() {
			p, ok := FromExpr(t, gen)
			if !ok {
				return Poly{}, false
			}
			acc = Add(acc, p)
		}
		return acc, true
	case *expr.Mul:
		acc := FromInts(1)
		for _, f := range v.Factors() {
			p, ok := FromExpr(f, gen)
			if !ok {
				return Poly{}, false
			}
			acc = Mul(acc, p)
		}
		return acc, true
	case *expr.Pow:
		n, ok := v.Exp().(*expr.Num)
		if !ok {
			return Poly{}, false
		}
		k, isInt := n.Int64()
		if !isInt || k < 0 || k > 1000 {
			return Poly{}, false
		}
		b, ok := FromExpr(v.Base(), gen)
		if !ok {
			return Poly{}, false
		}
		return b.Pow(int(k)), true
	}
	return Poly{}, false
}

// Expr renders p as an expression in gen.
func (p Poly) Expr(gen expr.Expr) expr.Expr {
	terms := make([]expr.Expr, 0, len(p.c))
	for i, c := range p.c {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, expr.MulOf(expr.R(c), expr.PowOf(gen, expr.N(int64(i)))))
	}
	return expr.AddOf(terms...)
}

// Generators returns the distinct atoms of e when e is read as a polynomial:
// symbols, constants, function applications and non-integer powers.
func Generators(e expr.Expr) []expr.Expr {
	var out []expr.Expr
	seen := map[string]bool{}
	var visit func(expr.Expr)
	add := func(g expr.Expr) {
		if k := g.String(); !seen[k] {
			seen[k] = true
			out = append(out, g)
		}
	}
	visit = func(n expr.Expr) {
		switch v := n.(type) {
		case *expr.Num:
		case *expr.Add, *expr.Mul:
			for _, c := range expr.Args(v) {
				visit(c)
			}
		case *expr.Pow:
			if k, ok := v.Exp().(*expr.Num); ok && k.IsInteger() {
				visit(v.Base())
				return
			}
			add(v)
		default:
			add(n)
		}
	}
	visit(e)
	return out
}

// Coeffs reads e as a polynomial in gen whose coefficients are expressions
// free of gen. It returns the coefficients in ascending order.
func Coeffs(e, gen expr.Expr) ([]expr.Expr, bool) {
	if e.Equal(gen) {
		return []expr.Expr{expr.N(0), expr.N(1)}, true
	}
	if !expr.Contains(e, gen) {
		return trimCoeffs([]expr.Expr{e}), true
	}
	switch v := e.(type) {
	case *expr.Add:
		var acc []expr.Expr
		for _, t := range v.Terms() {
			c, ok := Coeffs(t, gen)
			if !ok {
				return nil, false
			}
			acc = addCoeffs(acc, c)
		}
		return acc, true
	case *expr.Mul:
		acc := []expr.Expr{expr.N(1)}
		for _, f := range v.Factors() {
			c, ok := Coeffs(f, gen)
			if !ok {
				return nil, false
			}
			acc = mulCoeffs(acc, c)
		}
		return acc, true
	case *expr.Pow:
		n, ok := v.Exp().(*expr.Num)
		if !ok {
			return nil, false
		}
		k, isInt := n.Int64()
		if !isInt || k < 0 || k > 64 {
			return nil, false
		}
		b, ok := Coeffs(v.Base(), gen)
		if !ok {
			return nil, false
		}
		acc := []expr.Expr{expr.N(1)}
		for i := int64(0); i < k; i++ {
			acc = mulCoeffs(acc, b)
		}
		return acc, true
	}
	return nil, false
}

func addCoeffs(a, b []expr.Expr) []expr.Expr {
	n := max(len(a), len(b))
	out := make([]expr.Expr, n)
	for i := range out {
		var x, y expr.Expr = expr.N(0), expr.N(0)
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = expr.AddOf(x, y)
	}
	return trimCoeffs(out)
}

func mulCoeffs(a, b []expr.Expr) []expr.Expr {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]expr.Expr, len(a)+len(b)-1)
	for i := range out {
		out[i] = expr.N(0)
	}
	for i, x := range a {
		for j, y := range b {
			out[i+j] = expr.AddOf(out[i+j], expr.MulOf(x, y))
		}
	}
	return trimCoeffs(out)
}

func trimCoeffs(c []expr.Expr) []expr.Expr {
	n := len(c)
	for n > 0 && expr.IsNum(c[n-1], 0) {
		n--
	}
	return c[:n]
}

// RatCoeffs converts expression coefficients to rationals when all of them
// are numbers.
func RatCoeffs(cs []expr.Expr) (Poly, bool) {
	rs := make([]*big.Rat, len(cs))
	for i, c := range cs {
		r, ok := expr.AsRat(c)
		if !ok {
			return Poly{}, false
		}
		rs[i] = r
	}
	return New(rs...), true
}
