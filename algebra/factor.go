package algebra

import (
	"context"
	"math/big"

	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/poly"
)

// Factor writes e as a product of irreducible factors over the rationals.
//
// Polynomials in a single generator (a symbol, or an opaque atom such as
// sin x) are factored completely. Polynomials in several generators have
// their numeric content and common monomial pulled out, and two-generator
// homogeneous remainders are factored through dehomogenization. Rational
// functions have numerator and denominator factored separately, so common
// factors cancel. Without a nontrivial factorization the expanded input is
// returned.
func Factor(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	num, den := NumerDenom(e)
	fn, err := factorPoly(ctx, num)
	if err != nil {
		return nil, err
	}
	if expr.IsNum(den, 1) {
		return fn, nil
	}
	fd, err := factorPoly(ctx, den)
	if err != nil {
		return nil, err
	}
	return expr.DivOf(fn, fd), nil
}

func factorPoly(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	ex, err := Expand(ctx, e)
	if err != nil {
		return nil, err
	}
	sum, ok := ex.(*expr.Add)
	if !ok {
		return ex, nil
	}
	gens := poly.Generators(sum)
	if len(gens) == 1 {
		return factorUnivariate(ctx, sum, gens[0])
	}
	return factorMultivariate(ctx, sum, gens)
}

func factorUnivariate(ctx context.Context, e, gen expr.Expr) (expr.Expr, error) {
	p, ok := poly.FromExpr(e, gen)
	if !ok {
		return e, nil
	}
	content, factors, err := poly.Factorize(ctx, p)
	if err != nil {
		return nil, err
	}
	parts := []expr.Expr{expr.R(content)}
	for _, f := range factors {
		parts = append(parts, expr.PowOf(f.P.Expr(gen), expr.N(int64(f.Mult))))
	}
	return expr.MulOf(parts...), nil
}

// monomial is a term c * Π gen_i^k_i over known generators.
type monomial struct {
	coeff *big.Rat
	exps  map[string]*big.Rat
}

func splitMonomial(t expr.Expr, gens map[string]expr.Expr) (monomial, bool) {
	c, rest := expr.CoeffTerm(t)
	m := monomial{coeff: c.Rat(), exps: map[string]*big.Rat{}}
	fs := []expr.Expr{rest}
	if rm, ok := rest.(*expr.Mul); ok {
		fs = rm.Factors()
	}
	for _, f := range fs {
		if expr.IsNum(f, 1) {
			continue
		}
		if _, ok := gens[f.String()]; ok {
			m.exps[f.String()] = big.NewRat(1, 1)
			continue
		}
		base, exp := expr.BaseExp(f)
		k, ok := expr.AsRat(exp)
		if _, known := gens[base.String()]; !ok || !known || !k.IsInt() {
			return monomial{}, false
		}
		m.exps[base.String()] = k
	}
	return m, true
}

func (m monomial) degree() *big.Rat {
	d := new(big.Rat)
	for _, k := range m.exps {
		d.Add(d, k)
	}
	return d
}

func factorMultivariate(ctx context.Context, sum *expr.Add, gens []expr.Expr) (expr.Expr, error) {
	byKey := make(map[string]expr.Expr, len(gens))
	for _, g := range gens {
		byKey[g.String()] = g
	}
	ts := sum.Terms()
	ms := make([]monomial, len(ts))
	for i, t := range ts {
		m, ok := splitMonomial(t, byKey)
		if !ok {
			return sum, nil
		}
		ms[i] = m
	}

	// Content: gcd of numerators over lcm of denominators, signed so the
	// term of highest degree is positive.
	num, den := new(big.Int), big.NewInt(1)
	lead := 0
	for i, m := range ms {
		num.GCD(nil, nil, num, new(big.Int).Abs(m.coeff.Num()))
		g := new(big.Int).GCD(nil, nil, den, m.coeff.Denom())
		den.Mul(den, new(big.Int).Quo(m.coeff.Denom(), g))
		if m.degree().Cmp(ms[lead].degree()) > 0 {
			lead = i
		}
	}
	content := new(big.Rat).SetFrac(num, den)
	if ms[lead].coeff.Sign() < 0 {
		content.Neg(content)
	}

	common := []expr.Expr{expr.R(content)}
	for _, g := range gens {
		k := g.String()
		var low *big.Rat
		for _, m := range ms {
			e, ok := m.exps[k]
			if !ok {
				e = new(big.Rat)
			}
			if low == nil || e.Cmp(low) < 0 {
				low = e
			}
		}
		if low.Sign() > 0 {
			common = append(common, expr.PowOf(g, expr.R(low)))
		}
	}
	c := expr.MulOf(common...)
	inv := expr.InvOf(c)
	rest := make([]expr.Expr, len(ts))
	for i, t := range ts {
		rest[i] = expr.MulOf(t, inv)
	}
	rem := expr.AddOf(rest...)

	if sum, ok := rem.(*expr.Add); ok {
		switch rg := poly.Generators(sum); len(rg) {
		case 1:
			f, err := factorUnivariate(ctx, sum, rg[0])
			if err != nil {
				return nil, err
			}
			rem = f
		case 2:
			f, ok, err := factorHomogeneous(ctx, sum, rg[0], rg[1])
			if err != nil {
				return nil, err
			}
			if ok {
				rem = f
			}
		}
	}
	return expr.MulOf(c, rem), nil
}

// factorHomogeneous factors a form in x and y of uniform total degree d by
// factoring p(t) = f(t, 1) and rehomogenizing each factor.
func factorHomogeneous(ctx context.Context, sum *expr.Add, x, y expr.Expr) (expr.Expr, bool, error) {
	byKey := map[string]expr.Expr{x.String(): x, y.String(): y}
	d := -1
	coeffs := map[int]*big.Rat{}
	for _, t := range sum.Terms() {
		m, ok := splitMonomial(t, byKey)
		if !ok {
			return nil, false, nil
		}
		deg := m.degree()
		if !deg.IsInt() || (d >= 0 && deg.Num().Int64() != int64(d)) {
			return nil, false, nil
		}
		d = int(deg.Num().Int64())
		kx := 0
		if e, ok := m.exps[x.String()]; ok {
			kx = int(e.Num().Int64())
		}
		coeffs[kx] = m.coeff
	}
	cs := make([]*big.Rat, d+1)
	for i := range cs {
		cs[i] = new(big.Rat)
		if c, ok := coeffs[i]; ok {
			cs[i] = c
		}
	}
	p := poly.New(cs...)
	content, factors, err := poly.Factorize(ctx, p)
	if err != nil {
		return nil, false, err
	}
	if len(factors) == 1 && factors[0].Mult == 1 && p.Degree() == d {
		return nil, false, nil
	}
	parts := []expr.Expr{expr.R(content), expr.PowOf(y, expr.N(int64(d-p.Degree())))}
	for _, f := range factors {
		k := f.P.Degree()
		var ts []expr.Expr
		for j := 0; j <= k; j++ {
			cj := f.P.Coeff(j)
			if cj.Sign() == 0 {
				continue
			}
			ts = append(ts, expr.MulOf(expr.R(cj), expr.PowOf(x, expr.N(int64(j))), expr.PowOf(y, expr.N(int64(k-j)))))
		}
		parts = append(parts, expr.PowOf(expr.AddOf(ts...), expr.N(int64(f.Mult))))
	}
	return expr.MulOf(parts...), true, nil
}
