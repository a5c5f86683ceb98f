package algebra

import (
	"context"
	"math/big"

	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/poly"
)

// NumerDenom splits e into numerator and denominator. Factors with negative
// numeric exponents move below the line and sums are brought over their
// least common denominator.
func NumerDenom(e expr.Expr) (num, den expr.Expr) {
	switch v := e.(type) {
	case *expr.Num:
		return expr.I(v.Numer()), expr.I(v.Denom())
	case *expr.Pow:
		if k, ok := v.Exp().(*expr.Num); ok && k.IsNegative() {
			return expr.N(1), expr.PowOf(v.Base(), expr.NegOf(k))
		}
	case *expr.Mul:
		fs := v.Factors()
		ns := make([]expr.Expr, len(fs))
		ds := make([]expr.Expr, len(fs))
		for i, f := range fs {
			ns[i], ds[i] = NumerDenom(f)
		}
		return expr.MulOf(ns...), expr.MulOf(ds...)
	case *expr.Add:
		ts := v.Terms()
		ns := make([]expr.Expr, len(ts))
		ds := make([]expr.Expr, len(ts))
		for i, t := range ts {
			ns[i], ds[i] = NumerDenom(t)
		}
		den := lcm(ds)
		parts := make([]expr.Expr, len(ts))
		for i := range ts {
			parts[i] = expr.MulOf(ns[i], den, expr.InvOf(ds[i]))
		}
		return expr.AddOf(parts...), den
	}
	return e, expr.N(1)
}

// lcm is the least common multiple of products of powers: the integer lcm
// of the numeric parts times each base at its largest exponent.
func lcm(ds []expr.Expr) expr.Expr {
	numeric := big.NewInt(1)
	type entry struct {
		base expr.Expr
		exp  *big.Rat
	}
	entries := map[string]*entry{}
	var order []string
	for _, d := range ds {
		fs := []expr.Expr{d}
		if m, ok := d.(*expr.Mul); ok {
			fs = m.Factors()
		}
		for _, f := range fs {
			if n, ok := f.(*expr.Num); ok {
				a := new(big.Int).Abs(n.Numer())
				g := new(big.Int).GCD(nil, nil, numeric, a)
				numeric.Mul(numeric, a.Quo(a, g))
				continue
			}
			base, exp := expr.BaseExp(f)
			k, ok := expr.AsRat(exp)
			if !ok {
				base, k = f, big.NewRat(1, 1)
			}
			key := base.String()
			if en, ok := entries[key]; ok {
				if k.Cmp(en.exp) > 0 {
					en.exp = k
				}
				continue
			}
			entries[key] = &entry{base: base, exp: k}
			order = append(order, key)
		}
	}
	out := []expr.Expr{expr.I(numeric)}
	for _, key := range order {
		en := entries[key]
		out = append(out, expr.PowOf(en.base, expr.R(en.exp)))
	}
	return expr.MulOf(out...)
}

// Together rewrites e as a single fraction with expanded numerator and
// denominator.
func Together(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	num, den := NumerDenom(e)
	if expr.IsNum(den, 1) {
		return e, nil
	}
	n, err := Expand(ctx, num)
	if err != nil {
		return nil, err
	}
	d, err := Expand(ctx, den)
	if err != nil {
		return nil, err
	}
	return expr.DivOf(n, d), nil
}

// Cancel brings e over a common denominator and, when numerator and
// denominator are polynomials in one generator, divides out their gcd. The
// remaining denominator is monic.
func Cancel(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	num, den := NumerDenom(e)
	if expr.IsNum(den, 1) {
		return e, nil
	}
	n, err := Expand(ctx, num)
	if err != nil {
		return nil, err
	}
	d, err := Expand(ctx, den)
	if err != nil {
		return nil, err
	}
	if gens := generators(n, d); len(gens) == 1 {
		g := gens[0]
		pn, okn := poly.FromExpr(n, g)
		pd, okd := poly.FromExpr(d, g)
		if okn && okd && !pd.IsZero() {
			qn, qd := cancelPoly(pn, pd)
			return expr.DivOf(qn.Expr(g), qd.Expr(g)), nil
		}
	}
	return expr.DivOf(n, d), nil
}

// cancelPoly divides out gcd(n, d) and scales so the denominator is monic.
func cancelPoly(n, d poly.Poly) (num, den poly.Poly) {
	g := poly.GCD(n, d)
	num, _ = poly.DivMod(n, g)
	den, _ = poly.DivMod(d, g)
	inv := new(big.Rat).Inv(den.Lead())
	return poly.Scale(num, inv), poly.Scale(den, inv)
}

// generators merges the polynomial generators of several expressions.
func generators(es ...expr.Expr) []expr.Expr {
	var out []expr.Expr
	seen := map[string]bool{}
	for _, e := range es {
		for _, g := range poly.Generators(e) {
			if k := g.String(); !seen[k] {
				seen[k] = true
				out = append(out, g)
			}
		}
	}
	return out
}
