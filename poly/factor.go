package poly

import (
	"context"
	"math/big"
	"sort"

	"github.com/njchilds90/mathflow/internal/budget"
)

// Factor is an irreducible factor with its multiplicity.
type Factor struct {
	P    Poly
	Mult int
}

// divisorLimit bounds the integers whose divisors are enumerated during the
// rational-root and Kronecker searches.
var divisorLimit = big.NewInt(1_000_000_000_000)

// SquareFree returns Yun's square-free decomposition of p as monic factors.
func SquareFree(p Poly) []Factor {
	if p.Degree() < 1 {
		return nil
	}
	var out []Factor
	a := GCD(p, p.Derivative())
	b, _ := DivMod(p, a)
	c, _ := DivMod(p.Derivative(), a)
	d := Sub(c, b.Derivative())
	for i := 1; b.Degree() > 0; i++ {
		f := GCD(b, d)
		if f.Degree() > 0 {
			out = append(out, Factor{P: f, Mult: i})
		}
		b, _ = DivMod(b, f)
		c, _ = DivMod(d, f)
		d = Sub(c, b.Derivative())
	}
	return out
}

// Factorize writes p = content * Π P_i^Mult_i with every P_i an irreducible
// primitive integer polynomial with positive leading coefficient. Factors
// are ordered by degree, then coefficients.
func Factorize(ctx context.Context, p Poly) (*big.Rat, []Factor, error) {
	if p.Degree() < 1 {
		return p.Lead(), nil, nil
	}
	var out []Factor
	for _, sf := range SquareFree(p) {
		_, prim := sf.P.Primitive()
		parts, err := splitSquareFree(ctx, prim)
		if err != nil {
			return nil, nil, err
		}
		for _, q := range parts {
			out = append(out, Factor{P: q, Mult: sf.Mult})
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessPoly(out[i].P, out[j].P) })

	content := p.Lead()
	for _, f := range out {
		l := f.P.Lead()
		for k := 0; k < f.Mult; k++ {
			content.Quo(content, l)
		}
	}
	return content, out, nil
}

func lessPoly(a, b Poly) bool {
	if a.Degree() != b.Degree() {
		return a.Degree() < b.Degree()
	}
	for i := a.Degree(); i >= 0; i-- {
		if c := a.Coeff(i).Cmp(b.Coeff(i)); c != 0 {
			return c < 0
		}
	}
	return false
}

// splitSquareFree factors a primitive square-free integer polynomial.
func splitSquareFree(ctx context.Context, f Poly) ([]Poly, error) {
	var out []Poly
	// Powers of x.
	for f.Degree() > 0 && f.Coeff(0).Sign() == 0 {
		out = append(out, X())
		f, _ = DivMod(f, X())
	}
	for f.Degree() > 1 {
		r, ok, err := rationalRoot(ctx, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		// (b x - a) for r = a/b.
		lin := New(new(big.Rat).Neg(new(big.Rat).SetInt(r.Num())), new(big.Rat).SetInt(r.Denom()))
		out = append(out, lin)
		f, _ = DivMod(f, lin)
		_, f = f.Primitive()
	}
	if f.Degree() >= 4 {
		parts, err := kronecker(ctx, f)
		if err != nil {
			return nil, err
		}
		return append(out, parts...), nil
	}
	if f.Degree() >= 1 {
		_, f = f.Primitive()
		out = append(out, f)
	}
	return out, nil
}

// rationalRoot finds a root of the integer polynomial f among ±p/q with
// p | f(0) and q | lead(f).
func rationalRoot(ctx context.Context, f Poly) (*big.Rat, bool, error) {
	a0 := new(big.Int).Abs(f.Coeff(0).Num())
	an := new(big.Int).Abs(f.Lead().Num())
	if a0.Sign() == 0 {
		return new(big.Rat), true, nil
	}
	if a0.Cmp(divisorLimit) > 0 || an.Cmp(divisorLimit) > 0 {
		return nil, false, nil
	}
	ps := divisors(a0.Int64())
	qs := divisors(an.Int64())
	for _, p := range ps {
		for _, q := range qs {
			if err := budget.Spend(ctx, 1); err != nil {
				return nil, false, err
			}
			for _, s := range []int64{1, -1} {
				r := big.NewRat(s*p, q)
				if f.Eval(r).Sign() == 0 {
					return r, true, nil
				}
			}
		}
	}
	return nil, false, nil
}

func divisors(n int64) []int64 {
	var small, large []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d == 0 {
			small = append(small, d)
			if d*d != n {
				large = append(large, n/d)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

// kronecker splits a primitive integer polynomial without rational roots by
// searching for factors of degree 2..n/2 through interpolation at integer
// points.
func kronecker(ctx context.Context, f Poly) ([]Poly, error) {
	n := f.Degree()
	for d := 2; d <= n/2; d++ {
		g, ok, err := kroneckerFactor(ctx, f, d)
		if err != nil {
			return nil, err
		}
		if ok {
			q, _ := DivMod(f, g)
			_, q = q.Primitive()
			rest, err := kronecker(ctx, q)
			if err != nil {
				return nil, err
			}
			return append([]Poly{g}, rest...), nil
		}
	}
	_, f = f.Primitive()
	return []Poly{f}, nil
}

func kroneckerFactor(ctx context.Context, f Poly, d int) (Poly, bool, error) {
	points := make([]*big.Rat, 0, d+1)
	var choices [][]int64
	for k := int64(0); len(points) < d+1; k++ {
		// 0, 1, -1, 2, -2, ...
		x := (k + 1) / 2
		if k%2 == 0 {
			x = -x
		}
		xr := big.NewRat(x, 1)
		v := f.Eval(xr)
		if v.Sign() == 0 {
			continue
		}
		a := new(big.Int).Abs(v.Num())
		if a.Cmp(divisorLimit) > 0 {
			return Poly{}, false, nil
		}
		divs := divisors(a.Int64())
		var signed []int64
		for _, dv := range divs {
			signed = append(signed, dv)
			if len(points) > 0 {
				signed = append(signed, -dv)
			}
		}
		points = append(points, xr)
		choices = append(choices, signed)
	}

	idx := make([]int, len(choices))
	values := make([]*big.Rat, len(choices))
	for {
		if err := budget.Spend(ctx, 1); err != nil {
			return Poly{}, false, err
		}
		for i, c := range choices {
			values[i] = big.NewRat(c[idx[i]], 1)
		}
		g := interpolate(points, values)
		if g.Degree() == d && integral(g) {
			if _, ok := Divides(g, f); ok {
				_, g = g.Primitive()
				return g, true, nil
			}
		}
		// Advance the odometer.
		i := 0
		for ; i < len(idx); i++ {
			idx[i]++
			if idx[i] < len(choices[i]) {
				break
			}
			idx[i] = 0
		}
		if i == len(idx) {
			return Poly{}, false, nil
		}
	}
}

func integral(p Poly) bool {
	for _, c := range p.c {
		if !c.IsInt() {
			return false
		}
	}
	return true
}

// interpolate returns the Lagrange polynomial through (xs[i], ys[i]).
func interpolate(xs, ys []*big.Rat) Poly {
	result := Poly{}
	for i := range xs {
		term := Const(ys[i])
		for j := range xs {
			if i == j {
				continue
			}
			den := new(big.Rat).Sub(xs[i], xs[j])
			lin := New(new(big.Rat).Neg(xs[j]), big.NewRat(1, 1))
			term = Scale(Mul(term, lin), new(big.Rat).Inv(den))
		}
		result = Add(result, term)
	}
	return result
}
