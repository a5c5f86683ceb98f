package discrete

import (
	"math/big"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/poly"
)

// maxShift bounds the integer offsets g(v+k) - g(v) searched for
// telescoping pairs and partial fractions.
const maxShift = 64

// sumClosed tries, in order: constants, linearity, polynomials (Faulhaber),
// geometric terms, telescoping pairs and telescoping partial fractions.
func sumClosed(r *rng, e expr.Expr) (expr.Expr, error) {
	if err := budget.Spend(r.ctx, 1); err != nil {
		return nil, err
	}
	x := r.v.Name()
	if !expr.Has(e, x) {
		return expr.MulOf(e, r.count()), nil
	}
	if c, rest := split(e, x); !expr.IsNum(c, 1) {
		s, err := sumClosed(r, rest)
		if err != nil {
			return nil, err
		}
		return expr.MulOf(c, s), nil
	}
	if cs, ok := poly.Coeffs(e, r.v); ok {
		return r.faulhaber(cs)
	}
	if s, ok := r.geometric(e); ok {
		return s, nil
	}
	if a, ok := e.(*expr.Add); ok {
		s, err := r.linear(a)
		if !errs.Has(err, errs.ClosedFormUnavailableError) {
			return s, err
		}
		if s, ok := r.pair(a); ok {
			return s, nil
		}
	}
	if s, ok, err := r.telescope(e); ok || err != nil {
		return s, err
	}
	return nil, unavailable("sum", e)
}

// split separates the factors of e free of x.
func split(e expr.Expr, x string) (c, rest expr.Expr) {
	m, ok := e.(*expr.Mul)
	if !ok {
		return expr.N(1), e
	}
	var cs, rs []expr.Expr
	for _, f := range m.Factors() {
		if expr.Has(f, x) {
			rs = append(rs, f)
		} else {
			cs = append(cs, f)
		}
	}
	return expr.MulOf(cs...), expr.MulOf(rs...)
}

func (r *rng) linear(a *expr.Add) (expr.Expr, error) {
	var out []expr.Expr
	for _, t := range a.Terms() {
		s, err := sumClosed(r, t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return expr.AddOf(out...), nil
}

// =============================================================================
// Polynomials
// =============================================================================

// bernoulli returns B_0..B_n with B_1 = +1/2.
func bernoulli(n int) []*big.Rat {
	b := make([]*big.Rat, n+1)
	b[0] = big.NewRat(1, 1)
	for m := 1; m <= n; m++ {
		acc := new(big.Rat)
		for k := 0; k < m; k++ {
			c := new(big.Rat).SetInt(binom(m+1, k))
			acc.Add(acc, c.Mul(c, b[k]))
		}
		b[m] = acc.Quo(acc, big.NewRat(int64(-(m + 1)), 1))
	}
	if n >= 1 {
		b[1] = big.NewRat(1, 2)
	}
	return b
}

func binom(n, k int) *big.Int { return new(big.Int).Binomial(int64(n), int64(k)) }

// powerSum is Σ_{k=1}^{m} k^p as a polynomial in m.
func powerSum(p int, m expr.Expr) expr.Expr {
	b := bernoulli(p)
	terms := make([]expr.Expr, 0, p+1)
	for j := 0; j <= p; j++ {
		c := new(big.Rat).SetInt(binom(p+1, j))
		c.Mul(c, b[j])
		c.Quo(c, big.NewRat(int64(p+1), 1))
		terms = append(terms, expr.MulOf(expr.R(c), expr.PowOf(m, expr.N(int64(p+1-j)))))
	}
	return expr.AddOf(terms...)
}

// faulhaber sums Σ c_p v^p as Σ c_p (S_p(end) - S_p(start-1)).
func (r *rng) faulhaber(cs []expr.Expr) (expr.Expr, error) {
	if len(cs)-1 > budget.LimitsOf(r.ctx).MaxExpandPower {
		return nil, errs.New(errs.ExpressionTooLargeError, "polynomial of degree %d is too large to sum", len(cs)-1)
	}
	below := expr.AddOf(r.start, expr.N(-1))
	var out []expr.Expr
	for p, c := range cs {
		if expr.IsNum(c, 0) {
			continue
		}
		if err := budget.Spend(r.ctx, int64(p+1)); err != nil {
			return nil, err
		}
		out = append(out, expr.MulOf(c, expr.MinusOf(powerSum(p, r.end), powerSum(p, below))))
	}
	return algebra.Expand(r.ctx, expr.AddOf(out...))
}

// =============================================================================
// Geometric terms
// =============================================================================

// geometric sums b^(a v + c) with b free of v:
// b^(a start + c) (q^count - 1) / (q - 1) with q = b^a.
func (r *rng) geometric(e expr.Expr) (expr.Expr, bool) {
	p, ok := e.(*expr.Pow)
	if !ok || expr.Has(p.Base(), r.v.Name()) {
		return nil, false
	}
	cs, ok := poly.Coeffs(p.Exp(), r.v)
	if !ok || len(cs) != 2 {
		return nil, false
	}
	q := expr.PowOf(p.Base(), cs[1])
	if expr.IsNum(q, 1) {
		return expr.MulOf(expr.PowOf(p.Base(), cs[0]), r.count()), true
	}
	first := p.Sub(r.v.Name(), r.start)
	return expr.MulOf(first, expr.AddOf(expr.PowOf(q, r.count()), expr.N(-1)), expr.InvOf(expr.AddOf(q, expr.N(-1)))), true
}

// =============================================================================
// Telescoping
// =============================================================================

// shifted is Σ_{v=start}^{end} (g(v+k) - g(v)) = Σ_{i=1}^{k} g(end+i) - g(start+i-1).
func (r *rng) shifted(g func(expr.Expr) expr.Expr, k int64) expr.Expr {
	var out []expr.Expr
	for i := int64(1); i <= k; i++ {
		out = append(out,
			g(expr.AddOf(r.end, expr.N(i))),
			expr.NegOf(g(expr.AddOf(r.start, expr.N(i-1)))))
	}
	return expr.AddOf(out...)
}

// pair recognises a two-term sum g(v+k) - g(v) for a small positive or
// negative k.
func (r *rng) pair(a *expr.Add) (expr.Expr, bool) {
	ts := a.Terms()
	if len(ts) != 2 {
		return nil, false
	}
	x := r.v.Name()
	for _, o := range [][2]expr.Expr{{ts[0], ts[1]}, {ts[1], ts[0]}} {
		up, g := o[0], expr.NegOf(o[1])
		for k := int64(1); k <= maxShift; k++ {
			if g.Sub(x, expr.AddOf(r.v, expr.N(k))).Equal(up) {
				at := func(m expr.Expr) expr.Expr { return g.Sub(x, m) }
				return r.shifted(at, k), true
			}
		}
	}
	return nil, false
}

// telescope sums rational functions whose partial fractions A_j/(v + a_j)
// cancel in groups whose a_j differ by integers.
func (r *rng) telescope(e expr.Expr) (expr.Expr, bool, error) {
	num, den := algebra.NumerDenom(e)
	if expr.IsNum(den, 1) {
		return nil, false, nil
	}
	n, err := algebra.Expand(r.ctx, num)
	if err != nil {
		return nil, false, err
	}
	d, err := algebra.Expand(r.ctx, den)
	if err != nil {
		return nil, false, err
	}
	p, okp := poly.FromExpr(n, r.v)
	q, okq := poly.FromExpr(d, r.v)
	if !okp || !okq || q.Degree() < 1 {
		return nil, false, nil
	}
	quo, fracs, err := poly.Apart(r.ctx, p, q)
	if err != nil {
		if _, ok := errs.CategoryOf(err); ok {
			return nil, false, err
		}
		return nil, false, nil
	}

	type pole struct{ A, a *big.Rat }
	groups := map[string][]pole{}
	var keys []string
	for _, f := range fracs {
		if f.Power != 1 || f.Base.Degree() != 1 {
			return nil, false, nil
		}
		lead := f.Base.Lead()
		pl := pole{
			A: new(big.Rat).Quo(f.Numer.Coeff(0), lead),
			a: new(big.Rat).Quo(f.Base.Coeff(0), lead),
		}
		key := fracPart(pl.a).RatString()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], pl)
	}

	var out []expr.Expr
	if !quo.IsZero() {
		cs := make([]expr.Expr, quo.Degree()+1)
		for i := range cs {
			cs[i] = expr.R(quo.Coeff(i))
		}
		s, err := r.faulhaber(cs)
		if err != nil {
			return nil, false, err
		}
		out = append(out, s)
	}
	for _, key := range keys {
		g := groups[key]
		total := new(big.Rat)
		a0 := g[0].a
		for _, pl := range g {
			total.Add(total, pl.A)
			if pl.a.Cmp(a0) < 0 {
				a0 = pl.a
			}
		}
		if total.Sign() != 0 {
			return nil, false, nil
		}
		at := func(m expr.Expr) expr.Expr { return expr.InvOf(expr.AddOf(m, expr.R(a0))) }
		for _, pl := range g {
			k := new(big.Rat).Sub(pl.a, a0)
			if !k.IsInt() || k.Num().Int64() > maxShift {
				return nil, false, nil
			}
			if k.Sign() == 0 {
				continue
			}
			out = append(out, expr.MulOf(expr.R(pl.A), r.shifted(at, k.Num().Int64())))
		}
	}
	return expr.AddOf(out...), true, nil
}

// fracPart is a - floor(a).
func fracPart(a *big.Rat) *big.Rat {
	fl := new(big.Int).Div(a.Num(), a.Denom())
	return new(big.Rat).Sub(a, new(big.Rat).SetInt(fl))
}
