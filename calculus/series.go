package calculus

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
)

var (
	errNoSeries = errors.New("no generalized power series")
	errNotReal  = errors.New("not real-valued near the point")
)

// maxComposeTerms caps the number of terms taken from an outer series.
const maxComposeTerms = 64

// term is c * t^k * (ln t)^l.
type term struct {
	c expr.Expr
	k *big.Rat
	l int
}

// series is a sum of terms in ascending order of k, exact for all
// exponents below order. A nil order marks an exact sum.
type series struct {
	terms []term
	order *big.Rat
}

func (s series) lead() (term, bool) {
	if len(s.terms) == 0 {
		return term{}, false
	}
	return s.terms[0], true
}

// low is the smallest exponent s can contain.
func (s series) low() *big.Rat {
	if len(s.terms) > 0 {
		return s.terms[0].k
	}
	return s.order
}

func (s series) zero() bool { return len(s.terms) == 0 && s.order == nil }

func rat(n int64) *big.Rat { return big.NewRat(n, 1) }

func ratAdd(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }

func minOrder(a, b *big.Rat) *big.Rat {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Cmp(b) < 0:
		return a
	}
	return b
}

func shiftOrder(o, k *big.Rat) *big.Rat {
	if o == nil || k == nil {
		return nil
	}
	return ratAdd(o, k)
}

// seriesBuilder expands expressions in a symbol t as t → 0⁺, keeping
// terms with exponent below n.
type seriesBuilder struct {
	ctx context.Context
	t   string
	n   *big.Rat
}

func (sb *seriesBuilder) norm(ts []term, order *big.Rat) (series, error) {
	limit := minOrder(order, sb.n)
	type group struct {
		k  *big.Rat
		l  int
		cs []expr.Expr
	}
	groups := map[string]*group{}
	var keys []string
	for _, tm := range ts {
		key := tm.k.RatString() + "|" + strconv.Itoa(tm.l)
		g, ok := groups[key]
		if !ok {
			g = &group{k: tm.k, l: tm.l}
			groups[key] = g
			keys = append(keys, key)
		}
		g.cs = append(g.cs, tm.c)
	}
	out := series{order: order}
	for _, key := range keys {
		g := groups[key]
		if g.k.Cmp(limit) >= 0 {
			out.order = limit
			continue
		}
		c, err := algebra.Expand(sb.ctx, expr.AddOf(g.cs...))
		if err != nil {
			return series{}, err
		}
		if expr.IsNum(c, 0) {
			continue
		}
		out.terms = append(out.terms, term{c: c, k: g.k, l: g.l})
	}
	if out.order != nil && out.order.Cmp(sb.n) > 0 {
		out.order = sb.n
	}
	sort.Slice(out.terms, func(i, j int) bool {
		a, b := out.terms[i], out.terms[j]
		if c := a.k.Cmp(b.k); c != 0 {
			return c < 0
		}
		return a.l > b.l
	})
	return out, nil
}

func (sb *seriesBuilder) constant(c expr.Expr) series {
	if expr.IsNum(c, 0) {
		return series{}
	}
	return series{terms: []term{{c: c, k: new(big.Rat)}}}
}

func (sb *seriesBuilder) add(a, b series) (series, error) {
	ts := append(append([]term(nil), a.terms...), b.terms...)
	return sb.norm(ts, minOrder(a.order, b.order))
}

func (sb *seriesBuilder) mul(a, b series) (series, error) {
	if a.zero() || b.zero() {
		return series{}, nil
	}
	if err := budget.Spend(sb.ctx, int64(len(a.terms)*len(b.terms)+1)); err != nil {
		return series{}, err
	}
	var ts []term
	for _, x := range a.terms {
		for _, y := range b.terms {
			ts = append(ts, term{c: expr.MulOf(x.c, y.c), k: ratAdd(x.k, y.k), l: x.l + y.l})
		}
	}
	order := minOrder(shiftOrder(a.order, b.low()), shiftOrder(b.order, a.low()))
	return sb.norm(ts, order)
}

func (sb *seriesBuilder) scale(s series, c expr.Expr) (series, error) {
	ts := make([]term, len(s.terms))
	for i, tm := range s.terms {
		ts[i] = term{c: expr.MulOf(c, tm.c), k: tm.k, l: tm.l}
	}
	return sb.norm(ts, s.order)
}

// compose sums coeff(j) * u^j for u → 0, taking terms until u^j falls
// below the truncation order.
func (sb *seriesBuilder) compose(u series, coeff func(j int) (expr.Expr, error)) (series, error) {
	c0, err := coeff(0)
	if err != nil {
		return series{}, err
	}
	sum := sb.constant(c0)
	if len(u.terms) == 0 {
		sum.order = u.order
		return sb.norm(sum.terms, sum.order)
	}
	m := u.terms[0].k
	if m.Sign() <= 0 {
		return series{}, errNoSeries
	}
	pw := sb.constant(expr.N(1))
	j := 1
	for ; new(big.Rat).Mul(rat(int64(j)), m).Cmp(sb.n) < 0; j++ {
		if j > maxComposeTerms {
			return series{}, errNoSeries
		}
		if pw, err = sb.mul(pw, u); err != nil {
			return series{}, err
		}
		cj, err := coeff(j)
		if err != nil {
			return series{}, err
		}
		if expr.IsNum(cj, 0) {
			continue
		}
		part, err := sb.scale(pw, cj)
		if err != nil {
			return series{}, err
		}
		if sum, err = sb.add(sum, part); err != nil {
			return series{}, err
		}
	}
	rem := new(big.Rat).Mul(rat(int64(j)), m)
	return sb.norm(sum.terms, minOrder(sum.order, rem))
}

// relative divides s by its leading term and subtracts one.
func relative(s series, lt term) (series, error) {
	out := series{order: shiftOrder(s.order, new(big.Rat).Neg(lt.k))}
	for _, tm := range s.terms[1:] {
		k := new(big.Rat).Sub(tm.k, lt.k)
		if k.Sign() == 0 {
			return series{}, errNoSeries
		}
		out.terms = append(out.terms, term{c: expr.DivOf(tm.c, lt.c), k: k, l: tm.l - lt.l})
	}
	return out, nil
}

// termSign is the sign of a term as t → 0⁺.
func termSign(tm term) (int, bool) {
	f, ok := expr.Float(tm.c, nil)
	if !ok || f == 0 || math.IsNaN(f) {
		return 0, false
	}
	sign := 1
	if f < 0 {
		sign = -1
	}
	if tm.l%2 != 0 {
		sign = -sign
	}
	return sign, true
}

func binomial(a *big.Rat, j int) *big.Rat {
	r := rat(1)
	for i := 0; i < j; i++ {
		r.Mul(r, new(big.Rat).Sub(a, rat(int64(i))))
		r.Quo(r, rat(int64(i+1)))
	}
	return r
}

func (sb *seriesBuilder) pow(s series, a *big.Rat) (series, error) {
	lt, ok := s.lead()
	if !ok {
		if s.order == nil && a.Sign() > 0 {
			return series{}, nil
		}
		return series{}, errNoSeries
	}
	if lt.l != 0 && !a.IsInt() {
		return series{}, errNoSeries
	}
	if f, ok := expr.Float(lt.c, nil); ok && f < 0 && a.Denom().Bit(0) == 0 {
		return series{}, errNotReal
	}
	u, err := relative(s, lt)
	if err != nil {
		return series{}, err
	}
	body, err := sb.compose(u, func(j int) (expr.Expr, error) { return expr.R(binomial(a, j)), nil })
	if err != nil {
		return series{}, err
	}
	l := 0
	if lt.l != 0 {
		l = lt.l * int(a.Num().Int64())
	}
	head := term{c: expr.PowOf(lt.c, expr.R(a)), k: new(big.Rat).Mul(lt.k, a), l: l}
	return sb.mul(series{terms: []term{head}}, body)
}

func (sb *seriesBuilder) exp(s series) (series, error) {
	if s.order != nil && s.order.Sign() <= 0 {
		return series{}, errNoSeries
	}
	var c0 []expr.Expr
	q := new(big.Rat)
	u := series{order: s.order}
	for _, tm := range s.terms {
		switch {
		case tm.k.Sign() < 0:
			return series{}, errNoSeries
		case tm.k.Sign() > 0:
			u.terms = append(u.terms, tm)
		case tm.l == 0:
			c0 = append(c0, tm.c)
		case tm.l == 1:
			r, ok := expr.AsRat(tm.c)
			if !ok {
				return series{}, errNoSeries
			}
			q.Add(q, r)
		default:
			return series{}, errNoSeries
		}
	}
	fact := rat(1)
	body, err := sb.compose(u, func(j int) (expr.Expr, error) {
		if j > 0 {
			fact.Mul(fact, rat(int64(j)))
		}
		return expr.R(new(big.Rat).Inv(fact)), nil
	})
	if err != nil {
		return series{}, err
	}
	head := term{c: expr.ExpOf(expr.AddOf(c0...)), k: q}
	return sb.mul(series{terms: []term{head}}, body)
}

func (sb *seriesBuilder) log(s series) (series, error) {
	lt, ok := s.lead()
	if !ok || lt.l != 0 {
		return series{}, errNoSeries
	}
	if f, ok := expr.Float(lt.c, nil); ok && f < 0 {
		return series{}, errNotReal
	}
	u, err := relative(s, lt)
	if err != nil {
		return series{}, err
	}
	body, err := sb.compose(u, func(j int) (expr.Expr, error) {
		if j == 0 {
			return expr.N(0), nil
		}
		r := big.NewRat(1, int64(j))
		if j%2 == 0 {
			r.Neg(r)
		}
		return expr.R(r), nil
	})
	if err != nil {
		return series{}, err
	}
	head := []term{{c: expr.LnOf(lt.c), k: new(big.Rat)}, {c: expr.R(lt.k), k: new(big.Rat), l: 1}}
	hs, err := sb.norm(head, nil)
	if err != nil {
		return series{}, err
	}
	return sb.add(hs, body)
}

// fn expands name(s).
func (sb *seriesBuilder) fn(name string, s series) (series, error) {
	lt, ok := s.lead()
	if ok && (lt.k.Sign() < 0 || (lt.k.Sign() == 0 && lt.l > 0)) {
		return sb.atInfinity(name, s, lt)
	}
	if name == "abs" {
		if !ok {
			return series{}, errNoSeries
		}
		sign, known := termSign(lt)
		if !known {
			return series{}, errNoSeries
		}
		return sb.scale(s, expr.N(int64(sign)))
	}
	c0 := expr.Expr(expr.N(0))
	w := s
	if ok && lt.k.Sign() == 0 {
		c0 = lt.c
		w = series{terms: s.terms[1:], order: s.order}
	}
	if w.order != nil && w.order.Sign() <= 0 {
		return series{}, errNoSeries
	}
	y := expr.S("_y")
	if _, ok := derivative(name, y); !ok {
		return series{}, errNoSeries
	}
	d := expr.FuncOf(name, y)
	fact := rat(1)
	return sb.compose(w, func(j int) (expr.Expr, error) {
		if j > 0 {
			next, err := diff(d, "_y")
			if err != nil {
				return nil, err
			}
			d = next
			fact.Mul(fact, rat(int64(j)))
		}
		v, ok := substitute(d, "_y", c0)
		if !ok || expr.Contains(v, expr.Inf) {
			return nil, errNoSeries
		}
		return expr.MulOf(expr.R(new(big.Rat).Inv(fact)), v), nil
	})
}

func (sb *seriesBuilder) atInfinity(name string, s series, lt term) (series, error) {
	sign, ok := termSign(lt)
	if !ok {
		return series{}, errNoSeries
	}
	switch name {
	case "atan":
		inv, err := sb.pow(s, rat(-1))
		if err != nil {
			return series{}, err
		}
		a, err := sb.fn("atan", inv)
		if err != nil {
			return series{}, err
		}
		if a, err = sb.scale(a, expr.N(-1)); err != nil {
			return series{}, err
		}
		return sb.add(sb.constant(expr.MulOf(expr.F(int64(sign), 2), expr.Pi)), a)
	case "tanh":
		return series{terms: []term{{c: expr.N(int64(sign)), k: new(big.Rat)}}, order: sb.n}, nil
	}
	return series{}, errNoSeries
}

// of expands e in t.
func (sb *seriesBuilder) of(e expr.Expr) (series, error) {
	if err := budget.Spend(sb.ctx, 1); err != nil {
		return series{}, err
	}
	if !expr.Has(e, sb.t) {
		return sb.constant(e), nil
	}
	switch v := e.(type) {
	case *expr.Sym:
		return series{terms: []term{{c: expr.N(1), k: rat(1)}}}, nil

	case *expr.Add:
		acc := series{}
		for _, t := range v.Terms() {
			s, err := sb.of(t)
			if err != nil {
				return series{}, err
			}
			if acc, err = sb.add(acc, s); err != nil {
				return series{}, err
			}
		}
		return acc, nil

	case *expr.Mul:
		acc := sb.constant(expr.N(1))
		for _, f := range v.Factors() {
			s, err := sb.of(f)
			if err != nil {
				return series{}, err
			}
			if acc, err = sb.mul(acc, s); err != nil {
				return series{}, err
			}
		}
		return acc, nil

	case *expr.Pow:
		b, k := v.Base(), v.Exp()
		if !expr.Has(k, sb.t) {
			a, ok := expr.AsRat(k)
			if !ok {
				return series{}, errNoSeries
			}
			s, err := sb.of(b)
			if err != nil {
				return series{}, err
			}
			return sb.pow(s, a)
		}
		ks, err := sb.of(k)
		if err != nil {
			return series{}, err
		}
		if b.Equal(expr.E) {
			return sb.exp(ks)
		}
		bs, err := sb.of(b)
		if err != nil {
			return series{}, err
		}
		lb, err := sb.log(bs)
		if err != nil {
			return series{}, err
		}
		arg, err := sb.mul(ks, lb)
		if err != nil {
			return series{}, err
		}
		return sb.exp(arg)

	case *expr.Func:
		if len(v.Args()) != 1 {
			return series{}, errNoSeries
		}
		s, err := sb.of(v.Arg())
		if err != nil {
			return series{}, err
		}
		if v.Name() == "ln" {
			return sb.log(s)
		}
		return sb.fn(v.Name(), s)
	}
	return series{}, errNoSeries
}

// precisions are the truncation orders tried when the leading terms of an
// expansion cancel.
var precisions = []int64{4, 8, 16, 32}

// leading returns the leading term of e as t → 0⁺. It reports false when
// e has no generalized power series in t.
func leading(ctx context.Context, e expr.Expr, t string) (term, bool, error) {
	for _, n := range precisions {
		sb := &seriesBuilder{ctx: ctx, t: t, n: rat(n)}
		s, err := sb.of(e)
		switch {
		case errors.Is(err, errNoSeries):
			return term{}, false, nil
		case err != nil:
			return term{}, false, err
		}
		if lt, ok := s.lead(); ok {
			return lt, true, nil
		}
		if s.order == nil {
			return term{c: expr.N(0), k: new(big.Rat)}, true, nil
		}
	}
	return term{}, false, nil
}

// substitute replaces the symbol x by value, rebuilding bottom-up. It
// reports false if any rebuilt node is undefined, which catches 0 * (1/0)
// before the product folds to zero.
func substitute(e expr.Expr, x string, value expr.Expr) (expr.Expr, bool) {
	ok := true
	var rec func(expr.Expr) expr.Expr
	rec = func(n expr.Expr) expr.Expr {
		if !ok || !expr.Has(n, x) {
			return n
		}
		if _, isSym := n.(*expr.Sym); isSym {
			return value
		}
		r := expr.Map(n, rec)
		if expr.Undefined(r) {
			ok = false
		}
		return r
	}
	r := rec(e)
	return r, ok
}
