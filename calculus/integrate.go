package calculus

import (
	"context"
	"strconv"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
	"github.com/njchilds90/mathflow/poly"
)

// maxIntegrateDepth bounds the nesting of integration strategies.
const maxIntegrateDepth = 24

// Integrate returns an antiderivative of e with respect to v. No constant
// of integration is added.
//
// Strategies are tried in order: the table of elementary antiderivatives
// (with linear arguments), linearity and constant extraction,
// substitution, rational functions, power reduction, expansion and
// integration by parts.
func Integrate(ctx context.Context, e, v expr.Expr) (expr.Expr, error) {
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	in := &integrator{ctx: ctx, x: x}
	return in.integrate(e)
}

type integrator struct {
	ctx   context.Context
	x     *expr.Sym
	depth int
}

func unsupported(e expr.Expr) error {
	return errs.New(errs.IntegrationUnsupportedError, "no antiderivative found for %s", latex.Format(e))
}

// strategy returns nil when it does not apply.
type strategy func(expr.Expr) (expr.Expr, error)

func (in *integrator) integrate(e expr.Expr) (expr.Expr, error) {
	if err := budget.Spend(in.ctx, 1); err != nil {
		return nil, err
	}
	if in.depth >= maxIntegrateDepth {
		return nil, unsupported(e)
	}
	in.depth++
	defer func() { in.depth-- }()

	x := in.x.Name()
	if !expr.Has(e, x) {
		return expr.MulOf(e, in.x), nil
	}
	if r, ok := in.table(e); ok {
		return r, nil
	}
	if a, ok := e.(*expr.Add); ok {
		r, err := in.linear(a)
		if !errs.Has(err, errs.IntegrationUnsupportedError) {
			return r, err
		}
	}
	if c, rest := in.split(e); !expr.IsNum(c, 1) {
		r, err := in.integrate(rest)
		if err != nil {
			return nil, err
		}
		return expr.MulOf(c, r), nil
	}
	for _, s := range []strategy{in.substitute, in.rational, in.reduce, in.expand, in.parts} {
		r, err := s(e)
		switch {
		case err == nil && r != nil:
			return r, nil
		case err != nil && !errs.Has(err, errs.IntegrationUnsupportedError):
			return nil, err
		}
	}
	return nil, unsupported(e)
}

func (in *integrator) linear(a *expr.Add) (expr.Expr, error) {
	ts := a.Terms()
	out := make([]expr.Expr, len(ts))
	for i, t := range ts {
		r, err := in.integrate(t)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return expr.AddOf(out...), nil
}

// split separates the factors of e that do not depend on x.
func (in *integrator) split(e expr.Expr) (c, rest expr.Expr) {
	m, ok := e.(*expr.Mul)
	if !ok {
		return expr.N(1), e
	}
	var cs, rs []expr.Expr
	for _, f := range m.Factors() {
		if expr.Has(f, in.x.Name()) {
			rs = append(rs, f)
		} else {
			cs = append(cs, f)
		}
	}
	return expr.MulOf(cs...), expr.MulOf(rs...)
}

// slope returns a when u = a x + b with a and b free of x.
func (in *integrator) slope(u expr.Expr) (expr.Expr, bool) {
	cs, ok := poly.Coeffs(u, in.x)
	if !ok || len(cs) != 2 {
		return nil, false
	}
	return cs[1], true
}

// table matches e against the elementary antiderivatives.
func (in *integrator) table(e expr.Expr) (expr.Expr, bool) {
	x := in.x
	switch v := e.(type) {
	case *expr.Sym:
		return expr.MulOf(expr.F(1, 2), expr.PowOf(x, expr.N(2))), true

	case *expr.Pow:
		b, k := v.Base(), v.Exp()
		if !expr.Has(k, x.Name()) {
			if a, ok := in.slope(b); ok {
				if expr.IsNum(k, -1) {
					return expr.DivOf(expr.LnOf(expr.AbsOf(b)), a), true
				}
				k1 := expr.AddOf(k, expr.N(1))
				return expr.DivOf(expr.PowOf(b, k1), expr.MulOf(a, k1)), true
			}
			if f, ok := b.(*expr.Func); ok && expr.IsNum(k, 2) {
				if a, ok := in.slope(f.Arg()); ok {
					switch f.Name() {
					case "sec":
						return expr.DivOf(expr.TanOf(f.Arg()), a), true
					case "csc":
						return expr.DivOf(expr.NegOf(expr.CotOf(f.Arg())), a), true
					}
				}
			}
			if expr.IsNum(k, 0) {
				break
			}
			if r, ok := in.arcsine(b, k); ok {
				return r, true
			}
			break
		}
		if !expr.Has(b, x.Name()) {
			if a, ok := in.slope(k); ok {
				return expr.DivOf(v, expr.MulOf(a, expr.LnOf(b))), true
			}
		}

	case *expr.Func:
		if len(v.Args()) != 1 {
			break
		}
		u := v.Arg()
		a, ok := in.slope(u)
		if !ok {
			break
		}
		if F, ok := antiderivative(v.Name(), u); ok {
			return expr.DivOf(F, a), true
		}

	case *expr.Mul:
		return in.expTrig(v)
	}
	return nil, false
}

// arcsine matches (c - d x^2)^(-1/2) with c, d > 0.
func (in *integrator) arcsine(b, k expr.Expr) (expr.Expr, bool) {
	if !expr.IsNum(expr.MulOf(k, expr.N(2)), -1) {
		return nil, false
	}
	cs, ok := poly.Coeffs(b, in.x)
	if !ok || len(cs) != 3 || !expr.IsNum(cs[1], 0) {
		return nil, false
	}
	c, okc := cs[0].(*expr.Num)
	d, okd := cs[2].(*expr.Num)
	if !okc || !okd || !c.IsPositive() || !d.IsNegative() {
		return nil, false
	}
	nd := expr.NegOf(d)
	arg := expr.MulOf(in.x, expr.SqrtOf(expr.DivOf(nd, c)))
	return expr.DivOf(expr.AsinOf(arg), expr.SqrtOf(nd)), true
}

// antiderivative returns F with F'(u) = f(u).
func antiderivative(name string, u expr.Expr) (expr.Expr, bool) {
	switch name {
	case "sin":
		return expr.NegOf(expr.CosOf(u)), true
	case "cos":
		return expr.SinOf(u), true
	case "tan":
		return expr.NegOf(expr.LnOf(expr.AbsOf(expr.CosOf(u)))), true
	case "cot":
		return expr.LnOf(expr.AbsOf(expr.SinOf(u))), true
	case "sec":
		return expr.LnOf(expr.AbsOf(expr.AddOf(expr.SecOf(u), expr.TanOf(u)))), true
	case "csc":
		return expr.NegOf(expr.LnOf(expr.AbsOf(expr.AddOf(expr.CscOf(u), expr.CotOf(u))))), true
	case "sinh":
		return expr.CoshOf(u), true
	case "cosh":
		return expr.SinhOf(u), true
	case "tanh":
		return expr.LnOf(expr.CoshOf(u)), true
	case "ln":
		return expr.MinusOf(expr.MulOf(u, expr.LnOf(u)), u), true
	case "asin":
		return expr.AddOf(expr.MulOf(u, expr.AsinOf(u)), expr.SqrtOf(expr.MinusOf(expr.N(1), expr.PowOf(u, expr.N(2))))), true
	case "acos":
		return expr.MinusOf(expr.MulOf(u, expr.AcosOf(u)), expr.SqrtOf(expr.MinusOf(expr.N(1), expr.PowOf(u, expr.N(2))))), true
	case "atan":
		return expr.MinusOf(expr.MulOf(u, expr.AtanOf(u)), expr.MulOf(expr.F(1, 2), expr.LnOf(expr.AddOf(expr.N(1), expr.PowOf(u, expr.N(2)))))), true
	case "abs":
		return expr.MulOf(expr.F(1, 2), u, expr.AbsOf(u)), true
	}
	return nil, false
}

// expTrig integrates e^(a x + b) sin(c x + d) and its cosine partner.
func (in *integrator) expTrig(m *expr.Mul) (expr.Expr, bool) {
	fs := m.Factors()
	if len(fs) != 2 {
		return nil, false
	}
	var ex *expr.Pow
	var tr *expr.Func
	for _, f := range fs {
		switch v := f.(type) {
		case *expr.Pow:
			ex = v
		case *expr.Func:
			tr = v
		}
	}
	if ex == nil || tr == nil || !ex.Base().Equal(expr.E) || (tr.Name() != "sin" && tr.Name() != "cos") {
		return nil, false
	}
	a, ok := in.slope(ex.Exp())
	if !ok {
		return nil, false
	}
	c, ok := in.slope(tr.Arg())
	if !ok {
		return nil, false
	}
	u := tr.Arg()
	den := expr.AddOf(expr.PowOf(a, expr.N(2)), expr.PowOf(c, expr.N(2)))
	var body expr.Expr
	if tr.Name() == "sin" {
		body = expr.MinusOf(expr.MulOf(a, expr.SinOf(u)), expr.MulOf(c, expr.CosOf(u)))
	} else {
		body = expr.AddOf(expr.MulOf(a, expr.CosOf(u)), expr.MulOf(c, expr.SinOf(u)))
	}
	return expr.MulOf(ex, body, expr.InvOf(den)), true
}

// substitute tries u-substitution: e = g(u) u' for a subterm u of e.
func (in *integrator) substitute(e expr.Expr) (expr.Expr, error) {
	t := expr.S("_u" + strconv.Itoa(in.depth))
	for _, u := range in.candidates(e) {
		du, err := diff(u, in.x.Name())
		if err != nil || expr.IsNum(du, 0) {
			continue
		}
		q := expr.DivOf(e, du)
		g := expr.Replace(q, u, t)
		if expr.Has(g, in.x.Name()) {
			c, err := algebra.Cancel(in.ctx, q)
			if err != nil {
				return nil, err
			}
			if g = expr.Replace(c, u, t); expr.Has(g, in.x.Name()) {
				continue
			}
		}
		sub := &integrator{ctx: in.ctx, x: t, depth: in.depth}
		r, err := sub.integrate(g)
		if errs.Has(err, errs.IntegrationUnsupportedError) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return r.Sub(t.Name(), u), nil
	}
	return nil, nil
}

// candidates lists the inner expressions of e worth substituting, outermost
// first.
func (in *integrator) candidates(e expr.Expr) []expr.Expr {
	x := in.x.Name()
	var out []expr.Expr
	seen := map[string]bool{}
	add := func(u expr.Expr) {
		if !expr.Has(u, x) || u.Equal(in.x) || u.Equal(e) {
			return
		}
		if k := u.String(); !seen[k] {
			seen[k] = true
			out = append(out, u)
		}
	}
	expr.Walk(e, func(n expr.Expr) bool {
		switch v := n.(type) {
		case *expr.Func:
			add(v)
			for _, a := range v.Args() {
				add(a)
			}
		case *expr.Pow:
			add(v.Base())
			add(v.Exp())
		}
		return true
	})
	return out
}

// rational integrates quotients of polynomials in x.
func (in *integrator) rational(e expr.Expr) (expr.Expr, error) {
	num, den := algebra.NumerDenom(e)
	if expr.IsNum(den, 1) {
		return nil, nil
	}
	n, err := algebra.Expand(in.ctx, num)
	if err != nil {
		return nil, tooLarge(err)
	}
	d, err := algebra.Expand(in.ctx, den)
	if err != nil {
		return nil, tooLarge(err)
	}
	p, okp := poly.FromExpr(n, in.x)
	q, okq := poly.FromExpr(d, in.x)
	if !okp || !okq || q.Degree() < 1 {
		return nil, nil
	}
	return in.rationalPoly(p, q)
}

// reduce applies the reduction formulas for integer powers of sin, cos and
// tan with a linear argument.
func (in *integrator) reduce(e expr.Expr) (expr.Expr, error) {
	p, ok := e.(*expr.Pow)
	if !ok {
		return nil, nil
	}
	f, ok := p.Base().(*expr.Func)
	if !ok || len(f.Args()) != 1 {
		return nil, nil
	}
	kn, ok := p.Exp().(*expr.Num)
	if !ok {
		return nil, nil
	}
	n, ok := kn.Int64()
	if !ok || n < 2 {
		return nil, nil
	}
	u := f.Arg()
	a, ok := in.slope(u)
	if !ok {
		return nil, nil
	}
	var head, tail expr.Expr
	switch f.Name() {
	case "sin":
		// ∫sin^n = -sin^(n-1) cos / n + (n-1)/n ∫sin^(n-2)
		head = expr.NegOf(expr.MulOf(expr.PowOf(f, expr.N(n-1)), expr.CosOf(u), expr.F(1, n)))
		tail = expr.MulOf(expr.F(n-1, n), expr.PowOf(f, expr.N(n-2)))
	case "cos":
		head = expr.MulOf(expr.PowOf(f, expr.N(n-1)), expr.SinOf(u), expr.F(1, n))
		tail = expr.MulOf(expr.F(n-1, n), expr.PowOf(f, expr.N(n-2)))
	case "tan":
		// ∫tan^n = tan^(n-1) / (n-1) - ∫tan^(n-2)
		head = expr.MulOf(expr.PowOf(f, expr.N(n-1)), expr.F(1, n-1))
		tail = expr.NegOf(expr.PowOf(f, expr.N(n-2)))
	default:
		return nil, nil
	}
	rest, err := in.integrate(tail)
	if err != nil {
		return nil, err
	}
	return expr.AddOf(expr.DivOf(head, a), rest), nil
}

// tooLarge turns an expansion over the size limit into "strategy does not
// apply".
func tooLarge(err error) error {
	if errs.Has(err, errs.ExpressionTooLargeError) {
		return nil
	}
	return err
}

// expand integrates the expanded form of e when expansion changes it.
func (in *integrator) expand(e expr.Expr) (expr.Expr, error) {
	ex, err := algebra.Expand(in.ctx, e)
	if err != nil {
		return nil, tooLarge(err)
	}
	if ex.Equal(e) {
		return nil, nil
	}
	return in.integrate(ex)
}

// LIATE ranks for choosing the differentiated factor in integration by
// parts.
const (
	rankNone = iota
	rankExp
	rankTrig
	rankAlgebraic
	rankInverse
	rankLog
)

func (in *integrator) rank(f expr.Expr) int {
	x := in.x.Name()
	switch v := f.(type) {
	case *expr.Func:
		if !expr.Has(v, x) {
			return rankNone
		}
		switch v.Name() {
		case "ln":
			return rankLog
		case "asin", "acos", "atan":
			return rankInverse
		case "sin", "cos":
			return rankTrig
		}
	case *expr.Pow:
		if v.Base().Equal(expr.E) || !expr.Has(v.Base(), x) {
			return rankExp
		}
		if b, ok := v.Base().(*expr.Func); ok && b.Name() == "ln" {
			if n, ok := v.Exp().(*expr.Num); ok && n.IsInteger() && n.IsPositive() {
				return rankLog
			}
		}
	}
	if p, ok := poly.FromExpr(f, in.x); ok && p.Degree() >= 1 {
		return rankAlgebraic
	}
	return rankNone
}

// parts integrates polynomial × exp/sin/cos and ln/inverse-trig ×
// polynomial as u v - ∫ v du.
func (in *integrator) parts(e expr.Expr) (expr.Expr, error) {
	fs := []expr.Expr{e}
	if m, ok := e.(*expr.Mul); ok {
		fs = m.Factors()
	}
	best, rank := -1, rankNone
	for i, f := range fs {
		if r := in.rank(f); r > rank {
			best, rank = i, r
		}
	}
	if best < 0 {
		return nil, nil
	}
	rest := append(append([]expr.Expr(nil), fs[:best]...), fs[best+1:]...)
	dv := expr.MulOf(rest...)
	switch rank {
	case rankLog, rankInverse:
		if p, ok := poly.FromExpr(dv, in.x); !ok || p.IsZero() {
			return nil, nil
		}
	case rankAlgebraic:
		if len(rest) != 1 {
			return nil, nil
		}
		if r := in.rank(rest[0]); r != rankExp && r != rankTrig {
			return nil, nil
		}
	default:
		return nil, nil
	}
	u := fs[best]
	v, err := in.integrate(dv)
	if err != nil {
		return nil, err
	}
	du, err := diff(u, in.x.Name())
	if err != nil {
		return nil, err
	}
	w, err := in.integrate(expr.MulOf(v, du))
	if err != nil {
		return nil, err
	}
	return expr.MinusOf(expr.MulOf(u, v), w), nil
}
