package calculus

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
)

// Direction selects the side from which a limit point is approached.
type Direction int

const (
	TwoSided Direction = iota
	FromAbove
	FromBelow
)

func (d Direction) String() string {
	switch d {
	case FromAbove:
		return "+"
	case FromBelow:
		return "-"
	}
	return "+-"
}

// ParseDirection reads "+", "-", or "", "+-", "both" for a two-sided limit.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "+-", "-+", "both":
		return TwoSided, nil
	case "+", "right":
		return FromAbove, nil
	case "-", "left":
		return FromBelow, nil
	}
	return 0, errs.New(errs.RangeError, "unknown limit direction %q", s)
}

// maxHops bounds the number of L'Hôpital steps per limit.
const maxHops = 8

var errNoLimit = errors.New("limit does not exist")

// errBounded marks a factor that oscillates between finite bounds, such as
// sin u with u → ±∞. It decides a product with a vanishing factor or a sum
// with an unbounded term; on its own it means the limit does not exist.
var errBounded = fmt.Errorf("%w: oscillates between finite bounds", errNoLimit)

// tempVar is the local variable t in substitutions x = p ± t and x = ±1/t.
const tempVar = "_t"

// Limit computes the limit of e as the symbol v approaches point from the
// given direction. The point may be finite or ±∞; for infinite points the
// direction is implied.
func Limit(ctx context.Context, e, v, point expr.Expr, dir Direction) (expr.Expr, error) {
	x, err := variable(v)
	if err != nil {
		return nil, err
	}
	r, err := limit(ctx, e, x, point, dir)
	if errors.Is(err, errNoLimit) || errors.Is(err, errNotReal) {
		return nil, errs.Wrap(errs.LimitUndefinedError, err, "limit of %s as %s → %s%s",
			latex.Format(e), x.Name(), latex.Format(point), dirSuffix(dir, point))
	}
	return r, err
}

func dirSuffix(dir Direction, point expr.Expr) string {
	if _, inf := expr.IsInf(point); inf || dir == TwoSided {
		return ""
	}
	return "^" + dir.String()
}

func limit(ctx context.Context, e expr.Expr, x *expr.Sym, point expr.Expr, dir Direction) (expr.Expr, error) {
	l := &limiter{ctx: ctx, t: tempVar}
	t := expr.S(tempVar)
	if sign, ok := expr.IsInf(point); ok {
		return l.at0(e.Sub(x.Name(), expr.MulOf(expr.N(int64(sign)), expr.InvOf(t))), maxHops)
	}
	if r, ok := substitute(e, x.Name(), point); ok && !expr.Contains(r, expr.Inf) {
		return r, nil
	}
	above := func() (expr.Expr, error) { return l.at0(e.Sub(x.Name(), expr.AddOf(point, t)), maxHops) }
	below := func() (expr.Expr, error) { return l.at0(e.Sub(x.Name(), expr.MinusOf(point, t)), maxHops) }
	switch dir {
	case FromAbove:
		return above()
	case FromBelow:
		return below()
	}
	a, errA := above()
	b, errB := below()
	switch {
	case errA == nil && errB == nil:
		if same(a, b) {
			return a, nil
		}
		return nil, fmt.Errorf("%w: one-sided limits %s and %s differ", errNoLimit, latex.Format(a), latex.Format(b))
	case errA == nil && errors.Is(errB, errNotReal):
		return a, nil
	case errB == nil && errors.Is(errA, errNotReal):
		return b, nil
	case errA != nil:
		return nil, errA
	}
	return nil, errB
}

func same(a, b expr.Expr) bool {
	if a.Equal(b) {
		return true
	}
	fa, okA := expr.Float(a, nil)
	fb, okB := expr.Float(b, nil)
	if !okA || !okB || math.IsInf(fa, 0) || math.IsInf(fb, 0) {
		return false
	}
	return math.Abs(fa-fb) <= 1e-12*math.Max(1, math.Abs(fa))
}

func infinity(sign int) expr.Expr {
	if sign < 0 {
		return expr.NegInf()
	}
	return expr.Inf
}

// limiter evaluates limits as t → 0⁺ over the extended reals.
type limiter struct {
	ctx context.Context
	t   string
}

// at0 uses the leading term of the series of f, and falls back to
// evaluating f piecewise with L'Hôpital's rule on indeterminate forms.
func (l *limiter) at0(f expr.Expr, hops int) (expr.Expr, error) {
	if err := budget.Spend(l.ctx, 1); err != nil {
		return nil, err
	}
	if !expr.Has(f, l.t) {
		return f, nil
	}
	lt, ok, err := leading(l.ctx, f, l.t)
	if err != nil {
		return nil, err
	}
	if ok {
		return leadValue(lt)
	}
	switch v := f.(type) {
	case *expr.Add:
		return l.sum(v, hops)
	case *expr.Mul:
		return l.product(v, hops)
	case *expr.Pow:
		return l.power(v, hops)
	case *expr.Func:
		return l.function(v, hops)
	}
	return nil, errNoLimit
}

func leadValue(lt term) (expr.Expr, error) {
	if expr.IsNum(lt.c, 0) || lt.k.Sign() > 0 {
		return expr.N(0), nil
	}
	if lt.k.Sign() == 0 && lt.l == 0 {
		return lt.c, nil
	}
	sign, ok := termSign(lt)
	if !ok {
		return nil, fmt.Errorf("%w: unbounded with no definite sign", errNoLimit)
	}
	return infinity(sign), nil
}

func (l *limiter) sum(a *expr.Add, hops int) (expr.Expr, error) {
	var finite []expr.Expr
	pos, neg, bounded := false, false, false
	for _, t := range a.Terms() {
		r, err := l.at0(t, hops)
		if errors.Is(err, errBounded) {
			bounded = true
			continue
		}
		if err != nil {
			return nil, err
		}
		if sign, inf := expr.IsInf(r); inf {
			pos = pos || sign > 0
			neg = neg || sign < 0
			continue
		}
		finite = append(finite, r)
	}
	switch {
	case pos && neg:
		tog, err := algebra.Together(l.ctx, a)
		if err != nil {
			return nil, err
		}
		if _, isAdd := tog.(*expr.Add); isAdd {
			return nil, fmt.Errorf("%w: indeterminate form ∞ - ∞", errNoLimit)
		}
		return l.at0(tog, hops)
	case pos:
		return expr.Inf, nil
	case neg:
		return expr.NegInf(), nil
	case bounded:
		return nil, errBounded
	}
	return expr.AddOf(finite...), nil
}

func (l *limiter) product(m *expr.Mul, hops int) (expr.Expr, error) {
	var zeros, infs, finite []expr.Expr
	sign, bounded := 1, false
	for _, f := range m.Factors() {
		r, err := l.at0(f, hops)
		if errors.Is(err, errBounded) {
			bounded = true
			continue
		}
		if err != nil {
			return nil, err
		}
		if expr.IsNum(r, 0) {
			zeros = append(zeros, f)
			continue
		}
		if s, inf := expr.IsInf(r); inf {
			infs = append(infs, f)
			sign *= s
			continue
		}
		finite = append(finite, r)
	}
	c := expr.MulOf(finite...)
	switch {
	case bounded && len(zeros) > 0 && len(infs) == 0:
		return expr.N(0), nil
	case bounded && len(infs) == 0:
		return nil, errBounded
	case bounded:
		return nil, fmt.Errorf("%w: unbounded factor times an oscillating one", errNoLimit)
	case len(zeros) > 0 && len(infs) == 0:
		return expr.N(0), nil
	case len(infs) == 0:
		return c, nil
	case len(zeros) == 0:
		return scaleInfinity(c, sign)
	}
	// 0 * ∞ is rewritten as ∞ / ∞.
	q, err := l.lhopital(expr.MulOf(infs...), expr.InvOf(expr.MulOf(zeros...)), hops)
	if err != nil {
		return nil, err
	}
	if s, inf := expr.IsInf(q); inf {
		return scaleInfinity(c, s)
	}
	return expr.MulOf(c, q), nil
}

func scaleInfinity(c expr.Expr, sign int) (expr.Expr, error) {
	f, ok := expr.Float(c, nil)
	if !ok || f == 0 || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: unbounded with no definite sign", errNoLimit)
	}
	if f < 0 {
		sign = -sign
	}
	return infinity(sign), nil
}

func (l *limiter) lhopital(num, den expr.Expr, hops int) (expr.Expr, error) {
	if hops == 0 {
		return nil, fmt.Errorf("%w: L'Hôpital's rule did not converge", errNoLimit)
	}
	dn, err := diff(num, l.t)
	if err != nil {
		return nil, err
	}
	dd, err := diff(den, l.t)
	if err != nil {
		return nil, err
	}
	return l.at0(expr.DivOf(dn, dd), hops-1)
}

func (l *limiter) power(p *expr.Pow, hops int) (expr.Expr, error) {
	b, k := p.Base(), p.Exp()
	switch {
	case b.Equal(expr.E):
		u, err := l.at0(k, hops)
		if err != nil {
			return nil, err
		}
		if sign, inf := expr.IsInf(u); inf {
			if sign > 0 {
				return expr.Inf, nil
			}
			return expr.N(0), nil
		}
		return expr.ExpOf(u), nil

	case !expr.Has(k, l.t):
		kf, ok := expr.Float(k, nil)
		if !ok {
			return nil, errNoLimit
		}
		bv, err := l.at0(b, hops)
		if errors.Is(err, errBounded) && kf < 0 {
			return nil, fmt.Errorf("%w: negative power of an oscillating base", errNoLimit)
		}
		if err != nil {
			return nil, err
		}
		if sign, inf := expr.IsInf(bv); inf {
			switch {
			case kf < 0:
				return expr.N(0), nil
			case sign > 0:
				return expr.Inf, nil
			}
			if n, isNum := k.(*expr.Num); isNum && n.IsInteger() {
				if n.Numer().Bit(0) == 1 {
					return expr.NegInf(), nil
				}
				return expr.Inf, nil
			}
			return nil, errNotReal
		}
		if expr.IsNum(bv, 0) && kf < 0 {
			if positive(b) {
				return expr.Inf, nil
			}
			return nil, fmt.Errorf("%w: division by a vanishing term of unknown sign", errNoLimit)
		}
		r := expr.PowOf(bv, k)
		if expr.Undefined(r) {
			return nil, errNoLimit
		}
		return r, nil

	case !expr.Has(b, l.t):
		bf, ok := expr.Float(b, nil)
		if !ok {
			return nil, errNoLimit
		}
		u, err := l.at0(k, hops)
		if err != nil {
			return nil, err
		}
		if sign, inf := expr.IsInf(u); inf {
			switch {
			case bf == 1:
				return expr.N(1), nil
			case bf > 1 && sign > 0, bf > 0 && bf < 1 && sign < 0:
				return expr.Inf, nil
			case bf > 0:
				return expr.N(0), nil
			}
			return nil, errNotReal
		}
		return expr.PowOf(b, u), nil
	}
	return l.at0(expr.ExpOf(expr.MulOf(k, expr.LnOf(b))), hops)
}

// boundedFuncs map any bounded argument to a bounded value.
var boundedFuncs = map[string]bool{
	"sin": true, "cos": true, "atan": true, "tanh": true, "sinh": true, "cosh": true, "abs": true,
}

// positive reports whether e is positive wherever it is defined.
func positive(e expr.Expr) bool {
	switch v := e.(type) {
	case *expr.Pow:
		return v.Base().Equal(expr.E)
	case *expr.Func:
		return v.Name() == "abs" || v.Name() == "cosh"
	}
	return false
}

func (l *limiter) function(f *expr.Func, hops int) (expr.Expr, error) {
	if len(f.Args()) != 1 {
		return nil, errNoLimit
	}
	a, err := l.at0(f.Arg(), hops)
	if errors.Is(err, errBounded) {
		if boundedFuncs[f.Name()] {
			return nil, errBounded
		}
		return nil, fmt.Errorf("%w: %s of an oscillating argument", errNoLimit, f.Name())
	}
	if err != nil {
		return nil, err
	}
	if sign, inf := expr.IsInf(a); inf {
		switch f.Name() {
		case "ln":
			if sign > 0 {
				return expr.Inf, nil
			}
			return nil, errNotReal
		case "atan":
			return expr.MulOf(expr.F(int64(sign), 2), expr.Pi), nil
		case "tanh":
			return expr.N(int64(sign)), nil
		case "sinh":
			return infinity(sign), nil
		case "cosh", "abs":
			return expr.Inf, nil
		case "sin", "cos":
			return nil, fmt.Errorf("%w: %s", errBounded, f.Name())
		}
		return nil, fmt.Errorf("%w: %s oscillates", errNoLimit, f.Name())
	}
	r := expr.FuncOf(f.Name(), a)
	if expr.Undefined(r) {
		if f.Name() == "ln" && expr.IsNum(a, 0) {
			return expr.NegInf(), nil
		}
		return nil, errNoLimit
	}
	return r, nil
}
