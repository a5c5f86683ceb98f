package expr

import (
	"math/big"
	"sort"
	"strings"
)

// maxPowBits bounds the size of exact numeric powers. Larger powers are kept
// symbolic.
const maxPowBits = 1 << 14

// ============================================================
// Add - sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if inner, ok := t.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, t)
		}
	}

	type group struct {
		coeff *big.Rat
		rest  Expr
	}
	constant := new(big.Rat)
	groups := map[string]*group{}
	var order []*group
	posInf, negInf := false, false
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant.Add(constant, n.val)
			continue
		}
		if sign, ok := IsInf(t); ok {
			if sign > 0 {
				posInf = true
			} else {
				negInf = true
			}
			continue
		}
		c, rest := CoeffTerm(t)
		k := rest.String()
		g, ok := groups[k]
		if !ok {
			g = &group{coeff: new(big.Rat), rest: rest}
			groups[k] = g
			order = append(order, g)
		}
		g.coeff.Add(g.coeff, c.val)
	}
	switch {
	case posInf && negInf:
		return &Add{terms: []Expr{Inf, NegInf()}}
	case posInf:
		return Inf
	case negInf:
		return NegInf()
	}

	sort.Slice(order, func(i, j int) bool { return Compare(order[i].rest, order[j].rest) < 0 })
	result := make([]Expr, 0, len(order)+1)
	nested := false
	for _, g := range order {
		if g.coeff.Sign() == 0 {
			continue
		}
		t := scale(&Num{val: g.coeff}, g.rest)
		if _, ok := t.(*Add); ok {
			nested = true
		}
		result = append(result, t)
	}
	if constant.Sign() != 0 {
		result = append(result, &Num{val: constant})
	}
	if nested {
		return AddOf(result...)
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// CoeffTerm splits e into its numeric coefficient and the remaining factor.
// For a bare number the rest is 1.
func CoeffTerm(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, N(1)
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			if len(v.factors) == 2 {
				return c, v.factors[1]
			}
			return c, &Mul{factors: v.factors[1:]}
		}
	}
	return N(1), e
}

// scale multiplies a coefficient-free term by c without re-sorting.
func scale(c *Num, rest Expr) Expr {
	if c.IsOne() {
		return rest
	}
	if IsNum(rest, 1) {
		return c
	}
	if m, ok := rest.(*Mul); ok {
		return &Mul{factors: append([]Expr{c}, m.factors...)}
	}
	return &Mul{factors: []Expr{c, rest}}
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(name string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(name, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalSlices(a.terms, o.terms)
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": jsonSlice(a.terms)}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

// ============================================================
// Mul - product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if inner, ok := f.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, f)
		}
	}

	type group struct {
		base Expr
		exps []Expr
	}
	coeff := big.NewRat(1, 1)
	groups := map[string]*group{}
	var order []*group
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff.Mul(coeff, n.val)
			continue
		}
		base, exp := BaseExp(f)
		k := base.String()
		g, ok := groups[k]
		if !ok {
			g = &group{base: base}
			groups[k] = g
			order = append(order, g)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.Sign() == 0 {
		return N(0)
	}

	others := make([]Expr, 0, len(order))
	again := false
	for _, g := range order {
		var p Expr
		if len(g.exps) == 1 {
			p = PowOf(g.base, g.exps[0])
		} else {
			p = PowOf(g.base, AddOf(g.exps...))
		}
		switch v := p.(type) {
		case *Num:
			coeff.Mul(coeff, v.val)
		case *Mul:
			again = true
			others = append(others, v.factors...)
		default:
			others = append(others, p)
		}
	}
	if coeff.Sign() == 0 {
		return N(0)
	}
	if again {
		return MulOf(append([]Expr{&Num{val: coeff}}, others...)...)
	}
	if len(others) == 0 {
		return &Num{val: coeff}
	}
	for _, f := range others {
		if f.Equal(Inf) {
			coeff.SetInt64(int64(coeff.Sign()))
			break
		}
	}

	sort.Slice(others, func(i, j int) bool { return factorLess(others[i], others[j]) })
	c := &Num{val: coeff}
	if c.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{c}, others...)}
}

func factorLess(a, b Expr) bool {
	ba, _ := BaseExp(a)
	bb, _ := BaseExp(b)
	if c := Compare(ba, bb); c != 0 {
		return c < 0
	}
	return Compare(a, b) < 0
}

// BaseExp splits e into base and exponent; non-powers have exponent 1.
func BaseExp(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Sub(name string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(name, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalSlices(m.factors, o.factors)
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": jsonSlice(m.factors)}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

// ============================================================
// Pow - base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr {
	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	switch b := base.(type) {
	case *Num:
		if b.IsOne() {
			return N(1)
		}
		if b.IsZero() {
			if expIsNum && en.IsPositive() {
				return N(0)
			}
			return &Pow{base: base, exp: exp}
		}
		if expIsNum {
			return numPow(b, en)
		}
	case *Const:
		if b.Equal(Inf) {
			if expIsNum {
				if en.IsPositive() {
					return Inf
				}
				return N(0)
			}
		}
		if b.Equal(E) {
			if f, ok := exp.(*Func); ok && f.name == "ln" {
				return f.args[0]
			}
			if m, ok := exp.(*Mul); ok && len(m.factors) == 2 {
				if k, isNum := m.factors[0].(*Num); isNum {
					if f, isLn := m.factors[1].(*Func); isLn && f.name == "ln" {
						return PowOf(f.args[0], k)
					}
				}
			}
		}
	case *Pow:
		if expIsNum && en.IsInteger() {
			return PowOf(b.base, MulOf(b.exp, exp))
		}
		if b.base.Equal(E) {
			return PowOf(E, MulOf(b.exp, exp))
		}
		if inner, ok := b.exp.(*Num); ok && expIsNum {
			// (x^a)^b = x^(ab) holds for -1 < a <= 1.
			if inner.val.Cmp(big.NewRat(-1, 1)) > 0 && inner.val.Cmp(big.NewRat(1, 1)) <= 0 {
				return PowOf(b.base, MulOf(b.exp, exp))
			}
		}
	case *Mul:
		if expIsNum && en.IsInteger() {
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
		if c, ok := b.factors[0].(*Num); ok && c.IsPositive() && expIsNum {
			_, rest := CoeffTerm(b)
			return MulOf(PowOf(c, exp), PowOf(rest, exp))
		}
	}
	return &Pow{base: base, exp: exp}
}

// numPow evaluates b^e exactly when the result is rational, and otherwise
// reduces it to c * n^(p/q) with integer n > 1 and 0 < p/q < 1.
func numPow(b, e *Num) Expr {
	if e.IsInteger() {
		k := e.val.Num()
		bits := int64(b.val.Num().BitLen() + b.val.Denom().BitLen())
		if !k.IsInt64() || abs64(k.Int64())*bits > maxPowBits {
			return &Pow{base: b, exp: e}
		}
		kk := abs64(k.Int64())
		num := new(big.Int).Exp(b.val.Num(), big.NewInt(kk), nil)
		den := new(big.Int).Exp(b.val.Denom(), big.NewInt(kk), nil)
		if k.Sign() < 0 {
			num, den = den, num
		}
		return &Num{val: new(big.Rat).SetFrac(num, den)}
	}

	q := e.val.Denom()
	if !q.IsInt64() || q.Int64() > 64 {
		return &Pow{base: b, exp: e}
	}
	if b.IsNegative() {
		if q.Bit(0) == 0 {
			return &Pow{base: b, exp: e}
		}
		r := numPow(numNeg(b), e)
		if e.val.Num().Bit(0) == 1 {
			return MulOf(N(-1), r)
		}
		return r
	}
	if !b.IsInteger() {
		return MulOf(numPow(I(b.val.Num()), e), numPow(I(b.val.Denom()), numNeg(e)))
	}

	// Split the exponent into floor and fractional part.
	p := e.val.Num()
	fl := new(big.Int).Div(p, q)
	frac := new(big.Rat).Sub(e.val, new(big.Rat).SetInt(fl))
	whole := numPow(b, I(fl))
	wn, ok := whole.(*Num)
	if !ok {
		return &Pow{base: b, exp: e}
	}

	n := b.val.Num()
	qq := q.Int64()
	if root, exact := intRoot(n, qq); exact {
		r := numPow(I(root), &Num{val: new(big.Rat).Mul(frac, new(big.Rat).SetInt64(qq))})
		if rn, ok := r.(*Num); ok {
			return numMul(wn, rn)
		}
	}
	var rest Expr = &Pow{base: b, exp: &Num{val: frac}}
	if frac.Num().IsInt64() && frac.Num().Int64() == 1 && n.BitLen() <= 62 {
		out, in := extractRoot(n.Int64(), qq)
		wn = numMul(wn, N(out))
		if in == 1 {
			return wn
		}
		rest = &Pow{base: N(in), exp: &Num{val: frac}}
	}
	if wn.IsOne() {
		return rest
	}
	return &Mul{factors: []Expr{wn, rest}}
}

// intRoot returns the exact q-th root of n when one exists.
func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if n.Sign() <= 0 {
		return nil, false
	}
	if q == 2 {
		r := new(big.Int).Sqrt(n)
		return r, new(big.Int).Mul(r, r).Cmp(n) == 0
	}
	// Newton iteration on integers.
	x := new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()/int(q)+1))
	qb := big.NewInt(q)
	q1 := big.NewInt(q - 1)
	for {
		// y = ((q-1)x + n / x^(q-1)) / q
		xp := new(big.Int).Exp(x, q1, nil)
		y := new(big.Int).Mul(q1, x)
		y.Add(y, new(big.Int).Div(n, xp))
		y.Div(y, qb)
		if y.Cmp(x) >= 0 {
			break
		}
		x = y
	}
	return x, new(big.Int).Exp(x, qb, nil).Cmp(n) == 0
}

// extractRoot writes n = out^q * in, pulling out small factors.
func extractRoot(n, q int64) (out, in int64) {
	out, in = 1, n
	for d := int64(2); d <= 1000; d++ {
		dq, overflow := pow64(d, q)
		if overflow || dq > in {
			break
		}
		for in%dq == 0 {
			in /= dq
			out *= d
		}
	}
	return out, in
}

func pow64(d, q int64) (int64, bool) {
	r := int64(1)
	for i := int64(0); i < q; i++ {
		if r > (1<<62)/d {
			return 0, true
		}
		r *= d
	}
	return r, false
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	return wrapKey(p.base) + "^" + wrapKey(p.exp)
}

func wrapKey(e Expr) string {
	switch v := e.(type) {
	case *Sym, *Const, *Func:
		return e.String()
	case *Num:
		if v.IsInteger() && v.Sign() >= 0 {
			return e.String()
		}
	}
	return "(" + e.String() + ")"
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr { return p.base }
func (p *Pow) Exp() Expr  { return p.exp }

// ============================================================
// Arithmetic shorthands
// ============================================================

func NegOf(e Expr) Expr      { return MulOf(N(-1), e) }
func MinusOf(a, b Expr) Expr { return AddOf(a, NegOf(b)) }
func DivOf(a, b Expr) Expr   { return MulOf(a, PowOf(b, N(-1))) }
func SqrtOf(e Expr) Expr     { return PowOf(e, F(1, 2)) }
func ExpOf(e Expr) Expr      { return PowOf(E, e) }
func InvOf(e Expr) Expr      { return PowOf(e, N(-1)) }

func equalSlices(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
