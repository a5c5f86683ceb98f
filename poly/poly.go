// Package poly implements dense univariate polynomials with rational
// coefficients, the arithmetic behind factoring, cancellation and partial
// fractions.
package poly

import (
	"fmt"
	"math/big"
	"strings"
)

// Poly is a polynomial c[0] + c[1] x + ... + c[n] x^n. The zero polynomial
// has no coefficients. Values are never mutated after construction.
type Poly struct{ c []*big.Rat }

// New builds a polynomial from coefficients in ascending order.
func New(coeffs ...*big.Rat) Poly {
	c := make([]*big.Rat, len(coeffs))
	for i, r := range coeffs {
		c[i] = new(big.Rat).Set(r)
	}
	return trim(c)
}

// FromInts builds a polynomial from integer coefficients in ascending order.
func FromInts(coeffs ...int64) Poly {
	c := make([]*big.Rat, len(coeffs))
	for i, v := range coeffs {
		c[i] = new(big.Rat).SetInt64(v)
	}
	return trim(c)
}

// Monomial is r x^n.
func Monomial(r *big.Rat, n int) Poly {
	c := make([]*big.Rat, n+1)
	for i := range c {
		c[i] = new(big.Rat)
	}
	c[n] = new(big.Rat).Set(r)
	return trim(c)
}

// X is the polynomial x.
func X() Poly { return FromInts(0, 1) }

// Const is the constant polynomial r.
func Const(r *big.Rat) Poly { return New(r) }

func trim(c []*big.Rat) Poly {
	n := len(c)
	for n > 0 && c[n-1].Sign() == 0 {
		n--
	}
	return Poly{c: c[:n]}
}

// Degree is -1 for the zero polynomial.
func (p Poly) Degree() int { return len(p.c) - 1 }
func (p Poly) IsZero() bool { return len(p.c) == 0 }

// Coeff returns a copy of the coefficient of x^i.
func (p Poly) Coeff(i int) *big.Rat {
	if i < 0 || i >= len(p.c) {
		return new(big.Rat)
	}
	return new(big.Rat).Set(p.c[i])
}

// Coeffs returns copies of all coefficients in ascending order.
func (p Poly) Coeffs() []*big.Rat {
	out := make([]*big.Rat, len(p.c))
	for i, r := range p.c {
		out[i] = new(big.Rat).Set(r)
	}
	return out
}

// Lead is the leading coefficient; zero for the zero polynomial.
func (p Poly) Lead() *big.Rat { return p.Coeff(p.Degree()) }

func (p Poly) Equal(q Poly) bool {
	if len(p.c) != len(q.c) {
		return false
	}
	for i := range p.c {
		if p.c[i].Cmp(q.c[i]) != 0 {
			return false
		}
	}
	return true
}

func Add(p, q Poly) Poly {
	n := max(len(p.c), len(q.c))
	c := make([]*big.Rat, n)
	for i := range c {
		c[i] = new(big.Rat).Add(p.Coeff(i), q.Coeff(i))
	}
	return trim(c)
}

func Sub(p, q Poly) Poly { return Add(p, Scale(q, big.NewRat(-1, 1))) }

func Scale(p Poly, r *big.Rat) Poly {
	c := make([]*big.Rat, len(p.c))
	for i, v := range p.c {
		c[i] = new(big.Rat).Mul(v, r)
	}
	return trim(c)
}

func Mul(p, q Poly) Poly {
	if p.IsZero() || q.IsZero() {
		return Poly{}
	}
	c := make([]*big.Rat, len(p.c)+len(q.c)-1)
	for i := range c {
		c[i] = new(big.Rat)
	}
	t := new(big.Rat)
	for i, a := range p.c {
		for j, b := range q.c {
			c[i+j].Add(c[i+j], t.Mul(a, b))
		}
	}
	return trim(c)
}

// Pow raises p to a non-negative integer power.
func (p Poly) Pow(n int) Poly {
	result := FromInts(1)
	base := p
	for n > 0 {
		if n&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		n >>= 1
	}
	return result
}

// DivMod divides p by a non-zero q over the rationals.
func DivMod(p, q Poly) (quo, rem Poly) {
	if q.IsZero() {
		panic("poly: division by zero polynomial")
	}
	r := p.Coeffs()
	dq := q.Degree()
	lead := q.c[dq]
	if p.Degree() < dq {
		return Poly{}, p
	}
	qc := make([]*big.Rat, p.Degree()-dq+1)
	for i := range qc {
		qc[i] = new(big.Rat)
	}
	t := new(big.Rat)
	for i := len(r) - 1; i >= dq; i-- {
		if r[i].Sign() == 0 {
			continue
		}
		f := new(big.Rat).Quo(r[i], lead)
		qc[i-dq] = f
		for j := 0; j <= dq; j++ {
			r[i-dq+j].Sub(r[i-dq+j], t.Mul(f, q.c[j]))
		}
	}
	return trim(qc), trim(r[:dq])
}

// Divides reports whether q divides p exactly, returning the quotient.
func Divides(q, p Poly) (Poly, bool) {
	quo, rem := DivMod(p, q)
	return quo, rem.IsZero()
}

// Monic scales p to leading coefficient 1.
func (p Poly) Monic() Poly {
	if p.IsZero() {
		return p
	}
	return Scale(p, new(big.Rat).Inv(p.Lead()))
}

// GCD is the monic greatest common divisor.
func GCD(p, q Poly) Poly {
	for !q.IsZero() {
		_, r := DivMod(p, q)
		p, q = q, r
	}
	return p.Monic()
}

func (p Poly) Derivative() Poly {
	if len(p.c) <= 1 {
		return Poly{}
	}
	c := make([]*big.Rat, len(p.c)-1)
	for i := 1; i < len(p.c); i++ {
		c[i-1] = new(big.Rat).Mul(p.c[i], new(big.Rat).SetInt64(int64(i)))
	}
	return trim(c)
}

// Eval computes p(r) by Horner's rule.
func (p Poly) Eval(r *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p.c) - 1; i >= 0; i-- {
		acc.Mul(acc, r)
		acc.Add(acc, p.c[i])
	}
	return acc
}

// Compose returns p(q).
func (p Poly) Compose(q Poly) Poly {
	result := Poly{}
	for i := len(p.c) - 1; i >= 0; i-- {
		result = Add(Mul(result, q), Const(p.c[i]))
	}
	return result
}

// Primitive splits p into a rational content and a primitive integer
// polynomial with positive leading coefficient, so that p = content * prim.
func (p Poly) Primitive() (*big.Rat, Poly) {
	if p.IsZero() {
		return new(big.Rat), p
	}
	lcm := big.NewInt(1)
	for _, v := range p.c {
		d := v.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	ints := make([]*big.Int, len(p.c))
	g := new(big.Int)
	for i, v := range p.c {
		n := new(big.Int).Mul(v.Num(), new(big.Int).Quo(lcm, v.Denom()))
		ints[i] = n
		g.GCD(nil, nil, g, new(big.Int).Abs(n))
	}
	if p.Lead().Sign() < 0 {
		g.Neg(g)
	}
	c := make([]*big.Rat, len(ints))
	for i, n := range ints {
		c[i] = new(big.Rat).SetInt(new(big.Int).Quo(n, g))
	}
	content := new(big.Rat).SetFrac(g, lcm)
	return content, Poly{c: c}
}

func (p Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	var parts []string
	for i := len(p.c) - 1; i >= 0; i-- {
		if p.c[i].Sign() == 0 {
			continue
		}
		switch i {
		case 0:
			parts = append(parts, p.c[i].RatString())
		case 1:
			parts = append(parts, fmt.Sprintf("%s*x", p.c[i].RatString()))
		default:
			parts = append(parts, fmt.Sprintf("%s*x^%d", p.c[i].RatString(), i))
		}
	}
	return strings.Join(parts, " + ")
}
