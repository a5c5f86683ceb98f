// Package expr is the immutable expression tree shared by every engine.
//
// Trees are only built through the smart constructors (AddOf, MulOf, PowOf,
// FuncOf and friends). Each constructor returns the canonical form of its
// input: nested sums and products are flattened, numbers are folded exactly,
// like terms and equal bases are collected, and commutative operands are
// sorted by Compare. Two trees are mathematically identical under these
// rewrites exactly when Equal reports true.
package expr

import (
	"math/big"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	// String is the canonical textual key of the tree. It is injective on
	// canonical trees and is used for sorting and collection.
	String() string
	Equal(other Expr) bool
	// Sub replaces every occurrence of the symbol name with value.
	Sub(name string, value Expr) Expr
	exprType() string
	toJSON() map[string]interface{}
}

// Type names the node kind ("num", "const", "sym", "add", "mul", "pow", "func").
func Type(e Expr) string { return e.exprType() }

// ============================================================
// Num - exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("expr: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// R wraps a copy of r.
func R(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// I wraps a copy of the integer i.
func I(i *big.Int) *Num { return &Num{val: new(big.Rat).SetInt(i)} }

func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 }
func (n *Num) IsNegOne() bool        { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == -1 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) Sign() int             { return n.val.Sign() }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

// Int64 returns the value when it is an integer that fits in an int64.
func (n *Num) Int64() (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

// Numer and Denom return copies of the reduced numerator and denominator.
func (n *Num) Numer() *big.Int { return new(big.Int).Set(n.val.Num()) }
func (n *Num) Denom() *big.Int { return new(big.Int).Set(n.val.Denom()) }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

// ============================================================
// Const - named mathematical constants
// ============================================================

type Const struct{ name string }

var (
	Pi  = &Const{name: "pi"}
	E   = &Const{name: "e"}
	Inf = &Const{name: "oo"}
)

func (c *Const) String() string        { return c.name }
func (c *Const) Name() string          { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

// NegInf is -∞.
func NegInf() Expr { return MulOf(N(-1), Inf) }

// IsInf reports whether e is +∞ or -∞, and its sign.
func IsInf(e Expr) (sign int, ok bool) {
	if e.Equal(Inf) {
		return 1, true
	}
	if m, isMul := e.(*Mul); isMul && len(m.factors) == 2 && m.factors[1].Equal(Inf) {
		if c, isNum := m.factors[0].(*Num); isNum {
			return c.Sign(), true
		}
	}
	return 0, false
}

// ============================================================
// Sym - symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) String() string { return s.name }
func (s *Sym) Name() string   { return s.name }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}
func (s *Sym) exprType() string { return "sym" }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

// ============================================================
// Ordering
// ============================================================

func rank(e Expr) int {
	switch e.(type) {
	case *Num:
		return 0
	case *Const:
		return 1
	case *Sym:
		return 2
	case *Func:
		return 3
	case *Pow:
		return 4
	case *Mul:
		return 5
	case *Add:
		return 6
	}
	return 7
}

// Compare is the total order used to sort the operands of sums and products.
func Compare(a, b Expr) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if an, ok := a.(*Num); ok {
		return an.val.Cmp(b.(*Num).val)
	}
	return strings.Compare(a.String(), b.String())
}

// IsNum reports whether e is the number v.
func IsNum(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == v
}

// AsRat returns the value of e when it is a number.
func AsRat(e Expr) (*big.Rat, bool) {
	n, ok := e.(*Num)
	if !ok {
		return nil, false
	}
	return n.Rat(), true
}
