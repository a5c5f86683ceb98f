package expr

import (
	"math/big"
	"strings"
)

// ============================================================
// Func - named function applications
// ============================================================

type Func struct {
	name string
	args []Expr
}

// Known lists the elementary functions understood by every engine, with
// their arity.
var Known = map[string]int{
	"sin": 1, "cos": 1, "tan": 1, "cot": 1, "sec": 1, "csc": 1,
	"asin": 1, "acos": 1, "atan": 1,
	"sinh": 1, "cosh": 1, "tanh": 1,
	"ln": 1, "abs": 1, "factorial": 1,
}

// maxFactorial bounds exact evaluation of n!.
const maxFactorial = 1000

// FuncOf applies the named function. exp and sqrt are rewritten to powers.
func FuncOf(name string, args ...Expr) Expr {
	switch name {
	case "exp":
		return PowOf(E, args[0])
	case "sqrt":
		return SqrtOf(args[0])
	}
	if len(args) == 1 {
		if v, ok := evalFunc(name, args[0]); ok {
			return v
		}
	}
	return &Func{name: name, args: append([]Expr(nil), args...)}
}

func SinOf(arg Expr) Expr       { return FuncOf("sin", arg) }
func CosOf(arg Expr) Expr       { return FuncOf("cos", arg) }
func TanOf(arg Expr) Expr       { return FuncOf("tan", arg) }
func CotOf(arg Expr) Expr       { return FuncOf("cot", arg) }
func SecOf(arg Expr) Expr       { return FuncOf("sec", arg) }
func CscOf(arg Expr) Expr       { return FuncOf("csc", arg) }
func AsinOf(arg Expr) Expr      { return FuncOf("asin", arg) }
func AcosOf(arg Expr) Expr      { return FuncOf("acos", arg) }
func AtanOf(arg Expr) Expr      { return FuncOf("atan", arg) }
func SinhOf(arg Expr) Expr      { return FuncOf("sinh", arg) }
func CoshOf(arg Expr) Expr      { return FuncOf("cosh", arg) }
func TanhOf(arg Expr) Expr      { return FuncOf("tanh", arg) }
func LnOf(arg Expr) Expr        { return FuncOf("ln", arg) }
func AbsOf(arg Expr) Expr       { return FuncOf("abs", arg) }
func FactorialOf(arg Expr) Expr { return FuncOf("factorial", arg) }

var (
	oddFuncs  = map[string]bool{"sin": true, "tan": true, "cot": true, "csc": true, "asin": true, "atan": true, "sinh": true, "tanh": true}
	evenFuncs = map[string]bool{"cos": true, "sec": true, "cosh": true, "abs": true}
	inverses  = map[string]string{"sin": "asin", "cos": "acos", "tan": "atan"}
)

func evalFunc(name string, arg Expr) (Expr, bool) {
	if q, ok := piMultiple(arg); ok {
		if v, ok := trigAtPi(name, q); ok {
			return v, true
		}
	}
	if inner, ok := arg.(*Func); ok && inverses[name] == inner.name {
		return inner.args[0], true
	}
	if NegativeLeading(arg) {
		switch {
		case oddFuncs[name]:
			return NegOf(FuncOf(name, NegOf(arg))), true
		case evenFuncs[name]:
			return FuncOf(name, NegOf(arg)), true
		}
	}

	switch name {
	case "asin", "acos", "atan":
		return inverseTrigAt(name, arg)
	case "sinh", "tanh":
		if IsNum(arg, 0) {
			return N(0), true
		}
	case "cosh":
		if IsNum(arg, 0) {
			return N(1), true
		}
	case "ln":
		switch {
		case IsNum(arg, 1):
			return N(0), true
		case arg.Equal(E):
			return N(1), true
		case arg.Equal(Inf):
			return Inf, true
		}
		if p, ok := arg.(*Pow); ok && p.base.Equal(E) {
			return p.exp, true
		}
	case "abs":
		switch v := arg.(type) {
		case *Num:
			return &Num{val: new(big.Rat).Abs(v.val)}, true
		case *Const:
			return v, true
		case *Pow:
			if v.base.Equal(E) {
				return v, true
			}
		case *Mul:
			if c, ok := v.factors[0].(*Num); ok && c.IsPositive() {
				_, rest := CoeffTerm(v)
				return MulOf(c, AbsOf(rest)), true
			}
		}
	case "factorial":
		if n, ok := arg.(*Num); ok {
			if k, isInt := n.Int64(); isInt && k >= 0 && k <= maxFactorial {
				return I(new(big.Int).MulRange(1, k)), true
			}
		}
	}
	return nil, false
}

// NegativeLeading reports whether e carries an extractable minus sign.
func NegativeLeading(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsNegative()
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			return c.IsNegative()
		}
	}
	return false
}

// piMultiple recognises q*pi for rational q, including 0.
func piMultiple(e Expr) (*big.Rat, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsZero() {
			return new(big.Rat), true
		}
	case *Const:
		if v.Equal(Pi) {
			return big.NewRat(1, 1), true
		}
	case *Mul:
		if len(v.factors) == 2 && v.factors[1].Equal(Pi) {
			if c, ok := v.factors[0].(*Num); ok {
				return c.Rat(), true
			}
		}
	}
	return nil, false
}

var (
	half     = big.NewRat(1, 2)
	sinTable = map[string]Expr{}
)

func init() {
	sinTable["0"] = N(0)
	sinTable["1/6"] = F(1, 2)
	sinTable["1/4"] = MulOf(F(1, 2), SqrtOf(N(2)))
	sinTable["1/3"] = MulOf(F(1, 2), SqrtOf(N(3)))
	sinTable["1/2"] = N(1)
}

// sinPi returns sin(q*pi) when it is a known algebraic value.
func sinPi(q *big.Rat) (Expr, bool) {
	two := big.NewRat(2, 1)
	r := new(big.Rat).Set(q)
	// Reduce into [0, 2).
	k := new(big.Int).Div(r.Num(), new(big.Int).Mul(r.Denom(), big.NewInt(2)))
	r.Sub(r, new(big.Rat).Mul(two, new(big.Rat).SetInt(k)))
	sign := int64(1)
	one := big.NewRat(1, 1)
	if r.Cmp(one) >= 0 {
		r.Sub(r, one)
		sign = -1
	}
	if r.Cmp(half) > 0 {
		r.Sub(one, r)
	}
	v, ok := sinTable[r.RatString()]
	if !ok {
		return nil, false
	}
	return MulOf(N(sign), v), true
}

func cosPi(q *big.Rat) (Expr, bool) { return sinPi(new(big.Rat).Add(q, half)) }

func trigAtPi(name string, q *big.Rat) (Expr, bool) {
	s, okS := sinPi(q)
	c, okC := cosPi(q)
	if !okS || !okC {
		return nil, false
	}
	switch name {
	case "sin":
		return s, true
	case "cos":
		return c, true
	case "tan":
		if IsNum(c, 0) {
			return nil, false
		}
		return DivOf(s, c), true
	case "cot":
		if IsNum(s, 0) {
			return nil, false
		}
		return DivOf(c, s), true
	case "sec":
		if IsNum(c, 0) {
			return nil, false
		}
		return InvOf(c), true
	case "csc":
		if IsNum(s, 0) {
			return nil, false
		}
		return InvOf(s), true
	}
	return nil, false
}

func inverseTrigAt(name string, arg Expr) (Expr, bool) {
	piTimes := func(p, q int64) Expr { return MulOf(F(p, q), Pi) }
	switch name {
	case "asin":
		switch {
		case IsNum(arg, 0):
			return N(0), true
		case IsNum(arg, 1):
			return piTimes(1, 2), true
		case arg.Equal(F(1, 2)):
			return piTimes(1, 6), true
		}
	case "acos":
		switch {
		case IsNum(arg, 0):
			return piTimes(1, 2), true
		case IsNum(arg, 1):
			return N(0), true
		case IsNum(arg, -1):
			return Pi, true
		case arg.Equal(F(1, 2)):
			return piTimes(1, 3), true
		case arg.Equal(F(-1, 2)):
			return piTimes(2, 3), true
		}
	case "atan":
		switch {
		case IsNum(arg, 0):
			return N(0), true
		case IsNum(arg, 1):
			return piTimes(1, 4), true
		case arg.Equal(Inf):
			return piTimes(1, 2), true
		}
	}
	return nil, false
}

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) Sub(name string, value Expr) Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Sub(name, value)
	}
	return FuncOf(f.name, args...)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && equalSlices(f.args, o.args)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "args": jsonSlice(f.args)}
}
func (f *Func) Name() string { return f.name }
func (f *Func) Arg() Expr    { return f.args[0] }
func (f *Func) Args() []Expr { return append([]Expr(nil), f.args...) }
