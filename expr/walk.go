package expr

import (
	"math"
	"sort"
)

// Args returns the direct children of e.
func Args(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.Terms()
	case *Mul:
		return v.Factors()
	case *Pow:
		return []Expr{v.base, v.exp}
	case *Func:
		return v.Args()
	}
	return nil
}

// Map rebuilds e with f applied to each direct child.
func Map(e Expr, f func(Expr) Expr) Expr {
	switch v := e.(type) {
	case *Add:
		ts := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			ts[i] = f(t)
		}
		return AddOf(ts...)
	case *Mul:
		fs := make([]Expr, len(v.factors))
		for i, t := range v.factors {
			fs[i] = f(t)
		}
		return MulOf(fs...)
	case *Pow:
		return PowOf(f(v.base), f(v.exp))
	case *Func:
		as := make([]Expr, len(v.args))
		for i, a := range v.args {
			as[i] = f(a)
		}
		return FuncOf(v.name, as...)
	}
	return e
}

// MapErr is Map for transformations that can fail.
func MapErr(e Expr, f func(Expr) (Expr, error)) (Expr, error) {
	var firstErr error
	out := Map(e, func(c Expr) Expr {
		if firstErr != nil {
			return c
		}
		r, err := f(c)
		if err != nil {
			firstErr = err
			return c
		}
		return r
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Walk calls visit on e and its descendants in pre-order. Returning false
// from visit skips the children of that node.
func Walk(e Expr, visit func(Expr) bool) {
	if !visit(e) {
		return
	}
	for _, c := range Args(e) {
		Walk(c, visit)
	}
}

// FreeSymbols returns the sorted names of the symbols in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	Walk(e, func(n Expr) bool {
		if s, ok := n.(*Sym); ok {
			seen[s.name] = true
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether symbol name occurs in e.
func Has(e Expr, name string) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if found {
			return false
		}
		if s, ok := n.(*Sym); ok && s.name == name {
			found = true
		}
		return !found
	})
	return found
}

// Contains reports whether sub occurs as a subtree of e.
func Contains(e, sub Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if found || n.Equal(sub) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Replace substitutes value for every subtree equal to old.
func Replace(e, old, value Expr) Expr {
	if e.Equal(old) {
		return value
	}
	return Map(e, func(c Expr) Expr { return Replace(c, old, value) })
}

// Size counts the nodes of e.
func Size(e Expr) int {
	n := 0
	Walk(e, func(Expr) bool { n++; return true })
	return n
}

// Depth is the height of e; a leaf has depth 1.
func Depth(e Expr) int {
	d := 0
	for _, c := range Args(e) {
		if cd := Depth(c); cd > d {
			d = cd
		}
	}
	return d + 1
}

// IsConstant reports whether e contains no symbols.
func IsConstant(e Expr) bool { return len(FreeSymbols(e)) == 0 }

// Float evaluates e numerically. It reports false when a symbol is missing
// from env or the function is unknown. The result may be NaN or ±Inf.
func Float(e Expr, env map[string]float64) (float64, bool) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), true
	case *Const:
		switch v.name {
		case "pi":
			return math.Pi, true
		case "e":
			return math.E, true
		case "oo":
			return math.Inf(1), true
		}
	case *Sym:
		f, ok := env[v.name]
		return f, ok
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			f, ok := Float(t, env)
			if !ok {
				return 0, false
			}
			acc += f
		}
		return acc, true
	case *Mul:
		acc := 1.0
		for _, t := range v.factors {
			f, ok := Float(t, env)
			if !ok {
				return 0, false
			}
			acc *= f
		}
		return acc, true
	case *Pow:
		b, ok1 := Float(v.base, env)
		x, ok2 := Float(v.exp, env)
		if !ok1 || !ok2 {
			return 0, false
		}
		if b < 0 {
			// Real odd roots of negative numbers.
			if q, ok := v.exp.(*Num); ok && !q.IsInteger() && q.val.Denom().Bit(0) == 1 {
				r := math.Pow(-b, x)
				if q.val.Num().Bit(0) == 1 {
					return -r, true
				}
				return r, true
			}
		}
		return math.Pow(b, x), true
	case *Func:
		a, ok := Float(v.args[0], env)
		if !ok {
			return 0, false
		}
		return floatFunc(v.name, a)
	}
	return 0, false
}

func floatFunc(name string, a float64) (float64, bool) {
	switch name {
	case "sin":
		return math.Sin(a), true
	case "cos":
		return math.Cos(a), true
	case "tan":
		return math.Tan(a), true
	case "cot":
		return 1 / math.Tan(a), true
	case "sec":
		return 1 / math.Cos(a), true
	case "csc":
		return 1 / math.Sin(a), true
	case "asin":
		return math.Asin(a), true
	case "acos":
		return math.Acos(a), true
	case "atan":
		return math.Atan(a), true
	case "sinh":
		return math.Sinh(a), true
	case "cosh":
		return math.Cosh(a), true
	case "tanh":
		return math.Tanh(a), true
	case "ln":
		if a < 0 {
			return math.NaN(), true
		}
		return math.Log(a), true
	case "abs":
		return math.Abs(a), true
	case "factorial":
		return math.Gamma(a + 1), true
	}
	return 0, false
}

// Undefined reports whether e contains a subexpression with no real value,
// such as 0^-1, ln(0), ∞ - ∞ or tan(pi/2).
func Undefined(e Expr) bool {
	bad := false
	Walk(e, func(n Expr) bool {
		if bad {
			return false
		}
		switch v := n.(type) {
		case *Pow:
			if IsNum(v.base, 0) {
				if en, ok := v.exp.(*Num); ok && !en.IsPositive() {
					bad = true
				}
			}
		case *Func:
			if a, ok := v.args[0].(*Num); ok {
				switch v.name {
				case "ln":
					bad = !a.IsPositive()
				case "factorial":
					bad = a.IsInteger() && a.IsNegative()
				}
			}
			if v.name == "tan" || v.name == "sec" {
				if q, ok := piMultiple(v.args[0]); ok {
					c, _ := cosPi(q)
					bad = c != nil && IsNum(c, 0)
				}
			}
			if v.name == "cot" || v.name == "csc" {
				if q, ok := piMultiple(v.args[0]); ok {
					s, _ := sinPi(q)
					bad = s != nil && IsNum(s, 0)
				}
			}
		case *Add:
			pos, neg := false, false
			for _, t := range v.terms {
				if sign, ok := IsInf(t); ok {
					pos = pos || sign > 0
					neg = neg || sign < 0
				}
			}
			bad = pos && neg
		}
		return !bad
	})
	return bad
}

// Finite reports whether e is a closed expression with a finite real value.
func Finite(e Expr) bool {
	if Undefined(e) || !IsConstant(e) || Contains(e, Inf) {
		return false
	}
	f, ok := Float(e, nil)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}
