package latex

import (
	"math/big"
	"sort"
	"strings"

	"github.com/njchilds90/mathflow/expr"
)

// Format renders e as LaTeX. Parse(Format(e)) is equal to e.
func Format(e expr.Expr) string {
	switch v := e.(type) {
	case *expr.Num:
		return formatNum(v)
	case *expr.Const:
		return constNames[v.Name()]
	case *expr.Sym:
		return formatName(v.Name())
	case *expr.Add:
		return formatSum(v)
	case *expr.Mul:
		return formatProduct(v)
	case *expr.Pow:
		return formatPow(v)
	case *expr.Func:
		return formatFunc(v)
	}
	return e.String()
}

// FormatEquation renders lhs = rhs.
func FormatEquation(lhs, rhs expr.Expr) string { return Format(lhs) + " = " + Format(rhs) }

// FormatVector renders components as an angle-bracket tuple.
func FormatVector(es []expr.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = Format(e)
	}
	return `\left\langle ` + strings.Join(parts, ", ") + ` \right\rangle`
}

// FormatMatrix renders m as a pmatrix environment.
func FormatMatrix(m *expr.Matrix) string {
	var b strings.Builder
	b.WriteString(`\begin{pmatrix} `)
	for i := 0; i < m.Rows(); i++ {
		if i > 0 {
			b.WriteString(` \\ `)
		}
		for j := 0; j < m.Cols(); j++ {
			if j > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(Format(m.Get(i, j)))
		}
	}
	b.WriteString(` \end{pmatrix}`)
	return b.String()
}

var constNames = map[string]string{"pi": `\pi`, "e": "e", "oo": `\infty`}

var funcCommands = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`, "cot": `\cot`, "sec": `\sec`, "csc": `\csc`,
	"asin": `\arcsin`, "acos": `\arccos`, "atan": `\arctan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"ln": `\ln`,
}

func formatNum(n *expr.Num) string {
	if n.IsInteger() {
		return n.Numer().String()
	}
	num := n.Numer()
	sign := ""
	if num.Sign() < 0 {
		sign = "-"
		num.Neg(num)
	}
	return sign + `\frac{` + num.String() + "}{" + n.Denom().String() + "}"
}

func formatName(name string) string {
	base, sub, ok := strings.Cut(name, "_")
	s := base
	switch {
	case greek[base]:
		s = `\` + base
	case len(base) > 1:
		s = `\mathrm{` + base + "}"
	}
	if ok {
		s += "_{" + sub + "}"
	}
	return s
}

// formatSum orders terms by descending degree and writes negative terms as
// subtractions.
func formatSum(a *expr.Add) string {
	terms := a.Terms()
	degs := make(map[expr.Expr]*big.Rat, len(terms))
	for _, t := range terms {
		degs[t] = degree(t)
	}
	sort.SliceStable(terms, func(i, j int) bool { return degs[terms[i]].Cmp(degs[terms[j]]) > 0 })

	var b strings.Builder
	for i, t := range terms {
		neg := expr.NegativeLeading(t)
		var s string
		if neg {
			s = negated(t)
		} else {
			s = Format(t)
		}
		switch {
		case i == 0 && neg:
			b.WriteString("-" + s)
		case i == 0:
			b.WriteString(s)
		case neg:
			b.WriteString(" - " + s)
		default:
			b.WriteString(" + " + s)
		}
	}
	return b.String()
}

// degree is the total degree of a term in its symbols; non-polynomial
// factors count as zero.
func degree(t expr.Expr) *big.Rat {
	d := new(big.Rat)
	_, rest := expr.CoeffTerm(t)
	factors := []expr.Expr{rest}
	if m, ok := rest.(*expr.Mul); ok {
		factors = m.Factors()
	}
	for _, f := range factors {
		base, exp := expr.BaseExp(f)
		if _, ok := base.(*expr.Sym); !ok {
			continue
		}
		if k, ok := expr.AsRat(exp); ok {
			d.Add(d, k)
		}
	}
	return d
}

// negated formats -t, grouping it when -t is a sum.
func negated(t expr.Expr) string {
	t = expr.NegOf(t)
	if _, ok := t.(*expr.Add); ok {
		return `\left(` + Format(t) + `\right)`
	}
	return Format(t)
}

// polynomialFirst orders symbols and their powers ahead of the other
// factors; the relative order within each group is kept.
func polynomialFirst(fs []expr.Expr) {
	rank := func(f expr.Expr) int {
		if base, exp := expr.BaseExp(f); isSym(base) && isNum(exp) {
			return 0
		}
		return 1
	}
	sort.SliceStable(fs, func(i, j int) bool { return rank(fs[i]) < rank(fs[j]) })
}

func isSym(e expr.Expr) bool { _, ok := e.(*expr.Sym); return ok }
func isNum(e expr.Expr) bool { _, ok := e.(*expr.Num); return ok }

func formatProduct(m *expr.Mul) string {
	if expr.NegativeLeading(m) {
		return "-" + negated(m)
	}
	c, rest := expr.CoeffTerm(m)
	factors := []expr.Expr{rest}
	if rm, ok := rest.(*expr.Mul); ok {
		factors = rm.Factors()
	}
	var num, den []expr.Expr
	for _, f := range factors {
		if p, ok := f.(*expr.Pow); ok {
			if k, ok := p.Exp().(*expr.Num); ok && k.IsNegative() && !expr.IsNum(p.Base(), 0) {
				den = append(den, expr.PowOf(p.Base(), expr.NegOf(k)))
				continue
			}
		}
		num = append(num, f)
	}
	polynomialFirst(num)
	polynomialFirst(den)
	if len(den) == 0 && c.IsInteger() {
		return joinFactors(c.Numer(), num)
	}
	return `\frac{` + joinFactors(c.Numer(), num) + "}{" + joinFactors(c.Denom(), den) + "}"
}

// joinFactors writes c·fs with spaces, or \cdot before a factor that starts
// with a digit.
func joinFactors(c *big.Int, fs []expr.Expr) string {
	var parts []string
	if !c.IsInt64() || c.Int64() != 1 || len(fs) == 0 {
		parts = append(parts, c.String())
	}
	alone := len(parts)+len(fs) == 1
	for _, f := range fs {
		s := Format(f)
		if _, ok := f.(*expr.Add); ok && !alone {
			s = `\left(` + s + `\right)`
		}
		parts = append(parts, s)
	}
	var b strings.Builder
	for i, s := range parts {
		if i > 0 {
			if s[0] >= '0' && s[0] <= '9' {
				b.WriteString(` \cdot `)
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

func formatPow(p *expr.Pow) string {
	base, exp := p.Base(), p.Exp()
	if k, ok := exp.(*expr.Num); ok {
		if k.IsNegative() && !expr.IsNum(base, 0) {
			return `\frac{1}{` + Format(expr.PowOf(base, expr.NegOf(k))) + "}"
		}
		if !k.IsInteger() && k.Numer().IsInt64() && k.Numer().Int64() == 1 {
			if k.Denom().Int64() == 2 {
				return `\sqrt{` + Format(base) + "}"
			}
			return `\sqrt[` + k.Denom().String() + "]{" + Format(base) + "}"
		}
		if f, ok := base.(*expr.Func); ok && k.IsInteger() {
			if cmd, ok := funcCommands[f.Name()]; ok {
				return cmd + "^{" + k.Numer().String() + `}\left(` + Format(f.Arg()) + `\right)`
			}
		}
	}
	return formatBase(base) + "^{" + Format(exp) + "}"
}

func formatBase(e expr.Expr) string {
	switch v := e.(type) {
	case *expr.Sym, *expr.Const, *expr.Func:
		return Format(e)
	case *expr.Num:
		if v.IsInteger() && !v.IsNegative() {
			return Format(e)
		}
	}
	return `\left(` + Format(e) + `\right)`
}

func formatFunc(f *expr.Func) string {
	switch f.Name() {
	case "abs":
		return `\left|` + Format(f.Arg()) + `\right|`
	case "factorial":
		switch f.Arg().(type) {
		case *expr.Sym, *expr.Const:
			return Format(f.Arg()) + "!"
		}
		return `\left(` + Format(f.Arg()) + `\right)!`
	}
	args := f.Args()
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Format(a)
	}
	inner := `\left(` + strings.Join(parts, ", ") + `\right)`
	if cmd, ok := funcCommands[f.Name()]; ok && len(args) == 1 {
		return cmd + inner
	}
	return `\operatorname{` + f.Name() + "}" + inner
}
