package latex

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/kr/pretty"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
)

var (
	x = expr.S("x")
	y = expr.S("y")
	n = expr.S("n")
)

func TestTokenTypeString(t *testing.T) {
	qt.Assert(t, qt.Equals(len(tokenTypeStrings), int(FinalToken)))
	qt.Assert(t, qt.Equals(TokCommand.String(), "COMMAND"))
}

func TestLex(t *testing.T) {
	toks, err := Lex(`\frac{1}{2} x^{0.5}\,+ \alpha`)
	qt.Assert(t, qt.IsNil(err))
	var got []string
	for _, tok := range toks {
		got = append(got, tok.Type.String()+":"+tok.Value)
	}
	qt.Assert(t, qt.DeepEquals(got, []string{
		"COMMAND:frac", "BRACE_LEFT:{", "NUMBER:1", "BRACE_RIGHT:}",
		"BRACE_LEFT:{", "NUMBER:2", "BRACE_RIGHT:}",
		"LETTER:x", "CARET:^", "BRACE_LEFT:{", "NUMBER:0.5", "BRACE_RIGHT:}",
		"PLUS:+", "COMMAND:alpha", "EOF:",
	}))
	qt.Assert(t, qt.Equals(toks[7].Pos, 12))
}

func TestLexErrors(t *testing.T) {
	for _, in := range []string{"1.2.3", "x # y", `x \`} {
		_, err := Lex(in)
		qt.Check(t, qt.IsTrue(errs.Has(err, errs.ParseError)), qt.Commentf("%q", in))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want expr.Expr
	}{
		{`x^2 - 5x + 6`, expr.AddOf(expr.PowOf(x, expr.N(2)), expr.MulOf(expr.N(-5), x), expr.N(6))},
		{`2xy`, expr.MulOf(expr.N(2), x, y)},
		{`\frac{1}{2}`, expr.F(1, 2)},
		{`\frac12`, expr.F(1, 2)},
		{`0.25`, expr.F(1, 4)},
		{`x^23`, expr.MulOf(expr.N(3), expr.PowOf(x, expr.N(2)))},
		{`2^{-1}`, expr.F(1, 2)},
		{`-x^2`, expr.NegOf(expr.PowOf(x, expr.N(2)))},
		{`a \cdot b \div c`, expr.MulOf(expr.S("a"), expr.S("b"), expr.InvOf(expr.S("c")))},
		{`x^{y^{2}}`, expr.PowOf(x, expr.PowOf(y, expr.N(2)))},
		{`\sin^{2} x`, expr.PowOf(expr.SinOf(x), expr.N(2))},
		{`\sin^{-1} x`, expr.AsinOf(x)},
		{`\arctan(x)`, expr.AtanOf(x)},
		{`\sin 2x`, expr.SinOf(expr.MulOf(expr.N(2), x))},
		{`\sin x \cos x`, expr.MulOf(expr.SinOf(x), expr.CosOf(x))},
		{`\sin(x)^2`, expr.PowOf(expr.SinOf(x), expr.N(2))},
		{`\ln x^2`, expr.LnOf(expr.PowOf(x, expr.N(2)))},
		{`\log_{2} x`, expr.DivOf(expr.LnOf(x), expr.LnOf(expr.N(2)))},
		{`\log x`, expr.LnOf(x)},
		{`\sqrt{x}`, expr.SqrtOf(x)},
		{`\sqrt[3]{x}`, expr.PowOf(x, expr.F(1, 3))},
		{`\sqrt{4}`, expr.N(2)},
		{`|x - 1|`, expr.AbsOf(expr.AddOf(x, expr.N(-1)))},
		{`\left| x \right|`, expr.AbsOf(x)},
		{`\left( x + 1 \right) y`, expr.MulOf(expr.AddOf(x, expr.N(1)), y)},
		{`n!`, expr.FactorialOf(n)},
		{`3!`, expr.N(6)},
		{`e^{x}`, expr.ExpOf(x)},
		{`\exp(x)`, expr.ExpOf(x)},
		{`e^{\ln x}`, x},
		{`\pi r^2`, expr.MulOf(expr.Pi, expr.PowOf(expr.S("r"), expr.N(2)))},
		{`\infty`, expr.Inf},
		{`-\infty`, expr.NegInf()},
		{`x_1 + x_{ab}`, expr.AddOf(expr.S("x_1"), expr.S("x_ab"))},
		{`\alpha \beta`, expr.MulOf(expr.S("alpha"), expr.S("beta"))},
		{`\mathrm{rate} t`, expr.MulOf(expr.S("rate"), expr.S("t"))},
		{`\operatorname{sin}(x)`, expr.SinOf(x)},
		{`\operatorname{f}(x, y)`, expr.FuncOf("f", x, y)},
		{`2 \times (x + 1)`, expr.MulOf(expr.N(2), expr.AddOf(x, expr.N(1)))},
		{`\dfrac{x}{y}`, expr.DivOf(x, y)},
		{`x \, y`, expr.MulOf(x, y)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %s, want %s\n%s", tt.in, got, tt.want,
				strings.Join(pretty.Diff(expr.Tree(tt.want), expr.Tree(got)), "\n"))
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"x + ", 4},
		{"(x", 2},
		{`\frac{1}`, 8},
		{"x^2^3", 3},
		{`\foo x`, 0},
		{"x = 1", 2},
		{`\left( x \right]`, 15},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		qt.Assert(t, qt.IsNotNil(err), qt.Commentf("%q", tt.in))
		var e *errs.Error
		qt.Assert(t, qt.ErrorAs(err, &e))
		qt.Check(t, qt.Equals(e.Category, errs.ParseError), qt.Commentf("%q", tt.in))
		qt.Check(t, qt.Equals(e.Pos, tt.pos), qt.Commentf("%q: %v", tt.in, err))
	}
}

func TestParseLimits(t *testing.T) {
	_, err := Parser{MaxNodes: 3}.Parse("x + y + z")
	qt.Assert(t, qt.IsTrue(errs.Has(err, errs.ExpressionTooLargeError)))

	deep := strings.Repeat("(", 20) + "x" + strings.Repeat(")", 20)
	_, err = Parser{MaxDepth: 10}.Parse(deep)
	qt.Assert(t, qt.IsTrue(errs.Has(err, errs.ExpressionTooLargeError)))

	got, err := Parser{MaxDepth: 100}.Parse(deep)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(got.Equal(x)))
}

func TestParseEquation(t *testing.T) {
	lhs, rhs, err := ParseEquation("x^2 = 4")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(lhs.Equal(expr.PowOf(x, expr.N(2)))))
	qt.Assert(t, qt.IsTrue(rhs.Equal(expr.N(4))))

	_, rhs, err = ParseEquation("x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(rhs))

	_, _, err = ParseEquation("x = 1 = 2")
	qt.Assert(t, qt.IsTrue(errs.Has(err, errs.ParseError)))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   expr.Expr
		want string
	}{
		{expr.AddOf(expr.PowOf(x, expr.N(2)), expr.MulOf(expr.N(-5), x), expr.N(6)), `x^{2} - 5 x + 6`},
		{expr.MulOf(expr.N(3), expr.PowOf(x, expr.N(2))), `3 x^{2}`},
		{expr.MulOf(expr.F(1, 2), x), `\frac{x}{2}`},
		{expr.F(-3, 4), `-\frac{3}{4}`},
		{expr.InvOf(x), `\frac{1}{x}`},
		{expr.DivOf(expr.AddOf(x, expr.N(1)), x), `\frac{x + 1}{x}`},
		{expr.MulOf(expr.N(2), expr.AddOf(x, expr.N(1))), `2 \left(x + 1\right)`},
		{expr.SqrtOf(x), `\sqrt{x}`},
		{expr.PowOf(x, expr.F(1, 3)), `\sqrt[3]{x}`},
		{expr.PowOf(x, expr.F(-1, 2)), `\frac{1}{\sqrt{x}}`},
		{expr.PowOf(expr.SinOf(x), expr.N(2)), `\sin^{2}\left(x\right)`},
		{expr.MulOf(expr.N(2), expr.PowOf(expr.N(3), x)), `2 \cdot 3^{x}`},
		{expr.ExpOf(expr.NegOf(x)), `e^{-x}`},
		{expr.NegInf(), `-\infty`},
		{expr.NegOf(x), `-x`},
		{expr.AbsOf(x), `\left|x\right|`},
		{expr.FactorialOf(n), `n!`},
		{expr.FactorialOf(expr.AddOf(n, expr.N(1))), `\left(n + 1\right)!`},
		{expr.S("alpha_1"), `\alpha_{1}`},
		{expr.S("rate"), `\mathrm{rate}`},
		{expr.AddOf(x, expr.SinOf(x)), `x + \sin\left(x\right)`},
		{expr.AtanOf(x), `\arctan\left(x\right)`},
		{expr.MulOf(expr.F(1, 2), expr.SqrtOf(expr.N(2))), `\frac{\sqrt{2}}{2}`},
		{expr.PowOf(expr.AddOf(x, expr.N(1)), expr.N(2)), `\left(x + 1\right)^{2}`},
		{expr.PowOf(expr.F(1, 2), x), `\left(\frac{1}{2}\right)^{x}`},
		{expr.NegOf(expr.AddOf(x, expr.N(-2))), `-\left(x - 2\right)`},
		{expr.MulOf(expr.ExpOf(x), x), `x e^{x}`},
		{expr.MulOf(expr.SinOf(x), expr.PowOf(y, expr.N(2))), `y^{2} \sin\left(x\right)`},
		{expr.PowOf(expr.N(0), expr.N(-2)), `0^{-2}`},
	}
	for _, tt := range tests {
		qt.Check(t, qt.Equals(Format(tt.in), tt.want), qt.Commentf("%s", tt.in))
	}
}

func TestFormatVectorMatrix(t *testing.T) {
	qt.Assert(t, qt.Equals(FormatVector([]expr.Expr{expr.N(0), expr.N(0), expr.N(2)}),
		`\left\langle 0, 0, 2 \right\rangle`))

	cells := []expr.Expr{expr.N(2), x, x, expr.N(0)}
	m, err := expr.BuildMatrix(2, 2, func(i, j int) (expr.Expr, error) { return cells[2*i+j], nil })
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(FormatMatrix(m), `\begin{pmatrix} 2 & x \\ x & 0 \end{pmatrix}`))
	qt.Assert(t, qt.Equals(FormatEquation(x, expr.N(1)), `x = 1`))
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`x^2 - 5x + 6`,
		`\frac{x + 1}{x - 1}`,
		`\frac{3}{2x}`,
		`\sqrt{x^2 + 1}`,
		`\sqrt[3]{2}`,
		`e^{-x^2} \sin(3x)`,
		`\sin^{2} x + \cos^{2} x`,
		`\frac{1}{\sqrt{x}}`,
		`\ln|x| - \ln(x + 1)`,
		`x_1^2 + \alpha_{2} y`,
		`(-1)^{n} \frac{x^{2n}}{(2n)!}`,
		`2 \cdot 3^{x} + \pi`,
		`\arcsin(x) \tanh(x)`,
		`\operatorname{f}(x, y) + \mathrm{rate}`,
		`\frac{\sqrt{2}}{2} x`,
		`x^{\frac{3}{2}} - x^{-2}`,
		`\infty - \infty`,
		`\left|x\right|^{3}`,
		`n!^{2}`,
		`0^{-1}`,
		`\sin(x)^{y}`,
	}
	for _, in := range inputs {
		e, err := Parse(in)
		qt.Assert(t, qt.IsNil(err), qt.Commentf("%q", in))
		out := Format(e)
		back, err := Parse(out)
		qt.Assert(t, qt.IsNil(err), qt.Commentf("%q -> %q", in, out))
		if !back.Equal(e) {
			t.Errorf("round trip of %q through %q gave %s, want %s", in, out, back, e)
		}
	}
}

// Trees the engines build directly, without going through the parser.
func TestRoundTripBuilt(t *testing.T) {
	trees := []expr.Expr{
		expr.NegOf(expr.AddOf(x, expr.N(-2))),
		expr.NegOf(expr.AddOf(expr.Pi, expr.N(-2))),
		expr.NegOf(expr.AddOf(expr.E, expr.NegOf(x), expr.SinOf(y), expr.MulOf(expr.E, x))),
		expr.AddOf(expr.PowOf(y, expr.N(2)), expr.NegOf(expr.AddOf(x, expr.N(1)))),
		expr.MulOf(expr.N(3), expr.NegOf(expr.AddOf(x, expr.N(1)))),
		expr.MulOf(y, expr.NegOf(expr.AddOf(x, expr.N(1)))),
		expr.NegOf(expr.AddOf(expr.PowOf(expr.F(1, 3), n), expr.N(-1))),
		expr.DivOf(expr.NegOf(expr.AddOf(x, expr.N(1))), y),
		expr.MulOf(expr.ExpOf(x), x),
		expr.PowOf(expr.N(0), expr.N(-2)),
	}
	for _, e := range trees {
		out := Format(e)
		back, err := Parse(out)
		qt.Assert(t, qt.IsNil(err), qt.Commentf("%s -> %q", e, out))
		if !back.Equal(e) {
			t.Errorf("round trip of %s through %q gave %s\n%s", e, out, back, pretty.Sprint(back))
		}
	}
}
