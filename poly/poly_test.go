package poly

import (
	"context"
	"math/big"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
)

func strs(fs []Factor) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.P.String()
		if f.Mult > 1 {
			out[i] += "^" + big.NewInt(int64(f.Mult)).String()
		}
	}
	return out
}

func TestArithmetic(t *testing.T) {
	p := FromInts(1, 1)  // x + 1
	q := FromInts(-1, 1) // x - 1
	qt.Assert(t, qt.Equals(Mul(p, q).String(), "1*x^2 + -1"))
	qt.Assert(t, qt.Equals(p.Pow(3).String(), "1*x^3 + 3*x^2 + 3*x + 1"))
	qt.Assert(t, qt.Equals(Sub(p, p).IsZero(), true))

	quo, rem := DivMod(FromInts(2, 0, 1), q)
	qt.Assert(t, qt.Equals(quo.String(), "1*x + 1"))
	qt.Assert(t, qt.Equals(rem.String(), "3"))

	qt.Assert(t, qt.Equals(GCD(FromInts(-1, 0, 1), FromInts(1, -2, 1)).String(), "1*x + -1"))
	qt.Assert(t, qt.Equals(FromInts(5, 3, 1).Derivative().String(), "2*x + 3"))
	qt.Assert(t, qt.Equals(FromInts(1, 0, 1).Eval(big.NewRat(1, 2)).RatString(), "5/4"))
	qt.Assert(t, qt.Equals(FromInts(0, 0, 1).Compose(p).String(), "1*x^2 + 2*x + 1"))
}

func TestPrimitive(t *testing.T) {
	p := New(big.NewRat(1, 2), big.NewRat(-3, 4))
	c, prim := p.Primitive()
	qt.Assert(t, qt.Equals(c.RatString(), "-1/4"))
	qt.Assert(t, qt.Equals(prim.String(), "3*x + -2"))
}

func TestFactorize(t *testing.T) {
	tests := []struct {
		p       Poly
		content string
		want    []string
	}{
		{FromInts(6, -5, 1), "1", []string{"1*x + -3", "1*x + -2"}},
		{FromInts(-2, 0, 2), "2", []string{"1*x + -1", "1*x + 1"}},
		{FromInts(2, -3, 0, 1), "1", []string{"1*x + -1^2", "1*x + 2"}},
		{FromInts(-1, 0, 0, 0, 1), "1", []string{"1*x + -1", "1*x + 1", "1*x^2 + 1"}},
		{FromInts(4, 0, 0, 0, 1), "1", []string{"1*x^2 + -2*x + 2", "1*x^2 + 2*x + 2"}},
		{FromInts(0, 0, 3, 6), "3", []string{"1*x^2", "2*x + 1"}},
		{FromInts(1, 0, 1), "1", []string{"1*x^2 + 1"}},
	}
	for _, tt := range tests {
		c, fs, err := Factorize(context.Background(), tt.p)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(c.RatString(), tt.content), qt.Commentf("%s", tt.p))
		if diff := cmp.Diff(tt.want, strs(fs)); diff != "" {
			t.Errorf("Factorize(%s) mismatch (-want +got):\n%s", tt.p, diff)
		}
	}
}

func TestFactorizeBudget(t *testing.T) {
	ctx := budget.With(context.Background(), 1)
	// The rational-root search alone needs more than one step.
	_, _, err := Factorize(ctx, FromInts(11, 1, 0, 0, 0, 0, 1))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestApart(t *testing.T) {
	quo, fr, err := Apart(context.Background(), FromInts(1), FromInts(-1, 0, 1))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(quo.IsZero()))
	qt.Assert(t, qt.HasLen(fr, 2))
	qt.Assert(t, qt.Equals(fr[0].Numer.String(), "1/2"))
	qt.Assert(t, qt.Equals(fr[0].Base.String(), "1*x + -1"))
	qt.Assert(t, qt.Equals(fr[1].Numer.String(), "-1/2"))
	qt.Assert(t, qt.Equals(fr[1].Base.String(), "1*x + 1"))

	// 1 / (x^2 (x + 1)) has a repeated factor.
	quo, fr, err = Apart(context.Background(), FromInts(1), FromInts(0, 0, 1, 1))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(quo.IsZero()))
	got := map[string]string{}
	for _, f := range fr {
		got[f.Base.String()+"^"+big.NewInt(int64(f.Power)).String()] = f.Numer.String()
	}
	qt.Assert(t, qt.DeepEquals(got, map[string]string{
		"1*x^1":     "-1",
		"1*x^2":     "1",
		"1*x + 1^1": "1",
	}))
}

func TestFromExpr(t *testing.T) {
	x := expr.S("x")
	e := expr.PowOf(expr.AddOf(x, expr.N(1)), expr.N(2))
	p, ok := FromExpr(e, x)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsTrue(p.Equal(FromInts(1, 2, 1))))
	qt.Assert(t, qt.IsTrue(p.Expr(x).Equal(expr.AddOf(expr.PowOf(x, expr.N(2)), expr.MulOf(expr.N(2), x), expr.N(1)))))

	_, ok = FromExpr(expr.SinOf(x), x)
	qt.Assert(t, qt.IsFalse(ok))

	s := expr.SinOf(x)
	p, ok = FromExpr(expr.AddOf(expr.PowOf(s, expr.N(2)), expr.NegOf(expr.N(1))), s)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(p.String(), "1*x^2 + -1"))
}

func TestGenerators(t *testing.T) {
	x := expr.S("x")
	e := expr.AddOf(expr.PowOf(x, expr.N(2)), expr.SinOf(x), expr.SqrtOf(x))
	var got []string
	for _, g := range Generators(e) {
		got = append(got, g.String())
	}
	qt.Assert(t, qt.DeepEquals(got, []string{"sin(x)", "x^(1/2)", "x"}))
}

func TestCoeffs(t *testing.T) {
	x, a, b := expr.S("x"), expr.S("a"), expr.S("b")
	e := expr.AddOf(expr.MulOf(a, expr.PowOf(x, expr.N(2))), b)
	cs, ok := Coeffs(e, x)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(cs, 3))
	qt.Assert(t, qt.IsTrue(cs[0].Equal(b)))
	qt.Assert(t, qt.IsTrue(expr.IsNum(cs[1], 0)))
	qt.Assert(t, qt.IsTrue(cs[2].Equal(a)))
}
