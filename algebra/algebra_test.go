package algebra_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-quicktest/qt"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
)

func parse(t *testing.T, s string) expr.Expr {
	t.Helper()
	e, err := latex.Parse(s)
	qt.Assert(t, qt.IsNil(err), qt.Commentf("parse %q", s))
	return e
}

type transform func(context.Context, expr.Expr) (expr.Expr, error)

func check(t *testing.T, name string, f transform, tests [][2]string) {
	t.Helper()
	for _, tt := range tests {
		got, err := f(context.Background(), parse(t, tt[0]))
		if err != nil {
			t.Errorf("%s(%s): %v", name, tt[0], err)
			continue
		}
		want := parse(t, tt[1])
		if !got.Equal(want) {
			t.Errorf("%s(%s) = %s, want %s", name, tt[0], latex.Format(got), latex.Format(want))
		}
	}
}

func TestExpand(t *testing.T) {
	check(t, "Expand", algebra.Expand, [][2]string{
		{`(x+1)^2`, `x^2 + 2x + 1`},
		{`(x+y)(x-y)`, `x^2 - y^2`},
		{`2(x+1)`, `2x + 2`},
		{`(a+b)^3`, `a^3 + 3a^2 b + 3a b^2 + b^3`},
		{`\sin((x+1)^2)`, `\sin(x^2 + 2x + 1)`},
		{`\frac{1}{(x+1)^2}`, `\frac{1}{x^2 + 2x + 1}`},
		{`x\sqrt{x+1}`, `x\sqrt{x+1}`},
		{`(x+1)(x+1)^{-1}`, `1`},
	})
}

func TestExpandIdempotent(t *testing.T) {
	ctx := context.Background()
	for _, s := range []string{`(x+1)^3 (x-2)`, `\frac{x+1}{(x-1)^2}`, `(e^{x} + 1)^2`, `(\sin x + \cos x)^2 - 1`} {
		once, err := algebra.Expand(ctx, parse(t, s))
		qt.Assert(t, qt.IsNil(err))
		twice, err := algebra.Expand(ctx, once)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.IsTrue(twice.Equal(once)), qt.Commentf("%s: %s then %s", s, once, twice))
	}
}

func TestExpandLimits(t *testing.T) {
	ctx := budget.WithLimits(context.Background(), budget.Limits{MaxExpandPower: 3})
	for _, s := range []string{`(x+1)^5`, `x (x+1)^5`, `\frac{1}{(x+1)^{5}}`} {
		_, err := algebra.Expand(ctx, parse(t, s))
		qt.Check(t, qt.IsTrue(errs.Has(err, errs.ExpressionTooLargeError)), qt.Commentf("%s: %v", s, err))
	}

	// Simplify skips the expanded and factored candidates it cannot build.
	e := parse(t, `(x+1)^5`)
	got, err := algebra.Simplify(ctx, e)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(got.Equal(e)))

	ctx = budget.With(context.Background(), 10)
	_, err = algebra.Expand(ctx, parse(t, `(x+y+z)^10`))
	qt.Assert(t, qt.IsTrue(errs.Has(err, errs.ComputationTimeoutError)))
}

func TestExpandDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := algebra.Expand(ctx, parse(t, `(a+b+c+d+x+y+z)^{14}`))
	qt.Assert(t, qt.IsTrue(errs.Has(err, errs.ComputationTimeoutError)))
	qt.Check(t, qt.IsTrue(time.Since(start) < 2*time.Second), qt.Commentf("took %v", time.Since(start)))
}

func TestFactor(t *testing.T) {
	tests := [][2]string{
		{`x^2 - 5x + 6`, `(x-2)(x-3)`},
		{`x^2 y - y`, `y(x-1)(x+1)`},
		{`x^2 - y^2`, `(x-y)(x+y)`},
		{`2x^2 - 2`, `2(x-1)(x+1)`},
		{`x^3 - 3x + 2`, `(x-1)^2 (x+2)`},
		{`-x^2 + 1`, `-(x-1)(x+1)`},
		{`\sin^2 x - 1`, `(\sin x - 1)(\sin x + 1)`},
		{`\frac{x^2-1}{x^2+2x+1}`, `\frac{x-1}{x+1}`},
		{`x^2 + 1`, `x^2 + 1`},
		{`6x^2 y + 9x y^2`, `3xy(2x + 3y)`},
		{`\frac{x^2}{2} - \frac{1}{2}`, `\frac{(x-1)(x+1)}{2}`},
	}
	check(t, "Factor", algebra.Factor, tests)

	// Expanding a factorization gives back the expanded input.
	ctx := context.Background()
	for _, tt := range tests[:7] {
		e := parse(t, tt[0])
		f, err := algebra.Factor(ctx, e)
		qt.Assert(t, qt.IsNil(err))
		ef, err := algebra.Expand(ctx, f)
		qt.Assert(t, qt.IsNil(err))
		ee, err := algebra.Expand(ctx, e)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.IsTrue(ef.Equal(ee)), qt.Commentf("%s", tt[0]))
	}
}

func TestNumerDenom(t *testing.T) {
	num, den := algebra.NumerDenom(parse(t, `\frac{x}{2} + \frac{1}{x}`))
	qt.Assert(t, qt.IsTrue(num.Equal(parse(t, `x^2 + 2`))), qt.Commentf("%s", num))
	qt.Assert(t, qt.IsTrue(den.Equal(parse(t, `2x`))), qt.Commentf("%s", den))
}

func TestCancel(t *testing.T) {
	check(t, "Cancel", algebra.Cancel, [][2]string{
		{`\frac{x^2-1}{x-1}`, `x + 1`},
		{`\frac{2x+2}{4x+4}`, `\frac{1}{2}`},
		{`\frac{x}{x^2 + x}`, `\frac{1}{x+1}`},
		{`x + 1`, `x + 1`},
	})
}

func TestSimplify(t *testing.T) {
	check(t, "Simplify", algebra.Simplify, [][2]string{
		{`\sin^2 x + \cos^2 x`, `1`},
		{`3\sin^2 x + 3\cos^2 x + y`, `y + 3`},
		{`\cosh^2 x - \sinh^2 x`, `1`},
		{`\frac{x^2-1}{x-1}`, `x + 1`},
		{`\ln a + \ln b`, `\ln(ab)`},
		{`\frac{\sin x}{\cos x}`, `\tan x`},
		{`2\sin x\cos x`, `\sin(2x)`},
		{`x^2 + 2x + 1`, `(x+1)^2`},
		{`e^{x + \ln 2}`, `2e^{x}`},
		{`\sin\left(\frac{x^2-1}{x-1}\right)`, `\sin(x+1)`},
		{`(\sin x + \cos x)^2 - 2\sin x \cos x`, `1`},
	})
}
