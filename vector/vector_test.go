package vector_test

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/latex"
	"github.com/njchilds90/mathflow/vector"
)

var exprEqual = cmp.Comparer(func(a, b expr.Expr) bool { return a.Equal(b) })

func parseAll(t *testing.T, ss ...string) []expr.Expr {
	t.Helper()
	out := make([]expr.Expr, len(ss))
	for i, s := range ss {
		e, err := latex.Parse(s)
		qt.Assert(t, qt.IsNil(err), qt.Commentf("parse %q", s))
		out[i] = e
	}
	return out
}

func TestGradient(t *testing.T) {
	got, err := vector.Gradient(parseAll(t, `x^2 y + z`)[0], vector.Default())
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, parseAll(t, `2x y`, `x^2`, `1`), exprEqual))
}

func TestDivergence(t *testing.T) {
	got, err := vector.Divergence(parseAll(t, `x^2`, `x y`, `z`), vector.Default())
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, parseAll(t, `3x + 1`)[0], exprEqual))

	_, err = vector.Divergence(parseAll(t, `x`, `y`), vector.Default())
	qt.Check(t, qt.IsTrue(errs.Has(err, errs.DimensionError)))
}

func TestCurl(t *testing.T) {
	got, err := vector.Curl(parseAll(t, `-y`, `x`, `0`), vector.Default())
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, parseAll(t, `0`, `0`, `2`), exprEqual))
	qt.Check(t, qt.Equals(latex.FormatVector(got), `\left\langle 0, 0, 2 \right\rangle`))

	got, err = vector.Curl(parseAll(t, `y z`, `x z`, `x y`), vector.Default())
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, parseAll(t, `0`, `0`, `0`), exprEqual))

	_, err = vector.Curl(parseAll(t, `x`, `y`), parseAll(t, `x`, `y`))
	qt.Check(t, qt.IsTrue(errs.Has(err, errs.DimensionError)))
}

func TestLaplacian(t *testing.T) {
	got, err := vector.Laplacian(parseAll(t, `x^2 + y^2 + z^2`)[0], vector.Default())
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, expr.Expr(expr.N(6)), exprEqual))

	// Any number of coordinates works.
	got, err = vector.Laplacian(parseAll(t, `x^3`)[0], parseAll(t, `x`))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.CmpEquals(got, parseAll(t, `6x`)[0], exprEqual))
}

func TestJacobianHessian(t *testing.T) {
	vars := parseAll(t, `x`, `y`)
	j, err := vector.Jacobian(parseAll(t, `x y`, `x + y`), vars)
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(latex.FormatMatrix(j), latex.FormatMatrix(matrix(t, 2, 2, `y`, `x`, `1`, `1`))))

	h, err := vector.Hessian(parseAll(t, `x^2 y`)[0], vars)
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(latex.FormatMatrix(h), latex.FormatMatrix(matrix(t, 2, 2, `2y`, `2x`, `2x`, `0`))))
}

func matrix(t *testing.T, rows, cols int, cells ...string) *expr.Matrix {
	t.Helper()
	es := parseAll(t, cells...)
	m, err := expr.BuildMatrix(rows, cols, func(i, j int) (expr.Expr, error) { return es[i*cols+j], nil })
	qt.Assert(t, qt.IsNil(err))
	return m
}

func TestCheckVars(t *testing.T) {
	for _, vars := range [][]expr.Expr{
		nil,
		parseAll(t, `x`, `x`),
		parseAll(t, `x`, `2`),
	} {
		_, err := vector.Gradient(expr.S("x"), vars)
		qt.Check(t, qt.IsTrue(errs.Has(err, errs.DimensionError)), qt.Commentf("%v", vars))
	}
}
