package expr_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/mathflow/expr"
)

var (
	x = expr.S("x")
	y = expr.S("y")
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := expr.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := expr.F(2, 6)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_Int64(t *testing.T) {
	if v, ok := expr.N(-7).Int64(); !ok || v != -7 {
		t.Errorf("want -7, got %d (%v)", v, ok)
	}
	if _, ok := expr.F(1, 2).Int64(); ok {
		t.Errorf("1/2 is not an integer")
	}
}

// ============================================================
// Add tests
// ============================================================

func TestAdd_Simple(t *testing.T) {
	e := expr.AddOf(x, expr.N(3))
	if e.String() != "x + 3" {
		t.Errorf("want 'x + 3', got %s", e)
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	e := expr.AddOf(expr.N(1), expr.N(-1))
	if e.String() != "0" {
		t.Errorf("want 0, got %s", e)
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	e := expr.AddOf(x, x, expr.MulOf(expr.N(3), x))
	if e.String() != "5*x" {
		t.Errorf("want '5*x', got %s", e)
	}
}

func TestAdd_LikeTermsCancel(t *testing.T) {
	e := expr.AddOf(expr.MulOf(x, y), expr.NegOf(expr.MulOf(y, x)), expr.N(2))
	if e.String() != "2" {
		t.Errorf("want 2, got %s", e)
	}
}

func TestAdd_OrderIndependent(t *testing.T) {
	a := expr.AddOf(expr.PowOf(x, expr.N(2)), y, expr.N(1), x)
	b := expr.AddOf(expr.N(1), x, y, expr.PowOf(x, expr.N(2)))
	if !a.Equal(b) {
		t.Errorf("want equal, got %s and %s", a, b)
	}
}

func TestAdd_NestedCollapse(t *testing.T) {
	// 2(x+1) - (x+1) leaves the inner sum, which flattens into the outer.
	s := expr.AddOf(x, expr.N(1))
	e := expr.AddOf(expr.MulOf(expr.N(2), s), expr.NegOf(s), y)
	want := expr.AddOf(x, y, expr.N(1))
	if !e.Equal(want) {
		t.Errorf("want %s, got %s", want, e)
	}
}

func TestAdd_Infinity(t *testing.T) {
	if e := expr.AddOf(expr.Inf, x, expr.N(3)); !e.Equal(expr.Inf) {
		t.Errorf("want oo, got %s", e)
	}
	if e := expr.AddOf(expr.Inf, expr.NegInf()); !expr.Undefined(e) {
		t.Errorf("oo - oo should be undefined, got %s", e)
	}
}

// ============================================================
// Mul tests
// ============================================================

func TestMul_FoldsNumbers(t *testing.T) {
	e := expr.MulOf(expr.N(2), x, expr.N(3))
	if e.String() != "6*x" {
		t.Errorf("want 6*x, got %s", e)
	}
}

func TestMul_ZeroAnnihilates(t *testing.T) {
	e := expr.MulOf(expr.N(0), x, y)
	if e.String() != "0" {
		t.Errorf("want 0, got %s", e)
	}
}

func TestMul_CombinesBases(t *testing.T) {
	e := expr.MulOf(x, expr.PowOf(x, expr.N(2)), y)
	if e.String() != "x^3*y" {
		t.Errorf("want x^3*y, got %s", e)
	}
	if q := expr.DivOf(x, x); !expr.IsNum(q, 1) {
		t.Errorf("x/x should be 1, got %s", q)
	}
}

func TestMul_DoesNotDistribute(t *testing.T) {
	e := expr.MulOf(expr.N(2), expr.AddOf(x, expr.N(1)))
	if e.String() != "2*(x + 1)" {
		t.Errorf("want 2*(x + 1), got %s", e)
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_ZeroAndOne(t *testing.T) {
	if e := expr.PowOf(x, expr.N(0)); !expr.IsNum(e, 1) {
		t.Errorf("x^0 should be 1, got %s", e)
	}
	if e := expr.PowOf(x, expr.N(1)); !e.Equal(x) {
		t.Errorf("x^1 should be x, got %s", e)
	}
	if e := expr.PowOf(expr.N(0), expr.N(-1)); !expr.Undefined(e) {
		t.Errorf("0^-1 should stay undefined, got %s", e)
	}
}

func TestPow_Numbers(t *testing.T) {
	tests := []struct {
		base, exp expr.Expr
		want      string
	}{
		{expr.N(2), expr.N(10), "1024"},
		{expr.N(2), expr.N(-2), "1/4"},
		{expr.N(4), expr.F(1, 2), "2"},
		{expr.N(8), expr.F(2, 3), "4"},
		{expr.F(1, 4), expr.F(1, 2), "1/2"},
		{expr.N(8), expr.F(1, 2), "2*2^(1/2)"},
		{expr.N(2), expr.F(3, 2), "2*2^(1/2)"},
		{expr.N(-8), expr.F(1, 3), "-2"},
	}
	for _, tt := range tests {
		got := expr.PowOf(tt.base, tt.exp)
		if got.String() != tt.want {
			t.Errorf("%s^%s: want %s, got %s", tt.base, tt.exp, tt.want, got)
		}
	}
}

func TestPow_Merge(t *testing.T) {
	e := expr.PowOf(expr.PowOf(x, expr.N(2)), expr.N(3))
	if e.String() != "x^6" {
		t.Errorf("want x^6, got %s", e)
	}
	e = expr.PowOf(expr.SqrtOf(x), expr.N(2))
	if !e.Equal(x) {
		t.Errorf("want x, got %s", e)
	}
	// sqrt(x^2) is |x|, not x.
	e = expr.SqrtOf(expr.PowOf(x, expr.N(2)))
	if e.Equal(x) {
		t.Errorf("sqrt(x^2) must not collapse to x")
	}
}

func TestPow_DistributesIntegerPower(t *testing.T) {
	e := expr.PowOf(expr.MulOf(expr.N(2), x), expr.N(3))
	if e.String() != "8*x^3" {
		t.Errorf("want 8*x^3, got %s", e)
	}
}

func TestPow_ExpLog(t *testing.T) {
	if e := expr.ExpOf(expr.LnOf(x)); !e.Equal(x) {
		t.Errorf("e^ln x: want x, got %s", e)
	}
	if e := expr.ExpOf(expr.MulOf(expr.N(2), expr.LnOf(x))); e.String() != "x^2" {
		t.Errorf("e^(2 ln x): want x^2, got %s", e)
	}
	if e := expr.LnOf(expr.ExpOf(x)); !e.Equal(x) {
		t.Errorf("ln e^x: want x, got %s", e)
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_SpecialValues(t *testing.T) {
	tests := []struct {
		got  expr.Expr
		want string
	}{
		{expr.SinOf(expr.N(0)), "0"},
		{expr.CosOf(expr.N(0)), "1"},
		{expr.SinOf(expr.MulOf(expr.F(1, 6), expr.Pi)), "1/2"},
		{expr.CosOf(expr.Pi), "-1"},
		{expr.CosOf(expr.MulOf(expr.F(1, 4), expr.Pi)), "1/2*2^(1/2)"},
		{expr.TanOf(expr.MulOf(expr.F(1, 3), expr.Pi)), "3^(1/2)"},
		{expr.SinOf(expr.MulOf(expr.N(7), expr.Pi)), "0"},
		{expr.AtanOf(expr.N(1)), "1/4*pi"},
		{expr.AcosOf(expr.N(-1)), "pi"},
		{expr.LnOf(expr.N(1)), "0"},
		{expr.LnOf(expr.E), "1"},
		{expr.FactorialOf(expr.N(5)), "120"},
		{expr.AbsOf(expr.N(-3)), "3"},
	}
	for _, tt := range tests {
		if tt.got.String() != tt.want {
			t.Errorf("want %s, got %s", tt.want, tt.got)
		}
	}
}

func TestFunc_Parity(t *testing.T) {
	if e := expr.SinOf(expr.NegOf(x)); e.String() != "-1*sin(x)" {
		t.Errorf("sin(-x): want -1*sin(x), got %s", e)
	}
	if e := expr.CosOf(expr.NegOf(x)); e.String() != "cos(x)" {
		t.Errorf("cos(-x): want cos(x), got %s", e)
	}
}

func TestFunc_NoFloatingValues(t *testing.T) {
	e := expr.SinOf(expr.N(1))
	if e.String() != "sin(1)" {
		t.Errorf("sin(1) must stay exact, got %s", e)
	}
}

func TestFunc_TanUndefined(t *testing.T) {
	e := expr.TanOf(expr.MulOf(expr.F(1, 2), expr.Pi))
	if !expr.Undefined(e) {
		t.Errorf("tan(pi/2) should be undefined, got %s", e)
	}
}

// ============================================================
// Helpers
// ============================================================

func TestSub(t *testing.T) {
	e := expr.AddOf(expr.PowOf(x, expr.N(2)), expr.MulOf(expr.N(3), x), y)
	got := e.Sub("x", expr.N(2))
	want := expr.AddOf(y, expr.N(10))
	if !got.Equal(want) {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestFreeSymbols(t *testing.T) {
	e := expr.AddOf(expr.SinOf(y), expr.MulOf(x, expr.S("z")), expr.Pi)
	got := strings.Join(expr.FreeSymbols(e), ",")
	if got != "x,y,z" {
		t.Errorf("want x,y,z, got %s", got)
	}
}

func TestReplace(t *testing.T) {
	s := expr.SinOf(x)
	e := expr.AddOf(expr.PowOf(s, expr.N(2)), s)
	u := expr.S("u")
	got := expr.Replace(e, s, u)
	want := expr.AddOf(expr.PowOf(u, expr.N(2)), u)
	if !got.Equal(want) {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestSizeDepth(t *testing.T) {
	e := expr.MulOf(expr.N(2), expr.SinOf(x))
	if expr.Size(e) != 4 {
		t.Errorf("want size 4, got %d", expr.Size(e))
	}
	if expr.Depth(e) != 3 {
		t.Errorf("want depth 3, got %d", expr.Depth(e))
	}
}

func TestFloat(t *testing.T) {
	e := expr.AddOf(expr.PowOf(x, expr.N(2)), expr.SinOf(expr.Pi))
	got, ok := expr.Float(e, map[string]float64{"x": 3})
	if !ok || math.Abs(got-9) > 1e-12 {
		t.Errorf("want 9, got %v (%v)", got, ok)
	}
	if _, ok := expr.Float(x, nil); ok {
		t.Errorf("unbound symbol should not evaluate")
	}
}

func TestFinite(t *testing.T) {
	if !expr.Finite(expr.SqrtOf(expr.N(2))) {
		t.Errorf("sqrt(2) is finite")
	}
	if expr.Finite(expr.LnOf(expr.N(0))) {
		t.Errorf("ln 0 is not finite")
	}
	if expr.Finite(x) {
		t.Errorf("x is not closed")
	}
}

func TestMatrix(t *testing.T) {
	m, err := expr.BuildMatrix(2, 3, func(i, j int) (expr.Expr, error) {
		return expr.MulOf(expr.N(int64(i)), expr.PowOf(x, expr.N(int64(j)))), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := "[[0, 0, 0], [1, x, x^2]]"; m.String() != want {
		t.Errorf("want %s, got %s", want, m)
	}
	if !m.Equal(m) {
		t.Errorf("matrix not equal to itself")
	}
	if tree := expr.MatrixTree(m); len(tree) != 2 {
		t.Errorf("want 2 rows, got %d", len(tree))
	}

	_, err = expr.BuildMatrix(2, 2, func(i, j int) (expr.Expr, error) {
		if i == 1 {
			return nil, errors.New("boom")
		}
		return x, nil
	})
	if err == nil {
		t.Errorf("cell error not returned")
	}
}

func TestToJSON(t *testing.T) {
	s, err := expr.ToJSON(expr.AddOf(x, expr.N(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"terms":[{"name":"x","type":"sym"},{"type":"num","value":"1"}],"type":"add"}`
	if s != want {
		t.Errorf("want %s, got %s", want, s)
	}
}
