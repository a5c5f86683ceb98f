package mathflow_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/mathflow"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/latex"
)

func do(t *testing.T, req mathflow.Request) *mathflow.Response {
	t.Helper()
	resp, err := mathflow.New(mathflow.DefaultOptions()).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("%s %q: unexpected error: %v", req.Op, req.Expression, err)
	}
	return resp
}

// same reports whether two LaTeX strings denote the same canonical tree.
func same(t *testing.T, got, want string) bool {
	t.Helper()
	g, err := latex.Parse(got)
	if err != nil {
		t.Fatalf("result %q does not parse: %v", got, err)
	}
	w, err := latex.Parse(want)
	if err != nil {
		t.Fatalf("want %q does not parse: %v", want, err)
	}
	return g.Equal(w)
}

// ============================================================
// Operations
// ============================================================

func TestDo(t *testing.T) {
	tests := []struct {
		req  mathflow.Request
		want string
	}{
		{mathflow.Request{Op: "factor", Expression: `x^2 - 5x + 6`}, `(x-2)(x-3)`},
		{mathflow.Request{Op: "expand", Expression: `(x+1)^2`}, `x^2 + 2x + 1`},
		{mathflow.Request{Op: "simplify", Expression: `\sin^2 x + \cos^2 x`}, `1`},
		{mathflow.Request{Op: "differentiate", Expression: `x^3`}, `3x^2`},
		{mathflow.Request{Op: "differentiate", Expression: `x^3`, Order: 2}, `6x`},
		{mathflow.Request{Op: "differentiate", Expression: `t^2`, Variable: "t"}, `2t`},
		{mathflow.Request{Op: "partial", Expression: `x^2 y`, Variable: "y"}, `x^2`},
		{mathflow.Request{Op: "partial", Expression: `x^2 y`, Variables: []string{"x", "y"}}, `2x`},
		{mathflow.Request{Op: "integrate", Expression: `x^2`}, `\frac{x^3}{3}`},
		{mathflow.Request{Op: "definite_integral", Expression: `x^2`, Lower: "0", Upper: "1"}, `\frac{1}{3}`},
		{mathflow.Request{Op: "double_integral", Expression: `x + y`, Variables: []string{"x", "y"},
			Limits: [][]string{{"0", "1"}, {"0", "1"}}}, `1`},
		{mathflow.Request{Op: "triple_integral", Expression: `1`,
			Limits: [][]string{{"0", "1"}, {"0", "2"}, {"0", "3"}}}, `6`},
		{mathflow.Request{Op: "limit", Expression: `\frac{\sin x}{x}`, Point: "0"}, `1`},
		{mathflow.Request{Op: "limit", Expression: `\frac{1}{x}`, Point: "0", Direction: "+"}, `\infty`},
		{mathflow.Request{Op: "limit_infinity", Expression: `\frac{1}{x}`}, `0`},
		{mathflow.Request{Op: "sum", Expression: `i`, Variable: "i", Start: "1", End: "10"}, `55`},
		{mathflow.Request{Op: "product", Expression: `i`, Variable: "i", Start: "1", End: "5"}, `120`},
		{mathflow.Request{Op: "taylor", Expression: `e^x`, Order: 3}, `1 + x + \frac{x^2}{2}`},
		{mathflow.Request{Op: "divergence", Components: []string{"x", "y", "z"}}, `3`},
		{mathflow.Request{Op: "laplacian", Expression: `x^2 + y^2`, Variables: []string{"x", "y"}}, `4`},
	}
	for _, tt := range tests {
		resp := do(t, tt.req)
		if !same(t, resp.Result, tt.want) {
			t.Errorf("%s %q: want %s, got %s", tt.req.Op, tt.req.Expression, tt.want, resp.Result)
		}
	}
}

func TestDo_Curl(t *testing.T) {
	resp := do(t, mathflow.Request{Op: "curl", Components: []string{"-y", "x", "0"}})
	want := `\left\langle 0, 0, 2 \right\rangle`
	if resp.Result != want {
		t.Errorf("want %s, got %s", want, resp.Result)
	}
	if len(resp.Results) != 3 || resp.Results[2] != "2" {
		t.Errorf("want components [0 0 2], got %v", resp.Results)
	}
}

func TestDo_Gradient(t *testing.T) {
	resp := do(t, mathflow.Request{Op: "gradient", Expression: `x^2 y + z`})
	want := []string{`2xy`, `x^2`, `1`}
	if len(resp.Results) != len(want) {
		t.Fatalf("want %d components, got %v", len(want), resp.Results)
	}
	for i := range want {
		if !same(t, resp.Results[i], want[i]) {
			t.Errorf("component %d: want %s, got %s", i, want[i], resp.Results[i])
		}
	}
}

func TestDo_Matrices(t *testing.T) {
	for _, req := range []mathflow.Request{
		{Op: "jacobian", Components: []string{"x y", "x + y"}, Variables: []string{"x", "y"}},
		{Op: "hessian", Expression: `x^2 y`, Variables: []string{"x", "y"}},
	} {
		resp := do(t, req)
		if !strings.HasPrefix(resp.Result, `\begin{pmatrix}`) {
			t.Errorf("%s: want a pmatrix, got %s", req.Op, resp.Result)
		}
	}
}

// The rendered result must denote the same value as the input.
func TestDo_ResultValue(t *testing.T) {
	tests := []struct {
		req  mathflow.Request
		env  map[string]float64
		want float64
	}{
		{mathflow.Request{Op: "factor", Expression: `2 - x`}, map[string]float64{"x": 7}, -5},
		{mathflow.Request{Op: "simplify", Expression: `-(x - 2)`}, map[string]float64{"x": 7}, -5},
		{mathflow.Request{Op: "factor", Expression: `-x^2 - 2x - 1`}, map[string]float64{"x": 3}, -16},
		{mathflow.Request{Op: "sum", Expression: `\frac{2}{3^{i}}`, Variable: "i", Start: "1", End: "n"},
			map[string]float64{"n": 7}, 1 - math.Pow(3, -7)},
	}
	for _, tt := range tests {
		resp := do(t, tt.req)
		e, err := latex.Parse(resp.Result)
		if err != nil {
			t.Fatalf("%s %q: result %q does not parse: %v", tt.req.Op, tt.req.Expression, resp.Result, err)
		}
		got, ok := expr.Float(e, tt.env)
		if !ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s %q = %s: want %g at %v, got %g", tt.req.Op, tt.req.Expression, resp.Result, tt.want, tt.env, got)
		}
	}
}

func TestDo_Equation(t *testing.T) {
	resp := do(t, mathflow.Request{Op: "expand", Expression: `(x+1)^2 = y`})
	if !strings.HasSuffix(resp.Result, " = y") {
		t.Errorf("want both sides, got %s", resp.Result)
	}
}

func TestDo_TaylorRemainder(t *testing.T) {
	resp := do(t, mathflow.Request{Op: "taylor", Expression: `\sin x`, Order: 4, Remainder: true})
	if !strings.HasSuffix(resp.Result, `+ O\left(x^{4}\right)`) {
		t.Errorf("want trailing O(x^4), got %s", resp.Result)
	}
}

func TestDo_Tree(t *testing.T) {
	resp := do(t, mathflow.Request{Op: "simplify", Expression: `x + x`, Tree: true})
	m, ok := resp.Tree.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a tree object, got %T", resp.Tree)
	}
	if len(m) == 0 {
		t.Error("tree is empty")
	}
	if plain := do(t, mathflow.Request{Op: "simplify", Expression: `x + x`}); plain.Tree != nil {
		t.Errorf("tree not requested, got %v", plain.Tree)
	}
}

// ============================================================
// Errors
// ============================================================

func TestDo_Errors(t *testing.T) {
	tests := []struct {
		req  mathflow.Request
		want errs.Category
	}{
		{mathflow.Request{Op: "solve", Expression: `x`}, errs.UnsupportedOperationError},
		{mathflow.Request{Op: "factor"}, errs.ParseError},
		{mathflow.Request{Op: "factor", Expression: `x^{`}, errs.ParseError},
		{mathflow.Request{Op: "integrate", Expression: `e^{x^2}`}, errs.IntegrationUnsupportedError},
		{mathflow.Request{Op: "limit", Expression: `\frac{1}{x}`, Point: "0"}, errs.LimitUndefinedError},
		{mathflow.Request{Op: "limit", Expression: `x`, Point: "0", Direction: "up"}, errs.RangeError},
		{mathflow.Request{Op: "sum", Expression: `\frac{1}{i}`, Variable: "i", Start: "1", End: "n"}, errs.ClosedFormUnavailableError},
		{mathflow.Request{Op: "sum", Expression: `i`, Variable: "i", Start: "5", End: "1"}, errs.RangeError},
		{mathflow.Request{Op: "curl", Components: []string{"x", "y"}}, errs.DimensionError},
		{mathflow.Request{Op: "double_integral", Expression: `x`, Limits: [][]string{{"0", "1"}}}, errs.DimensionError},
		{mathflow.Request{Op: "double_integral", Expression: `x`, Limits: [][]string{{"0"}, {"0", "1"}}}, errs.DimensionError},
		{mathflow.Request{Op: "taylor", Expression: `e^x`, Order: 1000}, errs.RangeError},
		{mathflow.Request{Op: "expand", Expression: `(x+1)^{100000}`}, errs.ExpressionTooLargeError},
		{mathflow.Request{Op: "limit", Expression: `\sin\left(\frac{1}{x}\right)`, Point: "0"}, errs.LimitUndefinedError},
	}
	eng := mathflow.New(mathflow.DefaultOptions())
	for _, tt := range tests {
		_, err := eng.Do(context.Background(), tt.req)
		if got, _ := errs.CategoryOf(err); got != tt.want {
			t.Errorf("%s %q: want %s, got %v", tt.req.Op, tt.req.Expression, tt.want, err)
		}
	}
}

func TestDo_ErrorNamesField(t *testing.T) {
	_, err := mathflow.New(mathflow.DefaultOptions()).Do(context.Background(),
		mathflow.Request{Op: "definite_integral", Expression: `x`, Lower: "0", Upper: `\frac{1}{`})
	if err == nil || !strings.HasPrefix(err.Error(), "upper_limit: ") {
		t.Errorf("want an error naming upper_limit, got %v", err)
	}
}

func TestDo_StepBudget(t *testing.T) {
	opts := mathflow.DefaultOptions()
	opts.StepBudget = 1
	_, err := mathflow.New(opts).Do(context.Background(), mathflow.Request{Op: "simplify", Expression: `\sin^2 x + \cos^2 x`})
	if !errs.Has(err, errs.ComputationTimeoutError) {
		t.Errorf("want ComputationTimeoutError, got %v", err)
	}
}

func TestDo_TooLarge(t *testing.T) {
	opts := mathflow.DefaultOptions()
	opts.MaxNodes = 5
	_, err := mathflow.New(opts).Do(context.Background(), mathflow.Request{Op: "expand", Expression: `a + b + c + d + e + f + g + h`})
	if !errs.Has(err, errs.ExpressionTooLargeError) {
		t.Errorf("want ExpressionTooLargeError, got %v", err)
	}
}

func TestDo_Cached(t *testing.T) {
	eng := mathflow.New(mathflow.DefaultOptions())
	req := mathflow.Request{Op: "gradient", Expression: `x y`}
	first, err := eng.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	first.Results[0] = "changed"
	second, err := eng.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.Results[0] == "changed" {
		t.Error("cached response shares state with an earlier caller")
	}
}

// ============================================================
// Catalog
// ============================================================

func TestCatalog(t *testing.T) {
	ops := mathflow.Catalog()
	if len(ops) != 20 {
		t.Errorf("want 20 operations, got %d", len(ops))
	}
	for _, op := range ops {
		if op.Description == "" {
			t.Errorf("%s has no description", op.Name)
		}
		props := op.InputSchema["properties"].(map[string]interface{})
		for _, f := range op.Required {
			if _, ok := props[f]; !ok {
				t.Errorf("%s: required field %s missing from schema", op.Name, f)
			}
		}
	}
	if _, ok := mathflow.Lookup("curl"); !ok {
		t.Error("curl not found")
	}
	if _, ok := mathflow.Lookup("nonexistent"); ok {
		t.Error("unexpected operation nonexistent")
	}
}
