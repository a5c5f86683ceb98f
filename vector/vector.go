// Package vector composes partial derivatives into the operators of vector
// calculus over an explicit, ordered list of coordinate symbols.
package vector

import (
	"github.com/njchilds90/mathflow/calculus"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
)

// Default returns the coordinates x, y, z.
func Default() []expr.Expr { return []expr.Expr{expr.S("x"), expr.S("y"), expr.S("z")} }

// checkVars requires at least one variable, each a distinct symbol.
func checkVars(vars []expr.Expr) error {
	if len(vars) == 0 {
		return errs.New(errs.DimensionError, "at least one coordinate variable is required")
	}
	seen := map[string]bool{}
	for _, v := range vars {
		s, ok := v.(*expr.Sym)
		if !ok {
			return errs.New(errs.DimensionError, "coordinate %s is not a symbol", v)
		}
		if seen[s.Name()] {
			return errs.New(errs.DimensionError, "coordinate %s is repeated", s.Name())
		}
		seen[s.Name()] = true
	}
	return nil
}

// Gradient returns ∇f, one partial derivative per variable.
func Gradient(f expr.Expr, vars []expr.Expr) ([]expr.Expr, error) {
	if err := checkVars(vars); err != nil {
		return nil, err
	}
	out := make([]expr.Expr, len(vars))
	for i, v := range vars {
		d, err := calculus.Diff(f, v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// Divergence returns ∇·F. F needs one component per variable.
func Divergence(field []expr.Expr, vars []expr.Expr) (expr.Expr, error) {
	if err := checkVars(vars); err != nil {
		return nil, err
	}
	if len(field) != len(vars) {
		return nil, errs.New(errs.DimensionError, "divergence needs %d components, got %d", len(vars), len(field))
	}
	terms := make([]expr.Expr, len(field))
	for i := range field {
		d, err := calculus.Diff(field[i], vars[i])
		if err != nil {
			return nil, err
		}
		terms[i] = d
	}
	return expr.AddOf(terms...), nil
}

// Curl returns ∇×F for a field of three components in three variables.
func Curl(field []expr.Expr, vars []expr.Expr) ([]expr.Expr, error) {
	if err := checkVars(vars); err != nil {
		return nil, err
	}
	if len(field) != 3 || len(vars) != 3 {
		return nil, errs.New(errs.DimensionError, "curl needs 3 components and 3 variables, got %d and %d", len(field), len(vars))
	}
	d := func(i, j int) (expr.Expr, error) { return calculus.Diff(field[i], vars[j]) }
	out := make([]expr.Expr, 3)
	for k := 0; k < 3; k++ {
		i, j := (k+1)%3, (k+2)%3
		a, err := d(j, i)
		if err != nil {
			return nil, err
		}
		b, err := d(i, j)
		if err != nil {
			return nil, err
		}
		out[k] = expr.MinusOf(a, b)
	}
	return out, nil
}

// Laplacian returns ∇²f, the sum of the unmixed second partials.
func Laplacian(f expr.Expr, vars []expr.Expr) (expr.Expr, error) {
	if err := checkVars(vars); err != nil {
		return nil, err
	}
	terms := make([]expr.Expr, len(vars))
	for i, v := range vars {
		d, err := calculus.DiffN(f, v, 2)
		if err != nil {
			return nil, err
		}
		terms[i] = d
	}
	return expr.AddOf(terms...), nil
}

// Jacobian returns the matrix J[i][j] = ∂F_i/∂v_j.
func Jacobian(field []expr.Expr, vars []expr.Expr) (*expr.Matrix, error) {
	if err := checkVars(vars); err != nil {
		return nil, err
	}
	if len(field) == 0 {
		return nil, errs.New(errs.DimensionError, "jacobian needs at least one component")
	}
	return expr.BuildMatrix(len(field), len(vars), func(i, j int) (expr.Expr, error) {
		return calculus.Diff(field[i], vars[j])
	})
}

// Hessian returns the matrix of second partials H[i][j] = ∂²f/∂v_i∂v_j.
func Hessian(f expr.Expr, vars []expr.Expr) (*expr.Matrix, error) {
	g, err := Gradient(f, vars)
	if err != nil {
		return nil, err
	}
	return expr.BuildMatrix(len(vars), len(vars), func(i, j int) (expr.Expr, error) {
		return calculus.Diff(g[i], vars[j])
	})
}
