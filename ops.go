package mathflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/njchilds90/mathflow/algebra"
	"github.com/njchilds90/mathflow/calculus"
	"github.com/njchilds90/mathflow/discrete"
	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/latex"
	"github.com/njchilds90/mathflow/vector"
)

// Operation describes one entry of the catalog.
type Operation struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Required    []string               `json:"required"`
	Optional    []string               `json:"optional,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema"`

	run handler
}

type handler func(c *call) (*Response, error)

// defaultTaylorOrder is the number of terms when a request names no order.
const defaultTaylorOrder = 6

var operations = []*Operation{
	{Name: "factor", Description: "Factor a polynomial or rational expression over the rationals", Required: []string{"latex"}, run: sides(algebra.Factor)},
	{Name: "expand", Description: "Multiply out products and integer powers of sums", Required: []string{"latex"}, run: sides(algebra.Expand)},
	{Name: "simplify", Description: "Rewrite to the cheapest equivalent form found", Required: []string{"latex"}, run: sides(algebra.Simplify)},
	{Name: "differentiate", Description: "Derivative d/dx. order > 1 gives the nth derivative", Required: []string{"latex"}, Optional: []string{"variable", "order"}, run: differentiate},
	{Name: "partial", Description: "Partial derivative, mixed when several variables are given", Required: []string{"latex"}, Optional: []string{"variable", "variables"}, run: partial},
	{Name: "integrate", Description: "Antiderivative (rule-based, no constant of integration)", Required: []string{"latex"}, Optional: []string{"variable"}, run: integrate},
	{Name: "definite_integral", Description: "Integral from lower_limit to upper_limit", Required: []string{"latex", "lower_limit", "upper_limit"}, Optional: []string{"variable"}, run: definite},
	{Name: "double_integral", Description: "Iterated integral; limits[i] bounds variables[i], first innermost", Required: []string{"latex", "limits"}, Optional: []string{"variables"}, run: multiple(2)},
	{Name: "triple_integral", Description: "Iterated integral; limits[i] bounds variables[i], first innermost", Required: []string{"latex", "limits"}, Optional: []string{"variables"}, run: multiple(3)},
	{Name: "limit", Description: "Limit as variable approaches point from direction (+, - or both)", Required: []string{"latex", "point"}, Optional: []string{"variable", "direction"}, run: limit},
	{Name: "limit_infinity", Description: "Limit as variable approaches +infinity", Required: []string{"latex"}, Optional: []string{"variable"}, run: limitInfinity},
	{Name: "sum", Description: "Sum over variable from start to end; end may be \\infty", Required: []string{"latex", "start", "end"}, Optional: []string{"variable"}, run: series(discrete.Sum)},
	{Name: "product", Description: "Product over variable from start to end", Required: []string{"latex", "start", "end"}, Optional: []string{"variable"}, run: series(discrete.Product)},
	{Name: "taylor", Description: "Taylor polynomial about point with order terms", Required: []string{"latex"}, Optional: []string{"variable", "point", "order", "remainder"}, run: taylor},
	{Name: "gradient", Description: "Gradient of a scalar field", Required: []string{"latex"}, Optional: []string{"variables"}, run: gradient},
	{Name: "divergence", Description: "Divergence of a vector field given by components", Required: []string{"components"}, Optional: []string{"variables"}, run: divergence},
	{Name: "curl", Description: "Curl of a three-component vector field", Required: []string{"components"}, Optional: []string{"variables"}, run: curl},
	{Name: "laplacian", Description: "Laplacian of a scalar field", Required: []string{"latex"}, Optional: []string{"variables"}, run: laplacian},
	{Name: "jacobian", Description: "Jacobian matrix of a vector field given by components", Required: []string{"components"}, Optional: []string{"variables"}, run: jacobian},
	{Name: "hessian", Description: "Hessian matrix of second partials of a scalar field", Required: []string{"latex"}, Optional: []string{"variables"}, run: hessian},
}

var byName = map[string]*Operation{}

func init() {
	for _, op := range operations {
		op.InputSchema = inputSchema(op)
		byName[op.Name] = op
	}
}

// Catalog lists every operation in a stable order.
func Catalog() []Operation {
	out := make([]Operation, len(operations))
	for i, op := range operations {
		out[i] = *op
		out[i].run = nil
	}
	return out
}

// Lookup returns the named operation.
func Lookup(name string) (Operation, bool) {
	op, ok := byName[name]
	if !ok {
		return Operation{}, false
	}
	out := *op
	out.run = nil
	return out, true
}

// Names returns the operation names, sorted.
func Names() []string {
	names := make([]string, 0, len(operations))
	for _, op := range operations {
		names = append(names, op.Name)
	}
	sort.Strings(names)
	return names
}

func inputSchema(op *Operation) map[string]interface{} {
	properties := map[string]interface{}{}
	for _, fields := range [][]string{op.Required, op.Optional, {"tree"}} {
		for _, f := range fields {
			properties[f] = map[string]interface{}{"type": fieldTypes[f]}
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   op.Required,
	}
}

// ============================================================
// Request decoding
// ============================================================

// call is one request being evaluated.
type call struct {
	ctx context.Context
	req *Request
	p   latex.Parser
}

// parse reads the LaTeX in a request field. Errors name the field.
func (c *call) parse(field, s string) (expr.Expr, error) {
	e, err := c.p.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return e, nil
}

func (c *call) expression() (expr.Expr, error) { return c.parse("latex", c.req.Expression) }

// variable is the single variable of the request; x when none is given.
func (c *call) variable() (expr.Expr, error) {
	if c.req.Variable == "" {
		return expr.S("x"), nil
	}
	return c.parse("variable", c.req.Variable)
}

func (c *call) list(field string, ss []string) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(ss))
	for i, s := range ss {
		e, err := c.parse(fmt.Sprintf("%s[%d]", field, i), s)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// coordinates are the vector calculus variables; x, y, z when none are given.
func (c *call) coordinates() ([]expr.Expr, error) {
	if len(c.req.Variables) == 0 {
		return vector.Default(), nil
	}
	return c.list("variables", c.req.Variables)
}

func (c *call) components() ([]expr.Expr, error) {
	return c.list("components", c.req.Components)
}

// ============================================================
// Responses
// ============================================================

func (c *call) respond(e expr.Expr) *Response {
	resp := &Response{Result: latex.Format(e)}
	if c.req.Tree {
		resp.Tree = expr.Tree(e)
	}
	return resp
}

func (c *call) respondVector(es []expr.Expr) *Response {
	resp := &Response{Result: latex.FormatVector(es), Results: make([]string, len(es))}
	for i, e := range es {
		resp.Results[i] = latex.Format(e)
	}
	if c.req.Tree {
		trees := make([]interface{}, len(es))
		for i, e := range es {
			trees[i] = expr.Tree(e)
		}
		resp.Tree = trees
	}
	return resp
}

func (c *call) respondMatrix(m *expr.Matrix) *Response {
	resp := &Response{Result: latex.FormatMatrix(m)}
	if c.req.Tree {
		resp.Tree = expr.MatrixTree(m)
	}
	return resp
}

// ============================================================
// Handlers
// ============================================================

// sides applies f to an expression, or to both sides of an equation.
func sides(f func(context.Context, expr.Expr) (expr.Expr, error)) handler {
	return func(c *call) (*Response, error) {
		lhs, rhs, err := c.p.ParseEquation(c.req.Expression)
		if err != nil {
			return nil, fmt.Errorf("latex: %w", err)
		}
		l, err := f(c.ctx, lhs)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			return c.respond(l), nil
		}
		r, err := f(c.ctx, rhs)
		if err != nil {
			return nil, err
		}
		resp := &Response{Result: latex.FormatEquation(l, r)}
		if c.req.Tree {
			resp.Tree = map[string]interface{}{"lhs": expr.Tree(l), "rhs": expr.Tree(r)}
		}
		return resp, nil
	}
}

func differentiate(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	n := c.req.Order
	if n == 0 {
		n = 1
	}
	d, err := calculus.DiffN(e, v, n)
	if err != nil {
		return nil, err
	}
	return c.respond(d), nil
}

func partial(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	var vars []expr.Expr
	if len(c.req.Variables) > 0 {
		vars, err = c.list("variables", c.req.Variables)
	} else {
		var v expr.Expr
		v, err = c.variable()
		vars = []expr.Expr{v}
	}
	if err != nil {
		return nil, err
	}
	d, err := calculus.Partial(e, vars...)
	if err != nil {
		return nil, err
	}
	return c.respond(d), nil
}

func integrate(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	F, err := calculus.Integrate(c.ctx, e, v)
	if err != nil {
		return nil, err
	}
	return c.respond(F), nil
}

// simplified finishes an operation whose raw result is usually a long
// difference of evaluations.
func (c *call) simplified(e expr.Expr, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	s, err := algebra.Simplify(c.ctx, e)
	if err != nil {
		return nil, err
	}
	return c.respond(s), nil
}

func definite(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	lo, err := c.parse("lower_limit", c.req.Lower)
	if err != nil {
		return nil, err
	}
	hi, err := c.parse("upper_limit", c.req.Upper)
	if err != nil {
		return nil, err
	}
	return c.simplified(calculus.Definite(c.ctx, e, v, lo, hi))
}

// multiple integrates over n variables. Variables default to x, y, z.
func multiple(n int) handler {
	return func(c *call) (*Response, error) {
		e, err := c.expression()
		if err != nil {
			return nil, err
		}
		vars := vector.Default()[:n]
		if len(c.req.Variables) > 0 {
			if vars, err = c.list("variables", c.req.Variables); err != nil {
				return nil, err
			}
		}
		if len(vars) != n || len(c.req.Limits) != n {
			return nil, errs.New(errs.DimensionError, "%d variables and %d limit pairs are required, got %d and %d",
				n, n, len(vars), len(c.req.Limits))
		}
		bounds := make([]calculus.Bound, n)
		for i, pair := range c.req.Limits {
			if len(pair) != 2 {
				return nil, errs.New(errs.DimensionError, "limits[%d] must be a [lower, upper] pair", i)
			}
			lo, err := c.parse(fmt.Sprintf("limits[%d][0]", i), pair[0])
			if err != nil {
				return nil, err
			}
			hi, err := c.parse(fmt.Sprintf("limits[%d][1]", i), pair[1])
			if err != nil {
				return nil, err
			}
			bounds[i] = calculus.Bound{Var: vars[i], Lower: lo, Upper: hi}
		}
		return c.simplified(calculus.Multiple(c.ctx, e, bounds))
	}
}

func limit(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	p, err := c.parse("point", c.req.Point)
	if err != nil {
		return nil, err
	}
	dir, err := calculus.ParseDirection(c.req.Direction)
	if err != nil {
		return nil, err
	}
	return c.simplified(calculus.Limit(c.ctx, e, v, p, dir))
}

func limitInfinity(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	return c.simplified(calculus.Limit(c.ctx, e, v, expr.Inf, calculus.TwoSided))
}

func series(f func(ctx context.Context, e, v, start, end expr.Expr) (expr.Expr, error)) handler {
	return func(c *call) (*Response, error) {
		e, err := c.expression()
		if err != nil {
			return nil, err
		}
		v, err := c.variable()
		if err != nil {
			return nil, err
		}
		start, err := c.parse("start", c.req.Start)
		if err != nil {
			return nil, err
		}
		end, err := c.parse("end", c.req.End)
		if err != nil {
			return nil, err
		}
		r, err := f(c.ctx, e, v, start, end)
		if err != nil {
			return nil, err
		}
		return c.respond(r), nil
	}
}

func taylor(c *call) (*Response, error) {
	e, err := c.expression()
	if err != nil {
		return nil, err
	}
	v, err := c.variable()
	if err != nil {
		return nil, err
	}
	var p expr.Expr = expr.N(0)
	if c.req.Point != "" {
		if p, err = c.parse("point", c.req.Point); err != nil {
			return nil, err
		}
	}
	order := c.req.Order
	if order == 0 {
		order = defaultTaylorOrder
	}
	t, err := calculus.Taylor(c.ctx, e, v, p, order)
	if err != nil {
		return nil, err
	}
	resp := c.respond(t)
	if c.req.Remainder {
		resp.Result += ` + O\left(` + latex.Format(calculus.Remainder(v, p, order)) + `\right)`
	}
	return resp, nil
}

func gradient(c *call) (*Response, error) {
	f, err := c.expression()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	g, err := vector.Gradient(f, vars)
	if err != nil {
		return nil, err
	}
	return c.respondVector(g), nil
}

func divergence(c *call) (*Response, error) {
	field, err := c.components()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	d, err := vector.Divergence(field, vars)
	if err != nil {
		return nil, err
	}
	return c.respond(d), nil
}

func curl(c *call) (*Response, error) {
	field, err := c.components()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	r, err := vector.Curl(field, vars)
	if err != nil {
		return nil, err
	}
	return c.respondVector(r), nil
}

func laplacian(c *call) (*Response, error) {
	f, err := c.expression()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	l, err := vector.Laplacian(f, vars)
	if err != nil {
		return nil, err
	}
	return c.respond(l), nil
}

func jacobian(c *call) (*Response, error) {
	field, err := c.components()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	m, err := vector.Jacobian(field, vars)
	if err != nil {
		return nil, err
	}
	return c.respondMatrix(m), nil
}

func hessian(c *call) (*Response, error) {
	f, err := c.expression()
	if err != nil {
		return nil, err
	}
	vars, err := c.coordinates()
	if err != nil {
		return nil, err
	}
	m, err := vector.Hessian(f, vars)
	if err != nil {
		return nil, err
	}
	return c.respondMatrix(m), nil
}
