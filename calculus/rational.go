package calculus

import (
	"math"
	"math/big"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
	"github.com/njchilds90/mathflow/latex"
	"github.com/njchilds90/mathflow/poly"
)

// rationalPoly integrates p/q by polynomial division and partial
// fractions over the rational factors of q.
func (in *integrator) rationalPoly(p, q poly.Poly) (expr.Expr, error) {
	quo, fracs, err := poly.Apart(in.ctx, p, q)
	if err != nil {
		if _, ok := errs.CategoryOf(err); ok {
			return nil, err
		}
		return nil, errs.Wrap(errs.IntegrationUnsupportedError, err, "no partial fraction decomposition for %s",
			latex.Format(expr.DivOf(p.Expr(in.x), q.Expr(in.x))))
	}
	parts := []expr.Expr{polyIntegral(quo).Expr(in.x)}
	for _, f := range fracs {
		r, err := in.fraction(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, r)
	}
	return expr.AddOf(parts...), nil
}

func polyIntegral(p poly.Poly) poly.Poly {
	cs := make([]*big.Rat, p.Degree()+2)
	cs[0] = new(big.Rat)
	for i := 0; i <= p.Degree(); i++ {
		cs[i+1] = new(big.Rat).Quo(p.Coeff(i), big.NewRat(int64(i+1), 1))
	}
	return poly.New(cs...)
}

// fraction integrates Numer / Base^Power for a linear or quadratic base.
func (in *integrator) fraction(f poly.Fraction) (expr.Expr, error) {
	n := f.Power
	lead := f.Base.Lead()
	base := f.Base.Monic()
	scale := new(big.Rat).Inv(new(big.Rat).Set(lead))
	for i := 1; i < n; i++ {
		scale.Quo(scale, lead)
	}
	numer := poly.Scale(f.Numer, scale)
	B := base.Expr(in.x)

	switch base.Degree() {
	case 1:
		c := expr.R(numer.Coeff(0))
		if n == 1 {
			return expr.MulOf(c, expr.LnOf(expr.AbsOf(B))), nil
		}
		return expr.MulOf(c, expr.R(big.NewRat(1, int64(1-n))), expr.PowOf(B, expr.N(int64(1-n)))), nil

	case 2:
		b, c0 := base.Coeff(1), base.Coeff(0)
		m, k := numer.Coeff(1), numer.Coeff(0)
		disc := new(big.Rat).Sub(new(big.Rat).Mul(b, b), new(big.Rat).Mul(big.NewRat(4, 1), c0))
		var out []expr.Expr
		// m x + k = (m/2)(2x + b) + (k - m b / 2)
		if m.Sign() != 0 {
			half := new(big.Rat).Quo(m, big.NewRat(2, 1))
			if n == 1 {
				arg := B
				if disc.Sign() > 0 {
					arg = expr.AbsOf(B)
				}
				out = append(out, expr.MulOf(expr.R(half), expr.LnOf(arg)))
			} else {
				out = append(out, expr.MulOf(expr.R(half), expr.R(big.NewRat(1, int64(1-n))), expr.PowOf(B, expr.N(int64(1-n)))))
			}
		}
		r := new(big.Rat).Sub(k, new(big.Rat).Quo(new(big.Rat).Mul(m, b), big.NewRat(2, 1)))
		if r.Sign() != 0 {
			q, err := in.quadratic(b, c0, disc, n)
			if err != nil {
				return nil, err
			}
			out = append(out, expr.MulOf(expr.R(r), q))
		}
		return expr.AddOf(out...), nil
	}
	return nil, unsupported(expr.DivOf(numer.Expr(in.x), expr.PowOf(B, expr.N(int64(n)))))
}

// quadratic is ∫ dx / (x^2 + b x + c)^n.
func (in *integrator) quadratic(b, c, disc *big.Rat, n int) (expr.Expr, error) {
	x := in.x
	w := expr.AddOf(x, expr.R(new(big.Rat).Quo(b, big.NewRat(2, 1))))
	if disc.Sign() > 0 {
		if n != 1 {
			return nil, unsupported(expr.InvOf(expr.PowOf(quadraticExpr(x, b, c), expr.N(int64(n)))))
		}
		// 1/((x - r1)(x - r2)) with r1 - r2 = sqrt(disc)
		s := expr.SqrtOf(expr.R(disc))
		half := expr.MulOf(expr.F(1, 2), s)
		lo := expr.MinusOf(w, half)
		hi := expr.AddOf(w, half)
		return expr.MulOf(expr.InvOf(s), expr.LnOf(expr.AbsOf(expr.DivOf(lo, hi)))), nil
	}
	// D = c - b^2/4 > 0, w = x + b/2
	D := new(big.Rat).Mul(disc, big.NewRat(-1, 4))
	if n == 1 {
		root := expr.SqrtOf(expr.R(D))
		return expr.DivOf(expr.AtanOf(expr.DivOf(w, root)), root), nil
	}
	// I_n = w / (2D(n-1) B^(n-1)) + (2n-3)/(2D(n-1)) I_(n-1)
	prev, err := in.quadratic(b, c, disc, n-1)
	if err != nil {
		return nil, err
	}
	k := new(big.Rat).Mul(big.NewRat(int64(2*(n-1)), 1), D)
	B := quadraticExpr(x, b, c)
	head := expr.MulOf(w, expr.R(new(big.Rat).Inv(k)), expr.PowOf(B, expr.N(int64(1-n))))
	tail := expr.MulOf(expr.R(new(big.Rat).Quo(big.NewRat(int64(2*n-3), 1), k)), prev)
	return expr.AddOf(head, tail), nil
}

func quadraticExpr(x expr.Expr, b, c *big.Rat) expr.Expr {
	return expr.AddOf(expr.PowOf(x, expr.N(2)), expr.MulOf(expr.R(b), x), expr.R(c))
}

// quadraticRoots returns the real roots of x^2 + b x + c, if any.
func quadraticRoots(b, c *big.Rat) []float64 {
	bf, _ := b.Float64()
	cf, _ := c.Float64()
	d := bf*bf - 4*cf
	if d < 0 {
		return nil
	}
	s := math.Sqrt(d)
	return []float64{(-bf - s) / 2, (-bf + s) / 2}
}
