package poly

import (
	"context"
	"errors"
	"math/big"
)

// Fraction is the partial fraction Numer / Base^Power with
// deg Numer < deg Base.
type Fraction struct {
	Numer Poly
	Base  Poly
	Power int
}

// Apart decomposes num/den into a polynomial part plus partial fractions
// over the irreducible rational factors of den.
func Apart(ctx context.Context, num, den Poly) (Poly, []Fraction, error) {
	if den.IsZero() {
		return Poly{}, nil, errors.New("poly: zero denominator")
	}
	quo, rem := DivMod(num, den)
	if rem.IsZero() || den.Degree() < 1 {
		return quo, nil, nil
	}
	_, factors, err := Factorize(ctx, den)
	if err != nil {
		return Poly{}, nil, err
	}

	// Unknown coefficients: for each factor f^m and each 1 <= j <= m, a
	// numerator of degree < deg f.
	type slot struct {
		factor int
		power  int
		deg    int
		basis  Poly
	}
	var slots []slot
	for i, f := range factors {
		for j := 1; j <= f.Mult; j++ {
			cofactor, _ := DivMod(den, f.P.Pow(j))
			for k := 0; k < f.P.Degree(); k++ {
				slots = append(slots, slot{factor: i, power: j, deg: k, basis: Mul(Monomial(big.NewRat(1, 1), k), cofactor)})
			}
		}
	}
	n := den.Degree()
	if len(slots) != n {
		return Poly{}, nil, errors.New("poly: denominator factorization is incomplete")
	}
	// rem = Σ a_s basis_s, one equation per power of x.
	m := make([][]*big.Rat, n)
	for row := 0; row < n; row++ {
		m[row] = make([]*big.Rat, n+1)
		for col, s := range slots {
			m[row][col] = s.basis.Coeff(row)
		}
		m[row][n] = rem.Coeff(row)
	}
	sol, ok := solve(m)
	if !ok {
		return Poly{}, nil, errors.New("poly: singular partial fraction system")
	}

	numers := map[[2]int][]*big.Rat{}
	for col, s := range slots {
		key := [2]int{s.factor, s.power}
		cs := numers[key]
		for len(cs) <= s.deg {
			cs = append(cs, new(big.Rat))
		}
		cs[s.deg] = sol[col]
		numers[key] = cs
	}
	var out []Fraction
	for i, f := range factors {
		for j := 1; j <= f.Mult; j++ {
			p := New(numers[[2]int{i, j}]...)
			if p.IsZero() {
				continue
			}
			out = append(out, Fraction{Numer: p, Base: f.P, Power: j})
		}
	}
	return quo, out, nil
}

// solve runs Gauss-Jordan elimination on an augmented n x (n+1) matrix.
func solve(m [][]*big.Rat) ([]*big.Rat, bool) {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if m[r][col].Sign() != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		inv := new(big.Rat).Inv(m[col][col])
		for c := col; c <= n; c++ {
			m[col][c] = new(big.Rat).Mul(m[col][c], inv)
		}
		for r := 0; r < n; r++ {
			if r == col || m[r][col].Sign() == 0 {
				continue
			}
			f := new(big.Rat).Set(m[r][col])
			for c := col; c <= n; c++ {
				m[r][c] = new(big.Rat).Sub(m[r][c], new(big.Rat).Mul(f, m[col][c]))
			}
		}
	}
	out := make([]*big.Rat, n)
	for i := range out {
		out[i] = m[i][n]
	}
	return out, true
}
