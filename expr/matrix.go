package expr

import (
	"encoding/json"
	"strings"
)

// ============================================================
// Matrix
// ============================================================

// Matrix is an immutable rows×cols grid of expressions, stored row-major.
type Matrix struct {
	rows, cols int
	cells      []Expr
}

// BuildMatrix fills a rows×cols matrix from cell, stopping at the first
// error. Both dimensions must be positive.
func BuildMatrix(rows, cols int, cell func(i, j int) (Expr, error)) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		panic("expr: matrix dimensions must be positive")
	}
	m := &Matrix{rows: rows, cols: cols, cells: make([]Expr, 0, rows*cols)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			e, err := cell(i, j)
			if err != nil {
				return nil, err
			}
			m.cells = append(m.cells, e)
		}
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Get panics when (i, j) is outside the matrix.
func (m *Matrix) Get(i, j int) Expr {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("expr: matrix index out of range")
	}
	return m.cells[i*m.cols+j]
}

// Equal reports whether both matrices have the same shape and equal cells.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for k, c := range m.cells {
		if !c.Equal(o.cells[k]) {
			return false
		}
	}
	return true
}

func (m *Matrix) String() string {
	rows := make([]string, m.rows)
	for i := range rows {
		row := make([]string, m.cols)
		for j := range row {
			row[j] = m.Get(i, j).String()
		}
		rows[i] = "[" + strings.Join(row, ", ") + "]"
	}
	return "[" + strings.Join(rows, ", ") + "]"
}

// ============================================================
// JSON tree
// ============================================================

// Tree returns the JSON-ready structure of e.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// MatrixTree returns the rows of m as nested lists of trees.
func MatrixTree(m *Matrix) []interface{} {
	rows := make([]interface{}, m.rows)
	for i := range rows {
		row := make([]interface{}, m.cols)
		for j := range row {
			row[j] = Tree(m.Get(i, j))
		}
		rows[i] = row
	}
	return rows
}

// ToJSON encodes the tree of e.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsonSlice(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}
