package damping

import (
	"fmt"
	"math"
)

// Matrix is a small dense row-major matrix of float64. It is the concrete
// type every damping value is expanded into and the type returned by
// Dampings.ValueAt.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix creates a zero-valued rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// ConstantMatrix creates a rows x cols matrix with every cell set to v.
func ConstantMatrix(rows, cols int, v float64) *Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// MatrixFromRows builds a matrix from row slices. All rows must have the
// same length.
func MatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix needs at least one row")
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set assigns the cell at row i, column j.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(c.data, m.data)
	return c
}

// EqualApprox reports whether both matrices have the same dimensions and all
// cells agree within tol.
func (m *Matrix) EqualApprox(o *Matrix, tol float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i, v := range m.data {
		if math.Abs(v-o.data[i]) > tol {
			return false
		}
	}
	return true
}

// addInPlace adds o elementwise. Dimensions are checked by the container
// before values reach this point.
func (m *Matrix) addInPlace(o *Matrix) {
	for i := range m.data {
		m.data[i] += o.data[i]
	}
}

// combineInPlace folds o into m with the complement-product rule
// m = 1 - (1-m)(1-o), elementwise.
func (m *Matrix) combineInPlace(o *Matrix) {
	for i := range m.data {
		a, b := m.data[i], o.data[i]
		m.data[i] = a + b - a*b
	}
}

// lerpInto sets m to lo + f*(hi-lo) elementwise.
func (m *Matrix) lerpInto(lo, hi *Matrix, f float64) {
	for i := range m.data {
		m.data[i] = lo.data[i] + f*(hi.data[i]-lo.data[i])
	}
}
