package damping

import "fmt"

// ShapeKind identifies how a damping value broadcasts into the contact
// matrix it modulates.
type ShapeKind int

const (
	// ShapeScalar broadcasts one value uniformly to every cell.
	ShapeScalar ShapeKind = iota
	// ShapeColumnVector broadcasts one value per row across all columns.
	ShapeColumnVector
	// ShapeMatrix matches the target dimensions cell by cell.
	ShapeMatrix
)

// String returns the shape name used in serialized scenarios.
func (k ShapeKind) String() string {
	switch k {
	case ShapeScalar:
		return "scalar"
	case ShapeColumnVector:
		return "vector"
	case ShapeMatrix:
		return "matrix"
	}
	return "unknown"
}

// Value is a damping reduction factor in one of the supported shapes.
// Expansion to concrete dimensions happens once, when the value is added to
// a container; evaluation afterwards only touches dense matrices.
type Value interface {
	Kind() ShapeKind
	expand(rows, cols int) (*Matrix, error)
}

// Scalar is a uniform reduction factor.
type Scalar float64

// Kind implements Value.
func (Scalar) Kind() ShapeKind { return ShapeScalar }

func (s Scalar) expand(rows, cols int) (*Matrix, error) {
	return ConstantMatrix(rows, cols, float64(s)), nil
}

// ColumnVector is a per-row reduction factor, replicated across columns.
type ColumnVector []float64

// Kind implements Value.
func (ColumnVector) Kind() ShapeKind { return ShapeColumnVector }

func (v ColumnVector) expand(rows, cols int) (*Matrix, error) {
	if len(v) != rows {
		return nil, fmt.Errorf("column vector has %d entries, container has %d rows", len(v), rows)
	}
	m := NewMatrix(rows, cols)
	for i, x := range v {
		for j := 0; j < cols; j++ {
			m.Set(i, j, x)
		}
	}
	return m, nil
}

// Kind implements Value for a full matrix factor.
func (*Matrix) Kind() ShapeKind { return ShapeMatrix }

func (m *Matrix) expand(rows, cols int) (*Matrix, error) {
	if m.rows != rows || m.cols != cols {
		return nil, fmt.Errorf("matrix is %dx%d, container is %dx%d", m.rows, m.cols, rows, cols)
	}
	return m.Clone(), nil
}
