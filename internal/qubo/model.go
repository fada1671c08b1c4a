// Package qubo implements quadratic unconstrained binary optimization models
// and a cooperative simulated-annealing engine over them.
package qubo

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyMatrix  = errors.New("qubo: matrix is empty")
	ErrNotSquare    = errors.New("qubo: matrix is not square")
	ErrNonNumeric   = errors.New("qubo: matrix contains a non-numeric entry")
	ErrNonFinite    = errors.New("qubo: matrix contains a non-finite entry")
	ErrSizeMismatch = errors.New("qubo: assignment length does not match model size")
)

// Model is an n×n cost matrix over binary variables with energy E(x) = xᵀQx.
// Symmetry is expected but not enforced; asymmetric input is used as-is.
// A Model is immutable after construction.
type Model struct {
	n int
	q []float64
}

// NewModel validates rows and copies them into a Model.
// The matrix must be non-empty, square and finite.
func NewModel(rows [][]float64) (*Model, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmptyMatrix
	}

	q := make([]float64, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: at [%d][%d]", ErrNonFinite, i, j)
			}
			q[i*n+j] = v
		}
	}

	return &Model{n: n, q: q}, nil
}

// Size returns the number of binary variables.
func (m *Model) Size() int { return m.n }

// At returns Q[i][j].
func (m *Model) At(i, j int) float64 { return m.q[i*m.n+j] }

// Rows returns a copy of the matrix.
func (m *Model) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = make([]float64, m.n)
		copy(rows[i], m.q[i*m.n:(i+1)*m.n])
	}
	return rows
}

// Equal reports whether two models carry the same matrix.
func (m *Model) Equal(o *Model) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.n != o.n {
		return false
	}
	for i := range m.q {
		if m.q[i] != o.q[i] {
			return false
		}
	}
	return true
}

// Energy computes Σ_i Σ_j x_i x_j Q[i][j] over the set bits of x.
// O(k²) where k is the number of set bits.
func (m *Model) Energy(x []bool) (float64, error) {
	if len(x) != m.n {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(x), m.n)
	}

	set := make([]int, 0, m.n)
	for i, b := range x {
		if b {
			set = append(set, i)
		}
	}

	var e float64
	for _, i := range set {
		row := m.q[i*m.n : (i+1)*m.n]
		for _, j := range set {
			e += row[j]
		}
	}
	return e, nil
}

// FlipDelta returns E(x with bit i flipped) - E(x) in O(n).
// x is not modified.
func (m *Model) FlipDelta(x []bool, i int) float64 {
	s := m.q[i*m.n+i]
	for j, b := range x {
		if b && j != i {
			s += m.q[i*m.n+j] + m.q[j*m.n+i]
		}
	}
	if x[i] {
		return -s
	}
	return s
}
