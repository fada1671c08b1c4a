package geo

import "route-compare-service/internal/domain"

// Matrix holds all-pairs distances in kilometres over a fixed set of points.
// It is read-only after BuildMatrix returns and may be shared between goroutines.
type Matrix struct {
	n    int
	dist []float64
}

// BuildMatrix computes D[i][j] = Distance(points[i], points[j]) with a zero diagonal.
// O(N²) time and space; intended for small stop sets.
func BuildMatrix(points []domain.Point) *Matrix {
	n := len(points)
	m := &Matrix{n: n, dist: make([]float64, n*n)}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(points[i], points[j])
			m.dist[i*n+j] = d
			m.dist[j*n+i] = d
		}
	}

	return m
}

// Size returns the number of points the matrix was built from.
func (m *Matrix) Size() int { return m.n }

// At returns the distance between point i and point j.
// Out-of-range indices panic.
func (m *Matrix) At(i, j int) float64 {
	return m.dist[i*m.n+j]
}

// Rows returns the matrix as a freshly allocated slice of rows.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = make([]float64, m.n)
		copy(rows[i], m.dist[i*m.n:(i+1)*m.n])
	}
	return rows
}
