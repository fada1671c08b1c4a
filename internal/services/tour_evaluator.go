package services

import (
	"errors"
	"fmt"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
)

// Coordinate tolerance used when checking that a round trip closes.
const closeEpsilon = 1e-9

var (
	ErrOrderOutOfRange     = errors.New("order references a stop index out of range")
	ErrOrderNotPermutation = errors.New("order is not a permutation of the stop set")
)

// TourEvaluator measures tours over one StopSet through a prebuilt DistanceMatrix.
// It holds no mutable state and may be shared between goroutines.
type TourEvaluator struct {
	stops  domain.StopSet
	matrix *geo.Matrix
}

// NewTourEvaluator builds the distance matrix when m is nil or sized for another stop set.
func NewTourEvaluator(stops domain.StopSet, m *geo.Matrix) *TourEvaluator {
	if m == nil || m.Size() != len(stops) {
		m = geo.BuildMatrix(stops)
	}
	return &TourEvaluator{stops: stops, matrix: m}
}

func (e *TourEvaluator) Stops() domain.StopSet { return e.stops }

func (e *TourEvaluator) Matrix() *geo.Matrix { return e.matrix }

// Distance returns the tour length in kilometres.
//
// Without a start depot the first stop is the implicit origin. A round trip
// closes back to the start depot, or to the first visited stop; otherwise the
// tour ends at the end depot if one is set. Indices must be in range.
func (e *TourEvaluator) Distance(order []int, policy domain.DepotPolicy) float64 {
	if len(order) == 0 {
		return 0
	}

	var total float64
	if policy.Start != nil {
		total += geo.Distance(*policy.Start, e.stops[order[0]])
	}

	for k := 0; k+1 < len(order); k++ {
		total += e.matrix.At(order[k], order[k+1])
	}

	last := order[len(order)-1]
	switch {
	case policy.RoundTrip && policy.Start != nil:
		total += geo.Distance(e.stops[last], *policy.Start)
	case policy.RoundTrip:
		total += e.matrix.At(last, order[0])
	case policy.End != nil:
		total += geo.Distance(e.stops[last], *policy.End)
	}

	return total
}

// Polyline returns [start?, stops in order, end?]. For a round trip the first
// point is appended whenever the path does not already close on it, so the
// first and last coordinates always match. An empty order yields an empty polyline.
func (e *TourEvaluator) Polyline(order []int, policy domain.DepotPolicy) domain.Polyline {
	if len(order) == 0 {
		return domain.Polyline{}
	}

	path := make(domain.Polyline, 0, len(order)+2)
	if policy.Start != nil {
		path = append(path, *policy.Start)
	}
	for _, idx := range order {
		path = append(path, e.stops[idx])
	}

	if policy.RoundTrip {
		return closePolyline(path)
	}
	if policy.End != nil {
		path = append(path, *policy.End)
	}
	return path
}

// closePolyline appends the first point unless the path already ends on it.
// A single point is doubled so that a round trip always has a return leg.
func closePolyline(path domain.Polyline) domain.Polyline {
	if len(path) == 0 {
		return path
	}
	first := path[0]
	if len(path) == 1 || !path[len(path)-1].Near(first, closeEpsilon) {
		path = append(path, first)
	}
	return path
}

// TourDistance is a convenience wrapper that builds a one-off evaluator.
func TourDistance(order []int, stops domain.StopSet, policy domain.DepotPolicy) float64 {
	return NewTourEvaluator(stops, nil).Distance(order, policy)
}

// BuildPolyline is a convenience wrapper that builds a one-off evaluator.
func BuildPolyline(order []int, stops domain.StopSet, policy domain.DepotPolicy) domain.Polyline {
	return NewTourEvaluator(stops, nil).Polyline(order, policy)
}

// ValidateOrder checks that order is a permutation of [0, n).
func ValidateOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: has %d entries for %d stops", ErrOrderNotPermutation, len(order), n)
	}

	seen := make([]bool, n)
	for pos, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d at position %d (stops=%d)", ErrOrderOutOfRange, idx, pos, n)
		}
		if seen[idx] {
			return fmt.Errorf("%w: index %d repeated at position %d", ErrOrderNotPermutation, idx, pos)
		}
		seen[idx] = true
	}

	return nil
}
