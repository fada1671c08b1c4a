package qubo

import (
	"errors"
	"fmt"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
)

// Largest stop count encoded as a routing QUBO. The model has (N²)² entries.
const MaxRouteStops = 12

var (
	ErrTooManyRouteStops    = errors.New("qubo: too many stops for route encoding")
	ErrInfeasibleAssignment = errors.New("qubo: assignment does not decode to a visiting order")
)

// BuildRouteModel encodes the visiting-order problem over len(stops) stops.
//
// Variable stop*N+pos is set when stop is visited at position pos. One-hot
// penalties on every stop and every position add penalty*(Σx-1)² with the
// constant dropped, so any permutation has energy tourDistance - 2*N*penalty.
// penalty <= 0 selects twice the longest leg.
func BuildRouteModel(stops domain.StopSet, m *geo.Matrix, policy domain.DepotPolicy, penalty float64) (*Model, error) {
	n := len(stops)
	if n == 0 {
		return nil, ErrEmptyMatrix
	}
	if n > MaxRouteStops {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRouteStops, n, MaxRouteStops)
	}
	if m == nil || m.Size() != n {
		m = geo.BuildMatrix(stops)
	}

	startLeg := make([]float64, n)
	endLeg := make([]float64, n)
	for i, s := range stops {
		if policy.Start != nil {
			startLeg[i] = geo.Distance(*policy.Start, s)
		}
		switch {
		case policy.RoundTrip && policy.Start != nil:
			endLeg[i] = geo.Distance(s, *policy.Start)
		case !policy.RoundTrip && policy.End != nil:
			endLeg[i] = geo.Distance(s, *policy.End)
		}
	}

	if penalty <= 0 {
		longest := 0.0
		for i := 0; i < n; i++ {
			longest = max(longest, startLeg[i], endLeg[i])
			for j := 0; j < n; j++ {
				longest = max(longest, m.At(i, j))
			}
		}
		penalty = 2 * longest
		if penalty == 0 {
			penalty = 1
		}
	}

	size := n * n
	q := make([]float64, size*size)
	v := func(stop, pos int) int { return stop*n + pos }
	add := func(a, b int, w float64) {
		if a == b {
			q[a*size+a] += w
			return
		}
		q[a*size+b] += w / 2
		q[b*size+a] += w / 2
	}

	// One-hot: penalty*(Σx)² - 2*penalty*Σx, using x² = x on the diagonal.
	for i := 0; i < n; i++ {
		for p := 0; p < n; p++ {
			add(v(i, p), v(i, p), -penalty)
			for r := p + 1; r < n; r++ {
				add(v(i, p), v(i, r), 2*penalty)
			}
		}
	}
	for p := 0; p < n; p++ {
		for i := 0; i < n; i++ {
			add(v(i, p), v(i, p), -penalty)
			for j := i + 1; j < n; j++ {
				add(v(i, p), v(j, p), 2*penalty)
			}
		}
	}

	// Legs between consecutive positions.
	legs := n - 1
	if policy.RoundTrip && policy.Start == nil && n > 1 {
		legs = n
	}
	for p := 0; p < legs; p++ {
		next := (p + 1) % n
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i != j {
					add(v(i, p), v(j, next), m.At(i, j))
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		add(v(i, 0), v(i, 0), startLeg[i])
		add(v(i, n-1), v(i, n-1), endLeg[i])
	}

	return &Model{n: size, q: q}, nil
}

// EncodeOrder returns the assignment that visits stops in the given order.
func EncodeOrder(order []int) []bool {
	n := len(order)
	x := make([]bool, n*n)
	for pos, stop := range order {
		x[stop*n+pos] = true
	}
	return x
}

// DecodeOrder reads a visiting order from an assignment produced over a
// BuildRouteModel model. Any position with zero or several stops, or any stop
// placed twice, is infeasible; no repair is attempted.
func DecodeOrder(x []bool, n int) ([]int, error) {
	if n <= 0 || len(x) != n*n {
		return nil, fmt.Errorf("%w: got %d bits for %d stops", ErrSizeMismatch, len(x), n)
	}

	order := make([]int, n)
	used := make([]bool, n)
	for p := 0; p < n; p++ {
		order[p] = -1
		for i := 0; i < n; i++ {
			if !x[i*n+p] {
				continue
			}
			if order[p] != -1 {
				return nil, fmt.Errorf("%w: position %d holds several stops", ErrInfeasibleAssignment, p)
			}
			if used[i] {
				return nil, fmt.Errorf("%w: stop %d placed twice", ErrInfeasibleAssignment, i)
			}
			order[p] = i
			used[i] = true
		}
		if order[p] == -1 {
			return nil, fmt.Errorf("%w: position %d is empty", ErrInfeasibleAssignment, p)
		}
	}

	return order, nil
}
