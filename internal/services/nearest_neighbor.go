package services

import (
	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
)

// NearestNeighborOrder builds a visiting order with a greedy nearest-neighbor walk.
//
// The walk starts at start, or at stop 0 when no start is given, and always moves
// to the closest unvisited stop. Equal distances resolve to the lowest stop index,
// so the result is deterministic. It is the baseline every other solver is
// measured against and makes no attempt at global optimization. O(N²).
func NearestNeighborOrder(start *domain.Point, stops domain.StopSet) []int {
	n := len(stops)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	visited := make([]bool, n)
	var current domain.Point
	if start != nil {
		current = *start
	} else {
		current = stops[0]
		order = append(order, 0)
		visited[0] = true
	}

	for len(order) < n {
		best := -1
		bestDist := 0.0

		// Strict comparison in index order keeps the lowest index on ties.
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := geo.Distance(current, stops[i])
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}

		order = append(order, best)
		visited[best] = true
		current = stops[best]
	}

	return order
}
