package ports

import (
	"context"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
)

// Input shared by every solver in one comparison. Stops and Matrix are
// read-only and may be shared across concurrent Solve calls.
type SolveRequest struct {
	Stops  domain.StopSet
	Matrix *geo.Matrix
	Policy domain.DepotPolicy
	Params map[string]any
}

// Contract for anything that proposes a visiting order: local heuristics,
// the local annealing engine or a remote optimization service.
type RouteSolver interface {
	Label() string
	// Return an ordering of stop indices. Distances are recomputed by the caller.
	Solve(ctx context.Context, req SolveRequest) (domain.SolverOutput, error)
}
