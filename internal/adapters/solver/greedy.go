package solver

import (
	"context"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/services"
)

const GreedyLabel = "greedy"

// GreedySolver is the nearest-neighbour baseline.
type GreedySolver struct{}

func NewGreedySolver() *GreedySolver { return &GreedySolver{} }

func (GreedySolver) Label() string { return GreedyLabel }

func (GreedySolver) Solve(ctx context.Context, req ports.SolveRequest) (domain.SolverOutput, error) {
	if err := ctx.Err(); err != nil {
		return domain.SolverOutput{}, err
	}
	return domain.SolverOutput{
		Order: services.NearestNeighborOrder(req.Policy.Start, req.Stops),
	}, nil
}
