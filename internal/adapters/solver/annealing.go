package solver

import (
	"context"
	"fmt"
	"log"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/qubo"
	"route-compare-service/internal/services"
)

const AnnealingLabel = "annealing"

// AnnealingSolver encodes the visiting order as a QUBO and searches it locally.
// The search starts from the nearest-neighbour tour so the best assignment is
// feasible unless the annealer finds a lower-energy one.
//
// Zero temperatures are derived from the longest leg of the instance.
// Request params "steps", "batch_size", "t0", "t1" and "seed" override the fields.
type AnnealingSolver struct {
	Steps     int
	BatchSize int
	T0        float64
	T1        float64
	Seed      uint64
	Penalty   float64
}

func NewAnnealingSolver(steps, batch int, t0, t1 float64) *AnnealingSolver {
	return &AnnealingSolver{Steps: steps, BatchSize: batch, T0: t0, T1: t1}
}

func (*AnnealingSolver) Label() string { return AnnealingLabel }

func (s *AnnealingSolver) Solve(ctx context.Context, req ports.SolveRequest) (_ domain.SolverOutput, err error) {
	defer obs.Time(ctx, "annealing.Solve")(&err)

	n := len(req.Stops)
	m := req.Matrix
	if m == nil || m.Size() != n {
		m = geo.BuildMatrix(req.Stops)
	}

	model, err := qubo.BuildRouteModel(req.Stops, m, req.Policy, s.Penalty)
	if err != nil {
		return domain.SolverOutput{}, err
	}

	p, seed := s.params(m, req.Params)
	rng := qubo.NewRNG(seed)

	start := qubo.EncodeOrder(services.NearestNeighborOrder(req.Policy.Start, req.Stops))
	run, err := qubo.NewRunFrom(model, start)
	if err != nil {
		return domain.SolverOutput{}, err
	}

	snap, err := qubo.Anneal(run, p, rng, qubo.NewScheduler(ctx), nil)
	if err != nil {
		return domain.SolverOutput{}, err
	}
	if snap.State == qubo.Stopped {
		log.Printf("annealing stopped early: iteration=%d best=%.3f", snap.Iteration, snap.BestEnergy)
	}

	order, err := qubo.DecodeOrder(snap.BestAssignment, n)
	if err != nil {
		return domain.SolverOutput{}, fmt.Errorf("decode best assignment: %w", err)
	}

	energy := snap.BestEnergy
	return domain.SolverOutput{Order: order, Energy: &energy}, nil
}

func (s *AnnealingSolver) params(m *geo.Matrix, overrides map[string]any) (qubo.Params, uint64) {
	p := qubo.Params{
		Steps:     s.Steps,
		BatchSize: s.BatchSize,
		T0:        s.T0,
		T1:        s.T1,
	}
	seed := s.Seed

	if v, ok := numberParam(overrides, "steps"); ok {
		p.Steps = int(v)
	}
	if v, ok := numberParam(overrides, "batch_size"); ok {
		p.BatchSize = int(v)
	}
	if v, ok := numberParam(overrides, "t0"); ok {
		p.T0 = v
	}
	if v, ok := numberParam(overrides, "t1"); ok {
		p.T1 = v
	}
	if v, ok := numberParam(overrides, "seed"); ok && v >= 0 {
		seed = uint64(v)
	}

	if p.Steps < 1 {
		p.Steps = 100_000
	}
	if p.BatchSize < 1 {
		p.BatchSize = 1_000
	}
	if p.T0 <= 0 && p.T1 <= 0 {
		longest := 0.0
		for i := 0; i < m.Size(); i++ {
			for j := 0; j < m.Size(); j++ {
				longest = max(longest, m.At(i, j))
			}
		}
		if longest == 0 {
			longest = 1
		}
		p.T0 = longest
		p.T1 = longest * 1e-3
	}

	return p, seed
}

func numberParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
