package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
)

const (
	DefaultMinStops      = 5
	DefaultMaxStops      = 50
	DefaultMaxConcurrent = 4
	DefaultBaseline      = "greedy"
)

var (
	ErrTooFewStops       = errors.New("too few stops")
	ErrTooManyStops      = errors.New("too many stops")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrUnknownBaseline   = errors.New("baseline label does not match any solver")
	ErrNoSolvers         = errors.New("no solvers configured")
)

type ComparisonRequest struct {
	Stops    []domain.Point
	Policy   domain.DepotPolicy
	Baseline string
	Params   map[string]any
}

// ComparisonService runs every configured solver over one stop set and
// compares their orders on a common footing.
type ComparisonService struct {
	Solvers []ports.RouteSolver
	// Optional; runs are not persisted when nil.
	Repo ports.RunRepository

	MinStops      int
	MaxStops      int
	MaxConcurrent int
	// Per-solver deadline; zero means no extra deadline.
	SolverTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

func NewComparisonService(repo ports.RunRepository, solvers ...ports.RouteSolver) *ComparisonService {
	return &ComparisonService{
		Solvers:       solvers,
		Repo:          repo,
		MinStops:      DefaultMinStops,
		MaxStops:      DefaultMaxStops,
		MaxConcurrent: DefaultMaxConcurrent,
		Now:           time.Now,
		NewID:         func() string { return uuid.NewString() },
	}
}

// Validate rejects a request before any solver runs.
func (s *ComparisonService) Validate(req ComparisonRequest) error {
	if len(s.Solvers) == 0 {
		return ErrNoSolvers
	}

	minStops, maxStops := s.MinStops, s.MaxStops
	if minStops <= 0 {
		minStops = DefaultMinStops
	}
	if maxStops <= 0 {
		maxStops = DefaultMaxStops
	}

	if len(req.Stops) < minStops {
		return fmt.Errorf("%w: got %d, need at least %d", ErrTooFewStops, len(req.Stops), minStops)
	}
	if len(req.Stops) > maxStops {
		return fmt.Errorf("%w: got %d, at most %d", ErrTooManyStops, len(req.Stops), maxStops)
	}

	for i, p := range req.Stops {
		if err := validatePoint(p); err != nil {
			return fmt.Errorf("stop %d: %w", i, err)
		}
	}
	if req.Policy.Start != nil {
		if err := validatePoint(*req.Policy.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if req.Policy.End != nil {
		if err := validatePoint(*req.Policy.End); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}

	baseline := baselineLabel(req)
	for _, solver := range s.Solvers {
		if solver.Label() == baseline {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownBaseline, baseline)
}

func validatePoint(p domain.Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: non-finite (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

func baselineLabel(req ComparisonRequest) string {
	if req.Baseline != "" {
		return req.Baseline
	}
	return DefaultBaseline
}

type solverOutcome struct {
	output domain.SolverOutput
	err    error
}

// Run validates the request, runs all solvers concurrently and compares them.
//
// Each solver is independent: an error, timeout or invalid order from one
// becomes a SolverFailure and never affects the others. Only validation and
// persistence errors are returned.
func (s *ComparisonService) Run(ctx context.Context, req ComparisonRequest) (_ *domain.ComparisonRun, err error) {
	defer obs.Time(ctx, "comparison.Run")(&err)

	if err := s.Validate(req); err != nil {
		return nil, fmt.Errorf("run comparison: %w", err)
	}

	stops := domain.NewStopSet(req.Stops)
	eval := NewTourEvaluator(stops, nil)
	solveReq := ports.SolveRequest{
		Stops:  stops,
		Matrix: eval.Matrix(),
		Policy: req.Policy,
		Params: req.Params,
	}

	outcomes := s.solveAll(ctx, solveReq)

	runID := s.NewID()
	outputs := make([]domain.SolverOutput, 0, len(outcomes))
	var solverFailures []domain.SolverFailure
	for i, o := range outcomes {
		label := s.Solvers[i].Label()
		if o.err != nil {
			log.Printf("solver failed: run_id=%s label=%s err=%v", runID, label, o.err)
			solverFailures = append(solverFailures, domain.SolverFailure{Label: label, Reason: o.err.Error()})
			continue
		}
		o.output.Label = label
		outputs = append(outputs, o.output)
	}

	results, failures := Compare(eval, req.Policy, outputs, baselineLabel(req))
	for _, f := range failures {
		log.Printf("solver output rejected: run_id=%s label=%s reason=%s", runID, f.Label, f.Reason)
	}

	run := &domain.ComparisonRun{
		RunID:     runID,
		CreatedAt: s.Now().UTC(),
		Stops:     stops,
		Policy:    req.Policy,
		Baseline:  baselineLabel(req),
		Results:   results,
		Failures:  append(solverFailures, failures...),
	}

	if s.Repo != nil {
		if err := s.Repo.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("run comparison: save run %s: %w", runID, err)
		}
	}

	return run, nil
}

// solveAll fans out to every solver with bounded concurrency. Slot i belongs to
// solver i only, so no locking is needed.
func (s *ComparisonService) solveAll(ctx context.Context, req ports.SolveRequest) []solverOutcome {
	outcomes := make([]solverOutcome, len(s.Solvers))

	limit := s.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, solver := range s.Solvers {
		g.Go(func() error {
			sctx := ctx
			if s.SolverTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, s.SolverTimeout)
				defer cancel()
			}

			out, err := solver.Solve(sctx, req)
			if err != nil {
				err = fmt.Errorf("solve %q: %w", solver.Label(), err)
			}
			outcomes[i] = solverOutcome{output: out, err: err}
			// Never abort siblings.
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Polylines returns the display path of every result in run.
func Polylines(run *domain.ComparisonRun) map[string]domain.Polyline {
	eval := NewTourEvaluator(run.Stops, nil)
	out := make(map[string]domain.Polyline, len(run.Results))
	for _, r := range run.Results {
		out[r.Label] = eval.Polyline(r.Order, run.Policy)
	}
	return out
}
