package qubo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Lower bound applied to the temperature in the Metropolis criterion.
const minTemperature = 1e-9

var (
	ErrInvalidParams  = errors.New("qubo: invalid annealing parameters")
	ErrAlreadyRunning = errors.New("qubo: annealing run already in progress")
	ErrNoModel        = errors.New("qubo: no model loaded")
)

type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Params controls one annealing invocation.
// Temperature falls linearly from T0 at proposal 0 to T1 at proposal Steps-1.
type Params struct {
	Steps     int
	BatchSize int
	T0        float64
	T1        float64
}

func (p Params) Validate() error {
	if p.Steps < 1 {
		return fmt.Errorf("%w: steps must be >= 1, got %d", ErrInvalidParams, p.Steps)
	}
	if p.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be >= 1, got %d", ErrInvalidParams, p.BatchSize)
	}
	if math.IsNaN(p.T0) || math.IsNaN(p.T1) || math.IsInf(p.T0, 0) || math.IsInf(p.T1, 0) {
		return fmt.Errorf("%w: temperatures must be finite", ErrInvalidParams)
	}
	return nil
}

// Temperature returns the linearly interpolated temperature for proposal k.
func (p Params) Temperature(k int) float64 {
	if p.Steps <= 1 {
		return p.T0
	}
	return p.T0 + (p.T1-p.T0)*float64(k)/float64(p.Steps-1)
}

// Snapshot is a copy of annealing progress published once per batch.
type Snapshot struct {
	Assignment     []bool
	Energy         float64
	BestAssignment []bool
	BestEnergy     float64
	Iteration      int
	State          State
}

// Run is the mutable state of one annealing search over a Model.
// It is owned by its caller and must not be shared between concurrent Anneal calls.
type Run struct {
	model      *Model
	current    []bool
	energy     float64
	best       []bool
	bestEnergy float64
	iteration  int
	state      State
}

// NewRun starts from a uniformly random assignment drawn from rng.
func NewRun(model *Model, rng *rand.Rand) *Run {
	x := make([]bool, model.Size())
	for i := range x {
		x[i] = rng.IntN(2) == 1
	}
	return newRunFrom(model, x)
}

// NewRunFrom starts from a copy of the given assignment.
func NewRunFrom(model *Model, x []bool) (*Run, error) {
	if len(x) != model.Size() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(x), model.Size())
	}
	cp := make([]bool, len(x))
	copy(cp, x)
	return newRunFrom(model, cp), nil
}

func newRunFrom(model *Model, x []bool) *Run {
	// Length is checked by the callers.
	e, _ := model.Energy(x)
	best := make([]bool, len(x))
	copy(best, x)
	return &Run{
		model:      model,
		current:    x,
		energy:     e,
		best:       best,
		bestEnergy: e,
		state:      Idle,
	}
}

func (r *Run) Model() *Model { return r.model }

func (r *Run) State() State { return r.state }

func (r *Run) BestEnergy() float64 { return r.bestEnergy }

func (r *Run) Snapshot() Snapshot {
	cur := make([]bool, len(r.current))
	copy(cur, r.current)
	best := make([]bool, len(r.best))
	copy(best, r.best)
	return Snapshot{
		Assignment:     cur,
		Energy:         r.energy,
		BestAssignment: best,
		BestEnergy:     r.bestEnergy,
		Iteration:      r.iteration,
		State:          r.state,
	}
}

// Scheduler is consulted once per batch boundary.
// ShouldCancel is checked before each batch; YieldTurn is called after each batch.
type Scheduler interface {
	YieldTurn()
	ShouldCancel() bool
}

// CooperativeScheduler cancels on context cancellation or an explicit Stop.
type CooperativeScheduler struct {
	ctx     context.Context
	stopped atomic.Bool
}

func NewScheduler(ctx context.Context) *CooperativeScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CooperativeScheduler{ctx: ctx}
}

func (s *CooperativeScheduler) YieldTurn() { runtime.Gosched() }

func (s *CooperativeScheduler) ShouldCancel() bool {
	return s.stopped.Load() || s.ctx.Err() != nil
}

// Stop requests cancellation at the next batch boundary. Safe for concurrent use.
func (s *CooperativeScheduler) Stop() { s.stopped.Store(true) }

// Anneal performs p.Steps single-bit-flip proposals on run in batches of p.BatchSize.
//
// Proposal k is evaluated against the state left by proposal k-1. Cancellation is
// only observed between batches, so a flip and its evaluation are never split.
// A cancelled run ends in Stopped with its best-known assignment retained; a run
// that completes all proposals ends in Idle. observe may be nil.
func Anneal(run *Run, p Params, rng *rand.Rand, sched Scheduler, observe func(Snapshot)) (Snapshot, error) {
	if run == nil || run.model == nil {
		return Snapshot{}, ErrNoModel
	}
	if err := p.Validate(); err != nil {
		return run.Snapshot(), err
	}

	n := run.model.Size()
	run.state = Running

	for k := 0; k < p.Steps; {
		if sched != nil && sched.ShouldCancel() {
			run.state = Stopped
			snap := run.Snapshot()
			if observe != nil {
				observe(snap)
			}
			return snap, nil
		}

		end := k + p.BatchSize
		if end > p.Steps {
			end = p.Steps
		}

		for ; k < end; k++ {
			t := math.Max(p.Temperature(k), minTemperature)
			i := rng.IntN(n)
			dE := run.model.FlipDelta(run.current, i)

			if dE <= 0 || rng.Float64() < math.Exp(-dE/t) {
				run.current[i] = !run.current[i]
				run.energy += dE
				if run.energy < run.bestEnergy {
					run.bestEnergy = run.energy
					copy(run.best, run.current)
				}
			}
			run.iteration++
		}

		if observe != nil {
			observe(run.Snapshot())
		}
		if sched != nil {
			sched.YieldTurn()
		}
	}

	run.state = Idle
	return run.Snapshot(), nil
}

// NewRNG returns a PCG-backed generator. seed 0 draws a seed from the clock.
func NewRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Engine owns one Run and the model it searches. Apart from Stop, its methods
// must not be called concurrently with Run.
type Engine struct {
	rng       *rand.Rand
	run       *Run
	observers []func(Snapshot)

	mu      sync.Mutex
	sched   *CooperativeScheduler
	running atomic.Bool
}

func NewEngine(seed uint64) *Engine {
	return &Engine{rng: NewRNG(seed)}
}

// SetModel loads a model. A model whose matrix differs from the current one
// forces a hard reset: fresh random assignment, best reset to it, iteration
// counter zeroed and state Idle. An equal model keeps the current run.
func (e *Engine) SetModel(m *Model) error {
	if m == nil {
		return ErrNoModel
	}
	if e.running.Load() {
		return ErrAlreadyRunning
	}
	if e.run != nil && e.run.model.Equal(m) {
		return nil
	}
	e.run = NewRun(m, e.rng)
	return nil
}

// Subscribe registers an observer that receives every per-batch snapshot.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	e.observers = append(e.observers, fn)
}

func (e *Engine) publish(s Snapshot) {
	for _, fn := range e.observers {
		fn(s)
	}
}

// Run continues the current search for p.Steps proposals.
// Cancellation of ctx or a call to Stop halts it at the next batch boundary.
func (e *Engine) Run(ctx context.Context, p Params) (Snapshot, error) {
	if e.run == nil {
		return Snapshot{}, ErrNoModel
	}
	if !e.running.CompareAndSwap(false, true) {
		return Snapshot{}, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	sched := NewScheduler(ctx)
	e.mu.Lock()
	e.sched = sched
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.sched = nil
		e.mu.Unlock()
	}()

	return Anneal(e.run, p, e.rng, sched, e.publish)
}

// Stop requests cancellation of an in-flight Run. It is a no-op when idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched != nil {
		e.sched.Stop()
	}
}

// Snapshot returns the current state, or false when no model is loaded.
func (e *Engine) Snapshot() (Snapshot, bool) {
	if e.run == nil {
		return Snapshot{}, false
	}
	return e.run.Snapshot(), true
}
