package domain

// Outcome of a single solver invocation after local re-evaluation.
// Distances are always recomputed locally so that results from different
// solvers are comparable; a remote solver's own distance is never used here.
type SolverResult struct {
	Label          string
	Order          []int
	DistanceKm     float64
	Energy         *float64
	ImprovementPct *float64
}

// Records why a solver produced no result.
type SolverFailure struct {
	Label  string
	Reason string
}

// Raw output of a solver before comparison.
type SolverOutput struct {
	Label  string
	Order  []int
	Energy *float64
	// Self-reported distance, informational only.
	ReportedKm *float64
}
