package domain

import "time"

// A completed comparison: every solver's re-evaluated result plus the
// solvers that produced nothing. Immutable once built.
type ComparisonRun struct {
	RunID     string
	CreatedAt time.Time
	Stops     StopSet
	Policy    DepotPolicy
	Baseline  string
	Results   []SolverResult
	Failures  []SolverFailure
}
