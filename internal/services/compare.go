package services

import (
	"errors"
	"fmt"

	"route-compare-service/internal/domain"
)

var ErrEmptyOrder = errors.New("solver returned no order")

// Compare re-evaluates every solver output against the same stops and depot policy.
//
// Distances reported by solvers are ignored; each order goes through the same
// TourEvaluator so results are comparable regardless of origin. Outputs with an
// empty or invalid order, or a repeated label, produce a SolverFailure instead of
// a result. ImprovementPct is (baseline - candidate) / baseline * 100 and stays
// nil when the baseline is absent or has zero length. Results keep input order.
func Compare(
	eval *TourEvaluator,
	policy domain.DepotPolicy,
	outputs []domain.SolverOutput,
	baseline string,
) ([]domain.SolverResult, []domain.SolverFailure) {
	results := make([]domain.SolverResult, 0, len(outputs))
	failures := []domain.SolverFailure{}
	seen := make(map[string]struct{}, len(outputs))
	n := len(eval.Stops())

	for _, out := range outputs {
		if _, dup := seen[out.Label]; dup {
			failures = append(failures, domain.SolverFailure{
				Label:  out.Label,
				Reason: fmt.Sprintf("duplicate solver label %q", out.Label),
			})
			continue
		}
		seen[out.Label] = struct{}{}

		if len(out.Order) == 0 {
			failures = append(failures, domain.SolverFailure{Label: out.Label, Reason: ErrEmptyOrder.Error()})
			continue
		}
		if err := ValidateOrder(out.Order, n); err != nil {
			failures = append(failures, domain.SolverFailure{Label: out.Label, Reason: err.Error()})
			continue
		}

		order := make([]int, len(out.Order))
		copy(order, out.Order)

		results = append(results, domain.SolverResult{
			Label:      out.Label,
			Order:      order,
			DistanceKm: eval.Distance(order, policy),
			Energy:     out.Energy,
		})
	}

	var base *domain.SolverResult
	for i := range results {
		if results[i].Label == baseline {
			base = &results[i]
			break
		}
	}
	if base != nil && base.DistanceKm > 0 {
		for i := range results {
			pct := Savings(base.DistanceKm, results[i].DistanceKm)
			results[i].ImprovementPct = &pct
		}
	}

	return results, failures
}

// Savings returns the percentage by which candidate is shorter than baseline.
func Savings(baseline, candidate float64) float64 {
	return (baseline - candidate) / baseline * 100
}
