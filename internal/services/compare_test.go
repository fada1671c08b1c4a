package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-compare-service/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestCompareNormalizesAndComputesSavings(t *testing.T) {
	stops := sampleStops()
	policy := domain.DepotPolicy{Start: ptr(pt(52.5, 13.4)), RoundTrip: true}
	eval := NewTourEvaluator(stops, nil)

	greedy := NearestNeighborOrder(policy.Start, stops)
	worse := []int{4, 2, 3, 0, 1}

	outputs := []domain.SolverOutput{
		{Label: "greedy", Order: greedy},
		// Self-reported distance must be ignored.
		{Label: "remote", Order: worse, ReportedKm: f64(0.001), Energy: f64(-12)},
	}

	results, failures := Compare(eval, policy, outputs, "greedy")
	require.Empty(t, failures)
	require.Len(t, results, 2)

	assert.Equal(t, "greedy", results[0].Label)
	assert.InDelta(t, eval.Distance(greedy, policy), results[0].DistanceKm, 1e-12)
	require.NotNil(t, results[0].ImprovementPct)
	assert.Equal(t, 0.0, *results[0].ImprovementPct)

	remoteKm := eval.Distance(worse, policy)
	assert.InDelta(t, remoteKm, results[1].DistanceKm, 1e-12)
	require.NotNil(t, results[1].ImprovementPct)
	want := (results[0].DistanceKm - remoteKm) / results[0].DistanceKm * 100
	assert.InDelta(t, want, *results[1].ImprovementPct, 1e-9)
	require.NotNil(t, results[1].Energy)
	assert.Equal(t, -12.0, *results[1].Energy)
}

func TestCompareAbsenceIsNotZero(t *testing.T) {
	stops := sampleStops()
	eval := NewTourEvaluator(stops, nil)

	outputs := []domain.SolverOutput{
		{Label: "greedy", Order: []int{0, 1, 2, 3, 4}},
		{Label: "empty", Order: nil},
		{Label: "partial", Order: []int{0, 1, 2}},
		{Label: "out of range", Order: []int{0, 1, 2, 3, 9}},
		{Label: "greedy", Order: []int{4, 3, 2, 1, 0}},
	}

	results, failures := Compare(eval, domain.DepotPolicy{}, outputs, "greedy")
	require.Len(t, results, 1)
	assert.Equal(t, "greedy", results[0].Label)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, results[0].Order)

	labels := make([]string, 0, len(failures))
	for _, f := range failures {
		labels = append(labels, f.Label)
		assert.NotEmpty(t, f.Reason)
	}
	assert.Equal(t, []string{"empty", "partial", "out of range", "greedy"}, labels)
}

func TestCompareWithoutBaseline(t *testing.T) {
	stops := sampleStops()
	eval := NewTourEvaluator(stops, nil)

	results, failures := Compare(eval, domain.DepotPolicy{}, []domain.SolverOutput{
		{Label: "a", Order: []int{0, 1, 2, 3, 4}},
	}, "greedy")

	require.Empty(t, failures)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].ImprovementPct)
}

func TestCompareCopiesOrders(t *testing.T) {
	stops := sampleStops()
	eval := NewTourEvaluator(stops, nil)
	order := []int{0, 1, 2, 3, 4}

	results, _ := Compare(eval, domain.DepotPolicy{}, []domain.SolverOutput{{Label: "a", Order: order}}, "a")
	order[0] = 4
	assert.Equal(t, 0, results[0].Order[0])
}

func TestSavings(t *testing.T) {
	assert.Equal(t, 25.0, Savings(100, 75))
	assert.Equal(t, -10.0, Savings(100, 110))
}
