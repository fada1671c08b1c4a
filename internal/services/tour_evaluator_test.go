package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/geo"
)

func pt(lat, lng float64) domain.Point { return domain.Point{Lat: lat, Lng: lng} }

func ptr(p domain.Point) *domain.Point { return &p }

func sampleStops() domain.StopSet {
	return domain.NewStopSet([]domain.Point{
		pt(52.52, 13.40),
		pt(52.50, 13.45),
		pt(52.48, 13.38),
		pt(52.55, 13.35),
		pt(52.51, 13.30),
	})
}

func TestTourDistanceEmptyOrder(t *testing.T) {
	stops := sampleStops()
	policy := domain.DepotPolicy{Start: ptr(pt(52.5, 13.4)), RoundTrip: true}

	assert.Equal(t, 0.0, TourDistance(nil, stops, policy))
	assert.Empty(t, BuildPolyline(nil, stops, policy))
}

func TestTourDistanceSingleStopRoundTrip(t *testing.T) {
	start := pt(0, 0)
	stops := domain.NewStopSet([]domain.Point{pt(0.3, 0.4)})
	policy := domain.DepotPolicy{Start: &start, RoundTrip: true}

	want := 2 * geo.Distance(start, stops[0])
	assert.InDelta(t, want, TourDistance([]int{0}, stops, policy), 1e-12)

	line := BuildPolyline([]int{0}, stops, policy)
	assert.Equal(t, domain.Polyline{start, stops[0], start}, line)
}

func TestSingleStopPolylines(t *testing.T) {
	stops := domain.NewStopSet([]domain.Point{pt(1, 1)})

	closed := BuildPolyline([]int{0}, stops, domain.DepotPolicy{RoundTrip: true})
	assert.Equal(t, domain.Polyline{pt(1, 1), pt(1, 1)}, closed)
	assert.Equal(t, 0.0, TourDistance([]int{0}, stops, domain.DepotPolicy{RoundTrip: true}))

	open := BuildPolyline([]int{0}, stops, domain.DepotPolicy{})
	assert.Equal(t, domain.Polyline{pt(1, 1)}, open)

	withEnd := BuildPolyline([]int{0}, stops, domain.DepotPolicy{End: ptr(pt(2, 2))})
	assert.Equal(t, domain.Polyline{pt(1, 1), pt(2, 2)}, withEnd)
}

func TestTourDistanceDepotRules(t *testing.T) {
	stops := sampleStops()
	order := []int{2, 0, 4, 1, 3}
	start := pt(52.45, 13.50)
	end := pt(52.60, 13.20)

	inner := 0.0
	for k := 0; k+1 < len(order); k++ {
		inner += geo.Distance(stops[order[k]], stops[order[k+1]])
	}
	first, last := stops[order[0]], stops[order[len(order)-1]]

	tests := []struct {
		name   string
		policy domain.DepotPolicy
		want   float64
	}{
		{"open", domain.DepotPolicy{}, inner},
		{"open with start", domain.DepotPolicy{Start: &start}, geo.Distance(start, first) + inner},
		{"start and end", domain.DepotPolicy{Start: &start, End: &end},
			geo.Distance(start, first) + inner + geo.Distance(last, end)},
		{"round trip without depot", domain.DepotPolicy{RoundTrip: true}, inner + geo.Distance(last, first)},
		{"round trip ignores end", domain.DepotPolicy{Start: &start, End: &end, RoundTrip: true},
			geo.Distance(start, first) + inner + geo.Distance(last, start)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TourDistance(order, stops, tt.policy), 1e-9)
		})
	}
}

func TestRoundTripPolylineCloses(t *testing.T) {
	stops := sampleStops()
	start := pt(52.45, 13.50)
	end := pt(52.60, 13.20)
	policies := []domain.DepotPolicy{
		{RoundTrip: true},
		{RoundTrip: true, Start: &start},
		{RoundTrip: true, Start: &start, End: &end},
		{RoundTrip: true, End: &end},
	}
	orders := [][]int{{0, 1, 2, 3, 4}, {4, 3, 2, 1, 0}, {2, 4, 0, 3, 1}}

	for _, policy := range policies {
		for _, order := range orders {
			line := BuildPolyline(order, stops, policy)
			require.GreaterOrEqual(t, len(line), 2)
			first, last := line[0], line[len(line)-1]
			assert.InDelta(t, first.Lat, last.Lat, 1e-9)
			assert.InDelta(t, first.Lng, last.Lng, 1e-9)

			// Closing is idempotent.
			assert.Equal(t, line, closePolyline(append(domain.Polyline{}, line...)))
		}
	}
}

func TestOpenPolylineShape(t *testing.T) {
	stops := sampleStops()
	start := pt(52.45, 13.50)
	end := pt(52.60, 13.20)

	line := BuildPolyline([]int{1, 0, 2, 3, 4}, stops, domain.DepotPolicy{Start: &start, End: &end})
	require.Len(t, line, 7)
	assert.Equal(t, start, line[0])
	assert.Equal(t, stops[1], line[1])
	assert.Equal(t, end, line[6])
}

func TestTourDistanceIndependentOfSource(t *testing.T) {
	stops := sampleStops()
	eval := NewTourEvaluator(stops, nil)
	policy := domain.DepotPolicy{Start: ptr(pt(52.5, 13.4)), RoundTrip: true}

	local := []int{3, 1, 4, 0, 2}
	remote := append([]int(nil), local...)

	assert.Equal(t, eval.Distance(local, policy), eval.Distance(remote, policy))
	assert.Equal(t, eval.Distance(local, policy), TourDistance(remote, stops, policy))
}

func TestNewTourEvaluatorRebuildsMismatchedMatrix(t *testing.T) {
	stops := sampleStops()
	eval := NewTourEvaluator(stops, geo.BuildMatrix(stops[:2]))
	assert.Equal(t, len(stops), eval.Matrix().Size())
}

func TestValidateOrder(t *testing.T) {
	assert.NoError(t, ValidateOrder([]int{2, 0, 1}, 3))
	assert.NoError(t, ValidateOrder([]int{}, 0))

	assert.ErrorIs(t, ValidateOrder([]int{0, 1}, 3), ErrOrderNotPermutation)
	assert.ErrorIs(t, ValidateOrder([]int{0, 1, 1}, 3), ErrOrderNotPermutation)
	assert.ErrorIs(t, ValidateOrder([]int{0, 1, 3}, 3), ErrOrderOutOfRange)
	assert.ErrorIs(t, ValidateOrder([]int{0, -1, 2}, 3), ErrOrderOutOfRange)
}
