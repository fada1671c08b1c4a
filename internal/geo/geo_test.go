package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-compare-service/internal/domain"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	points := []domain.Point{
		{Lat: 0, Lng: 0},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 40.7128, Lng: -74.0060},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: 179.9},
	}

	for _, a := range points {
		assert.Equal(t, 0.0, Distance(a, a))
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a))
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// One degree of longitude along the equator.
	oneDegree := 2 * math.Pi * EarthRadiusKm / 360
	assert.InDelta(t, oneDegree, Distance(domain.Point{Lat: 0, Lng: 0}, domain.Point{Lat: 0, Lng: 1}), 1e-9)

	london := domain.Point{Lat: 51.5074, Lng: -0.1278}
	paris := domain.Point{Lat: 48.8566, Lng: 2.3522}
	assert.InDelta(t, 343.5, Distance(london, paris), 1.0)
}

func TestDistanceNaNPropagates(t *testing.T) {
	d := Distance(domain.Point{Lat: math.NaN(), Lng: 0}, domain.Point{Lat: 1, Lng: 1})
	assert.True(t, math.IsNaN(d))
}

func TestBuildMatrix(t *testing.T) {
	points := []domain.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
	}

	m := BuildMatrix(points)
	require.Equal(t, 3, m.Size())

	for i := range points {
		assert.Equal(t, 0.0, m.At(i, i))
		for j := range points {
			assert.Equal(t, Distance(points[i], points[j]), m.At(i, j))
			assert.Equal(t, m.At(i, j), m.At(j, i))
		}
	}

	rows := m.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, m.At(1, 2), rows[1][2])
}

func TestBuildMatrixEmpty(t *testing.T) {
	m := BuildMatrix(nil)
	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Rows())
}
