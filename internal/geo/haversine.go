// Package geo provides great-circle distances and all-pairs distance matrices.
package geo

import (
	"math"

	"route-compare-service/internal/domain"
)

// Mean Earth radius in kilometres.
const EarthRadiusKm = 6371.0

func toRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// Distance returns the great-circle distance in kilometres between a and b
// using the haversine formula. NaN or Inf coordinates yield NaN.
func Distance(a, b domain.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	// h = sin²(Δlat/2) + cos(lat1)·cos(lat2)·sin²(Δlng/2)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
