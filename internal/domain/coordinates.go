package domain

// Immutable geographic point in degrees (latitude, longitude).
type Point struct {
	Lat float64
	Lng float64
}

// Return the point as [lat, lng] for polyline consumers.
func (p Point) ToList() []float64 { return []float64{p.Lat, p.Lng} }

// Report whether two points are equal within eps in each coordinate.
func (p Point) Near(o Point, eps float64) bool {
	dLat := p.Lat - o.Lat
	if dLat < 0 {
		dLat = -dLat
	}
	dLng := p.Lng - o.Lng
	if dLng < 0 {
		dLng = -dLng
	}
	return dLat <= eps && dLng <= eps
}
