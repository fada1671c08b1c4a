package repositories

import "route-compare-service/internal/domain"

// Stored JSON shape of a point.
type pointJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type policyJSON struct {
	Start     *pointJSON `json:"start,omitempty"`
	End       *pointJSON `json:"end,omitempty"`
	RoundTrip bool       `json:"round_trip"`
}

func toPointJSON(p domain.Point) pointJSON { return pointJSON{Lat: p.Lat, Lng: p.Lng} }

func (p pointJSON) toDomain() domain.Point { return domain.Point{Lat: p.Lat, Lng: p.Lng} }

func toPointsJSON(points []domain.Point) []pointJSON {
	out := make([]pointJSON, len(points))
	for i, p := range points {
		out[i] = toPointJSON(p)
	}
	return out
}

func toStopSet(points []pointJSON) domain.StopSet {
	out := make(domain.StopSet, len(points))
	for i, p := range points {
		out[i] = p.toDomain()
	}
	return out
}

func toPolicyJSON(p domain.DepotPolicy) policyJSON {
	out := policyJSON{RoundTrip: p.RoundTrip}
	if p.Start != nil {
		s := toPointJSON(*p.Start)
		out.Start = &s
	}
	if p.End != nil {
		e := toPointJSON(*p.End)
		out.End = &e
	}
	return out
}

func (p policyJSON) toDomain() domain.DepotPolicy {
	out := domain.DepotPolicy{RoundTrip: p.RoundTrip}
	if p.Start != nil {
		s := p.Start.toDomain()
		out.Start = &s
	}
	if p.End != nil {
		e := p.End.toDomain()
		out.End = &e
	}
	return out
}
