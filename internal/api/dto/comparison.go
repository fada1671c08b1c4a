package dto

import "time"

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stops may be given inline or taken from a stored instance.
type ComparisonRequest struct {
	Stops      []PointRequest `json:"stops"`
	InstanceID *int           `json:"instance_id"`
	Start      *PointRequest  `json:"start"`
	End        *PointRequest  `json:"end"`
	RoundTrip  bool           `json:"round_trip"`
	Baseline   string         `json:"baseline"`
	Params     map[string]any `json:"params"`
}

type SolverResultResponse struct {
	Label          string   `json:"label"`
	Order          []int    `json:"order"`
	DistanceKm     float64  `json:"distance_km"`
	Energy         *float64 `json:"energy,omitempty"`
	ImprovementPct *float64 `json:"improvement_pct"`
}

type SolverFailureResponse struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

type ComparisonResponse struct {
	RunID     string                  `json:"run_id"`
	CreatedAt time.Time               `json:"created_at"`
	Baseline  string                  `json:"baseline"`
	Stops     [][]float64             `json:"stops"`
	Results   []SolverResultResponse  `json:"results"`
	Failures  []SolverFailureResponse `json:"failures"`
	Polylines map[string][][]float64  `json:"polylines"`
}
