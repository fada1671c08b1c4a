package dto

import "encoding/json"

// Exactly one of Matrix (nested JSON array) and MatrixText must be set.
// Zero Steps, BatchSize and nil temperatures fall back to server defaults.
type AnnealRequest struct {
	Matrix     json.RawMessage `json:"matrix"`
	MatrixText string          `json:"matrix_text"`
	Steps      int             `json:"steps"`
	BatchSize  int             `json:"batch_size"`
	T0         *float64        `json:"t0"`
	T1         *float64        `json:"t1"`
	Seed       uint64          `json:"seed"`
	Stream     bool            `json:"stream"`
}

type SnapshotResponse struct {
	State          string  `json:"state"`
	Iteration      int     `json:"iteration"`
	Energy         float64 `json:"energy"`
	BestEnergy     float64 `json:"best_energy"`
	Assignment     []int   `json:"assignment"`
	BestAssignment []int   `json:"best_assignment"`
}
