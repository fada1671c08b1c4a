package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"route-compare-service/internal/api/dto"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/qubo"
)

const defaultMaxVariables = 1024

// AnnealHandler runs the annealing engine over a caller-supplied QUBO matrix.
type AnnealHandler struct {
	Defaults qubo.Params
	// Largest accepted matrix dimension; zero selects 1024.
	MaxVariables int
}

// Anneal parses the matrix and parameters and rejects anything malformed with
// 400 before an engine is created. With stream=true the response is NDJSON:
// one snapshot per batch followed by the final snapshot.
func (h *AnnealHandler) Anneal(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AnnealRequest
	if !decodeBody(w, r, &req) {
		return
	}

	model, err := h.parseModel(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p := h.params(req)
	if err := p.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	engine := qubo.NewEngine(req.Seed)
	if err := engine.SetModel(model); err != nil {
		log.Printf("load model failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if !req.Stream {
		snap, err := engine.Run(r.Context(), p)
		if err != nil {
			log.Printf("anneal failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, r, http.StatusOK, toSnapshotResponse(snap))
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	var writeErr error
	emit := func(s qubo.Snapshot) {
		if writeErr != nil {
			return
		}
		if writeErr = enc.Encode(toSnapshotResponse(s)); writeErr != nil {
			// The client is gone; stop at the next batch.
			engine.Stop()
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	engine.Subscribe(emit)

	snap, err := engine.Run(r.Context(), p)
	if err != nil {
		log.Printf("anneal failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		return
	}
	// A stopped run has already published its final snapshot.
	if snap.State != qubo.Stopped {
		emit(snap)
	}
}

func (h *AnnealHandler) parseModel(req dto.AnnealRequest) (*qubo.Model, error) {
	hasJSON := len(req.Matrix) > 0 && string(req.Matrix) != "null"
	hasText := strings.TrimSpace(req.MatrixText) != ""

	var (
		model *qubo.Model
		err   error
	)
	switch {
	case hasJSON && hasText:
		return nil, errors.New("matrix and matrix_text are mutually exclusive")
	case hasJSON:
		model, err = qubo.ParseJSON(req.Matrix)
	case hasText:
		model, err = qubo.ParseText(req.MatrixText)
	default:
		return nil, errors.New("matrix or matrix_text is required")
	}
	if err != nil {
		return nil, err
	}

	limit := h.MaxVariables
	if limit <= 0 {
		limit = defaultMaxVariables
	}
	if model.Size() > limit {
		return nil, fmt.Errorf("matrix has %d variables, at most %d allowed", model.Size(), limit)
	}
	return model, nil
}

func (h *AnnealHandler) params(req dto.AnnealRequest) qubo.Params {
	p := h.Defaults
	if req.Steps != 0 {
		p.Steps = req.Steps
	}
	if req.BatchSize != 0 {
		p.BatchSize = req.BatchSize
	}
	if req.T0 != nil {
		p.T0 = *req.T0
	}
	if req.T1 != nil {
		p.T1 = *req.T1
	}
	return p
}

func toSnapshotResponse(s qubo.Snapshot) dto.SnapshotResponse {
	return dto.SnapshotResponse{
		State:          s.State.String(),
		Iteration:      s.Iteration,
		Energy:         s.Energy,
		BestEnergy:     s.BestEnergy,
		Assignment:     bits(s.Assignment),
		BestAssignment: bits(s.BestAssignment),
	}
}

func bits(x []bool) []int {
	out := make([]int, len(x))
	for i, b := range x {
		if b {
			out[i] = 1
		}
	}
	return out
}
