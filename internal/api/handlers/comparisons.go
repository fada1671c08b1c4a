package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"route-compare-service/internal/api/dto"
	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/services"
)

type ComparisonHandler struct {
	Service   *services.ComparisonService
	Runs      ports.RunRepository
	Instances ports.InstanceRepository
}

// Create runs every configured solver over the requested stops and returns
// the re-evaluated results together with a display polyline per solver.
func (h *ComparisonHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ComparisonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stops := toPoints(req.Stops)
	if req.InstanceID != nil {
		if len(req.Stops) > 0 {
			writeError(w, r, http.StatusBadRequest, "stops and instance_id are mutually exclusive")
			return
		}
		if h.Instances == nil {
			writeError(w, r, http.StatusBadRequest, "stored instances are not available")
			return
		}

		inst, err := h.Instances.GetInstance(r.Context(), *req.InstanceID)
		if errors.Is(err, ports.ErrInstanceNotFound) {
			writeError(w, r, http.StatusNotFound, "instance not found")
			return
		}
		if err != nil {
			log.Printf("get instance failed: req_id=%s id=%d err=%v", obs.RequestID(r.Context()), *req.InstanceID, err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		stops = inst.Stops
	}

	svcReq := services.ComparisonRequest{
		Stops: stops,
		Policy: domain.DepotPolicy{
			Start:     toPoint(req.Start),
			End:       toPoint(req.End),
			RoundTrip: req.RoundTrip,
		},
		Baseline: strings.TrimSpace(req.Baseline),
		Params:   req.Params,
	}

	run, err := h.Service.Run(r.Context(), svcReq)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("run comparison failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, toComparisonResponse(run))
}

func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "run id is required")
		return
	}
	if h.Runs == nil {
		writeError(w, r, http.StatusNotFound, "comparison run not found")
		return
	}

	run, err := h.Runs.GetRun(r.Context(), id)
	if errors.Is(err, ports.ErrRunNotFound) {
		writeError(w, r, http.StatusNotFound, "comparison run not found")
		return
	}
	if err != nil {
		log.Printf("get run failed: req_id=%s run_id=%s err=%v", obs.RequestID(r.Context()), id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toComparisonResponse(run))
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrTooFewStops) ||
		errors.Is(err, services.ErrTooManyStops) ||
		errors.Is(err, services.ErrInvalidCoordinate) ||
		errors.Is(err, services.ErrUnknownBaseline)
}

func toPoint(p *dto.PointRequest) *domain.Point {
	if p == nil {
		return nil
	}
	return &domain.Point{Lat: p.Lat, Lng: p.Lng}
}

func toPoints(in []dto.PointRequest) []domain.Point {
	out := make([]domain.Point, len(in))
	for i, p := range in {
		out[i] = domain.Point{Lat: p.Lat, Lng: p.Lng}
	}
	return out
}

func toComparisonResponse(run *domain.ComparisonRun) dto.ComparisonResponse {
	res := dto.ComparisonResponse{
		RunID:     run.RunID,
		CreatedAt: run.CreatedAt,
		Baseline:  run.Baseline,
		Stops:     make([][]float64, 0, len(run.Stops)),
		Results:   make([]dto.SolverResultResponse, 0, len(run.Results)),
		Failures:  make([]dto.SolverFailureResponse, 0, len(run.Failures)),
		Polylines: make(map[string][][]float64, len(run.Results)),
	}

	for _, p := range run.Stops {
		res.Stops = append(res.Stops, p.ToList())
	}
	for _, sr := range run.Results {
		res.Results = append(res.Results, dto.SolverResultResponse{
			Label:          sr.Label,
			Order:          sr.Order,
			DistanceKm:     sr.DistanceKm,
			Energy:         sr.Energy,
			ImprovementPct: sr.ImprovementPct,
		})
	}
	for _, f := range run.Failures {
		res.Failures = append(res.Failures, dto.SolverFailureResponse{Label: f.Label, Reason: f.Reason})
	}
	for label, line := range services.Polylines(run) {
		coords := make([][]float64, 0, len(line))
		for _, p := range line {
			coords = append(coords, p.ToList())
		}
		res.Polylines[label] = coords
	}

	return res
}
