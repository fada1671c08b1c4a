package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"route-compare-service/internal/api/dto"
	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
)

// InstanceHandler exposes read-only access to stored stop sets.
type InstanceHandler struct {
	Repo ports.InstanceRepository
}

func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	insts, err := h.Repo.ListInstances(r.Context())
	if err != nil {
		log.Printf("list instances failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListInstancesResponse{
		Instances: make([]dto.InstanceResponse, 0, len(insts)),
	}
	for _, inst := range insts {
		res.Instances = append(res.Instances, toInstanceResponse(inst))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *InstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "instance id must be an integer")
		return
	}

	inst, err := h.Repo.GetInstance(r.Context(), id)
	if errors.Is(err, ports.ErrInstanceNotFound) {
		writeError(w, r, http.StatusNotFound, "instance not found")
		return
	}
	if err != nil {
		log.Printf("get instance failed: req_id=%s id=%d err=%v", obs.RequestID(r.Context()), id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toInstanceResponse(inst))
}

func toInstanceResponse(inst *domain.Instance) dto.InstanceResponse {
	stops := make([]dto.PointRequest, 0, len(inst.Stops))
	for _, p := range inst.Stops {
		stops = append(stops, dto.PointRequest{Lat: p.Lat, Lng: p.Lng})
	}
	return dto.InstanceResponse{
		InstanceID: inst.InstanceID,
		Name:       inst.Name,
		Stops:      stops,
	}
}
