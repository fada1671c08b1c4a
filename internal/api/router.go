package api

import (
	"net/http"

	"route-compare-service/internal/api/handlers"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/qubo"
	"route-compare-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// instances may be nil, in which case the instance endpoints are not mounted.
func NewRouter(
	svc *services.ComparisonService,
	runs ports.RunRepository,
	instances ports.InstanceRepository,
	annealDefaults qubo.Params,
) http.Handler {
	mux := http.NewServeMux()

	cmpHandler := &handlers.ComparisonHandler{
		Service:   svc,
		Runs:      runs,
		Instances: instances,
	}
	annealHandler := &handlers.AnnealHandler{Defaults: annealDefaults}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/comparisons", cmpHandler.Create)
	mux.HandleFunc("/comparisons/{id}", cmpHandler.Get)
	mux.HandleFunc("/qubo/anneal", annealHandler.Anneal)

	if instances != nil {
		instHandler := &handlers.InstanceHandler{Repo: instances}
		mux.HandleFunc("/instances", instHandler.List)
		mux.HandleFunc("/instances/{id}", instHandler.Get)
	}

	return loggingMiddleware(mux)
}
