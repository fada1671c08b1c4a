package ports

import (
	"context"
	"errors"

	"route-compare-service/internal/domain"
)

var ErrRunNotFound = errors.New("comparison run not found")

// Port: persistence for completed comparison runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *domain.ComparisonRun) error
	// Return ErrRunNotFound when no run has the given id.
	GetRun(ctx context.Context, runID string) (*domain.ComparisonRun, error)
}
