package ports

import (
	"context"
	"errors"

	"route-compare-service/internal/domain"
)

var ErrInstanceNotFound = errors.New("instance not found")

// Port: a boundary for retrieving stored stop-set instances.
type InstanceRepository interface {
	ListInstances(ctx context.Context) ([]*domain.Instance, error)
	// Return ErrInstanceNotFound when no instance has the given id.
	GetInstance(ctx context.Context, instanceID int) (*domain.Instance, error)
}
