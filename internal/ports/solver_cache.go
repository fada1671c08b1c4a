package ports

import "context"

// Cache of raw remote solver responses keyed by request digest.
type SolverCache interface {
	// Return the cached payload and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}
