package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"route-compare-service/internal/platform/obs"
)

const keyPrefix = "solver:"

// RedisSolverCache stores raw remote solver responses with a fixed TTL.
// It is safe for concurrent use.
type RedisSolverCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSolverCache(client *redis.Client, ttl time.Duration) *RedisSolverCache {
	return &RedisSolverCache{Client: client, TTL: ttl}
}

// Key derives a cache key from a solver label and its canonical request payload.
func Key(label string, payload []byte) string {
	d := xxhash.New()
	_, _ = d.WriteString(label)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(payload)

	var sum [8]byte
	return keyPrefix + label + ":" + hex.EncodeToString(d.Sum(sum[:0]))
}

// Fetch a cached payload. A miss is not an error.
func (c *RedisSolverCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "solver.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("solver cache: client is nil")
	}

	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get solver cache %q: %w", key, err)
	}
	return b, true, nil
}

func (c *RedisSolverCache) Set(ctx context.Context, key string, payload []byte) error {
	if c.Client == nil {
		return errors.New("solver cache: client is nil")
	}
	if key == "" {
		return errors.New("set solver cache: key must not be empty")
	}

	if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("set solver cache %q: %w", key, err)
	}
	return nil
}
