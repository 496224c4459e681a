// Package cache memoizes ranked responses keyed by request fingerprint and
// index generation, so repeated identical requests skip retrieval and scoring
// and a reindex naturally invalidates stale entries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arbelos/pulse/internal/models"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is an opaque key to serialized response mapping with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for a request fingerprint at an index generation.
func Key(fingerprint string, generation uint64) string {
	return fmt.Sprintf("%s@%d", fingerprint, generation)
}

// ResultCache wraps a Store with request coalescing: equivalent requests
// arriving concurrently share one computation instead of each hitting the
// index store.
type ResultCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a ResultCache over the given backend.
func New(store Store, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{store: store, ttl: ttl, logger: logger}
}

// GetOrCompute returns the cached response for key, or runs compute exactly
// once per key across concurrent callers and caches its result. The second
// return value reports whether the response came from cache.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (*models.RankedResponse, error)) (*models.RankedResponse, bool, error) {
	if resp, ok := c.lookup(ctx, key); ok {
		return resp, true, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A waiter may arrive after the winner already populated the store.
		if resp, ok := c.lookup(ctx, key); ok {
			return resp, nil
		}
		resp, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if data, merr := json.Marshal(resp); merr == nil {
			if serr := c.store.Set(ctx, key, data, c.ttl); serr != nil {
				c.logger.Warn("failed to write result cache", zap.String("key", key), zap.Error(serr))
			}
		}
		return resp, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*models.RankedResponse), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *ResultCache) lookup(ctx context.Context, key string) (*models.RankedResponse, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("result cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var resp models.RankedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// Close releases the underlying store.
func (c *ResultCache) Close() error {
	return c.store.Close()
}
