package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// ResultCache implements domain.ResultCache using one JSON value per scan
// type. SET replaces the whole value in a single operation, which gives the
// atomic replace-on-completion semantics the scanner relies on; a partially
// written result is never observable.
type ResultCache struct {
	rdb *redis.Client
}

// NewResultCache creates a ResultCache backed by the given Client.
func NewResultCache(c *Client) *ResultCache {
	return &ResultCache{rdb: c.Underlying()}
}

func resultKey(t domain.ScanType) string {
	return "scan:last:" + string(t)
}

// Set replaces the stored result for the result's scan type.
func (rc *ResultCache) Set(ctx context.Context, result domain.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal scan result: %w", err)
	}
	if err := rc.rdb.Set(ctx, resultKey(result.Type), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis: set scan result %s: %w", result.Type, err)
	}
	return nil
}

// Get returns the last completed result for the given type, or
// domain.ErrNotScanned when no scan of that type has completed yet.
func (rc *ResultCache) Get(ctx context.Context, t domain.ScanType) (domain.ScanResult, error) {
	payload, err := rc.rdb.Get(ctx, resultKey(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScanResult{}, domain.ErrNotScanned
	}
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("redis: get scan result %s: %w", t, err)
	}

	var result domain.ScanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.ScanResult{}, fmt.Errorf("redis: unmarshal scan result %s: %w", t, err)
	}
	return result, nil
}

// Compile-time interface check.
var _ domain.ResultCache = (*ResultCache)(nil)
