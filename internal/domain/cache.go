package domain

import (
	"context"
	"time"
)

// ResultCache holds the last completed ScanResult per scan type. Set replaces
// the stored result in a single operation; partial updates are not possible.
type ResultCache interface {
	Set(ctx context.Context, result ScanResult) error
	// Get returns ErrNotScanned when no scan of the given type has completed.
	Get(ctx context.Context, t ScanType) (ScanResult, error)
}

// LockManager provides distributed locking. Acquire returns ErrLockHeld when
// the lock is already taken.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out for scan lifecycle events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
