package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrNotScanned     = errors.New("scan has not run yet")
	ErrScanInProgress = errors.New("scan already in progress")
	ErrLockHeld       = errors.New("lock already held")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUpstream       = errors.New("upstream unavailable")
)
