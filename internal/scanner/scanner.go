// Package scanner orchestrates the three inefficiency detectors: it pulls a
// market snapshot, runs the requested detector, applies the shared
// qualification gate, and replaces the per-type last-result cache
// atomically. At most one scan per type is in flight at a time; concurrent
// triggers wait for the in-flight result or fall back to the cached one.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

const (
	lockTTL          = 2 * time.Minute
	waitPollInterval = 500 * time.Millisecond
)

// Scanner runs scan cycles on demand. All tunables live in a ScanConfig copy
// taken at cycle start, so SetConfig never affects an in-flight scan.
type Scanner struct {
	feed   domain.MarketFeed
	prices domain.PriceSource
	locks  domain.LockManager
	cache  domain.ResultCache
	logger *slog.Logger

	mu  sync.RWMutex
	cfg domain.ScanConfig

	// inFlight gives the per-process single-scan guarantee; locks extends it
	// across processes sharing the same cache.
	inFlight map[domain.ScanType]*sync.Mutex

	now func() time.Time
}

// New creates a Scanner with the default configuration.
func New(feed domain.MarketFeed, prices domain.PriceSource, locks domain.LockManager, cache domain.ResultCache, logger *slog.Logger) *Scanner {
	return &Scanner{
		feed:   feed,
		prices: prices,
		locks:  locks,
		cache:  cache,
		logger: logger.With(slog.String("component", "scanner")),
		cfg:    domain.DefaultScanConfig(),
		inFlight: map[domain.ScanType]*sync.Mutex{
			domain.ScanMispricing: {},
			domain.ScanDependency: {},
			domain.ScanSettlement: {},
		},
		now: time.Now,
	}
}

// Config returns a copy of the current configuration.
func (s *Scanner) Config() domain.ScanConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig overlays the patch on the current configuration after
// validation. An invalid patch is rejected whole; the previous configuration
// stays in force.
func (s *Scanner) SetConfig(patch domain.ScanConfigPatch) (domain.ScanConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := patch.Apply(s.cfg)
	if err := next.Validate(); err != nil {
		return s.cfg, fmt.Errorf("scanner: reject config update: %w", err)
	}
	s.cfg = next
	s.logger.Info("scan config updated",
		slog.Float64("fee_rate", next.FeeRate),
		slog.Float64("min_liquidity", next.MinLiquidity),
		slog.Int("max_events", next.MaxEvents),
	)
	return next, nil
}

// Run triggers one scan cycle of the given type. If a same-type scan is
// already in flight, Run does not start a second one: it waits up to the
// configured wait timeout for that scan's result, then falls back to the
// prior cached result, and only errors with ErrScanInProgress when there is
// nothing to serve. A completed cycle never returns an error; failures are
// carried in the result's Errors field.
func (s *Scanner) Run(ctx context.Context, t domain.ScanType) (domain.ScanResult, error) {
	if !t.Valid() {
		return domain.ScanResult{}, fmt.Errorf("scanner: unknown scan type %q", t)
	}
	cfg := s.Config()

	gate := s.inFlight[t]
	if !gate.TryLock() {
		return s.awaitResult(ctx, t, cfg)
	}
	defer gate.Unlock()

	unlock, err := s.locks.Acquire(ctx, lockKey(t), lockTTL)
	switch {
	case errors.Is(err, domain.ErrLockHeld):
		return s.awaitResult(ctx, t, cfg)
	case err != nil:
		// A broken lock backend degrades to process-local serialization
		// rather than blocking scans.
		s.logger.Warn("scan lock unavailable, proceeding locally",
			slog.String("type", string(t)), slog.String("error", err.Error()))
	default:
		defer unlock()
	}

	started := s.now()
	var result domain.ScanResult
	switch t {
	case domain.ScanMispricing:
		result = s.scanMispricing(ctx, cfg)
	case domain.ScanDependency:
		result = s.scanDependency(ctx, cfg)
	case domain.ScanSettlement:
		result = s.scanSettlement(ctx, cfg)
	}
	result.Timestamp = s.now()
	result.ScanDurationMs = result.Timestamp.Sub(started).Milliseconds()

	if err := s.cache.Set(ctx, result); err != nil {
		s.logger.Warn("cache last result failed",
			slog.String("type", string(t)), slog.String("error", err.Error()))
		result.Errors = append(result.Errors, fmt.Sprintf("cache result: %v", err))
	}

	s.logger.Info("scan cycle complete",
		slog.String("type", string(t)),
		slog.Int("total", result.TotalEvents),
		slog.Int("qualifying", result.Qualifying),
		slog.Int64("duration_ms", result.ScanDurationMs),
	)
	return result, nil
}

// Last returns the most recent completed result for the given type, or
// ErrNotScanned.
func (s *Scanner) Last(ctx context.Context, t domain.ScanType) (domain.ScanResult, error) {
	if !t.Valid() {
		return domain.ScanResult{}, fmt.Errorf("scanner: unknown scan type %q", t)
	}
	return s.cache.Get(ctx, t)
}

// awaitResult polls the result cache for the in-flight scan's output. On
// timeout it serves the result that was cached before the wait began, if any.
func (s *Scanner) awaitResult(ctx context.Context, t domain.ScanType, cfg domain.ScanConfig) (domain.ScanResult, error) {
	prior, priorErr := s.cache.Get(ctx, t)

	deadline := time.NewTimer(cfg.WaitTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(waitPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			if priorErr == nil {
				return prior, nil
			}
			return domain.ScanResult{}, ctx.Err()
		case <-deadline.C:
			if priorErr == nil {
				return prior, nil
			}
			return domain.ScanResult{}, domain.ErrScanInProgress
		case <-tick.C:
			res, err := s.cache.Get(ctx, t)
			if err != nil {
				continue
			}
			if priorErr != nil || res.Timestamp.After(prior.Timestamp) {
				return res, nil
			}
		}
	}
}

// lookupQuote fetches one outcome price under the configured timeout. A
// failed or late lookup substitutes the sentinel quote so the cycle
// continues; the zero sentinel liquidity guarantees the event cannot
// qualify.
func (s *Scanner) lookupQuote(ctx context.Context, outcomeID string, cfg domain.ScanConfig) (domain.PriceQuote, bool) {
	lctx, cancel := context.WithTimeout(ctx, cfg.LookupTimeout)
	defer cancel()
	quote, err := s.prices.Price(lctx, outcomeID)
	if err != nil {
		s.logger.Warn("price lookup failed, substituting sentinel",
			slog.String("outcome_id", outcomeID), slog.String("error", err.Error()))
		return domain.SentinelQuote(), false
	}
	return quote, true
}

// pause sleeps for the inter-lookup pacing delay unless the context ends
// first. The delay keeps batched lookups under the exchange's rate limits.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func lockKey(t domain.ScanType) string {
	return "polyscan:scan:" + string(t)
}
