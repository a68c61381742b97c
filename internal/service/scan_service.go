// Package service coordinates scans with their side effects: persistence,
// pub/sub fan-out, notifications, and cold-storage archival. Handlers and
// background modes talk to this layer, never to the scanner directly.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/notify"
	"github.com/alanyoungcy/polyscan/internal/scanner"
)

// EventsChannel is the pub/sub channel scan lifecycle events are published
// on. WebSocket clients and the watch mode subscribe here.
const EventsChannel = "polyscan:events"

// BusEvent is the envelope published on EventsChannel after every completed
// scan: one scan_complete event, then one opportunity_found event per
// qualifying opportunity.
type BusEvent struct {
	Kind        string              `json:"kind"`
	ScanType    domain.ScanType     `json:"scan_type"`
	ResultID    string              `json:"result_id"`
	Qualifying  int                 `json:"qualifying"`
	Timestamp   time.Time           `json:"timestamp"`
	Opportunity *domain.Opportunity `json:"opportunity,omitempty"`
}

// ScanService runs scans and applies their side effects. Every side effect is
// best-effort: a failed insert, publish, notification, or archive upload is
// logged and skipped, never surfaced to the caller, because the scan result
// itself is already complete and cached.
type ScanService struct {
	scanner  *scanner.Scanner
	scans    domain.ScanStore
	opps     domain.OpportunityStore
	bus      domain.SignalBus
	alerts   *notify.Dispatcher
	archiver domain.ResultArchiver
	logger   *slog.Logger
}

// Deps carries the optional collaborators of a ScanService. Any nil field
// disables that side effect.
type Deps struct {
	Scans    domain.ScanStore
	Opps     domain.OpportunityStore
	Bus      domain.SignalBus
	Alerts   *notify.Dispatcher
	Archiver domain.ResultArchiver
}

// New creates a ScanService around the given scanner.
func New(sc *scanner.Scanner, deps Deps, logger *slog.Logger) *ScanService {
	return &ScanService{
		scanner:  sc,
		scans:    deps.Scans,
		opps:     deps.Opps,
		bus:      deps.Bus,
		alerts:   deps.Alerts,
		archiver: deps.Archiver,
		logger:   logger.With(slog.String("component", "scan_service")),
	}
}

// Run executes one scan cycle and, on success, records it everywhere
// configured. The scan result is returned even when recording partially
// fails.
func (s *ScanService) Run(ctx context.Context, t domain.ScanType) (domain.ScanResult, error) {
	result, err := s.scanner.Run(ctx, t)
	if err != nil {
		return domain.ScanResult{}, err
	}
	s.record(ctx, result)
	return result, nil
}

// Last returns the most recent cached result for the given scan type.
func (s *ScanService) Last(ctx context.Context, t domain.ScanType) (domain.ScanResult, error) {
	return s.scanner.Last(ctx, t)
}

// History returns persisted scan summaries, newest first. Without a store it
// returns an empty slice.
func (s *ScanService) History(ctx context.Context, t domain.ScanType, limit int) ([]domain.ScanResult, error) {
	if s.scans == nil {
		return nil, nil
	}
	return s.scans.ListRecent(ctx, t, limit)
}

// Opportunities returns persisted opportunities, newest first. Without a
// store it returns an empty slice.
func (s *ScanService) Opportunities(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	if s.opps == nil {
		return nil, nil
	}
	return s.opps.ListRecent(ctx, limit)
}

// Config returns the scanner's current configuration.
func (s *ScanService) Config() domain.ScanConfig {
	return s.scanner.Config()
}

// SetConfig applies a configuration patch to the scanner.
func (s *ScanService) SetConfig(patch domain.ScanConfigPatch) (domain.ScanConfig, error) {
	return s.scanner.SetConfig(patch)
}

// record applies all configured side effects for a completed scan.
func (s *ScanService) record(ctx context.Context, result domain.ScanResult) {
	if s.scans != nil {
		if err := s.scans.Insert(ctx, result); err != nil {
			s.logger.Warn("persist scan failed",
				slog.String("scan_id", result.ID), slog.String("error", err.Error()))
		}
	}
	if s.opps != nil {
		for _, opp := range result.Opportunities {
			if err := s.opps.Insert(ctx, opp); err != nil {
				s.logger.Warn("persist opportunity failed",
					slog.String("opportunity_id", opp.ID), slog.String("error", err.Error()))
			}
		}
	}

	s.publish(ctx, BusEvent{
		Kind:       notify.EventScanComplete,
		ScanType:   result.Type,
		ResultID:   result.ID,
		Qualifying: result.Qualifying,
		Timestamp:  result.Timestamp,
	})
	for i := range result.Opportunities {
		opp := result.Opportunities[i]
		s.publish(ctx, BusEvent{
			Kind:        notify.EventOpportunityFound,
			ScanType:    result.Type,
			ResultID:    result.ID,
			Timestamp:   result.Timestamp,
			Opportunity: &opp,
		})
	}

	if s.alerts != nil {
		if err := s.alerts.ScanComplete(ctx, result); err != nil {
			s.logger.Warn("scan notification failed", slog.String("error", err.Error()))
		}
		for _, opp := range result.Opportunities {
			if err := s.alerts.OpportunityFound(ctx, opp); err != nil {
				s.logger.Warn("opportunity notification failed", slog.String("error", err.Error()))
			}
		}
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, result)
		if err != nil {
			s.logger.Warn("archive failed",
				slog.String("scan_id", result.ID), slog.String("error", err.Error()))
		} else {
			s.logger.Debug("scan archived", slog.String("key", key))
		}
	}
}

func (s *ScanService) publish(ctx context.Context, event BusEvent) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("marshal bus event failed", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Publish(ctx, EventsChannel, payload); err != nil {
		s.logger.Warn("publish bus event failed", slog.String("error", err.Error()))
	}
}
