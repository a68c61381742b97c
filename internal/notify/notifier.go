// Package notify delivers scan alerts to external channels. A Dispatcher
// fans out to every configured Sender (Telegram, Discord) and filters by
// event kind so operators only receive the alerts they subscribed to.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Event kinds a Dispatcher can be subscribed to.
const (
	EventScanComplete     = "scan_complete"
	EventOpportunityFound = "opportunity_found"
)

// Sender delivers one formatted alert over a single channel.
type Sender interface {
	Send(ctx context.Context, title, body string) error
	Name() string
}

// Dispatcher fans alerts out to all senders, honoring the subscribed event
// kinds. An empty subscription list means every event kind is delivered.
type Dispatcher struct {
	senders    []Sender
	subscribed map[string]bool
	logger     *slog.Logger
}

// NewDispatcher builds a Dispatcher over the given senders. The events slice
// names the event kinds to deliver; empty means all.
func NewDispatcher(senders []Sender, events []string, logger *slog.Logger) *Dispatcher {
	subscribed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			subscribed[e] = true
		}
	}
	return &Dispatcher{
		senders:    senders,
		subscribed: subscribed,
		logger:     logger.With(slog.String("component", "notify")),
	}
}

// ScanComplete announces a finished scan cycle with its headline counters.
func (d *Dispatcher) ScanComplete(ctx context.Context, result domain.ScanResult) error {
	title := fmt.Sprintf("Scan complete: %s", result.Type)
	body := fmt.Sprintf(
		"Scanned %d events (%d multi-outcome), %d with mispricing, %d qualifying. Took %dms.",
		result.TotalEvents, result.MultiOutcomeEvents,
		result.WithMispricing, result.Qualifying, result.ScanDurationMs,
	)
	if len(result.Errors) > 0 {
		body += fmt.Sprintf(" %d feed error(s).", len(result.Errors))
	}
	return d.deliver(ctx, EventScanComplete, title, body)
}

// OpportunityFound announces a single qualifying opportunity.
func (d *Dispatcher) OpportunityFound(ctx context.Context, opp domain.Opportunity) error {
	title := fmt.Sprintf("Opportunity: %s", opp.Type)
	body := fmt.Sprintf(
		"%s\nStrategy: %s\nProfit after fees: %.4f\nMax position: $%.2f\nExpected profit: $%.2f",
		opp.Description, opp.Strategy,
		opp.ProfitAfterFees, opp.MaxPositionSize, opp.ExpectedDollarProfit,
	)
	return d.deliver(ctx, EventOpportunityFound, title, body)
}

// deliver applies the subscription filter, then sends to every channel.
// Individual sender failures are joined and returned together so one broken
// webhook never blocks the others.
func (d *Dispatcher) deliver(ctx context.Context, event, title, body string) error {
	if len(d.subscribed) > 0 && !d.subscribed[event] {
		d.logger.DebugContext(ctx, "event not subscribed", slog.String("event", event))
		return nil
	}
	if len(d.senders) == 0 {
		return nil
	}

	var errs []error
	for _, s := range d.senders {
		if err := s.Send(ctx, title, body); err != nil {
			d.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		d.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: deliver %s: %w", event, errors.Join(errs...))
	}
	return nil
}
