package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (f *fakeSender) Send(_ context.Context, title, body string) error {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestDispatcherFiltersUnsubscribedEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	d := NewDispatcher([]Sender{s}, []string{EventOpportunityFound}, testLogger())

	err := d.ScanComplete(context.Background(), domain.ScanResult{Type: domain.ScanMispricing})
	require.NoError(t, err)
	assert.Empty(t, s.titles, "unsubscribed event must not be delivered")

	err = d.OpportunityFound(context.Background(), domain.Opportunity{Type: domain.ScanMispricing})
	require.NoError(t, err)
	assert.Len(t, s.titles, 1)
}

func TestDispatcherEmptySubscriptionDeliversEverything(t *testing.T) {
	s := &fakeSender{name: "fake"}
	d := NewDispatcher([]Sender{s}, nil, testLogger())

	require.NoError(t, d.ScanComplete(context.Background(), domain.ScanResult{
		Type:               domain.ScanMispricing,
		TotalEvents:        12,
		MultiOutcomeEvents: 4,
		WithMispricing:     2,
		Qualifying:         1,
		ScanDurationMs:     340,
		Errors:             []string{"feed: timeout"},
	}))
	require.Len(t, s.bodies, 1)
	assert.Contains(t, s.bodies[0], "12 events")
	assert.Contains(t, s.bodies[0], "1 feed error")
}

func TestDispatcherContinuesPastFailedSender(t *testing.T) {
	broken := &fakeSender{name: "broken", err: errors.New("webhook gone")}
	healthy := &fakeSender{name: "healthy"}
	d := NewDispatcher([]Sender{broken, healthy}, nil, testLogger())

	err := d.OpportunityFound(context.Background(), domain.Opportunity{
		Type:            domain.ScanDependency,
		Description:     "A implies B is violated",
		Strategy:        "sell A, buy B",
		ProfitAfterFees: 0.02,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Len(t, healthy.titles, 1, "remaining senders still receive the alert")
	assert.Contains(t, healthy.bodies[0], "sell A, buy B")
}

func TestDispatcherNoSendersIsNoop(t *testing.T) {
	d := NewDispatcher(nil, nil, testLogger())
	assert.NoError(t, d.OpportunityFound(context.Background(), domain.Opportunity{}))
}
