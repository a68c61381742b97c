package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/notify"
	"github.com/alanyoungcy/polyscan/internal/scanner"
)

type stubFeed struct {
	events []domain.Event
}

func (f *stubFeed) Events(context.Context, int) ([]domain.Event, error) { return f.events, nil }
func (f *stubFeed) Markets(context.Context, int) ([]domain.Market, error) {
	return nil, nil
}

type stubPrices struct{ quotes map[string]domain.PriceQuote }

func (p *stubPrices) Price(_ context.Context, id string) (domain.PriceQuote, error) {
	q, ok := p.quotes[id]
	if !ok {
		return domain.PriceQuote{}, errors.New("unknown outcome")
	}
	return q, nil
}

type stubLocks struct{}

func (stubLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

type memCache struct {
	mu      sync.Mutex
	results map[domain.ScanType]domain.ScanResult
}

func (c *memCache) Set(_ context.Context, r domain.ScanResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[domain.ScanType]domain.ScanResult{}
	}
	c.results[r.Type] = r
	return nil
}

func (c *memCache) Get(_ context.Context, t domain.ScanType) (domain.ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[t]
	if !ok {
		return domain.ScanResult{}, domain.ErrNotScanned
	}
	return r, nil
}

type recordingStore struct {
	mu    sync.Mutex
	scans []domain.ScanResult
	opps  []domain.Opportunity
	fail  bool
}

func (s *recordingStore) Insert(_ context.Context, r domain.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("db down")
	}
	s.scans = append(s.scans, r)
	return nil
}

func (s *recordingStore) ListRecent(context.Context, domain.ScanType, int) ([]domain.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans, nil
}

func (s *recordingStore) InsertOpp(_ context.Context, o domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opps = append(s.opps, o)
	return nil
}

type oppStore struct{ parent *recordingStore }

func (o oppStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	return o.parent.InsertOpp(ctx, opp)
}

func (o oppStore) ListRecent(context.Context, int) ([]domain.Opportunity, error) {
	o.parent.mu.Lock()
	defer o.parent.mu.Unlock()
	return o.parent.opps, nil
}

type memBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.messages == nil {
		b.messages = map[string][][]byte{}
	}
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// qualifyingEvent builds a three-outcome event whose prices sum to 1.10, which
// qualifies under the default configuration.
func qualifyingEvent() (domain.Event, map[string]domain.PriceQuote) {
	ev := domain.Event{
		ID:    "ev-1",
		Title: "Which party wins the election?",
		Outcomes: []domain.Outcome{
			{ID: "o-1", Label: "Party A", Price: 0.55, Liquidity: 500},
			{ID: "o-2", Label: "Party B", Price: 0.55, Liquidity: 800},
		},
	}
	quotes := map[string]domain.PriceQuote{
		"o-1": {Price: 0.55, Liquidity: 500},
		"o-2": {Price: 0.55, Liquidity: 800},
	}
	return ev, quotes
}

func newTestService(t *testing.T, deps Deps) *ScanService {
	t.Helper()
	ev, quotes := qualifyingEvent()
	sc := scanner.New(
		&stubFeed{events: []domain.Event{ev}},
		&stubPrices{quotes: quotes},
		stubLocks{},
		&memCache{},
		testLogger(),
	)
	zero := int64(0)
	_, err := sc.SetConfig(domain.ScanConfigPatch{LookupDelayMs: &zero})
	require.NoError(t, err)
	return New(sc, deps, testLogger())
}

func TestRunPersistsScanAndOpportunities(t *testing.T) {
	store := &recordingStore{}
	bus := &memBus{}
	svc := newTestService(t, Deps{
		Scans: store,
		Opps:  oppStore{parent: store},
		Bus:   bus,
	})

	result, err := svc.Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, result.Opportunities, 1)

	require.Len(t, store.scans, 1)
	assert.Equal(t, result.ID, store.scans[0].ID)
	require.Len(t, store.opps, 1)
	assert.True(t, store.opps[0].Qualifies)

	msgs := bus.messages[EventsChannel]
	require.Len(t, msgs, 2, "one scan_complete plus one opportunity_found")

	var first BusEvent
	require.NoError(t, json.Unmarshal(msgs[0], &first))
	assert.Equal(t, notify.EventScanComplete, first.Kind)
	assert.Equal(t, result.ID, first.ResultID)
	assert.Equal(t, 1, first.Qualifying)

	var second BusEvent
	require.NoError(t, json.Unmarshal(msgs[1], &second))
	assert.Equal(t, notify.EventOpportunityFound, second.Kind)
	require.NotNil(t, second.Opportunity)
	assert.Equal(t, store.opps[0].ID, second.Opportunity.ID)
}

func TestRunSurvivesStoreFailure(t *testing.T) {
	store := &recordingStore{fail: true}
	svc := newTestService(t, Deps{Scans: store})

	result, err := svc.Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err, "a broken store must not fail the scan")
	assert.NotEmpty(t, result.ID)
}

func TestRunWithoutDepsIsPureScan(t *testing.T) {
	svc := newTestService(t, Deps{})
	result, err := svc.Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanMispricing, result.Type)

	history, err := svc.History(context.Background(), domain.ScanMispricing, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSetConfigRoundTrip(t *testing.T) {
	svc := newTestService(t, Deps{})
	fee := 0.05
	cfg, err := svc.SetConfig(domain.ScanConfigPatch{FeeRate: &fee})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, cfg.FeeRate, 1e-9)
	assert.InDelta(t, 0.05, svc.Config().FeeRate, 1e-9)
}
