package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

type stubFeed struct {
	events     []domain.Event
	markets    []domain.Market
	err        error
	delay      time.Duration
	eventCalls atomic.Int32
}

func (f *stubFeed) Events(_ context.Context, _ int) ([]domain.Event, error) {
	f.eventCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.events, f.err
}

func (f *stubFeed) Markets(_ context.Context, _ int) ([]domain.Market, error) {
	return f.markets, f.err
}

type stubPrices struct {
	quotes map[string]domain.PriceQuote
	err    error
}

func (p *stubPrices) Price(_ context.Context, outcomeID string) (domain.PriceQuote, error) {
	if p.err != nil {
		return domain.PriceQuote{}, p.err
	}
	q, ok := p.quotes[outcomeID]
	if !ok {
		return domain.PriceQuote{}, domain.ErrNotFound
	}
	return q, nil
}

type stubLocks struct{}

func (stubLocks) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	return func() {}, nil
}

type memCache struct {
	mu      sync.Mutex
	results map[domain.ScanType]domain.ScanResult
}

func newMemCache() *memCache {
	return &memCache{results: map[domain.ScanType]domain.ScanResult{}}
}

func (c *memCache) Set(_ context.Context, result domain.ScanResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[result.Type] = result
	return nil
}

func (c *memCache) Get(_ context.Context, t domain.ScanType) (domain.ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[t]
	if !ok {
		return domain.ScanResult{}, domain.ErrNotScanned
	}
	return res, nil
}

func newTestScanner(t *testing.T, feed *stubFeed, prices *stubPrices) *Scanner {
	t.Helper()
	s := New(feed, prices, stubLocks{}, newMemCache(), slog.New(slog.DiscardHandler))
	zero := int64(0)
	_, err := s.SetConfig(domain.ScanConfigPatch{LookupDelayMs: &zero})
	require.NoError(t, err)
	return s
}

func TestMispricingScanSellAll(t *testing.T) {
	feed := &stubFeed{events: []domain.Event{{
		ID:    "ev1",
		Title: "Who will win the championship?",
		Outcomes: []domain.Outcome{
			{ID: "o1", Label: "Team A"},
			{ID: "o2", Label: "Team B"},
		},
	}}}
	prices := &stubPrices{quotes: map[string]domain.PriceQuote{
		"o1": {Price: 0.55, Liquidity: 500},
		"o2": {Price: 0.55, Liquidity: 800},
	}}

	res, err := newTestScanner(t, feed, prices).Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.InDelta(t, 0.10, ev.Mispricing, 1e-12)
	assert.Equal(t, domain.OpportunitySellAll, ev.OpportunityType)
	assert.InDelta(t, 0.08, ev.ProfitAfterFees, 1e-12)
	assert.Equal(t, 500.0, ev.MinLiquidity)
	assert.InDelta(t, 50.0, ev.MaxPositionSize, 1e-9)
	assert.True(t, ev.Qualifies)

	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, 1, res.Qualifying)
	assert.Equal(t, 1, res.WithMispricing)
	assert.Equal(t, domain.ScanMispricing, res.Opportunities[0].Type)
}

func TestMispricingScanLiquidityFloor(t *testing.T) {
	feed := &stubFeed{events: []domain.Event{{
		ID:    "ev1",
		Title: "Who will win the championship?",
		Outcomes: []domain.Outcome{
			{ID: "o1", Label: "Team A"},
			{ID: "o2", Label: "Team B"},
		},
	}}}
	prices := &stubPrices{quotes: map[string]domain.PriceQuote{
		"o1": {Price: 0.55, Liquidity: 50}, // below the $100 floor
		"o2": {Price: 0.55, Liquidity: 800},
	}}

	res, err := newTestScanner(t, feed, prices).Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.False(t, res.Events[0].Qualifies)
	assert.Empty(t, res.Opportunities)
	assert.NotEmpty(t, res.Events[0].Reasons)
}

func TestMispricingScanSubstitutesSentinel(t *testing.T) {
	feed := &stubFeed{events: []domain.Event{{
		ID:    "ev1",
		Title: "Who will win the cup?",
		Outcomes: []domain.Outcome{
			{ID: "o1", Label: "Team A"},
			{ID: "o2", Label: "Team B"},
		},
	}}}
	prices := &stubPrices{err: errors.New("upstream down")}

	res, err := newTestScanner(t, feed, prices).Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	for _, o := range ev.Outcomes {
		assert.Equal(t, 0.5, o.Price)
		assert.Equal(t, 0.0, o.Liquidity)
	}
	assert.False(t, ev.Qualifies, "sentinel liquidity can never qualify")
}

func TestMispricingScanClassifierReject(t *testing.T) {
	feed := &stubFeed{events: []domain.Event{{
		ID:    "ev1",
		Title: "What will happen before the election?",
		Outcomes: []domain.Outcome{
			{ID: "o1", Label: "New album drops"},
			{ID: "o2", Label: "President resigns"},
			{ID: "o3", Label: "War breaks out"},
		},
	}}}

	res, err := newTestScanner(t, feed, &stubPrices{}).Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.False(t, ev.Classification.Valid)
	assert.Equal(t, domain.CategoryIndependent, ev.Classification.Category)
	assert.Equal(t, domain.OpportunityNone, ev.OpportunityType)
	require.NotEmpty(t, ev.Reasons)
	assert.Contains(t, ev.Reasons[0], "classification:")
}

func TestFeedErrorIsCarriedNotFatal(t *testing.T) {
	feed := &stubFeed{err: errors.New("gateway timeout")}
	res, err := newTestScanner(t, feed, &stubPrices{}).Run(context.Background(), domain.ScanMispricing)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "gateway timeout")
}

func TestDependencyScanFindsViolation(t *testing.T) {
	feed := &stubFeed{markets: []domain.Market{
		{ID: "m-150", Question: "Will Bitcoin reach $150,000 by end of 2027?", Price: 0.40},
		{ID: "m-100", Question: "Will Bitcoin reach $100,000 by end of 2027?", Price: 0.30},
	}}

	res, err := newTestScanner(t, feed, &stubPrices{}).Run(context.Background(), domain.ScanDependency)
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	assert.True(t, res.Edges[0].Violated)

	require.Len(t, res.Opportunities, 1)
	opp := res.Opportunities[0]
	assert.Equal(t, []string{"m-150", "m-100"}, opp.MarketIDs)
	assert.InDelta(t, 0.10, opp.RawProfit, 1e-12)
	assert.InDelta(t, 0.08, opp.Fees, 1e-12)
	assert.InDelta(t, 0.02, opp.ProfitAfterFees, 1e-12)
}

func TestSettlementScanQualifies(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	feed := &stubFeed{markets: []domain.Market{{
		ID:          "m1",
		Question:    "Will the event happen?",
		Price:       0.30,
		Liquidity:   5000,
		EndDate:     now.Add(-10 * 24 * time.Hour),
		Volume24h:   3000,
		Volume7dAvg: 500,
	}}}

	s := newTestScanner(t, feed, &stubPrices{})
	s.now = func() time.Time { return now }

	res, err := s.Run(context.Background(), domain.ScanSettlement)
	require.NoError(t, err)
	require.Len(t, res.Analyses, 1)
	assert.True(t, res.Analyses[0].HasOpportunity)

	require.Len(t, res.Opportunities, 1)
	opp := res.Opportunities[0]
	assert.InDelta(t, 0.30, opp.RawProfit, 1e-12)
	assert.InDelta(t, 0.28, opp.ProfitAfterFees, 1e-12)
	assert.Equal(t, "sell", opp.Strategy)
	assert.Greater(t, opp.MaxPositionSize, 0.0)
}

func TestConcurrentTriggersRunOneScan(t *testing.T) {
	feed := &stubFeed{delay: 100 * time.Millisecond}
	s := newTestScanner(t, feed, &stubPrices{})

	var wg sync.WaitGroup
	results := make([]domain.ScanResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Run(context.Background(), domain.ScanMispricing)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), feed.eventCalls.Load(), "second trigger must not start a scan")
	assert.Equal(t, results[0].ID, results[1].ID, "waiter resolves to the in-flight scan's result")
}

func TestRunRejectsUnknownType(t *testing.T) {
	s := newTestScanner(t, &stubFeed{}, &stubPrices{})
	_, err := s.Run(context.Background(), domain.ScanType("bogus"))
	assert.Error(t, err)
}

func TestLastReturnsNotScanned(t *testing.T) {
	s := newTestScanner(t, &stubFeed{}, &stubPrices{})
	_, err := s.Last(context.Background(), domain.ScanSettlement)
	assert.ErrorIs(t, err, domain.ErrNotScanned)
}

func TestSetConfigRejectsInvalidPatch(t *testing.T) {
	s := newTestScanner(t, &stubFeed{}, &stubPrices{})
	before := s.Config()

	bad := -1.0
	_, err := s.SetConfig(domain.ScanConfigPatch{FeeRate: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, before, s.Config(), "failed update leaves config untouched")

	fee := 0.01
	updated, err := s.SetConfig(domain.ScanConfigPatch{FeeRate: &fee})
	require.NoError(t, err)
	assert.Equal(t, 0.01, updated.FeeRate)
	assert.Equal(t, before.MinLiquidity, updated.MinLiquidity)
}
