package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

var scorerNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func signalByType(t *testing.T, a domain.SettlementAnalysis, typ domain.SettlementSignalType) domain.SettlementSignal {
	t.Helper()
	for _, s := range a.Signals {
		if s.Type == typ {
			return s
		}
	}
	t.Fatalf("signal %s missing from analysis", typ)
	return domain.SettlementSignal{}
}

func TestPastResolutionUnsettledMarket(t *testing.T) {
	m := domain.Market{
		ID:          "m1",
		Question:    "Will the event happen?",
		Price:       0.30,
		Liquidity:   5000,
		EndDate:     scorerNow.Add(-10 * 24 * time.Hour),
		Settled:     false,
		Volume24h:   3000,
		Volume7dAvg: 500, // volume spike fires alongside, 25 + 35 = 60
	}

	a := Analyze(m, scorerNow)

	assert.True(t, signalByType(t, a, domain.SignalPastResolution).Detected)
	assert.True(t, signalByType(t, a, domain.SignalPriceVolumeDivergence).Detected)
	assert.True(t, a.HasOpportunity)
	assert.Equal(t, 60, a.Confidence)
	assert.Equal(t, 0.0, a.ExpectedPrice)
	assert.InDelta(t, 0.30, a.PotentialProfit, 1e-12)
	assert.Equal(t, "sell", a.Strategy)
}

func TestPastResolutionAloneDoesNotQualify(t *testing.T) {
	m := domain.Market{
		ID:      "m1",
		Price:   0.30,
		EndDate: scorerNow.Add(-48 * time.Hour),
	}
	a := Analyze(m, scorerNow)
	assert.True(t, signalByType(t, a, domain.SignalPastResolution).Detected)
	assert.False(t, a.HasOpportunity, "one signal is never enough")
	assert.Equal(t, "wait", a.Strategy)
}

func TestPastResolutionIgnoresSettledMarkets(t *testing.T) {
	m := domain.Market{
		Price:   0.30,
		EndDate: scorerNow.Add(-48 * time.Hour),
		Settled: true,
	}
	a := Analyze(m, scorerNow)
	assert.False(t, signalByType(t, a, domain.SignalPastResolution).Detected)
}

func TestBoundaryRushDirections(t *testing.T) {
	up := Analyze(domain.Market{Price: 0.90, Velocity1h: 0.08}, scorerNow)
	assert.True(t, signalByType(t, up, domain.SignalBoundaryRush).Detected)
	assert.Equal(t, 1.0, up.ExpectedPrice)

	down := Analyze(domain.Market{Price: 0.10, Velocity1h: -0.08}, scorerNow)
	assert.True(t, signalByType(t, down, domain.SignalBoundaryRush).Detected)
	assert.Equal(t, 0.0, down.ExpectedPrice)

	// Velocity away from the boundary is not a rush.
	away := Analyze(domain.Market{Price: 0.90, Velocity1h: -0.08}, scorerNow)
	assert.False(t, signalByType(t, away, domain.SignalBoundaryRush).Detected)
}

func TestStalePriceNearBoundary(t *testing.T) {
	m := domain.Market{
		Price:       0.95,
		LastTradeAt: scorerNow.Add(-8 * time.Hour),
	}
	a := Analyze(m, scorerNow)
	assert.True(t, signalByType(t, a, domain.SignalStalePrice).Detected)

	// Same age, mid-range price: not stale in the tradeable sense.
	mid := Analyze(domain.Market{Price: 0.50, LastTradeAt: scorerNow.Add(-8 * time.Hour)}, scorerNow)
	assert.False(t, signalByType(t, mid, domain.SignalStalePrice).Detected)
}

func TestExtremeSpread(t *testing.T) {
	m := domain.Market{Price: 0.90, BestBid: 0.82, BestAsk: 0.98}
	a := Analyze(m, scorerNow)
	assert.True(t, signalByType(t, a, domain.SignalExtremeSpread).Detected)

	tight := Analyze(domain.Market{Price: 0.90, BestBid: 0.89, BestAsk: 0.91}, scorerNow)
	assert.False(t, signalByType(t, tight, domain.SignalExtremeSpread).Detected)
}

func TestExpectedPriceFollowsVelocityWithoutBoundaryEvidence(t *testing.T) {
	// Rising below the rush threshold: velocity sign decides the snap.
	a := Analyze(domain.Market{Price: 0.40, Velocity1h: 0.02}, scorerNow)
	assert.Equal(t, 1.0, a.ExpectedPrice)

	b := Analyze(domain.Market{Price: 0.60, Velocity1h: -0.02}, scorerNow)
	assert.Equal(t, 0.0, b.ExpectedPrice)

	// Flat velocity falls back to the nearer boundary.
	c := Analyze(domain.Market{Price: 0.60}, scorerNow)
	assert.Equal(t, 1.0, c.ExpectedPrice)
	d := Analyze(domain.Market{Price: 0.40}, scorerNow)
	assert.Equal(t, 0.0, d.ExpectedPrice)
}

func TestQuietMarketHasNoSignals(t *testing.T) {
	m := domain.Market{
		Price:       0.50,
		BestBid:     0.49,
		BestAsk:     0.51,
		Volume24h:   100,
		Volume7dAvg: 120,
		LastTradeAt: scorerNow.Add(-10 * time.Minute),
		EndDate:     scorerNow.Add(30 * 24 * time.Hour),
	}
	a := Analyze(m, scorerNow)
	require.Len(t, a.Signals, 5)
	for _, s := range a.Signals {
		assert.False(t, s.Detected, string(s.Type))
	}
	assert.False(t, a.HasOpportunity)
	assert.Equal(t, 0, a.Confidence)
	assert.Equal(t, "wait", a.Strategy)
}

func TestPositionSize(t *testing.T) {
	// Full profit scale, capped by liquidity.
	assert.InDelta(t, 200.0, PositionSize(1000, 60, 0.30, 2000), 1e-9)
	// Uncapped: 1000 * 0.60 * 0.5 * 0.5 = 150.
	assert.InDelta(t, 150.0, PositionSize(1000, 60, 0.10, 1e9), 1e-9)
	// Non-positive profit sizes to zero.
	assert.Equal(t, 0.0, PositionSize(1000, 60, -0.10, 1e9))
}
