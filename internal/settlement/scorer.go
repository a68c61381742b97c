// Package settlement scores markets whose true outcome is effectively
// determined but whose price has not yet converged to 0 or 1. Five
// independent signals are evaluated against one market snapshot; their
// combined weight decides whether the lag is tradeable.
package settlement

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Fixed confidence weight per signal.
const (
	weightPriceVolumeDivergence = 25
	weightBoundaryRush          = 30
	weightStalePrice            = 20
	weightPastResolution        = 35
	weightExtremeSpread         = 15
)

const (
	volumeSpikeRatio    = 3.0            // 24h volume vs 7-day average
	quietPriceChange    = 0.10           // "price barely moved" ceiling
	boundaryZone        = 0.15           // distance to 0/1 for boundary rush
	rushVelocity        = 0.05           // per-hour move toward the boundary
	staleZoneLow        = 0.10           // stale-price boundary bands
	staleZoneHigh       = 0.90           // upper band for stale prices
	staleAge            = 6 * time.Hour  // no trade for this long
	resolutionGrace     = 24 * time.Hour // slack past endDate before flagging
	unresolvedBandLow   = 0.01           // prices strictly inside this band
	unresolvedBandHigh  = 0.99           // have clearly not converged
	extremeMidpointLow  = 0.20           // extreme-spread midpoint bands
	extremeMidpointHigh = 0.80           // upper midpoint band
	wideSpread          = 0.10           // bid-ask spread considered wide
	velocityBias        = 0.01           // minimum velocity to trust its sign

	minSignals      = 2
	minTotalWeight  = 40
	minPriceGap     = 0.05
	profitReference = 0.20 // profit at which sizing reaches full scale
)

// Analyze evaluates all five settlement-lag signals against one market
// snapshot. now is injected so signal ages are deterministic under test.
func Analyze(m domain.Market, now time.Time) domain.SettlementAnalysis {
	signals := []domain.SettlementSignal{
		priceVolumeDivergence(m),
		boundaryRush(m),
		stalePrice(m, now),
		pastResolution(m, now),
		extremeSpread(m),
	}

	fired := 0
	confidence := 0
	rushOrPast := false
	for _, s := range signals {
		if !s.Detected {
			continue
		}
		fired++
		confidence += s.Weight
		if s.Type == domain.SignalBoundaryRush || s.Type == domain.SignalPastResolution {
			rushOrPast = true
		}
	}

	expected := expectedPrice(m, rushOrPast)
	profit := m.Price - expected
	if expected == 1 {
		profit = 1 - m.Price
	}

	analysis := domain.SettlementAnalysis{
		MarketID:        m.ID,
		Question:        m.Question,
		Price:           m.Price,
		Confidence:      confidence,
		Signals:         signals,
		ExpectedPrice:   expected,
		PotentialProfit: profit,
		Strategy:        "wait",
	}

	gap := m.Price - expected
	if gap < 0 {
		gap = -gap
	}
	if fired >= minSignals && confidence >= minTotalWeight && gap >= minPriceGap {
		analysis.HasOpportunity = true
		if expected == 0 {
			analysis.Strategy = "sell"
		} else {
			analysis.Strategy = "buy"
		}
	}
	return analysis
}

// PositionSize scales a capital allocation by signal confidence and profit
// magnitude, capped at 10% of the market's liquidity. The profit scale
// saturates at profitReference.
func PositionSize(capital float64, confidence int, profit, liquidity float64) float64 {
	profitScale := profit / profitReference
	if profitScale > 1 {
		profitScale = 1
	}
	if profitScale < 0 {
		profitScale = 0
	}
	size := capital * (float64(confidence) / 100) * profitScale * 0.5
	if limit := liquidity * 0.10; size > limit {
		size = limit
	}
	return size
}

// expectedPrice snaps to a boundary. Boundary-rush and past-resolution
// evidence points at the nearer boundary; otherwise a strong velocity sign
// decides; otherwise we fall back to the nearer boundary anyway. The
// fallback follows the price's existing bias and is a heuristic, not an
// estimator: a wrong initial read gets reinforced, not corrected.
func expectedPrice(m domain.Market, rushOrPast bool) float64 {
	nearer := 0.0
	if m.Price >= 0.5 {
		nearer = 1.0
	}
	if rushOrPast {
		return nearer
	}
	if m.Velocity1h > velocityBias {
		return 1.0
	}
	if m.Velocity1h < -velocityBias {
		return 0.0
	}
	return nearer
}

// priceVolumeDivergence: heavy trading without price movement suggests the
// market is absorbing settled-outcome flow at a stuck price.
func priceVolumeDivergence(m domain.Market) domain.SettlementSignal {
	s := domain.SettlementSignal{Type: domain.SignalPriceVolumeDivergence, Weight: weightPriceVolumeDivergence}
	if m.Volume7dAvg > 0 && m.Volume24h >= volumeSpikeRatio*m.Volume7dAvg && m.PriceChange24h < quietPriceChange {
		s.Detected = true
		s.Detail = fmt.Sprintf("24h volume %.0f is %.1fx the 7d average with %.1f%% price change",
			m.Volume24h, m.Volume24h/m.Volume7dAvg, m.PriceChange24h*100)
	}
	return s
}

// boundaryRush: the price is near a boundary and still moving toward it
// quickly.
func boundaryRush(m domain.Market) domain.SettlementSignal {
	s := domain.SettlementSignal{Type: domain.SignalBoundaryRush, Weight: weightBoundaryRush}
	switch {
	case m.Price >= 1-boundaryZone && m.Velocity1h > rushVelocity:
		s.Detected = true
		s.Detail = fmt.Sprintf("price %.2f rushing toward 1 at %.1f%%/hr", m.Price, m.Velocity1h*100)
	case m.Price <= boundaryZone && m.Velocity1h < -rushVelocity:
		s.Detected = true
		s.Detail = fmt.Sprintf("price %.2f rushing toward 0 at %.1f%%/hr", m.Price, m.Velocity1h*100)
	}
	return s
}

// stalePrice: a near-boundary price that has not traded for hours.
func stalePrice(m domain.Market, now time.Time) domain.SettlementSignal {
	s := domain.SettlementSignal{Type: domain.SignalStalePrice, Weight: weightStalePrice}
	if m.LastTradeAt.IsZero() {
		return s
	}
	age := now.Sub(m.LastTradeAt)
	if (m.Price < staleZoneLow || m.Price > staleZoneHigh) && age > staleAge {
		s.Detected = true
		s.Detail = fmt.Sprintf("no trade for %.1fh at price %.2f", age.Hours(), m.Price)
	}
	return s
}

// pastResolution: the market's end date has passed with grace to spare, it is
// not settled, and the price is still clearly away from both boundaries.
func pastResolution(m domain.Market, now time.Time) domain.SettlementSignal {
	s := domain.SettlementSignal{Type: domain.SignalPastResolution, Weight: weightPastResolution}
	if m.EndDate.IsZero() || m.Settled {
		return s
	}
	if now.After(m.EndDate.Add(resolutionGrace)) && m.Price > unresolvedBandLow && m.Price < unresolvedBandHigh {
		s.Detected = true
		s.Detail = fmt.Sprintf("ended %.1fh ago, unsettled, price still %.2f",
			now.Sub(m.EndDate).Hours(), m.Price)
	}
	return s
}

// extremeSpread: a wide book around an already-biased midpoint.
func extremeSpread(m domain.Market) domain.SettlementSignal {
	s := domain.SettlementSignal{Type: domain.SignalExtremeSpread, Weight: weightExtremeSpread}
	mid := m.Midpoint()
	if (mid < extremeMidpointLow || mid > extremeMidpointHigh) && m.Spread() > wideSpread {
		s.Detected = true
		s.Detail = fmt.Sprintf("spread %.2f around midpoint %.2f", m.Spread(), mid)
	}
	return s
}
