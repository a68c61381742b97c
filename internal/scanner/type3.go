package scanner

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/settlement"
)

// sizingCapital is the reference bankroll the settlement sizing helper
// scales; actual order sizing belongs to the (out of scope) execution layer.
const sizingCapital = 1000.0

// scanSettlement runs the type-3 cycle: score each standalone market's
// settlement-lag signals and surface the ones whose combined weight clears
// the gate.
func (s *Scanner) scanSettlement(ctx context.Context, cfg domain.ScanConfig) domain.ScanResult {
	result := domain.ScanResult{
		ID:   uuid.New().String(),
		Type: domain.ScanSettlement,
	}

	markets, err := s.feed.Markets(ctx, cfg.MaxEvents)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch markets: %v", err))
		return result
	}
	result.TotalEvents = len(markets)

	now := s.now()
	for _, m := range markets {
		if m.Settled || m.Price <= 0 || m.Price >= 1 {
			continue
		}
		analysis := settlement.Analyze(m, now)
		result.Analyses = append(result.Analyses, analysis)
		if !analysis.HasOpportunity {
			continue
		}
		result.WithMispricing++

		profitAfterFees := analysis.PotentialProfit - cfg.FeeRate
		if profitAfterFees <= 0 || m.Liquidity < cfg.MinLiquidity {
			continue
		}
		result.Qualifying++
		size := settlement.PositionSize(sizingCapital, analysis.Confidence, profitAfterFees, m.Liquidity)
		result.Opportunities = append(result.Opportunities, domain.Opportunity{
			ID:        uuid.New().String(),
			Type:      domain.ScanSettlement,
			MarketIDs: []string{m.ID},
			Description: fmt.Sprintf("%q at %.3f with settlement lag toward %.0f (confidence %d)",
				m.Question, m.Price, analysis.ExpectedPrice, analysis.Confidence),
			Strategy:             analysis.Strategy,
			RawProfit:            analysis.PotentialProfit,
			Fees:                 cfg.FeeRate,
			ProfitAfterFees:      profitAfterFees,
			MaxPositionSize:      size,
			ExpectedDollarProfit: profitAfterFees * size,
			Qualifies:            true,
			Reasons:              signalReasons(analysis),
			DetectedAt:           now,
		})
	}

	sort.Slice(result.Analyses, func(i, j int) bool {
		return result.Analyses[i].Confidence > result.Analyses[j].Confidence
	})
	sort.Slice(result.Opportunities, func(i, j int) bool {
		return result.Opportunities[i].ProfitAfterFees > result.Opportunities[j].ProfitAfterFees
	})
	return result
}

func signalReasons(a domain.SettlementAnalysis) []string {
	var reasons []string
	for _, sig := range a.Signals {
		if sig.Detected {
			reasons = append(reasons, fmt.Sprintf("%s: %s", sig.Type, sig.Detail))
		}
	}
	return reasons
}
