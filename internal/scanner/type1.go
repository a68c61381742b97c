package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscan/internal/classifier"
	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/optimizer"
)

// scanMispricing runs the type-1 cycle: classify each multi-outcome event,
// fetch live prices for the sets that pass, and hand the price vector to the
// closed-form optimizer. Every accept and reject decision carries a reason.
func (s *Scanner) scanMispricing(ctx context.Context, cfg domain.ScanConfig) domain.ScanResult {
	result := domain.ScanResult{
		ID:   uuid.New().String(),
		Type: domain.ScanMispricing,
	}

	events, err := s.feed.Events(ctx, cfg.MaxEvents)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch events: %v", err))
		return result
	}
	result.TotalEvents = len(events)

	for _, ev := range events {
		if len(ev.Outcomes) >= 2 {
			result.MultiOutcomeEvents++
		}
		report := s.evaluateEvent(ctx, ev, cfg)
		if report.OpportunityType != domain.OpportunityNone {
			result.WithMispricing++
		}
		if report.Qualifies {
			result.Qualifying++
			result.Opportunities = append(result.Opportunities, mispricingOpportunity(report, cfg, s.now()))
		}
		result.Events = append(result.Events, report)
	}

	sort.Slice(result.Events, func(i, j int) bool {
		return math.Abs(result.Events[i].Mispricing) > math.Abs(result.Events[j].Mispricing)
	})
	sort.Slice(result.Opportunities, func(i, j int) bool {
		return result.Opportunities[i].ProfitAfterFees > result.Opportunities[j].ProfitAfterFees
	})
	return result
}

// evaluateEvent runs one event through the classifier, the price-sum sanity
// check, and the optimizer, producing the full per-event report.
func (s *Scanner) evaluateEvent(ctx context.Context, ev domain.Event, cfg domain.ScanConfig) domain.EventReport {
	report := domain.EventReport{
		EventID:         ev.ID,
		Title:           ev.Title,
		Outcomes:        ev.Outcomes,
		OpportunityType: domain.OpportunityNone,
		ExtractionRate:  cfg.ExtractionRate,
	}

	report.Classification = classifier.Classify(ev.Title, ev.Outcomes)
	if !report.Classification.Valid {
		report.Reasons = append(report.Reasons, "classification: "+report.Classification.Reason)
		return report
	}

	// The verdict is fixed for the rest of the cycle; only prices are live.
	outcomes := s.fetchLivePrices(ctx, ev, cfg)
	report.Outcomes = outcomes

	theta := make([]float64, len(outcomes))
	minLiquidity := math.Inf(1)
	for i, o := range outcomes {
		theta[i] = o.Price
		if o.Liquidity < minLiquidity {
			minLiquidity = o.Liquidity
		}
	}
	report.MinLiquidity = minLiquidity

	var sum float64
	for _, p := range theta {
		sum += p
	}
	report.TotalPrice = sum
	report.Mispricing = sum - 1

	if ok, reason := classifier.ValidatePriceSum(sum, len(theta)); !ok {
		report.Reasons = append(report.Reasons, "price sum: "+reason)
		return report
	}

	analysis, err := optimizer.AnalyzeSimplex(theta, cfg.MinMispricing, cfg.ExtractionRate)
	if err != nil {
		report.Reasons = append(report.Reasons, fmt.Sprintf("optimizer: %v", err))
		s.logger.Warn("optimizer rejected event",
			slog.String("event_id", ev.ID), slog.String("error", err.Error()))
		return report
	}

	report.BregmanDivergence = analysis.Divergence
	report.GuaranteedProfit = analysis.GuaranteedProfit
	if !analysis.HasArbitrage {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("mispricing %.4f inside dead zone %.4f", report.Mispricing, cfg.MinMispricing))
		return report
	}

	report.OpportunityType = analysis.Direction
	report.ProfitAfterFees = math.Abs(report.Mispricing) - cfg.FeeRate
	report.MaxPositionSize = minLiquidity * 0.10
	report.ExpectedDollarProfit = report.ProfitAfterFees * report.MaxPositionSize

	switch {
	case report.ProfitAfterFees <= 0:
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("profit %.4f consumed by fee %.4f", math.Abs(report.Mispricing), cfg.FeeRate))
	case minLiquidity < cfg.MinLiquidity:
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("min outcome liquidity $%.2f below floor $%.2f", minLiquidity, cfg.MinLiquidity))
	default:
		report.Qualifies = true
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("%s: profit %.4f after fees on $%.2f liquidity",
				report.OpportunityType, report.ProfitAfterFees, minLiquidity))
	}
	return report
}

// fetchLivePrices replaces the snapshot prices with per-outcome live quotes,
// pacing lookups and substituting the sentinel on timeout.
func (s *Scanner) fetchLivePrices(ctx context.Context, ev domain.Event, cfg domain.ScanConfig) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(ev.Outcomes))
	for i, o := range ev.Outcomes {
		if i > 0 {
			pause(ctx, cfg.LookupDelay)
		}
		quote, _ := s.lookupQuote(ctx, o.ID, cfg)
		o.Price = quote.Price
		o.Liquidity = quote.Liquidity
		outcomes[i] = o
	}
	return outcomes
}

func mispricingOpportunity(report domain.EventReport, cfg domain.ScanConfig, now time.Time) domain.Opportunity {
	ids := make([]string, len(report.Outcomes))
	for i, o := range report.Outcomes {
		ids[i] = o.ID
	}
	strategy := "buy every outcome and redeem the winning one for $1"
	if report.OpportunityType == domain.OpportunitySellAll {
		strategy = "sell every outcome against a maximum $1 liability"
	}
	return domain.Opportunity{
		ID:                   uuid.New().String(),
		Type:                 domain.ScanMispricing,
		MarketIDs:            ids,
		Description:          fmt.Sprintf("%s priced at %.3f", report.Title, report.TotalPrice),
		Strategy:             strategy,
		RawProfit:            math.Abs(report.Mispricing),
		Fees:                 cfg.FeeRate,
		ProfitAfterFees:      report.ProfitAfterFees,
		MaxPositionSize:      report.MaxPositionSize,
		ExpectedDollarProfit: report.ExpectedDollarProfit,
		Qualifies:            true,
		Reasons:              report.Reasons,
		DetectedAt:           now,
	}
}
