package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscan/internal/dependency"
	"github.com/alanyoungcy/polyscan/internal/domain"
)

// dependencyFeeLegs mirrors the edge evaluator: two legs, each charged on
// entry and settlement.
const dependencyFeeLegs = 4

// scanDependency runs the type-2 cycle: reduce each market to its parsed
// features, mine IMPLIES edges across pairs, and check every edge's price
// constraint.
func (s *Scanner) scanDependency(ctx context.Context, cfg domain.ScanConfig) domain.ScanResult {
	result := domain.ScanResult{
		ID:   uuid.New().String(),
		Type: domain.ScanDependency,
	}

	markets, err := s.feed.Markets(ctx, cfg.MaxEvents)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch markets: %v", err))
		return result
	}
	result.TotalEvents = len(markets)

	now := s.now()
	nodes := make([]domain.MarketNode, 0, len(markets))
	byID := make(map[string]domain.MarketNode, len(markets))
	for _, m := range markets {
		if m.Question == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("market %s: empty question, skipped", m.ID))
			continue
		}
		node := dependency.ParseNode(m, now)
		nodes = append(nodes, node)
		byID[node.ID] = node
	}

	edges := dependency.EvaluateEdges(dependency.BuildEdges(nodes), nodes, cfg.FeeRate)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Violated != edges[j].Violated {
			return edges[i].Violated
		}
		return edges[i].Profit > edges[j].Profit
	})
	result.Edges = edges

	for _, e := range edges {
		if e.Violated {
			result.WithMispricing++
		}
		if !e.Qualifies {
			continue
		}
		result.Qualifying++
		result.Opportunities = append(result.Opportunities, dependencyOpportunity(e, byID, cfg, now))
	}
	return result
}

func dependencyOpportunity(e domain.DependencyEdge, nodes map[string]domain.MarketNode, cfg domain.ScanConfig, now time.Time) domain.Opportunity {
	weaker, stronger := nodes[e.From], nodes[e.To]
	return domain.Opportunity{
		ID:        uuid.New().String(),
		Type:      domain.ScanDependency,
		MarketIDs: []string{e.From, e.To},
		Description: fmt.Sprintf("%q implies %q but is priced %.3f vs %.3f",
			weaker.Question, stronger.Question, weaker.Price, stronger.Price),
		Strategy:        fmt.Sprintf("sell %s at %.3f, buy %s at %.3f", e.From, weaker.Price, e.To, stronger.Price),
		RawProfit:       e.Profit,
		Fees:            dependencyFeeLegs * cfg.FeeRate,
		ProfitAfterFees: e.ProfitAfterFees,
		Qualifies:       true,
		Reasons:         []string{e.Reason},
		DetectedAt:      now,
	}
}
