package dependency

import (
	"fmt"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

const (
	// SimilarityFloor is the minimum subject similarity for two markets to
	// be considered the same claim at different strengths.
	SimilarityFloor = 0.4
	// ViolationTolerance absorbs quote noise around the implication
	// constraint P(weaker) <= P(stronger).
	ViolationTolerance = 0.01
	// feeLegs: a dependency trade has two legs, each charged on both the
	// entry and the settlement side, so fees are 4x the flat rate.
	feeLegs = 4
)

// BuildEdges mines IMPLIES edges from every compatible pair of nodes. An
// edge is created only when both markets parsed the same feature kind (two
// deadlines, or two thresholds in the same direction), their subjects clear
// the similarity floor, and the feature values differ. The edge is oriented
// from the logically weaker market to the stronger one.
func BuildEdges(nodes []domain.MarketNode) []domain.DependencyEdge {
	var edges []domain.DependencyEdge
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if edge, ok := pairEdge(nodes[i], nodes[j]); ok {
				edges = append(edges, edge)
			}
		}
	}
	return edges
}

// EvaluateEdges checks each edge's implication constraint against the node
// prices and fills in the violation fields. ProfitAfterFees is computed for
// every violated edge regardless of whether it qualifies.
func EvaluateEdges(edges []domain.DependencyEdge, nodes []domain.MarketNode, feeRate float64) []domain.DependencyEdge {
	prices := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		prices[n.ID] = n.Price
	}

	out := make([]domain.DependencyEdge, 0, len(edges))
	for _, e := range edges {
		weaker, stronger := prices[e.From], prices[e.To]
		excess := weaker - stronger
		if excess > ViolationTolerance {
			e.Violated = true
			e.Profit = excess
			e.ProfitAfterFees = excess - feeLegs*feeRate
			e.Qualifies = e.ProfitAfterFees > 0
			e.Reason = fmt.Sprintf(
				"P(weaker)=%.3f exceeds P(stronger)=%.3f; sell %s, buy %s",
				weaker, stronger, e.From, e.To,
			)
			if !e.Qualifies {
				e.Reason += fmt.Sprintf("; violation profit %.4f eaten by fees %.4f", excess, feeLegs*feeRate)
			}
		} else {
			e.Reason = fmt.Sprintf("constraint holds: P(weaker)=%.3f <= P(stronger)=%.3f", weaker, stronger)
		}
		out = append(out, e)
	}
	return out
}

func pairEdge(a, b domain.MarketNode) (domain.DependencyEdge, bool) {
	sim := Similarity(a.Subject, b.Subject)
	if sim < SimilarityFloor {
		return domain.DependencyEdge{}, false
	}

	// Temporal ordering takes precedence, but two markets sharing one
	// deadline can still differ on their thresholds.
	if a.Deadline != nil && b.Deadline != nil {
		if edge, ok := temporalEdge(a, b, sim); ok {
			return edge, true
		}
	}
	if a.Threshold != nil && b.Threshold != nil && a.Threshold.Direction == b.Threshold.Direction {
		return thresholdEdge(a, b, sim)
	}
	return domain.DependencyEdge{}, false
}

// temporalEdge: resolving by an earlier deadline implies resolving by a
// later one.
func temporalEdge(a, b domain.MarketNode, sim float64) (domain.DependencyEdge, bool) {
	da, db := *a.Deadline, *b.Deadline
	if da == db {
		return domain.DependencyEdge{}, false
	}
	weaker, stronger := a, b
	if db.Before(da) {
		weaker, stronger = b, a
	}
	return domain.DependencyEdge{
		From:       weaker.ID,
		To:         stronger.ID,
		Type:       domain.EdgeTemporal,
		Relation:   domain.RelationImplies,
		Similarity: sim,
	}, true
}

// thresholdEdge: clearing a higher "above" bar implies clearing a lower one;
// staying under a lower "below" bar implies staying under a higher one.
func thresholdEdge(a, b domain.MarketNode, sim float64) (domain.DependencyEdge, bool) {
	ta, tb := *a.Threshold, *b.Threshold
	if ta.Value == tb.Value {
		return domain.DependencyEdge{}, false
	}

	weaker, stronger := a, b
	switch ta.Direction {
	case domain.ThresholdAbove:
		if tb.Value > ta.Value {
			weaker, stronger = b, a
		}
	case domain.ThresholdBelow:
		if tb.Value < ta.Value {
			weaker, stronger = b, a
		}
	}
	return domain.DependencyEdge{
		From:       weaker.ID,
		To:         stronger.ID,
		Type:       domain.EdgeThreshold,
		Relation:   domain.RelationImplies,
		Similarity: sim,
	}, true
}
