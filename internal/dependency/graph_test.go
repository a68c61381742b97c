package dependency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

const testFeeRate = 0.02

func nodeFor(id, question string, price float64) domain.MarketNode {
	return ParseNode(domain.Market{ID: id, Question: question, Price: price},
		time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))
}

func TestThresholdViolationOrientation(t *testing.T) {
	// Clearing $150k implies clearing $100k, so the $150k market is the
	// logically weaker claim and must never be priced above the $100k one.
	high := nodeFor("m-150", "Will Bitcoin reach $150,000 by end of 2027?", 0.40)
	low := nodeFor("m-100", "Will Bitcoin reach $100,000 by end of 2027?", 0.30)

	edges := BuildEdges([]domain.MarketNode{high, low})
	require.Len(t, edges, 1)

	edge := edges[0]
	assert.Equal(t, "m-150", edge.From)
	assert.Equal(t, "m-100", edge.To)
	assert.Equal(t, domain.RelationImplies, edge.Relation)

	evaluated := EvaluateEdges(edges, []domain.MarketNode{high, low}, testFeeRate)
	require.Len(t, evaluated, 1)
	assert.True(t, evaluated[0].Violated)
	assert.InDelta(t, 0.10, evaluated[0].Profit, 1e-12)
	assert.InDelta(t, 0.10-4*testFeeRate, evaluated[0].ProfitAfterFees, 1e-12)
	assert.True(t, evaluated[0].Qualifies)
}

func TestTemporalEdgeOrientation(t *testing.T) {
	early := nodeFor("m-mar", "Will the bill pass by March 2027?", 0.20)
	late := nodeFor("m-sep", "Will the bill pass by September 2027?", 0.35)

	edges := BuildEdges([]domain.MarketNode{late, early})
	require.Len(t, edges, 1)
	assert.Equal(t, "m-mar", edges[0].From, "earlier deadline is the weaker claim")
	assert.Equal(t, "m-sep", edges[0].To)
	assert.Equal(t, domain.EdgeTemporal, edges[0].Type)

	evaluated := EvaluateEdges(edges, []domain.MarketNode{late, early}, testFeeRate)
	assert.False(t, evaluated[0].Violated, "0.20 <= 0.35 holds")
}

func TestBelowThresholdOrientation(t *testing.T) {
	tight := nodeFor("m-50", "Will Bitcoin stay below $50k in 2027?", 0.10)
	loose := nodeFor("m-80", "Will Bitcoin stay below $80k in 2027?", 0.25)

	edges := BuildEdges([]domain.MarketNode{tight, loose})
	require.Len(t, edges, 1)
	assert.Equal(t, "m-50", edges[0].From, "the tighter below bound is the weaker claim")
	assert.Equal(t, "m-80", edges[0].To)
}

func TestNoEdgeAcrossSubjects(t *testing.T) {
	btc := nodeFor("m-btc", "Will Bitcoin reach $150k by June 2027?", 0.4)
	eth := nodeFor("m-eth", "Will Ethereum reach $10k by June 2027?", 0.3)
	assert.Empty(t, BuildEdges([]domain.MarketNode{btc, eth}))
}

func TestNoEdgeForMixedDirections(t *testing.T) {
	above := nodeFor("m-a", "Will Bitcoin go above $100k this year?", 0.4)
	below := nodeFor("m-b", "Will Bitcoin stay below $150k this year?", 0.6)
	assert.Empty(t, BuildEdges([]domain.MarketNode{above, below}))
}

func TestNoEdgeForEqualValues(t *testing.T) {
	a := nodeFor("m-a", "Will Bitcoin reach $100k by June 2027?", 0.4)
	b := nodeFor("m-b", "Will Bitcoin hit $100k by June 2027?", 0.5)
	assert.Empty(t, BuildEdges([]domain.MarketNode{a, b}), "same threshold and same deadline is not an ordering")
}

func TestUnqualifiedViolationKeepsTradeDetail(t *testing.T) {
	// 0.06 excess is a real violation but fees (4 x 0.02) eat the profit;
	// the reason must still name the sell/buy legs alongside the fee note.
	weaker := nodeFor("m-w", "Will Bitcoin reach $150k by June 2027?", 0.36)
	stronger := nodeFor("m-s", "Will Bitcoin reach $100k by June 2027?", 0.30)

	edges := EvaluateEdges(
		BuildEdges([]domain.MarketNode{weaker, stronger}),
		[]domain.MarketNode{weaker, stronger},
		testFeeRate,
	)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Violated)
	assert.False(t, edges[0].Qualifies)
	assert.Contains(t, edges[0].Reason, "sell m-w, buy m-s")
	assert.Contains(t, edges[0].Reason, "eaten by fees")
}

func TestToleranceAbsorbsQuoteNoise(t *testing.T) {
	weaker := nodeFor("m-w", "Will Bitcoin reach $150k by June 2027?", 0.305)
	stronger := nodeFor("m-s", "Will Bitcoin reach $100k by June 2027?", 0.300)

	edges := EvaluateEdges(
		BuildEdges([]domain.MarketNode{weaker, stronger}),
		[]domain.MarketNode{weaker, stronger},
		testFeeRate,
	)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Violated, "0.005 excess is inside tolerance")
}
