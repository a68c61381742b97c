package domain

import "time"

// ScanType identifies one of the three inefficiency detectors.
type ScanType string

const (
	// ScanMispricing is the multi-outcome simplex mispricing scan (type 1).
	ScanMispricing ScanType = "mispricing"
	// ScanDependency is the cross-market logical-dependency scan (type 2).
	ScanDependency ScanType = "dependency"
	// ScanSettlement is the settlement-lag scan (type 3).
	ScanSettlement ScanType = "settlement"
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	switch t {
	case ScanMispricing, ScanDependency, ScanSettlement:
		return true
	}
	return false
}

// OpportunityType is the trade direction for a simplex mispricing.
type OpportunityType string

const (
	OpportunityBuyAll  OpportunityType = "BUY_ALL"
	OpportunitySellAll OpportunityType = "SELL_ALL"
	OpportunityNone    OpportunityType = "NONE"
)

// EventReport is the per-event output of a mispricing scan: the classifier
// verdict, the price-sum diagnostics, and the optimizer metrics.
type EventReport struct {
	EventID              string
	Title                string
	Outcomes             []Outcome
	Classification       Classification
	TotalPrice           float64
	Mispricing           float64 // TotalPrice - 1
	OpportunityType      OpportunityType
	BregmanDivergence    float64
	GuaranteedProfit     float64
	ExtractionRate       float64
	ProfitAfterFees      float64
	MinLiquidity         float64
	MaxPositionSize      float64
	ExpectedDollarProfit float64
	Qualifies            bool
	Reasons              []string
}

// Opportunity is a qualified (or explicitly disqualified) arbitrage finding,
// uniform across the three scan types. ProfitAfterFees is always RawProfit
// minus Fees, regardless of whether the opportunity qualifies.
type Opportunity struct {
	ID                   string
	Type                 ScanType
	MarketIDs            []string
	Description          string
	Strategy             string
	RawProfit            float64
	Fees                 float64
	ProfitAfterFees      float64
	MaxPositionSize      float64
	ExpectedDollarProfit float64
	Qualifies            bool
	Reasons              []string
	DetectedAt           time.Time
}

// ScanResult is the complete output of one scan cycle. Exactly one of
// Events, Edges, or Analyses is populated depending on Type. Results are
// built fresh each cycle and replaced in the cache atomically; a result is
// never mutated after the cycle that produced it completes.
type ScanResult struct {
	ID                 string
	Type               ScanType
	Events             []EventReport
	Edges              []DependencyEdge
	Analyses           []SettlementAnalysis
	Opportunities      []Opportunity
	TotalEvents        int
	MultiOutcomeEvents int
	WithMispricing     int
	Qualifying         int
	ScanDurationMs     int64
	Timestamp          time.Time
	Errors             []string
}
