package domain

// SettlementSignalType identifies one of the independent settlement-lag
// signals.
type SettlementSignalType string

const (
	SignalPriceVolumeDivergence SettlementSignalType = "PRICE_VOLUME_DIVERGENCE"
	SignalBoundaryRush          SettlementSignalType = "BOUNDARY_RUSH"
	SignalStalePrice            SettlementSignalType = "STALE_PRICE"
	SignalPastResolution        SettlementSignalType = "PAST_RESOLUTION"
	SignalExtremeSpread         SettlementSignalType = "EXTREME_SPREAD"
)

// SettlementSignal is the outcome of evaluating one signal against a market.
type SettlementSignal struct {
	Type     SettlementSignalType
	Detected bool
	Weight   int
	Detail   string
}

// SettlementAnalysis is the settlement-lag scorer's verdict for one market.
// ExpectedPrice is always snapped to a boundary (0 or 1); the snap direction
// when neither boundary-rush nor past-resolution fired is a heuristic that
// follows the price's existing bias.
type SettlementAnalysis struct {
	MarketID        string
	Question        string
	Price           float64
	HasOpportunity  bool
	Confidence      int // sum of fired signal weights
	Signals         []SettlementSignal
	ExpectedPrice   float64
	PotentialProfit float64
	Strategy        string // "buy", "sell", or "wait"
}
