package domain

// EdgeType says which parsed feature a dependency edge was derived from.
type EdgeType string

const (
	EdgeTemporal  EdgeType = "TEMPORAL"
	EdgeThreshold EdgeType = "THRESHOLD"
)

// Relation is the logical relationship a dependency edge asserts.
type Relation string

const (
	RelationImplies Relation = "IMPLIES"
	// RelationExcludes (P(A)+P(B) <= 1) is defined for future extractors;
	// the current deadline/threshold extractors only produce IMPLIES.
	RelationExcludes   Relation = "EXCLUDES"
	RelationEquivalent Relation = "EQUIVALENT"
)

// ThresholdDirection distinguishes "reach/exceed" from "stay below" markets.
type ThresholdDirection string

const (
	ThresholdAbove ThresholdDirection = "above"
	ThresholdBelow ThresholdDirection = "below"
)

// Deadline is a parsed resolution deadline. Month and Day may be refined from
// phrasing like "by Q3 2026" or "by end of 2026".
type Deadline struct {
	Year  int
	Month int
	Day   int
}

// Before reports whether d is strictly earlier than other.
func (d Deadline) Before(other Deadline) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Threshold is a parsed numeric threshold from market text.
type Threshold struct {
	Value     float64
	Direction ThresholdDirection
}

// MarketNode is a market prepared for dependency mining: its question reduced
// to a crude subject string plus whatever deadline/threshold features parsed
// out of the text. Subject is a similarity key, not an identity.
type MarketNode struct {
	ID        string
	Question  string
	Price     float64
	Subject   string
	Deadline  *Deadline
	Threshold *Threshold
}

// DependencyEdge is a mined logical constraint between two markets, oriented
// from the logically weaker market (From) to the stronger one (To). The
// IMPLIES constraint is P(From) <= P(To); Violated means the live prices
// break it beyond tolerance.
type DependencyEdge struct {
	From            string
	To              string
	Type            EdgeType
	Relation        Relation
	Similarity      float64
	Violated        bool
	Profit          float64 // raw excess over the constraint
	ProfitAfterFees float64
	Qualifies       bool
	Reason          string
}
