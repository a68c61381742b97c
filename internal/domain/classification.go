package domain

// Confidence grades how certain the classifier is about a verdict.
type Confidence string

const (
	ConfidenceCertain Confidence = "CERTAIN"
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceMedium  Confidence = "MEDIUM"
)

// Classification is the classifier's verdict on whether an outcome set is
// mutually exclusive and exhaustive. Verdicts are immutable for the duration
// of a scan cycle.
type Classification struct {
	Valid      bool
	Confidence Confidence
	Reason     string
	Category   string
}

// Classification categories.
const (
	CategoryTooFewOutcomes = "too_few_outcomes"
	CategoryTemporal       = "temporal_deadline"
	CategoryIndependent    = "independent_events"
	CategoryCumulative     = "cumulative_threshold"
	CategorySingleWinner   = "single_winner"
	CategoryUnclassified   = "unclassified"
)
