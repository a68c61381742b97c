package domain

import "time"

// Outcome is one possible resolution of a market, carrying an implied
// probability (the price) and the liquidity available at that price.
type Outcome struct {
	ID        string
	Label     string
	Price     float64 // implied probability in [0,1]
	Liquidity float64 // dollars available, never negative
}

// Event is a bundle of Outcomes advertised by the exchange as the full
// resolution set of one question.
type Event struct {
	ID       string
	Title    string
	Outcomes []Outcome
}

// Market is a standalone binary market snapshot used by the dependency and
// settlement scans. Velocity and volume fields come from the ingestion layer.
type Market struct {
	ID             string
	Question       string
	Price          float64 // last traded / mid price of the YES outcome
	BestBid        float64
	BestAsk        float64
	Liquidity      float64
	Volume24h      float64
	Volume7dAvg    float64 // average daily volume over the trailing 7 days
	PriceChange24h float64 // absolute price change over the last 24 hours
	Velocity1h     float64 // signed price change per hour over the last hour
	LastTradeAt    time.Time
	EndDate        time.Time
	Active         bool
	Closed         bool
	Settled        bool
}

// Spread returns the bid-ask spread, or 0 when either side is missing.
func (m Market) Spread() float64 {
	if m.BestBid <= 0 || m.BestAsk <= 0 {
		return 0
	}
	return m.BestAsk - m.BestBid
}

// Midpoint returns the bid-ask midpoint, falling back to Price when the book
// is one-sided or empty.
func (m Market) Midpoint() float64 {
	if m.BestBid <= 0 || m.BestAsk <= 0 {
		return m.Price
	}
	return (m.BestBid + m.BestAsk) / 2
}

// PriceQuote is the result of a single price lookup. Scans that cannot obtain
// a quote within their deadline substitute SentinelQuote and continue.
type PriceQuote struct {
	Price     float64
	Liquidity float64
}

// SentinelQuote is substituted when an upstream price lookup times out or
// fails. Price 0.5 keeps the outcome neutral; liquidity 0 guarantees the
// affected event can never qualify.
func SentinelQuote() PriceQuote {
	return PriceQuote{Price: 0.5, Liquidity: 0}
}
