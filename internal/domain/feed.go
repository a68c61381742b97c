package domain

import "context"

// MarketFeed is the ingestion-layer contract: a point-in-time snapshot of
// multi-outcome events and of standalone binary markets. Implementations own
// all transport, reconnect, and subscription bookkeeping.
type MarketFeed interface {
	Events(ctx context.Context, limit int) ([]Event, error)
	Markets(ctx context.Context, limit int) ([]Market, error)
}

// PriceSource looks up the live price and available liquidity for a single
// outcome. Callers bound each lookup with a deadline and substitute
// SentinelQuote on error; implementations never need to do so themselves.
type PriceSource interface {
	Price(ctx context.Context, outcomeID string) (PriceQuote, error)
}
