package domain

import "context"

// ScanStore persists completed scan summaries.
type ScanStore interface {
	Insert(ctx context.Context, result ScanResult) error
	ListRecent(ctx context.Context, t ScanType, limit int) ([]ScanResult, error)
}

// OpportunityStore persists detected opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// ResultArchiver writes a completed scan result to long-term blob storage and
// returns the object key it was stored under.
type ResultArchiver interface {
	Archive(ctx context.Context, result ScanResult) (string, error)
}
