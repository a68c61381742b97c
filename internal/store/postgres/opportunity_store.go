package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunitySelectCols = `id, scan_type, market_ids, description, strategy,
	raw_profit, fees, profit_after_fees,
	max_position_size, expected_dollar_profit,
	qualifies, reasons, detected_at`

// Insert stores a detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, scan_type, market_ids, description, strategy,
			raw_profit, fees, profit_after_fees,
			max_position_size, expected_dollar_profit,
			qualifies, reasons, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10,
			$11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, string(opp.Type), opp.MarketIDs, opp.Description, opp.Strategy,
		opp.RawProfit, opp.Fees, opp.ProfitAfterFees,
		opp.MaxPositionSize, opp.ExpectedDollarProfit,
		opp.Qualifies, opp.Reasons, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunitySelectCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var scanType string

		if err := rows.Scan(
			&opp.ID, &scanType, &opp.MarketIDs, &opp.Description, &opp.Strategy,
			&opp.RawProfit, &opp.Fees, &opp.ProfitAfterFees,
			&opp.MaxPositionSize, &opp.ExpectedDollarProfit,
			&opp.Qualifies, &opp.Reasons, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Type = domain.ScanType(scanType)
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
