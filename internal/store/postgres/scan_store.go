package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL. Summary counters
// are stored as columns for querying; the full result (events, edges,
// analyses) rides along as a JSONB payload.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new ScanStore backed by the given connection pool.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// Insert stores a completed scan result.
func (s *ScanStore) Insert(ctx context.Context, result domain.ScanResult) error {
	const query = `
		INSERT INTO scan_history (
			id, scan_type, total_events, multi_outcome_events,
			with_mispricing, qualifying, scan_duration_ms,
			errors, payload, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10
		)`

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("postgres: marshal scan result %s: %w", result.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		result.ID, string(result.Type), result.TotalEvents, result.MultiOutcomeEvents,
		result.WithMispricing, result.Qualifying, result.ScanDurationMs,
		result.Errors, payload, result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert scan result %s: %w", result.ID, err)
	}
	return nil
}

// ListRecent returns the most recent scan results of the given type, newest
// first.
func (s *ScanStore) ListRecent(ctx context.Context, t domain.ScanType, limit int) ([]domain.ScanResult, error) {
	query := `SELECT payload FROM scan_history WHERE scan_type = $1 ORDER BY created_at DESC`
	args := []any{string(t)}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent scans: %w", err)
	}
	defer rows.Close()

	var results []domain.ScanResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		var result domain.ScanResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent scans rows: %w", err)
	}
	return results, nil
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
