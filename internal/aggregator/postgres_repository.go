package aggregator

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL scope-event repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertScopeEvent records one scope change.
func (r *PostgresRepository) InsertScopeEvent(ctx context.Context, ev event.Scope) error {
	query := `
		INSERT INTO scope_events (id, provider, scope, severity, confidence, impacted_count, affected_states, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	statesJSON, err := json.Marshal(ev.AffectedStates)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		ev.ID,
		ev.Provider,
		ev.Scope,
		ev.Severity,
		ev.Confidence,
		ev.ImpactedCount,
		statesJSON,
		ev.Ts,
	)
	return err
}

// ListScopeEvents returns the most recent scope events for a provider,
// newest first.
func (r *PostgresRepository) ListScopeEvents(ctx context.Context, provider string, limit int) ([]event.Scope, error) {
	query := `
		SELECT id, provider, scope, severity, confidence, impacted_count, affected_states, ts
		FROM scope_events
		WHERE provider = $1
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, provider, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event.Scope
	for rows.Next() {
		var (
			ev         event.Scope
			statesJSON []byte
		)

		err := rows.Scan(
			&ev.ID,
			&ev.Provider,
			&ev.Scope,
			&ev.Severity,
			&ev.Confidence,
			&ev.ImpactedCount,
			&statesJSON,
			&ev.Ts,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(statesJSON, &ev.AffectedStates); err != nil {
			return nil, err
		}

		ev.Type = event.TypeScope
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
