package detector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS provider_state (
	provider    TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	fail_streak INTEGER NOT NULL,
	ok_streak   INTEGER NOT NULL,
	first_seen  INTEGER
)`

// SQLiteRepository is an embedded, single-writer StateRepository backed
// by a sqlite file. Suited to an edge node whose scheduled runs are
// serialized externally.
type SQLiteRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteRepository opens (creating if necessary) the state database
// at path and ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging state database: %w", err)
	}
	if _, err := db.ExecContext(ctx, stateSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating state schema: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

// Get retrieves the persisted state for a provider. A row that cannot
// be decoded is treated as absent rather than fatal.
func (r *SQLiteRepository) Get(ctx context.Context, provider string) (PersistedState, error) {
	query := `
		SELECT state, fail_streak, ok_streak, first_seen
		FROM provider_state
		WHERE provider = ?
	`

	var (
		st        PersistedState
		rawState  string
		firstSeen sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, provider).Scan(
		&rawState,
		&st.FailStreak,
		&st.OKStreak,
		&firstSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PersistedState{}, ErrStateNotFound
		}
		return PersistedState{}, err
	}

	switch State(rawState) {
	case StateOK, StateDegraded, StateMajorOutage, StateRecovered:
		st.State = State(rawState)
	default:
		r.logger.Warn().
			Str("provider", provider).
			Str("state", rawState).
			Msg("discarding malformed persisted state")
		return PersistedState{}, ErrStateNotFound
	}

	if firstSeen.Valid {
		ts := time.Unix(firstSeen.Int64, 0).UTC()
		st.FirstSeen = &ts
	}
	return st, nil
}

// Put creates or replaces the persisted state for a provider.
func (r *SQLiteRepository) Put(ctx context.Context, provider string, state PersistedState) error {
	query := `
		INSERT INTO provider_state (provider, state, fail_streak, ok_streak, first_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (provider) DO UPDATE SET
			state = excluded.state,
			fail_streak = excluded.fail_streak,
			ok_streak = excluded.ok_streak,
			first_seen = excluded.first_seen
	`

	var firstSeen sql.NullInt64
	if state.FirstSeen != nil {
		firstSeen = sql.NullInt64{Int64: state.FirstSeen.Unix(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, provider, string(state.State), state.FailStreak, state.OKStreak, firstSeen)
	return err
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteRepository implements StateRepository.
var _ StateRepository = (*SQLiteRepository)(nil)
