package appledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps ledger snapshots in the app_states table. Older versions
// never overwrite newer ones.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a snapshot store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts the snapshot when it is newer than the stored one.
func (s *PostgresStore) Save(ctx context.Context, st State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", st.Handle, err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO app_states (handle, version, state, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (handle) DO UPDATE SET version = EXCLUDED.version, state = EXCLUDED.state, updated_at = now()
        WHERE app_states.version < EXCLUDED.version`, st.Handle, int64(st.Version), payload)
	return err
}

// Load fetches the latest snapshot for handle.
func (s *PostgresStore) Load(ctx context.Context, handle string) (State, error) {
	var payload []byte
	if err := s.db.QueryRow(ctx, `SELECT state FROM app_states WHERE handle = $1`, handle).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, ErrStateNotFound
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", handle, err)
	}
	return st, nil
}
