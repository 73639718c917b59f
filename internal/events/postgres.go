package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal appends events to the ledger_events table.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal builds a journal backed by PostgreSQL.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

func (j *PostgresJournal) Publish(ctx context.Context, e Event) error {
	attrs, err := json.Marshal(e.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	_, err = j.db.Exec(ctx, `INSERT INTO ledger_events (id, kind, app, user_id, amount, memo, attrs, occurred_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.Kind), e.App, e.User, e.Amount.String(), e.Memo, attrs, e.At)
	return err
}
