package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apicoin/apicoin/internal/paging"
)

// Repository persists app entries in creation order.
type Repository interface {
	Create(ctx context.Context, entry Entry) error
	Get(ctx context.Context, handle string) (Entry, error)
	List(ctx context.Context, offset, limit int) ([]Entry, int, error)
	ListByCreator(ctx context.Context, creator string, offset, limit int) ([]Entry, int, error)
}

// PostgresRepository implements Repository using PostgreSQL. The seq column
// keeps creation order.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed app repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new app entry.
func (r *PostgresRepository) Create(ctx context.Context, entry Entry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO apps (handle, name, symbol, creator, created_at)
        VALUES ($1, $2, $3, $4, $5)`, entry.Handle, entry.Name, entry.Symbol, entry.Creator, entry.CreatedAt.UTC())
	return err
}

// Get fetches an app by handle.
func (r *PostgresRepository) Get(ctx context.Context, handle string) (Entry, error) {
	row := r.db.QueryRow(ctx, `SELECT handle, name, symbol, creator, created_at FROM apps WHERE handle = $1`, handle)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("app %s: %w", handle, ErrAppNotFound)
	}
	return entry, err
}

// List pages through every app.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]Entry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM apps`).Scan(&total); err != nil {
		return nil, 0, err
	}
	entries, err := r.query(ctx, `SELECT handle, name, symbol, creator, created_at FROM apps
        ORDER BY seq OFFSET $1 LIMIT $2`, total, offset, limit)
	return entries, total, err
}

// ListByCreator pages through the apps created by one identity.
func (r *PostgresRepository) ListByCreator(ctx context.Context, creator string, offset, limit int) ([]Entry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM apps WHERE creator = $1`, creator).Scan(&total); err != nil {
		return nil, 0, err
	}
	entries, err := r.query(ctx, `SELECT handle, name, symbol, creator, created_at FROM apps
        WHERE creator = $3 ORDER BY seq OFFSET $1 LIMIT $2`, total, offset, limit, creator)
	return entries, total, err
}

// sqlWindow turns a requested page into OFFSET and LIMIT arguments clamped the
// same way the in-memory listing clamps them.
func sqlWindow(total, offset, limit int) (int, int) {
	start, end := paging.Window(total, offset, limit)
	return start, end - start
}

func (r *PostgresRepository) query(ctx context.Context, sql string, total, offset, limit int, args ...any) ([]Entry, error) {
	entries := []Entry{}
	offset, limit = sqlWindow(total, offset, limit)
	if limit == 0 {
		return entries, nil
	}
	rows, err := r.db.Query(ctx, sql, append([]any{offset, limit}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry     Entry
		createdAt time.Time
	)
	if err := row.Scan(&entry.Handle, &entry.Name, &entry.Symbol, &entry.Creator, &createdAt); err != nil {
		return Entry{}, err
	}
	entry.CreatedAt = createdAt.UTC()
	return entry, nil
}
