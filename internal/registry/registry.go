// Package registry creates app ledgers and keeps the global and per-creator
// app listings.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/access"
	"github.com/apicoin/apicoin/internal/appledger"
	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/events"
	"github.com/apicoin/apicoin/internal/logging"
)

var ErrAppNotFound = apperr.New(apperr.KindNotFound, "app not found")

// Config carries the settings every created app inherits.
type Config struct {
	// Platform is the identity allowed to deposit into apps.
	Platform      string
	WithdrawDelay time.Duration
}

// Option customises a Registry.
type Option func(*Registry)

// WithStore persists app ledger snapshots and restores them on lookup.
func WithStore(s appledger.StateStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithPublisher sends app_created and every app ledger event to p.
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry is the app factory. Ledgers are kept live once created or loaded.
type Registry struct {
	cfg       Config
	repo      Repository
	treasury  appledger.Treasury
	store     appledger.StateStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	live map[string]*appledger.Ledger
}

// New builds a registry. The treasury is handed to every app ledger it creates.
func New(cfg Config, repo Repository, treasury appledger.Treasury, opts ...Option) *Registry {
	r := &Registry{
		cfg:      cfg,
		repo:     repo,
		treasury: treasury,
		live:     make(map[string]*appledger.Ledger),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = appledger.NewMemoryStore()
	}
	if r.publisher == nil {
		r.publisher = events.Nop{}
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// CreateApp creates a ledger owned by caller, who becomes both app owner and
// contract owner.
func (r *Registry) CreateApp(ctx context.Context, caller, name, symbol string) (Entry, error) {
	if caller == "" {
		return Entry{}, access.ErrEmptyIdentity
	}
	entry := Entry{
		Handle:    uuid.NewString(),
		Name:      name,
		Symbol:    symbol,
		Creator:   caller,
		CreatedAt: r.now().UTC(),
	}
	l, err := appledger.New(appledger.Config{
		Handle:        entry.Handle,
		Name:          name,
		Symbol:        symbol,
		Platform:      r.cfg.Platform,
		AppOwner:      caller,
		ContractOwner: caller,
		WithdrawDelay: r.cfg.WithdrawDelay,
	}, r.treasury, r.ledgerOptions()...)
	if err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.repo.Create(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("register app: %w", err)
	}
	r.live[entry.Handle] = l
	if err := r.store.Save(ctx, l.State()); err != nil {
		r.logger.Warn("save initial app state", slog.String("app", entry.Handle), slog.Any("error", err))
	}

	e := events.New(events.KindAppCreated, entry.Handle, caller, decimal.Zero, entry.CreatedAt)
	e.Attrs = map[string]string{"name": name, "symbol": symbol}
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.logger.Warn("publish app created", slog.String("app", entry.Handle), slog.Any("error", err))
	}
	return entry, nil
}

// App resolves the live ledger for handle, restoring it from the state store
// the first time it is asked for after a restart.
func (r *Registry) App(ctx context.Context, handle string) (*appledger.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.live[handle]; ok {
		return l, nil
	}
	entry, err := r.repo.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	l, err := r.restore(ctx, entry)
	if err != nil {
		return nil, err
	}
	r.live[handle] = l
	return l, nil
}

func (r *Registry) restore(ctx context.Context, entry Entry) (*appledger.Ledger, error) {
	st, err := r.store.Load(ctx, entry.Handle)
	if errors.Is(err, appledger.ErrStateNotFound) {
		r.logger.Warn("no snapshot for app, starting empty", slog.String("app", entry.Handle))
		return appledger.New(appledger.Config{
			Handle:        entry.Handle,
			Name:          entry.Name,
			Symbol:        entry.Symbol,
			Platform:      r.cfg.Platform,
			AppOwner:      entry.Creator,
			ContractOwner: entry.Creator,
			WithdrawDelay: r.cfg.WithdrawDelay,
		}, r.treasury, r.ledgerOptions()...)
	}
	if err != nil {
		return nil, fmt.Errorf("load app %s: %w", entry.Handle, err)
	}
	return appledger.FromState(st, r.treasury, r.ledgerOptions()...)
}

func (r *Registry) ledgerOptions() []appledger.Option {
	return []appledger.Option{
		appledger.WithStore(r.store),
		appledger.WithPublisher(r.publisher),
		appledger.WithLogger(r.logger),
		appledger.WithClock(r.now),
	}
}

// ListApps pages through every app in creation order.
func (r *Registry) ListApps(ctx context.Context, offset, limit int) ([]Entry, int, error) {
	return r.repo.List(ctx, offset, limit)
}

// ListAppsByCreator pages through the apps created by creator.
func (r *Registry) ListAppsByCreator(ctx context.Context, creator string, offset, limit int) ([]Entry, int, error) {
	return r.repo.ListByCreator(ctx, creator, offset, limit)
}
