// Package appledger implements the per-app accounting engine: tiered balances,
// charges, admin freezes and the time-locked withdrawal flow, together with the
// app's resource configuration and spend tracking.
package appledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/access"
	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/events"
	"github.com/apicoin/apicoin/internal/logging"
	"github.com/apicoin/apicoin/internal/resource"
	"github.com/apicoin/apicoin/internal/spend"
)

var (
	ErrAccountFrozen        = apperr.New(apperr.KindInvalidState, "Account is frozen")
	ErrAdminFrozen          = apperr.New(apperr.KindInvalidState, "Frozen by admin")
	ErrWithdrawNotRequested = apperr.New(apperr.KindInvalidState, "Withdraw request first")
	ErrWaitPeriodNotElapsed = apperr.New(apperr.KindInvalidState, "Waiting time")
	ErrInsufficientBalance  = apperr.New(apperr.KindInsufficientBalance, "insufficient balance")
	ErrInvalidAmount        = apperr.New(apperr.KindInvalidInput, "amount must be positive")
	ErrInvalidDelay         = apperr.New(apperr.KindInvalidInput, "withdraw delay must not be negative")
	ErrInvalidConfig        = apperr.New(apperr.KindInvalidInput, "invalid app ledger config")
)

// DefaultWithdrawDelay is used when Config leaves WithdrawDelay unset.
const DefaultWithdrawDelay = time.Hour

// Treasury moves underlying platform tokens out of the app when an account exits.
type Treasury interface {
	Refund(ctx context.Context, app, user string, amount decimal.Decimal) error
}

// Config describes a new app ledger.
type Config struct {
	Handle        string
	Name          string
	Symbol        string
	Platform      string
	AppOwner      string
	ContractOwner string
	WithdrawDelay time.Duration
}

// Info is a read-only summary of an app ledger.
type Info struct {
	Handle        string          `json:"handle"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	AppOwner      string          `json:"app_owner"`
	ContractOwner string          `json:"contract_owner"`
	WithdrawDelay time.Duration   `json:"withdraw_delay"`
	TotalSupply   decimal.Decimal `json:"total_supply"`
	Accounts      int             `json:"accounts"`
	ChargedUsers  int             `json:"charged_users"`
	Resources     int             `json:"resources"`
	NextResource  uint64          `json:"next_resource_id"`
	Version       uint64          `json:"version"`
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for withdrawal timing.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPublisher sets where ledger events are sent after each commit.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithStore persists a snapshot after every committed mutation.
func WithStore(s StateStore) Option {
	return func(l *Ledger) { l.store = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// Ledger is one app's sub-ledger. Every operation holds the ledger lock for its
// whole duration, so no caller observes a partially applied mutation.
type Ledger struct {
	mu sync.RWMutex

	handle string
	name   string
	symbol string
	roles  access.Roles
	delay  time.Duration
	supply decimal.Decimal

	accounts  map[string]Account
	resources *resource.Registry
	spend     *spend.Registry
	version   uint64

	treasury  Treasury
	publisher events.Publisher
	store     StateStore
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an empty app ledger holding only the default resource slot.
func New(cfg Config, treasury Treasury, opts ...Option) (*Ledger, error) {
	if cfg.Handle == "" || cfg.AppOwner == "" || cfg.ContractOwner == "" || cfg.Platform == "" || treasury == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.WithdrawDelay < 0 {
		return nil, ErrInvalidDelay
	}
	if cfg.WithdrawDelay == 0 {
		cfg.WithdrawDelay = DefaultWithdrawDelay
	}
	l := &Ledger{
		handle:    cfg.Handle,
		name:      cfg.Name,
		symbol:    cfg.Symbol,
		roles:     access.NewRoles(cfg.Platform, cfg.AppOwner, cfg.ContractOwner),
		delay:     cfg.WithdrawDelay,
		supply:    decimal.Zero,
		accounts:  make(map[string]Account),
		resources: resource.NewRegistry(),
		spend:     spend.NewRegistry(),
		treasury:  treasury,
	}
	l.apply(opts)
	return l, nil
}

func (l *Ledger) apply(opts []Option) {
	for _, opt := range opts {
		opt(l)
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.publisher == nil {
		l.publisher = events.Nop{}
	}
	if l.logger == nil {
		l.logger = logging.Discard()
	}
}

// Handle returns the app handle.
func (l *Ledger) Handle() string { return l.handle }

// Info summarises the ledger.
func (l *Ledger) Info() Info {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Info{
		Handle:        l.handle,
		Name:          l.name,
		Symbol:        l.symbol,
		AppOwner:      l.roles.Holder(access.RoleAppOwner),
		ContractOwner: l.roles.Holder(access.RoleContractOwner),
		WithdrawDelay: l.delay,
		TotalSupply:   l.supply,
		Accounts:      len(l.accounts),
		ChargedUsers:  l.spend.Len(),
		Resources:     l.resources.Len(),
		NextResource:  l.resources.NextID(),
		Version:       l.version,
	}
}

// Account returns the account of user. Unknown users read as an empty account.
func (l *Ledger) Account(user string) Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.account(user)
}

// BalanceWithAirdrop returns the total balance of user and the airdrop part of it.
func (l *Ledger) BalanceWithAirdrop(user string) (total, airdrop decimal.Decimal) {
	acct := l.Account(user)
	return acct.Balance, acct.AirdropBalance
}

// ListUsers pages through charged users in first-seen order.
func (l *Ledger) ListUsers(offset, limit int) ([]spend.Record, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.spend.List(offset, limit)
}

// TopUsers returns the n biggest spenders.
func (l *Ledger) TopUsers(n int) []spend.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.spend.Top(n)
}

// ListResources pages through resource slots in index order.
func (l *Ledger) ListResources(offset, limit int) ([]resource.Slot, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resources.List(offset, limit)
}

// Resource returns the slot with the given id.
func (l *Ledger) Resource(id uint64) (resource.Slot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resources.Get(id)
}

func (l *Ledger) account(user string) Account {
	if acct, ok := l.accounts[user]; ok {
		return acct
	}
	return Account{User: user, Balance: decimal.Zero, AirdropBalance: decimal.Zero}
}

// commit bumps the version and persists a snapshot. Snapshots are complete, so
// a failed save is repaired by the next successful one.
func (l *Ledger) commit(ctx context.Context) {
	l.version++
	if l.store == nil {
		return
	}
	if err := l.store.Save(ctx, l.stateLocked()); err != nil {
		l.logger.Error("persist app ledger", slog.String("app", l.handle), slog.Uint64("version", l.version), slog.Any("error", err))
	}
}

func (l *Ledger) emit(ctx context.Context, evs []events.Event) {
	for _, e := range evs {
		if err := l.publisher.Publish(ctx, e); err != nil {
			l.logger.Warn("publish ledger event", slog.String("app", l.handle), slog.String("kind", string(e.Kind)), slog.Any("error", err))
		}
	}
}
