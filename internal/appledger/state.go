package appledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/access"
	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/resource"
	"github.com/apicoin/apicoin/internal/spend"
)

// ErrStateNotFound is returned by a StateStore that has nothing for a handle.
var ErrStateNotFound = apperr.New(apperr.KindNotFound, "app ledger state not found")

// State is a complete, serialisable snapshot of a Ledger.
type State struct {
	Handle        string          `json:"handle"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	Platform      string          `json:"platform"`
	AppOwner      string          `json:"app_owner"`
	ContractOwner string          `json:"contract_owner"`
	WithdrawDelay time.Duration   `json:"withdraw_delay"`
	Supply        decimal.Decimal `json:"supply"`
	Accounts      []Account       `json:"accounts"`
	Resources     resource.State  `json:"resources"`
	Spend         []spend.Record  `json:"spend"`
	Version       uint64          `json:"version"`
}

// StateStore keeps the latest snapshot of each app ledger.
type StateStore interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context, handle string) (State, error)
}

// State returns a snapshot of the ledger.
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateLocked()
}

func (l *Ledger) stateLocked() State {
	accounts := make([]Account, 0, len(l.accounts))
	for _, acct := range l.accounts {
		if acct.WithdrawRequestedAt != nil {
			at := *acct.WithdrawRequestedAt
			acct.WithdrawRequestedAt = &at
		}
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].User < accounts[j].User })
	return State{
		Handle:        l.handle,
		Name:          l.name,
		Symbol:        l.symbol,
		Platform:      l.roles.Holder(access.RolePlatform),
		AppOwner:      l.roles.Holder(access.RoleAppOwner),
		ContractOwner: l.roles.Holder(access.RoleContractOwner),
		WithdrawDelay: l.delay,
		Supply:        l.supply,
		Accounts:      accounts,
		Resources:     l.resources.State(),
		Spend:         l.spend.Records(),
		Version:       l.version,
	}
}

// FromState rebuilds a ledger from a snapshot.
func FromState(st State, treasury Treasury, opts ...Option) (*Ledger, error) {
	l, err := New(Config{
		Handle:        st.Handle,
		Name:          st.Name,
		Symbol:        st.Symbol,
		Platform:      st.Platform,
		AppOwner:      st.AppOwner,
		ContractOwner: st.ContractOwner,
		WithdrawDelay: st.WithdrawDelay,
	}, treasury, opts...)
	if err != nil {
		return nil, err
	}
	// A stored zero delay is a real setting, not "use the default".
	l.delay = st.WithdrawDelay
	l.supply = st.Supply
	l.version = st.Version
	for _, acct := range st.Accounts {
		if acct.AirdropBalance.GreaterThan(acct.Balance) || acct.Balance.IsNegative() || acct.AirdropBalance.IsNegative() {
			return nil, fmt.Errorf("account %s: airdrop %s exceeds balance %s", acct.User, acct.AirdropBalance, acct.Balance)
		}
		l.accounts[acct.User] = acct
	}
	resources, err := resource.FromState(st.Resources)
	if err != nil {
		return nil, fmt.Errorf("restore resources of %s: %w", st.Handle, err)
	}
	l.resources = resources
	l.spend = spend.FromRecords(st.Spend)
	return l, nil
}

// MemoryStore is an in-process StateStore.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Save(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.states[st.Handle]; ok && prev.Version >= st.Version {
		return nil
	}
	s.states[st.Handle] = st
	return nil
}

func (s *MemoryStore) Load(_ context.Context, handle string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[handle]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return st, nil
}
