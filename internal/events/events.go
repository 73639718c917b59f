package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a ledger event.
type Kind string

const (
	KindDeposit           Kind = "deposit"
	KindCharge            Kind = "charge"
	KindSpend             Kind = "spend"
	KindBurn              Kind = "burn"
	KindRefund            Kind = "refund"
	KindFrozen            Kind = "frozen"
	KindAdminFreeze       Kind = "admin_freeze"
	KindDrop              Kind = "drop"
	KindResourceChanged   Kind = "resource_changed"
	KindAppCreated        Kind = "app_created"
	KindWithdrawn         Kind = "withdrawn"
	KindDelayChanged      Kind = "withdraw_delay_changed"
	KindOwnershipTransfer Kind = "ownership_transferred"
)

// Event describes something that happened to an app or one of its accounts.
type Event struct {
	ID     string            `json:"id"`
	Kind   Kind              `json:"kind"`
	App    string            `json:"app"`
	User   string            `json:"user,omitempty"`
	Amount decimal.Decimal   `json:"amount"`
	Memo   string            `json:"memo,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	At     time.Time         `json:"at"`
}

// New stamps an event with a fresh id.
func New(kind Kind, app, user string, amount decimal.Decimal, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		App:    app,
		User:   user,
		Amount: amount,
		At:     at.UTC(),
	}
}

// Publisher delivers events to downstream systems.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes to every wrapped publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory keeps published events in order. Used by tests and the dev server.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfKind filters the recorded events.
func (m *Memory) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
