package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/access"
	"github.com/apicoin/apicoin/internal/appledger"
	"github.com/apicoin/apicoin/internal/events"
	"github.com/apicoin/apicoin/internal/funding"
	"github.com/apicoin/apicoin/internal/ledger"
	"github.com/apicoin/apicoin/internal/logging"
	"github.com/apicoin/apicoin/internal/platform"
)

const platformID = "platform"

type harness struct {
	registry *Registry
	repo     Repository
	store    *appledger.MemoryStore
	token    *platform.Token
	funding  *funding.Service
	events   *events.Memory
}

func newHarness(t *testing.T) harness {
	t.Helper()
	tokens := ledger.NewInMemory()
	h := harness{
		repo:    NewMemoryRepository(),
		store:   appledger.NewMemoryStore(),
		token:   platform.NewToken(platformID, tokens, platform.NewMemoryPaidIndex(), logging.Discard()),
		funding: funding.NewService(tokens, nil, logging.Discard()),
		events:  &events.Memory{},
	}
	h.registry = h.reopen()
	return h
}

// reopen builds a fresh registry over the same storage, as after a restart.
func (h harness) reopen() *Registry {
	return New(Config{Platform: platformID}, h.repo, h.token, WithStore(h.store), WithPublisher(h.events))
}

func TestCreateAppMakesCallerOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.registry.CreateApp(ctx, "alice", "Weather API", "WX")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	if entry.Handle == "" || entry.Creator != "alice" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	l, err := h.registry.App(ctx, entry.Handle)
	if err != nil {
		t.Fatalf("resolve app: %v", err)
	}
	info := l.Info()
	if info.AppOwner != "alice" || info.ContractOwner != "alice" || info.Symbol != "WX" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.WithdrawDelay != appledger.DefaultWithdrawDelay {
		t.Fatalf("expected default delay, got %s", info.WithdrawDelay)
	}
	if got := h.events.OfKind(events.KindAppCreated); len(got) != 1 || got[0].App != entry.Handle {
		t.Fatalf("expected one app_created event, got %+v", got)
	}
	if _, err := h.registry.CreateApp(ctx, "", "x", "X"); !errors.Is(err, access.ErrEmptyIdentity) {
		t.Fatalf("expected empty identity error, got %v", err)
	}
}

func TestListingsKeepCreationOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var handles []string
	for i := 0; i < 5; i++ {
		creator := "alice"
		if i%2 == 1 {
			creator = "bob"
		}
		entry, err := h.registry.CreateApp(ctx, creator, fmt.Sprintf("app%d", i), "A")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		handles = append(handles, entry.Handle)
	}

	all, total, err := h.registry.ListApps(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list apps: %v", err)
	}
	if total != 5 || len(all) != 2 || all[0].Handle != handles[1] || all[1].Handle != handles[2] {
		t.Fatalf("unexpected page %+v total %d", all, total)
	}
	mine, total, err := h.registry.ListAppsByCreator(ctx, "alice", 0, 10)
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if total != 3 || mine[0].Handle != handles[0] || mine[2].Handle != handles[4] {
		t.Fatalf("unexpected creator listing %+v", mine)
	}
	if page, total, _ := h.registry.ListAppsByCreator(ctx, "alice", 3, 10); total != 3 || len(page) != 0 {
		t.Fatalf("expected empty page past the end")
	}
	if _, total, _ := h.registry.ListAppsByCreator(ctx, "carol", 0, 10); total != 0 {
		t.Fatalf("unknown creator should own nothing")
	}
}

func TestUnknownApp(t *testing.T) {
	h := newHarness(t)
	if _, err := h.registry.App(context.Background(), "missing"); !errors.Is(err, ErrAppNotFound) {
		t.Fatalf("expected app not found, got %v", err)
	}
}

func TestAppStateSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	entry, err := h.registry.CreateApp(ctx, "alice", "Weather API", "WX")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l, _ := h.registry.App(ctx, entry.Handle)
	if _, err := h.funding.TopUp(ctx, funding.TopUpInput{Holder: "acc1", Amount: decimal.NewFromInt(3), CardNumber: "4111111111111111"}); err != nil {
		t.Fatalf("top up: %v", err)
	}
	if _, err := h.token.DepositToApp(ctx, "acc1", l, decimal.NewFromInt(3), ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := l.Charge(ctx, "alice", "acc1", decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("charge: %v", err)
	}

	restored, err := h.reopen().App(ctx, entry.Handle)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == l {
		t.Fatalf("expected a fresh ledger instance")
	}
	if got := restored.Account("acc1").Balance; !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected restored balance 2, got %s", got)
	}
	users, total := restored.ListUsers(0, 10)
	if total != 1 || users[0].User != "acc1" {
		t.Fatalf("unexpected restored spend %+v", users)
	}
	if _, err := restored.Charge(ctx, "alice", "acc1", decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("charge after restore: %v", err)
	}
}

func TestAppWithoutSnapshotStartsEmpty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	entry := Entry{Handle: "legacy", Name: "Legacy", Symbol: "LG", Creator: "bob"}
	if err := h.repo.Create(ctx, entry); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	l, err := h.registry.App(ctx, "legacy")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if l.Info().AppOwner != "bob" || l.Info().Resources != 1 {
		t.Fatalf("unexpected fresh ledger %+v", l.Info())
	}
}
