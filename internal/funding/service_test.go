package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/ledger"
	"github.com/apicoin/apicoin/internal/logging"
)

const card = "4111 1111 1111 1111"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type decliningAcquirer struct{ StaticAcquirer }

func (decliningAcquirer) AuthorizeTopUp(context.Context, TopUpAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: "ref-1", Status: "declined"}, nil
}

func TestServiceTopUp(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemory()
	service := NewService(l, StaticAcquirer{}, logging.Discard())

	res, err := service.TopUp(ctx, TopUpInput{Holder: "acc1", Amount: d("10"), CardNumber: card, ClientTxID: "dup"})
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if !res.Balance.Equal(d("10")) || res.AcquirerReference == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := service.TopUp(ctx, TopUpInput{Holder: "acc1", Amount: d("10"), CardNumber: card, ClientTxID: "dup"}); !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	bal, _ := l.Balance(ctx, ledger.UserAccount("acc1"))
	if !bal.Equal(d("10")) {
		t.Fatalf("duplicate top-up minted again: %s", bal)
	}
}

func TestServiceTopUpValidation(t *testing.T) {
	ctx := context.Background()
	service := NewService(ledger.NewInMemory(), nil, logging.Discard())

	cases := []struct {
		name string
		in   TopUpInput
		want error
	}{
		{"no holder", TopUpInput{Amount: d("1"), CardNumber: card}, ErrNoHolder},
		{"zero amount", TopUpInput{Holder: "acc1", CardNumber: card}, ErrInvalidAmount},
		{"short card", TopUpInput{Holder: "acc1", Amount: d("1"), CardNumber: "4111"}, ErrInvalidCard},
		{"letters in card", TopUpInput{Holder: "acc1", Amount: d("1"), CardNumber: "4111abcd11111111"}, ErrInvalidCard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.TopUp(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestServiceTopUpDeclined(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemory()
	service := NewService(l, decliningAcquirer{}, logging.Discard())

	if _, err := service.TopUp(ctx, TopUpInput{Holder: "acc1", Amount: d("5"), CardNumber: card}); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	if bal, _ := l.Balance(ctx, ledger.UserAccount("acc1")); !bal.IsZero() {
		t.Fatalf("declined top-up minted %s", bal)
	}
}

func TestServicePayout(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemory()
	service := NewService(l, StaticAcquirer{}, logging.Discard())

	if _, err := service.Payout(ctx, PayoutInput{Holder: "acc1", Amount: d("1"), CardNumber: card}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds for unknown holder, got %v", err)
	}
	if _, err := service.TopUp(ctx, TopUpInput{Holder: "acc1", Amount: d("3"), CardNumber: card}); err != nil {
		t.Fatalf("top up: %v", err)
	}
	if _, err := service.Payout(ctx, PayoutInput{Holder: "acc1", Amount: d("4"), CardNumber: card}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	res, err := service.Payout(ctx, PayoutInput{Holder: "acc1", Amount: d("2.5"), CardNumber: card})
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	if !res.Balance.Equal(d("0.5")) {
		t.Fatalf("expected 0.5 left, got %s", res.Balance)
	}
	supply, _ := l.Balance(ctx, ledger.IssuanceAccountCode)
	if !supply.Equal(d("-0.5")) {
		t.Fatalf("payout should burn, issuance at %s", supply)
	}
}
