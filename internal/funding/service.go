// Package funding moves external value into and out of the platform token.
// A top-up mints tokens into the holder's account once the card processor
// approves; a payout burns them after the processor accepts the push.
package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/ledger"
)

const StatusApproved = "approved"

var (
	ErrInvalidAmount = apperr.New(apperr.KindInvalidInput, "amount must be positive")
	ErrInvalidCard   = apperr.New(apperr.KindInvalidInput, "card number must be 12 to 19 digits")
	ErrDeclined      = apperr.New(apperr.KindInvalidState, "authorization declined")
	ErrNoHolder      = apperr.New(apperr.KindInvalidInput, "holder is required")
)

// Service coordinates card top-ups and payouts against the platform ledger.
type Service struct {
	ledger   ledger.Ledger
	acquirer Acquirer
	logger   *slog.Logger
}

// NewService builds a funding service. A nil acquirer approves everything.
func NewService(l ledger.Ledger, acquirer Acquirer, logger *slog.Logger) *Service {
	if acquirer == nil {
		acquirer = StaticAcquirer{}
	}
	return &Service{ledger: l, acquirer: acquirer, logger: logger}
}

// TopUpInput is a request to buy platform tokens with a card.
type TopUpInput struct {
	Holder     string
	Amount     decimal.Decimal
	ClientTxID string
	CardNumber string
	Expiry     string
	CVV        string
}

// PayoutInput is a request to cash platform tokens out to a card.
type PayoutInput struct {
	Holder     string
	Amount     decimal.Decimal
	ClientTxID string
	CardNumber string
}

// Result is the outcome of a top-up or payout.
type Result struct {
	TransactionID     string          `json:"transaction_id"`
	Holder            string          `json:"holder"`
	Amount            decimal.Decimal `json:"amount"`
	Balance           decimal.Decimal `json:"balance"`
	AcquirerReference string          `json:"acquirer_reference"`
	CompletedAt       time.Time       `json:"completed_at"`
}

// TopUp authorizes the card and mints amount into the holder's account. A
// repeated ClientTxID returns the first result with ErrDuplicateTransaction.
func (s *Service) TopUp(ctx context.Context, in TopUpInput) (Result, error) {
	if err := s.validate(in.Holder, in.Amount, in.CardNumber); err != nil {
		return Result{}, err
	}
	if in.ClientTxID == "" {
		in.ClientTxID = uuid.NewString()
	}
	account := ledger.UserAccount(in.Holder)
	if err := s.ledger.EnsureAccount(ctx, account); err != nil {
		return Result{}, fmt.Errorf("ensure holder account: %w", err)
	}

	decision, err := s.acquirer.AuthorizeTopUp(ctx, TopUpAuthorization{
		Holder:     in.Holder,
		CardNumber: in.CardNumber,
		Expiry:     in.Expiry,
		CVV:        in.CVV,
		Amount:     in.Amount,
	})
	if err != nil {
		return Result{}, fmt.Errorf("authorize top-up: %w", err)
	}
	if decision.Status != StatusApproved {
		return Result{}, fmt.Errorf("top-up %s: %w", decision.Status, ErrDeclined)
	}

	posted, err := s.ledger.Mint(ctx, account, "topup:"+in.ClientTxID, in.Amount)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		s.logger.Error("top-up authorized but not posted",
			slog.String("holder", in.Holder),
			slog.String("reference", decision.Reference),
			slog.Any("error", err))
		return Result{}, err
	}
	return s.result(in.Holder, in.Amount, posted.TransactionID, posted.ToBalance, decision.Reference), err
}

// Payout burns amount from the holder's account and pushes it to the card.
// It fails with ledger.ErrInsufficientFunds when the holder cannot cover it.
func (s *Service) Payout(ctx context.Context, in PayoutInput) (Result, error) {
	if err := s.validate(in.Holder, in.Amount, in.CardNumber); err != nil {
		return Result{}, err
	}
	if in.ClientTxID == "" {
		in.ClientTxID = uuid.NewString()
	}
	account := ledger.UserAccount(in.Holder)
	bal, err := s.ledger.Balance(ctx, account)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return Result{}, fmt.Errorf("payout of %s: %w", in.Amount, ledger.ErrInsufficientFunds)
	}
	if err != nil {
		return Result{}, err
	}
	if bal.LessThan(in.Amount) {
		return Result{}, fmt.Errorf("payout %s of %s: %w", in.Amount, bal, ledger.ErrInsufficientFunds)
	}

	decision, err := s.acquirer.AuthorizePayout(ctx, PayoutAuthorization{
		Holder:     in.Holder,
		CardNumber: in.CardNumber,
		Amount:     in.Amount,
	})
	if err != nil {
		return Result{}, fmt.Errorf("authorize payout: %w", err)
	}
	if decision.Status != StatusApproved {
		return Result{}, fmt.Errorf("payout %s: %w", decision.Status, ErrDeclined)
	}

	posted, err := s.ledger.Burn(ctx, account, "payout:"+in.ClientTxID, in.Amount)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		s.logger.Error("payout authorized but not posted",
			slog.String("holder", in.Holder),
			slog.String("reference", decision.Reference),
			slog.Any("error", err))
		return Result{}, err
	}
	return s.result(in.Holder, in.Amount, posted.TransactionID, posted.FromBalance, decision.Reference), err
}

func (s *Service) validate(holder string, amount decimal.Decimal, card string) error {
	if holder == "" {
		return ErrNoHolder
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return validateCardNumber(card)
}

func (s *Service) result(holder string, amount decimal.Decimal, txID string, balance decimal.Decimal, ref string) Result {
	return Result{
		TransactionID:     txID,
		Holder:            holder,
		Amount:            amount,
		Balance:           balance,
		AcquirerReference: ref,
		CompletedAt:       time.Now().UTC(),
	}
}

func validateCardNumber(card string) error {
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return ErrInvalidCard
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ErrInvalidCard
		}
	}
	return nil
}
