// Package platform is the platform token side of the system. It moves holder
// tokens into apps and pays them back to users on exit.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/ledger"
)

var ErrInvalidAmount = apperr.New(apperr.KindInvalidInput, "amount must be positive")

// Depositor is the app side of a deposit.
type Depositor interface {
	Handle() string
	Deposit(ctx context.Context, caller, user string, amount decimal.Decimal) error
}

// DepositResult describes a completed deposit.
type DepositResult struct {
	App           string          `json:"app"`
	Payer         string          `json:"payer"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	PayerBalance  decimal.Decimal `json:"payer_balance"`
	AppBacking    decimal.Decimal `json:"app_backing"`
}

// Token moves platform tokens between holders and app accounts and pays them
// back out. Its identity is the only caller an app ledger accepts deposits from.
type Token struct {
	identity string
	ledger   ledger.Ledger
	paid     PaidIndex
	logger   *slog.Logger
}

// NewToken builds the platform token service.
func NewToken(identity string, l ledger.Ledger, paid PaidIndex, logger *slog.Logger) *Token {
	return &Token{identity: identity, ledger: l, paid: paid, logger: logger}
}

// Identity is the caller identity the token presents to app ledgers.
func (t *Token) Identity() string { return t.identity }

// DepositToApp moves amount of payer's platform tokens into the app's backing
// account, credits payer inside the app and records the app in payer's paid
// index. Payers without enough tokens get ledger.ErrInsufficientFunds. A
// rejected app deposit moves the tokens back.
func (t *Token) DepositToApp(ctx context.Context, payer string, app Depositor, amount decimal.Decimal, clientTxID string) (DepositResult, error) {
	if !amount.IsPositive() {
		return DepositResult{}, ErrInvalidAmount
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	from, to := ledger.UserAccount(payer), ledger.AppAccount(app.Handle())
	for _, code := range []string{from, to} {
		if err := t.ledger.EnsureAccount(ctx, code); err != nil {
			return DepositResult{}, fmt.Errorf("ensure account %s: %w", code, err)
		}
	}
	moved, err := t.ledger.Transfer(ctx, from, to, ledger.KindDeposit, clientTxID, amount)
	if err != nil {
		return DepositResult{}, fmt.Errorf("deposit from %s: %w", payer, err)
	}
	if err := app.Deposit(ctx, t.identity, payer, amount); err != nil {
		if _, revertErr := t.ledger.Transfer(ctx, to, from, ledger.KindRevert, clientTxID, amount); revertErr != nil {
			t.logger.Error("revert deposit", slog.String("app", app.Handle()), slog.String("tx", moved.TransactionID), slog.Any("error", revertErr))
			return DepositResult{}, errors.Join(err, revertErr)
		}
		return DepositResult{}, err
	}
	if err := t.paid.Record(ctx, payer, app.Handle()); err != nil {
		// The deposit itself stands; only the index is behind.
		t.logger.Warn("record paid app", slog.String("payer", payer), slog.String("app", app.Handle()), slog.Any("error", err))
	}
	return DepositResult{
		App:           app.Handle(),
		Payer:         payer,
		Amount:        amount,
		TransactionID: moved.TransactionID,
		PayerBalance:  moved.FromBalance,
		AppBacking:    moved.ToBalance,
	}, nil
}

// Refund moves amount of platform token from the app's backing account to user.
func (t *Token) Refund(ctx context.Context, app, user string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	to := ledger.UserAccount(user)
	if err := t.ledger.EnsureAccount(ctx, to); err != nil {
		return fmt.Errorf("ensure user account: %w", err)
	}
	if _, err := t.ledger.Transfer(ctx, ledger.AppAccount(app), to, ledger.KindRefund, uuid.NewString(), amount); err != nil {
		return fmt.Errorf("refund from %s: %w", app, err)
	}
	return nil
}

// ListPaidApps pages through the apps payer has deposited into.
func (t *Token) ListPaidApps(ctx context.Context, payer string, offset, limit int) ([]string, int, error) {
	return t.paid.List(ctx, payer, offset, limit)
}

// BalanceOf returns the platform token balance held by a user.
func (t *Token) BalanceOf(ctx context.Context, holder string) (decimal.Decimal, error) {
	bal, err := t.ledger.Balance(ctx, ledger.UserAccount(holder))
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	return bal, err
}

// AppBacking returns the platform tokens held by an app.
func (t *Token) AppBacking(ctx context.Context, app string) (decimal.Decimal, error) {
	bal, err := t.ledger.Balance(ctx, ledger.AppAccount(app))
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	return bal, err
}
