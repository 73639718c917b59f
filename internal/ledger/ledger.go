package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/apperr"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = apperr.New(apperr.KindInsufficientBalance, "insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = apperr.New(apperr.KindInvalidState, "duplicate transaction")

	// ErrInvalidAmount is returned for zero or negative postings.
	ErrInvalidAmount = apperr.New(apperr.KindInvalidInput, "amount must be positive")

	// ErrAccountNotFound is returned when a posting names an account that was never ensured.
	ErrAccountNotFound = apperr.New(apperr.KindNotFound, "ledger account not found")
)

const (
	// IssuanceAccountCode is the counterpart of every mint and burn. Its balance
	// is the negated circulating supply.
	IssuanceAccountCode = "platform:issuance"

	KindMint     = "mint"
	KindBurn     = "burn"
	KindDeposit  = "deposit"
	KindRefund   = "refund"
	KindRevert   = "revert"
	KindTransfer = "transfer"
)

// UserAccount returns the ledger code holding a user's platform tokens.
func UserAccount(id string) string { return "user:" + id }

// AppAccount returns the ledger code holding the platform tokens backing an app.
func AppAccount(handle string) string { return "app:" + handle }

// TransactionResult captures the outcome of a ledger posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   decimal.Decimal
	ToBalance     decimal.Decimal
}

// Ledger defines the contract implemented by platform token backends. Every
// posting is double entry; Mint and Burn post against IssuanceAccountCode.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (decimal.Decimal, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount decimal.Decimal) (TransactionResult, error)
	Mint(ctx context.Context, toCode, clientTxID string, amount decimal.Decimal) (TransactionResult, error)
	Burn(ctx context.Context, fromCode, clientTxID string, amount decimal.Decimal) (TransactionResult, error)
}
