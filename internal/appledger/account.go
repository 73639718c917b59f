package appledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one user's position inside an app. AirdropBalance is the
// promotional part of Balance and never exceeds it.
type Account struct {
	User                string          `json:"user"`
	Balance             decimal.Decimal `json:"balance"`
	AirdropBalance      decimal.Decimal `json:"airdrop_balance"`
	AdminFrozen         bool            `json:"admin_frozen"`
	WithdrawRequestedAt *time.Time      `json:"withdraw_requested_at,omitempty"`
}

// Deposited is the part of the balance backed by underlying platform tokens.
func (a Account) Deposited() decimal.Decimal {
	return a.Balance.Sub(a.AirdropBalance)
}

// WithdrawPending reports whether a withdrawal request is waiting.
func (a Account) WithdrawPending() bool {
	return a.WithdrawRequestedAt != nil
}

// debit removes amount from the account, airdrop first, and returns how much
// came out of the airdrop part. Callers ensure amount <= Balance.
func (a *Account) debit(amount decimal.Decimal) decimal.Decimal {
	fromAirdrop := decimal.Min(amount, a.AirdropBalance)
	a.AirdropBalance = a.AirdropBalance.Sub(fromAirdrop)
	a.Balance = a.Balance.Sub(amount)
	return fromAirdrop
}

// drain zeroes the account and returns the burned total and its refundable part.
func (a *Account) drain() (burned, refundable decimal.Decimal) {
	burned, refundable = a.Balance, a.Deposited()
	a.Balance = decimal.Zero
	a.AirdropBalance = decimal.Zero
	a.WithdrawRequestedAt = nil
	return burned, refundable
}
