package appledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/access"
	"github.com/apicoin/apicoin/internal/events"
	"github.com/apicoin/apicoin/internal/resource"
)

// ChargeResult reports what a Charge did. Burned and Refunded are non-zero only
// when the charge liquidated an account with a pending withdrawal.
type ChargeResult struct {
	Charged  decimal.Decimal `json:"charged"`
	Burned   decimal.Decimal `json:"burned"`
	Refunded decimal.Decimal `json:"refunded"`
}

// Drop is one airdrop credit.
type Drop struct {
	User   string          `json:"user"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Deposit credits user with amount. Only the platform token may call it.
func (l *Ledger) Deposit(ctx context.Context, caller, user string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActDeposit, caller); err != nil {
			return nil, err
		}
		acct := l.account(user)
		acct.Balance = acct.Balance.Add(amount)
		l.accounts[user] = acct
		l.supply = l.supply.Add(amount)
		l.commit(ctx)
		return []events.Event{l.event(events.KindDeposit, user, amount, l.now())}, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// Charge deducts amount from user, airdrop balance first, and burns it. When a
// withdrawal is pending the charge is applied only if the balance covers it;
// either way the remaining balance is then burned and its deposited part
// refunded to user.
func (l *Ledger) Charge(ctx context.Context, caller, user string, amount decimal.Decimal, memo string) (ChargeResult, error) {
	if amount.IsNegative() {
		return ChargeResult{}, ErrInvalidAmount
	}
	var res ChargeResult
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActCharge, caller); err != nil {
			return nil, err
		}
		now := l.now()
		acct := l.account(user)
		pending := acct.WithdrawPending()

		charged := amount
		if pending {
			if amount.GreaterThan(acct.Balance) {
				charged = decimal.Zero
			}
		} else if amount.GreaterThan(acct.Balance) {
			return nil, fmt.Errorf("charge %s of %s: %w", amount, acct.Balance, ErrInsufficientBalance)
		}
		fromAirdrop := acct.debit(charged)

		var burned, refunded decimal.Decimal
		if pending {
			burned, refunded = acct.drain()
			if refunded.IsPositive() {
				if err := l.treasury.Refund(ctx, l.handle, user, refunded); err != nil {
					return nil, fmt.Errorf("refund %s to %s: %w", refunded, user, err)
				}
			}
		}

		l.accounts[user] = acct
		l.supply = l.supply.Sub(charged).Sub(burned)
		if charged.IsPositive() {
			l.spend.Record(user, charged)
		}
		l.commit(ctx)
		res = ChargeResult{Charged: charged, Burned: burned, Refunded: refunded}

		var evs []events.Event
		if charged.IsPositive() {
			e := l.event(events.KindCharge, user, charged, now)
			e.Memo = memo
			evs = append(evs, e)
			if fromAirdrop.IsPositive() {
				evs = append(evs, l.event(events.KindSpend, user, fromAirdrop, now))
			}
			evs = append(evs, l.event(events.KindBurn, user, charged.Sub(fromAirdrop), now))
		}
		if pending {
			evs = append(evs, l.event(events.KindBurn, user, burned, now))
			if refunded.IsPositive() {
				evs = append(evs, l.event(events.KindRefund, user, refunded, now))
			}
		}
		return evs, nil
	}()
	if err != nil {
		return ChargeResult{}, err
	}
	l.emit(ctx, evs)
	return res, nil
}

// Freeze sets or clears the admin freeze on user.
func (l *Ledger) Freeze(ctx context.Context, caller, user string, frozen bool) error {
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActFreeze, caller); err != nil {
			return nil, err
		}
		acct := l.account(user)
		acct.AdminFrozen = frozen
		l.accounts[user] = acct
		l.commit(ctx)
		e := l.event(events.KindAdminFreeze, user, decimal.Zero, l.now())
		e.Attrs = map[string]string{"frozen": strconv.FormatBool(frozen)}
		return []events.Event{e}, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// WithdrawRequest starts the withdrawal timer for caller, replacing any pending request.
func (l *Ledger) WithdrawRequest(ctx context.Context, caller string) error {
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		acct := l.account(caller)
		if acct.AdminFrozen {
			return nil, ErrAccountFrozen
		}
		now := l.now()
		acct.WithdrawRequestedAt = &now
		l.accounts[caller] = acct
		l.commit(ctx)
		return []events.Event{l.event(events.KindFrozen, caller, acct.Balance, now)}, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// ForceWithdraw completes caller's pending withdrawal once the delay has passed.
// The whole balance is burned but only its deposited part, Balance minus
// AirdropBalance, is refunded in platform tokens and returned. Airdropped
// value is burned without a refund.
func (l *Ledger) ForceWithdraw(ctx context.Context, caller string) (decimal.Decimal, error) {
	var refunded decimal.Decimal
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		acct := l.account(caller)
		if acct.AdminFrozen {
			return nil, ErrAdminFrozen
		}
		if !acct.WithdrawPending() {
			return nil, ErrWithdrawNotRequested
		}
		now := l.now()
		if now.Sub(*acct.WithdrawRequestedAt) < l.delay {
			return nil, ErrWaitPeriodNotElapsed
		}

		var burned decimal.Decimal
		burned, refunded = acct.drain()
		if refunded.IsPositive() {
			if err := l.treasury.Refund(ctx, l.handle, caller, refunded); err != nil {
				return nil, fmt.Errorf("refund %s to %s: %w", refunded, caller, err)
			}
		}
		l.accounts[caller] = acct
		l.supply = l.supply.Sub(burned)
		l.commit(ctx)

		evs := []events.Event{l.event(events.KindBurn, caller, burned, now)}
		if refunded.IsPositive() {
			evs = append(evs, l.event(events.KindRefund, caller, refunded, now))
		}
		return append(evs, l.event(events.KindWithdrawn, caller, refunded, now)), nil
	}()
	if err != nil {
		return decimal.Zero, err
	}
	l.emit(ctx, evs)
	return refunded, nil
}

// SetWithdrawDelay changes the wait between a withdrawal request and its execution.
func (l *Ledger) SetWithdrawDelay(ctx context.Context, caller string, delay time.Duration) error {
	if delay < 0 {
		return ErrInvalidDelay
	}
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActSetWithdrawDelay, caller); err != nil {
			return nil, err
		}
		l.delay = delay
		l.commit(ctx)
		e := l.event(events.KindDelayChanged, "", decimal.Zero, l.now())
		e.Attrs = map[string]string{"delay": delay.String()}
		return []events.Event{e}, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// TransferAppOwnership hands the app owner role to newOwner.
func (l *Ledger) TransferAppOwnership(ctx context.Context, caller, newOwner string) error {
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActTransferOwnership, caller); err != nil {
			return nil, err
		}
		previous := l.roles.Holder(access.RoleAppOwner)
		if err := l.roles.Grant(access.RoleAppOwner, newOwner); err != nil {
			return nil, err
		}
		l.commit(ctx)
		e := l.event(events.KindOwnershipTransfer, newOwner, decimal.Zero, l.now())
		e.Attrs = map[string]string{"previous": previous}
		return []events.Event{e}, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// Airdrop credits promotional balance to one user.
func (l *Ledger) Airdrop(ctx context.Context, caller, user string, amount decimal.Decimal, reason string) error {
	return l.AirdropBatch(ctx, caller, []Drop{{User: user, Amount: amount, Reason: reason}})
}

// AirdropBatch credits every drop or none of them.
func (l *Ledger) AirdropBatch(ctx context.Context, caller string, drops []Drop) error {
	for i, d := range drops {
		if !d.Amount.IsPositive() {
			return fmt.Errorf("drop %d: %w", i, ErrInvalidAmount)
		}
	}
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActAirdrop, caller); err != nil {
			return nil, err
		}
		if len(drops) == 0 {
			return nil, nil
		}
		now := l.now()
		evs := make([]events.Event, 0, len(drops))
		for _, d := range drops {
			acct := l.account(d.User)
			acct.Balance = acct.Balance.Add(d.Amount)
			acct.AirdropBalance = acct.AirdropBalance.Add(d.Amount)
			l.accounts[d.User] = acct
			l.supply = l.supply.Add(d.Amount)
			e := l.event(events.KindDrop, d.User, d.Amount, now)
			e.Memo = d.Reason
			evs = append(evs, e)
		}
		l.commit(ctx)
		return evs, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

// ConfigureResource applies a single resource operation.
func (l *Ledger) ConfigureResource(ctx context.Context, caller string, op resource.Op) error {
	return l.configure(ctx, caller, []resource.Op{op}, func(r *resource.Registry) error { return r.Apply(op) })
}

// ConfigureResourceBatch applies ops in order; any failure leaves the
// configuration untouched.
func (l *Ledger) ConfigureResourceBatch(ctx context.Context, caller string, ops []resource.Op) error {
	return l.configure(ctx, caller, ops, func(r *resource.Registry) error { return r.ApplyBatch(ops) })
}

func (l *Ledger) configure(ctx context.Context, caller string, ops []resource.Op, apply func(*resource.Registry) error) error {
	evs, err := func() ([]events.Event, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.roles.Check(access.ActConfigureResource, caller); err != nil {
			return nil, err
		}
		if err := apply(l.resources); err != nil {
			return nil, err
		}
		l.commit(ctx)
		now := l.now()
		evs := make([]events.Event, 0, len(ops))
		for _, op := range ops {
			e := l.event(events.KindResourceChanged, "", decimal.Zero, now)
			e.Attrs = map[string]string{
				"op":     op.Kind.String(),
				"id":     strconv.FormatUint(op.ID, 10),
				"key":    op.Key,
				"weight": strconv.FormatUint(op.Weight, 10),
			}
			evs = append(evs, e)
		}
		return evs, nil
	}()
	if err != nil {
		return err
	}
	l.emit(ctx, evs)
	return nil
}

func (l *Ledger) event(kind events.Kind, user string, amount decimal.Decimal, at time.Time) events.Event {
	return events.New(kind, l.handle, user, amount, at)
}
