package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]decimal.Decimal
	transactions map[string]TransactionResult
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests
// and development runs without Postgres.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:     map[string]decimal.Decimal{IssuanceAccountCode: decimal.Zero},
		transactions: make(map[string]TransactionResult),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = decimal.Zero
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return decimal.Zero, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amount decimal.Decimal) (TransactionResult, error) {
	return l.post(fromCode, toCode, kind, clientTxID, amount, true)
}

func (l *inMemoryLedger) Mint(_ context.Context, toCode, clientTxID string, amount decimal.Decimal) (TransactionResult, error) {
	return l.post(IssuanceAccountCode, toCode, KindMint, clientTxID, amount, false)
}

func (l *inMemoryLedger) Burn(_ context.Context, fromCode, clientTxID string, amount decimal.Decimal) (TransactionResult, error) {
	return l.post(fromCode, IssuanceAccountCode, KindBurn, clientTxID, amount, true)
}

func (l *inMemoryLedger) post(fromCode, toCode, kind, clientTxID string, amount decimal.Decimal, checkFunds bool) (TransactionResult, error) {
	if !amount.IsPositive() {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := kind + ":" + clientTxID
	if res, exists := l.transactions[key]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[fromCode]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[toCode]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	if checkFunds && fromBalance.LessThan(amount) {
		return TransactionResult{}, ErrInsufficientFunds
	}

	fromBalance = fromBalance.Sub(amount)
	toBalance = toBalance.Add(amount)
	l.balances[fromCode] = fromBalance
	l.balances[toCode] = toBalance

	res := TransactionResult{
		TransactionID: key,
		FromBalance:   fromBalance,
		ToBalance:     toBalance,
	}
	l.transactions[key] = res
	return res, nil
}
