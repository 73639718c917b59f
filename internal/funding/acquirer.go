package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Acquirer is the connector to the card processor that moves real money in
// and out of the platform.
type Acquirer interface {
	AuthorizeTopUp(ctx context.Context, input TopUpAuthorization) (AuthorizationDecision, error)
	AuthorizePayout(ctx context.Context, input PayoutAuthorization) (AuthorizationDecision, error)
}

// AuthorizationDecision is the processor's answer to one authorization.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// TopUpAuthorization asks the processor to charge a card for platform tokens.
type TopUpAuthorization struct {
	Holder     string
	CardNumber string
	Expiry     string
	CVV        string
	Amount     decimal.Decimal
}

// PayoutAuthorization asks the processor to push a holder's tokens to a card.
type PayoutAuthorization struct {
	Holder     string
	CardNumber string
	Amount     decimal.Decimal
}

// StaticAcquirer approves everything. Development and tests only.
type StaticAcquirer struct{}

func (StaticAcquirer) AuthorizeTopUp(_ context.Context, _ TopUpAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: StatusApproved}, nil
}

func (StaticAcquirer) AuthorizePayout(_ context.Context, _ PayoutAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: StatusApproved}, nil
}
