// Package access holds the role table an app ledger consults before every
// mutating operation.
package access

import (
	"fmt"

	"github.com/apicoin/apicoin/internal/apperr"
)

var (
	ErrNotPermitted     = apperr.New(apperr.KindAccessDenied, "Not permitted")
	ErrNotAppOwner      = apperr.New(apperr.KindAccessDenied, "not app owner")
	ErrNotPlatform      = apperr.New(apperr.KindAccessDenied, "caller is not the platform token")
	ErrNotContractOwner = apperr.New(apperr.KindAccessDenied, "caller is not the contract owner")
	ErrEmptyIdentity    = apperr.New(apperr.KindInvalidInput, "identity must not be empty")
)

// Role names a capability holder.
type Role int

const (
	RolePlatform Role = iota
	RoleAppOwner
	RoleContractOwner
)

func (r Role) String() string {
	switch r {
	case RolePlatform:
		return "platform"
	case RoleAppOwner:
		return "app_owner"
	case RoleContractOwner:
		return "contract_owner"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Action is a guarded operation.
type Action int

const (
	ActDeposit Action = iota
	ActCharge
	ActFreeze
	ActConfigureResource
	ActAirdrop
	ActSetWithdrawDelay
	ActTransferOwnership
)

type rule struct {
	role Role
	deny error
}

var rules = map[Action]rule{
	ActDeposit:           {RolePlatform, ErrNotPlatform},
	ActCharge:            {RoleAppOwner, ErrNotPermitted},
	ActFreeze:            {RoleAppOwner, ErrNotPermitted},
	ActConfigureResource: {RoleAppOwner, ErrNotAppOwner},
	ActAirdrop:           {RoleAppOwner, ErrNotAppOwner},
	ActSetWithdrawDelay:  {RoleAppOwner, ErrNotAppOwner},
	ActTransferOwnership: {RoleContractOwner, ErrNotContractOwner},
}

// Roles maps each role to the single identity holding it. The zero value
// grants nothing. Not safe for concurrent use.
type Roles struct {
	holders map[Role]string
}

// NewRoles builds a role table for an app.
func NewRoles(platform, appOwner, contractOwner string) Roles {
	return Roles{holders: map[Role]string{
		RolePlatform:      platform,
		RoleAppOwner:      appOwner,
		RoleContractOwner: contractOwner,
	}}
}

// Check returns nil when caller may perform action, otherwise the
// action-specific access error.
func (r Roles) Check(action Action, caller string) error {
	rl, ok := rules[action]
	if !ok {
		return ErrNotPermitted
	}
	holder := r.holders[rl.role]
	if caller == "" || holder == "" || caller != holder {
		return rl.deny
	}
	return nil
}

// Holder returns the identity currently holding role.
func (r Roles) Holder(role Role) string {
	return r.holders[role]
}

// Grant assigns role to identity, replacing the previous holder.
func (r *Roles) Grant(role Role, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	if r.holders == nil {
		r.holders = make(map[Role]string)
	}
	r.holders[role] = identity
	return nil
}
