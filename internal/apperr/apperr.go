package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure so callers can decide whether a retry makes sense.
type Kind int

const (
	KindInternal Kind = iota
	// KindAccessDenied means the caller lacks the role the operation requires.
	KindAccessDenied
	// KindInvalidState means the account's lifecycle phase forbids the operation.
	KindInvalidState
	// KindDataIntegrity means an id/key pair disagrees with stored registry state.
	KindDataIntegrity
	// KindInsufficientBalance means the account cannot cover the requested amount.
	KindInsufficientBalance
	KindInvalidInput
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAccessDenied:
		return "access_denied"
	case KindInvalidState:
		return "invalid_state"
	case KindDataIntegrity:
		return "data_integrity"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a categorised sentinel. Packages declare their failures with New and
// compare them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

// New declares a sentinel error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

// KindOf returns the category of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error category onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAccessDenied:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusConflict
	case KindDataIntegrity:
		return http.StatusUnprocessableEntity
	case KindInsufficientBalance:
		return http.StatusPaymentRequired
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
