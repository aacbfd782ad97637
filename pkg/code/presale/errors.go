package presale

import (
	"fmt"

	"github.com/pkg/errors"

	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

// Kind classifies why an operation was rejected. Every kind aborts the whole
// operation and leaves state untouched.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPreconditionViolation
	KindArithmeticOverflow
	KindAddressDerivationFailure
)

func (k Kind) String() string {
	switch k {
	case KindPreconditionViolation:
		return "precondition_violation"
	case KindArithmeticOverflow:
		return "arithmetic_overflow"
	case KindAddressDerivationFailure:
		return "address_derivation_failure"
	}
	return "unknown"
}

var (
	ErrPresaleInactive   = newProgramError(KindPreconditionViolation, presale_program.ErrPresaleInactive)
	ErrExceedsAllocation = newProgramError(KindPreconditionViolation, presale_program.ErrExceedsAllocation)
	ErrTokensStillLocked = newProgramError(KindPreconditionViolation, presale_program.ErrTokensStillLocked)
	ErrAlreadyClaimed    = newProgramError(KindPreconditionViolation, presale_program.ErrAlreadyClaimed)
	ErrCalculationError  = newProgramError(KindArithmeticOverflow, presale_program.ErrCalculationError)

	ErrAlreadyInitialized = newError(KindPreconditionViolation, "sale already initialized")
	ErrUnauthorized       = newError(KindPreconditionViolation, "caller is not the sale authority")
	ErrInvalidAmount      = newError(KindPreconditionViolation, "amount must be positive")
	ErrInsufficientFunds  = newError(KindPreconditionViolation, "insufficient funds")
	ErrSaleNotFound       = newError(KindPreconditionViolation, "sale not found")
	ErrPositionNotFound   = newError(KindPreconditionViolation, "position not found")

	ErrAddressDerivation = newError(KindAddressDerivationFailure, "custody address derivation failed")
)

// Error is a rejection surfaced to callers of the engine
type Error struct {
	kind    Kind
	code    presale_program.PresaleError
	hasCode bool
	message string
}

func newError(kind Kind, message string) *Error {
	return &Error{
		kind:    kind,
		message: message,
	}
}

func newProgramError(kind Kind, code presale_program.PresaleError) *Error {
	return &Error{
		kind:    kind,
		code:    code,
		hasCode: true,
		message: code.Error(),
	}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Kind() Kind {
	return e.kind
}

// ProgramCode returns the deployed program's custom error code, if the error
// has one
func (e *Error) ProgramCode() (presale_program.PresaleError, bool) {
	return e.code, e.hasCode
}

// Name is a stable identifier suitable for API responses
func (e *Error) Name() string {
	if e.hasCode {
		return e.code.Name()
	}

	switch e {
	case ErrAlreadyInitialized:
		return "AlreadyInitialized"
	case ErrUnauthorized:
		return "Unauthorized"
	case ErrInvalidAmount:
		return "InvalidAmount"
	case ErrInsufficientFunds:
		return "InsufficientFunds"
	case ErrSaleNotFound:
		return "SaleNotFound"
	case ErrPositionNotFound:
		return "PositionNotFound"
	case ErrAddressDerivation:
		return "AddressDerivationFailed"
	}
	return "Unknown"
}

// AsError extracts the engine error from err's chain
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf classifies err. Errors not raised by the engine are KindUnknown.
func KindOf(err error) Kind {
	if target, ok := AsError(err); ok {
		return target.kind
	}
	return KindUnknown
}

func newAddressDerivationError(err error, format string, args ...any) error {
	return errors.Wrapf(ErrAddressDerivation, "%s: %v", fmt.Sprintf(format, args...), err)
}
