package presale_program

// PresaleError is a custom error code returned by the presale program
type PresaleError uint32

const (
	// Presale is not active
	ErrPresaleInactive PresaleError = iota + 0x1770

	// Purchase exceeds remaining allocation
	ErrExceedsAllocation

	// Tokens are still locked
	ErrTokensStillLocked

	// Tokens have already been claimed
	ErrAlreadyClaimed

	// Calculation error occurred
	ErrCalculationError
)

func (e PresaleError) Name() string {
	switch e {
	case ErrPresaleInactive:
		return "PresaleInactive"
	case ErrExceedsAllocation:
		return "ExceedsAllocation"
	case ErrTokensStillLocked:
		return "TokensStillLocked"
	case ErrAlreadyClaimed:
		return "AlreadyClaimed"
	case ErrCalculationError:
		return "CalculationError"
	}
	return "Unknown"
}

func (e PresaleError) Error() string {
	switch e {
	case ErrPresaleInactive:
		return "presale is not active"
	case ErrExceedsAllocation:
		return "purchase exceeds remaining allocation"
	case ErrTokensStillLocked:
		return "tokens are still locked"
	case ErrAlreadyClaimed:
		return "tokens have already been claimed"
	case ErrCalculationError:
		return "calculation error occurred"
	}
	return "unknown presale error"
}
