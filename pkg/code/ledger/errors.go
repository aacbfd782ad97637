package ledger

import (
	"github.com/pkg/errors"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNotWritable   = errors.New("account not declared writable by transaction")
	ErrMintMismatch         = errors.New("token account mint mismatch")
	ErrOwnerMismatch        = errors.New("token account owner mismatch")
	ErrUnauthorized         = errors.New("transfer not authorized by account owner")
	ErrBalanceOverflow      = errors.New("balance overflow")
)
