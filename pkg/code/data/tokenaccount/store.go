package tokenaccount

import (
	"context"
)

type Store interface {
	// Put creates a token account. ErrAlreadyExists is returned if one exists
	// at the address.
	Put(ctx context.Context, record *Record) error

	// UpdateBalance sets the balance of an existing token account
	UpdateBalance(ctx context.Context, address string, balance uint64) error

	// GetByAddress gets a token account by its address
	GetByAddress(ctx context.Context, address string) (*Record, error)
}
