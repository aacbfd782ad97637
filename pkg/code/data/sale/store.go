package sale

import (
	"context"
)

type Store interface {
	// Put creates a new sale. ErrAlreadyExists is returned if a sale already
	// exists at the address, or for the mint.
	Put(ctx context.Context, record *Record) error

	// Update updates the mutable state of a sale: units sold and whether the
	// sale is active. ErrNotFound is returned if the sale doesn't exist.
	Update(ctx context.Context, record *Record) error

	// GetByAddress gets a sale by its address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetByMint gets the sale for a mint
	GetByMint(ctx context.Context, mint string) (*Record, error)
}
