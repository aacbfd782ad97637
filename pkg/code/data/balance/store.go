package balance

import (
	"context"
)

type Store interface {
	// Save creates or overwrites the native balance for an owner
	Save(ctx context.Context, record *Record) error

	// Get gets the native balance for an owner. ErrNotFound is returned if
	// the owner has never been funded.
	Get(ctx context.Context, owner string) (*Record, error)
}
