package position

import (
	"context"

	"github.com/code-payments/presale-server/pkg/database/query"
)

type Store interface {
	// Put creates a new position. ErrAlreadyExists is returned if one exists
	// at the address.
	Put(ctx context.Context, record *Record) error

	// Update updates the amount and claimed flag of a position. The unlock time
	// is never modified. ErrClaimedIsTerminal is returned if the position is
	// already claimed and the update would reopen it.
	Update(ctx context.Context, record *Record) error

	// GetByAddress gets a position by its address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllBySale gets a page of positions for a sale
	GetAllBySale(ctx context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)
}
