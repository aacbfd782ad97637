package event

import (
	"context"

	"github.com/code-payments/presale-server/pkg/database/query"
)

type Store interface {
	// Append adds an event. Events are never modified once written.
	// ErrAlreadyExists is returned if the event ID is already in use.
	Append(ctx context.Context, record *Record) error

	// Get gets an event by its event ID
	Get(ctx context.Context, eventId string) (*Record, error)

	// GetAllBySale gets a page of events for a sale
	GetAllBySale(ctx context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)
}
