package event

import (
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/pointer"
)

var (
	ErrNotFound      = errors.New("event not found")
	ErrAlreadyExists = errors.New("event already exists")
)

type Type uint32

const (
	UnknownEvent Type = iota
	SaleInitialized
	UnitsPurchased
	UnitsClaimed
	SaleActivityChanged
)

// Record is an append-only audit entry for a state transition on a sale
type Record struct {
	Id uint64

	// Unique per event, generally the request ID that caused it
	EventId   string
	EventType Type

	Sale  string
	Actor string

	// Set for purchases and claims
	Position *string

	// Units moved by the event. Zero for sale initialization and activity
	// changes.
	Amount uint64

	// Lamports paid to the treasury. Only set for purchases.
	Payment uint64

	// Set for purchases
	UnlockAt *int64

	// Set for sale initialization and activity changes
	IsActive *bool

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.EventId) == 0 {
		return errors.New("event id is required")
	}

	if r.EventType == UnknownEvent || r.EventType > SaleActivityChanged {
		return errors.New("invalid event type")
	}

	if len(r.Sale) == 0 {
		return errors.New("sale is required")
	}

	if len(r.Actor) == 0 {
		return errors.New("actor is required")
	}

	if r.Position != nil && len(*r.Position) == 0 {
		return errors.New("position is required when set")
	}

	switch r.EventType {
	case UnitsPurchased:
		if r.Position == nil || r.UnlockAt == nil || r.Amount == 0 {
			return errors.New("purchase requires position, unlock time and amount")
		}
	case UnitsClaimed:
		if r.Position == nil {
			return errors.New("claim requires position")
		}
	case SaleInitialized, SaleActivityChanged:
		if r.IsActive == nil {
			return errors.New("activity flag is required")
		}
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		EventId:   r.EventId,
		EventType: r.EventType,

		Sale:     r.Sale,
		Actor:    r.Actor,
		Position: pointer.StringCopy(r.Position),

		Amount:   r.Amount,
		Payment:  r.Payment,
		UnlockAt: pointer.Int64Copy(r.UnlockAt),
		IsActive: pointer.BoolCopy(r.IsActive),

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.EventId = r.EventId
	dst.EventType = r.EventType

	dst.Sale = r.Sale
	dst.Actor = r.Actor
	dst.Position = pointer.StringCopy(r.Position)

	dst.Amount = r.Amount
	dst.Payment = r.Payment
	dst.UnlockAt = pointer.Int64Copy(r.UnlockAt)
	dst.IsActive = pointer.BoolCopy(r.IsActive)

	dst.CreatedAt = r.CreatedAt
}

func (t Type) String() string {
	switch t {
	case SaleInitialized:
		return "sale_initialized"
	case UnitsPurchased:
		return "units_purchased"
	case UnitsClaimed:
		return "units_claimed"
	case SaleActivityChanged:
		return "sale_activity_changed"
	}
	return "unknown"
}
