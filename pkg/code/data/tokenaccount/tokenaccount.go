package tokenaccount

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("token account not found")
	ErrAlreadyExists = errors.New("token account already exists")
)

// Record is a token balance for a single mint, controlled by Owner. Owner is
// either a wallet that signs for itself, or a program derived address that
// only the program can sign for.
type Record struct {
	Id uint64

	Address string
	Mint    string
	Owner   string

	Balance uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id:            r.Id,
		Address:       r.Address,
		Mint:          r.Mint,
		Owner:         r.Owner,
		Balance:       r.Balance,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Address = r.Address
	dst.Mint = r.Mint
	dst.Owner = r.Owner
	dst.Balance = r.Balance
	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
