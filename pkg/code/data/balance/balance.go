package balance

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("native balance not found")
)

// Record is the native (lamport) balance held by a wallet. It funds the
// payment leg of a purchase and is credited to a sale's treasury.
type Record struct {
	Id uint64

	Owner    string
	Lamports uint64

	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id:            r.Id,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Owner = r.Owner
	dst.Lamports = r.Lamports
	dst.LastUpdatedAt = r.LastUpdatedAt
}
