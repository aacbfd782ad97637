package sale

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

var (
	ErrNotFound      = errors.New("sale not found")
	ErrAlreadyExists = errors.New("sale already exists")
	ErrInvalidRecord = errors.New("invalid sale record")
)

// Record is the persisted state of a sale. It mirrors the on-chain
// PresaleAccount, plus bookkeeping about where the sale and its vault live.
type Record struct {
	Id uint64

	Address string

	Authority string
	Mint      string
	Treasury  string

	VaultAddress string
	VaultBump    uint8

	PricePerUnit    uint64
	TotalAllocation uint64
	UnitsSold       uint64
	IsActive        bool

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// RemainingAllocation is the number of units still available for purchase
func (r *Record) RemainingAllocation() uint64 {
	if r.UnitsSold >= r.TotalAllocation {
		return 0
	}
	return r.TotalAllocation - r.UnitsSold
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Authority) == 0 {
		return errors.New("authority is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Treasury) == 0 {
		return errors.New("treasury is required")
	}

	if len(r.VaultAddress) == 0 {
		return errors.New("vault address is required")
	}

	if r.UnitsSold > r.TotalAllocation {
		return errors.Wrap(ErrInvalidRecord, "units sold exceeds total allocation")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Address: r.Address,

		Authority: r.Authority,
		Mint:      r.Mint,
		Treasury:  r.Treasury,

		VaultAddress: r.VaultAddress,
		VaultBump:    r.VaultBump,

		PricePerUnit:    r.PricePerUnit,
		TotalAllocation: r.TotalAllocation,
		UnitsSold:       r.UnitsSold,
		IsActive:        r.IsActive,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address

	dst.Authority = r.Authority
	dst.Mint = r.Mint
	dst.Treasury = r.Treasury

	dst.VaultAddress = r.VaultAddress
	dst.VaultBump = r.VaultBump

	dst.PricePerUnit = r.PricePerUnit
	dst.TotalAllocation = r.TotalAllocation
	dst.UnitsSold = r.UnitsSold
	dst.IsActive = r.IsActive

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}

// ToProgramAccount converts the record into the program's account layout
func (r *Record) ToProgramAccount() (*presale_program.PresaleAccount, error) {
	authority, err := base58.Decode(r.Authority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority")
	}
	mint, err := base58.Decode(r.Mint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid mint")
	}
	treasury, err := base58.Decode(r.Treasury)
	if err != nil {
		return nil, errors.Wrap(err, "invalid treasury")
	}

	return &presale_program.PresaleAccount{
		Authority:       authority,
		Mint:            mint,
		Treasury:        treasury,
		PricePerToken:   r.PricePerUnit,
		TotalAllocation: r.TotalAllocation,
		TokensSold:      r.UnitsSold,
		IsActive:        r.IsActive,
	}, nil
}
