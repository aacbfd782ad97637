package position

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

var (
	ErrNotFound          = errors.New("position not found")
	ErrAlreadyExists     = errors.New("position already exists")
	ErrClaimedIsTerminal = errors.New("claimed position cannot be modified")
)

// Record is a buyer's escrowed holding in a sale. It mirrors the on-chain
// UserInfo account.
type Record struct {
	Id uint64

	Address string
	Bump    uint8

	Sale  string
	Mint  string
	Buyer string

	VaultAddress string

	Amount    uint64
	UnlockAt  int64 // unix seconds, set once on creation
	IsClaimed bool

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// IsUnlocked reports whether the lock has expired at the provided unix time
func (r *Record) IsUnlocked(now int64) bool {
	return now >= r.UnlockAt
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Sale) == 0 {
		return errors.New("sale is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Buyer) == 0 {
		return errors.New("buyer is required")
	}

	if len(r.VaultAddress) == 0 {
		return errors.New("vault address is required")
	}

	if r.UnlockAt <= 0 {
		return errors.New("unlock time is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,

		Sale:  r.Sale,
		Mint:  r.Mint,
		Buyer: r.Buyer,

		VaultAddress: r.VaultAddress,

		Amount:    r.Amount,
		UnlockAt:  r.UnlockAt,
		IsClaimed: r.IsClaimed,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump

	dst.Sale = r.Sale
	dst.Mint = r.Mint
	dst.Buyer = r.Buyer

	dst.VaultAddress = r.VaultAddress

	dst.Amount = r.Amount
	dst.UnlockAt = r.UnlockAt
	dst.IsClaimed = r.IsClaimed

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}

// ToProgramAccount converts the record into the program's UserInfo layout
func (r *Record) ToProgramAccount() (*presale_program.UserInfoAccount, error) {
	buyer, err := base58.Decode(r.Buyer)
	if err != nil {
		return nil, errors.Wrap(err, "invalid buyer")
	}

	return &presale_program.UserInfoAccount{
		Buyer:      buyer,
		Amount:     r.Amount,
		UnlockTime: r.UnlockAt,
		Claimed:    r.IsClaimed,
		Bump:       r.Bump,
	}, nil
}
