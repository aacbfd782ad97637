package presale_program

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/presale-server/pkg/solana/binary"
)

const discriminatorSize = 8

const PresaleAccountSize = (discriminatorSize +
	32 + // authority
	32 + // mint
	32 + // treasury
	8 + // price_per_token
	8 + // total_allocation
	8 + // tokens_sold
	1) // is_active

const UserInfoAccountSize = (discriminatorSize +
	32 + // buyer
	8 + // amount
	8 + // unlock_time
	1 + // claimed
	1) // bump

var (
	presaleAccountDiscriminator  = accountDiscriminator("PresaleAccount")
	userInfoAccountDiscriminator = accountDiscriminator("UserInfo")
)

type PresaleAccount struct {
	Authority       ed25519.PublicKey
	Mint            ed25519.PublicKey
	Treasury        ed25519.PublicKey
	PricePerToken   uint64
	TotalAllocation uint64
	TokensSold      uint64
	IsActive        bool
}

type UserInfoAccount struct {
	Buyer      ed25519.PublicKey
	Amount     uint64
	UnlockTime int64
	Claimed    bool
	Bump       uint8
}

func (obj *PresaleAccount) Marshal() []byte {
	data := make([]byte, PresaleAccountSize)

	var offset int

	putDiscriminator(data, presaleAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Authority, &offset)
	binary.PutKey32(data[offset:], obj.Mint, &offset)
	binary.PutKey32(data[offset:], obj.Treasury, &offset)
	binary.PutUint64(data[offset:], obj.PricePerToken, &offset)
	binary.PutUint64(data[offset:], obj.TotalAllocation, &offset)
	binary.PutUint64(data[offset:], obj.TokensSold, &offset)
	binary.PutBool(data[offset:], obj.IsActive, &offset)

	return data
}

func (obj *PresaleAccount) Unmarshal(data []byte) error {
	if len(data) != PresaleAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, presaleAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetKey32(data[offset:], &obj.Mint, &offset)
	binary.GetKey32(data[offset:], &obj.Treasury, &offset)
	binary.GetUint64(data[offset:], &obj.PricePerToken, &offset)
	binary.GetUint64(data[offset:], &obj.TotalAllocation, &offset)
	binary.GetUint64(data[offset:], &obj.TokensSold, &offset)
	if !binary.GetBool(data[offset:], &obj.IsActive, &offset) {
		return ErrInvalidAccountData
	}

	return nil
}

func (obj *PresaleAccount) String() string {
	return fmt.Sprintf(
		"PresaleAccount{authority=%s,mint=%s,treasury=%s,price_per_token=%d,total_allocation=%d,tokens_sold=%d,is_active=%v}",
		encodeKey(obj.Authority),
		encodeKey(obj.Mint),
		encodeKey(obj.Treasury),
		obj.PricePerToken,
		obj.TotalAllocation,
		obj.TokensSold,
		obj.IsActive,
	)
}

func (obj *UserInfoAccount) Marshal() []byte {
	data := make([]byte, UserInfoAccountSize)

	var offset int

	putDiscriminator(data, userInfoAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Buyer, &offset)
	binary.PutUint64(data[offset:], obj.Amount, &offset)
	binary.PutInt64(data[offset:], obj.UnlockTime, &offset)
	binary.PutBool(data[offset:], obj.Claimed, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *UserInfoAccount) Unmarshal(data []byte) error {
	if len(data) != UserInfoAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, userInfoAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Buyer, &offset)
	binary.GetUint64(data[offset:], &obj.Amount, &offset)
	binary.GetInt64(data[offset:], &obj.UnlockTime, &offset)
	if !binary.GetBool(data[offset:], &obj.Claimed, &offset) {
		return ErrInvalidAccountData
	}
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *UserInfoAccount) String() string {
	return fmt.Sprintf(
		"UserInfo{buyer=%s,amount=%d,unlock_time=%s,claimed=%v,bump=%d}",
		encodeKey(obj.Buyer),
		obj.Amount,
		time.Unix(obj.UnlockTime, 0).UTC().Format(time.RFC3339),
		obj.Claimed,
		obj.Bump,
	)
}

// accountDiscriminator is the 8 byte prefix Anchor writes ahead of every
// account body
func accountDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("account:" + name))
	return h[:discriminatorSize]
}

func putDiscriminator(dst []byte, discriminator []byte, offset *int) {
	copy(dst[*offset:], discriminator)
	*offset += discriminatorSize
}

func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, discriminatorSize)
	copy(*dst, src[*offset:])
	*offset += discriminatorSize
}

func encodeKey(key ed25519.PublicKey) string {
	if key == nil {
		return ""
	}
	return base58.Encode(key)
}
