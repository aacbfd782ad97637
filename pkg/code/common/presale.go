package common

import (
	"github.com/pkg/errors"

	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

// SaleVaultAccounts is the custody bundle for a sale's unsold inventory. The
// vault doubles as its own transfer authority.
type SaleVaultAccounts struct {
	Mint *Account

	Vault     *Account
	VaultBump uint8
}

// PositionAccounts is the custody bundle for one buyer in one sale
type PositionAccounts struct {
	Buyer *Account
	Mint  *Account

	// Position holds the buyer's escrow bookkeeping and is the authority over
	// Vault
	Position     *Account
	PositionBump uint8

	// Vault escrows purchased units until the lock expires
	Vault *Account

	// FreeBalance receives units on claim
	FreeBalance *Account
}

func GetSaleVaultAccounts(mint *Account) (*SaleVaultAccounts, error) {
	if err := mint.Validate(); err != nil {
		return nil, errors.Wrap(err, "error validating mint account")
	}

	address, bump, err := presale_program.GetVaultAddress(mint.PublicKey().ToBytes())
	if err != nil {
		return nil, errors.Wrap(err, "error deriving sale vault address")
	}

	vault, err := NewAccountFromPublicKeyBytes(address)
	if err != nil {
		return nil, err
	}

	return &SaleVaultAccounts{
		Mint:      mint,
		Vault:     vault,
		VaultBump: bump,
	}, nil
}

func GetPositionAccounts(buyer, mint *Account) (*PositionAccounts, error) {
	if err := buyer.Validate(); err != nil {
		return nil, errors.Wrap(err, "error validating buyer account")
	}
	if err := mint.Validate(); err != nil {
		return nil, errors.Wrap(err, "error validating mint account")
	}

	positionAddress, positionBump, err := presale_program.GetUserInfoAddress(&presale_program.GetUserInfoAddressArgs{
		Buyer: buyer.PublicKey().ToBytes(),
		Mint:  mint.PublicKey().ToBytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving position address")
	}

	position, err := NewAccountFromPublicKeyBytes(positionAddress)
	if err != nil {
		return nil, err
	}

	vaultAddress, err := presale_program.GetUserVaultAddress(&presale_program.GetUserVaultAddressArgs{
		UserInfo: positionAddress,
		Mint:     mint.PublicKey().ToBytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving buyer vault address")
	}

	vault, err := NewAccountFromPublicKeyBytes(vaultAddress)
	if err != nil {
		return nil, err
	}

	freeBalance, err := buyer.ToAssociatedTokenAccount(mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving buyer token account")
	}

	return &PositionAccounts{
		Buyer:        buyer,
		Mint:         mint,
		Position:     position,
		PositionBump: positionBump,
		Vault:        vault,
		FreeBalance:  freeBalance,
	}, nil
}
