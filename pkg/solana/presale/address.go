package presale_program

import (
	"crypto/ed25519"

	"github.com/code-payments/presale-server/pkg/solana"
	"github.com/code-payments/presale-server/pkg/solana/token"
)

var (
	VaultPrefix    = []byte("vault")
	UserInfoPrefix = []byte("user_info")
)

type GetUserInfoAddressArgs struct {
	Buyer ed25519.PublicKey
	Mint  ed25519.PublicKey
}

type GetUserVaultAddressArgs struct {
	UserInfo ed25519.PublicKey
	Mint     ed25519.PublicKey
}

// GetVaultAddress derives the sale vault for a mint. The deployed program uses
// the same seeds for the vault and its authority, so the returned address is
// also the key that authorizes transfers out of the vault.
func GetVaultAddress(mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		VaultPrefix,
		mint,
	)
}

// GetUserInfoAddress derives a buyer's position address, which is also the
// authority over the buyer's vault.
func GetUserInfoAddress(args *GetUserInfoAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		UserInfoPrefix,
		args.Buyer,
		args.Mint,
	)
}

func GetUserVaultAddress(args *GetUserVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.UserInfo, args.Mint)
}

func VaultSeeds(mint ed25519.PublicKey) [][]byte {
	return [][]byte{VaultPrefix, mint}
}

func UserInfoSeeds(buyer, mint ed25519.PublicKey) [][]byte {
	return [][]byte{UserInfoPrefix, buyer, mint}
}
