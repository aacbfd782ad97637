package token

import (
	"crypto/ed25519"

	"github.com/code-payments/presale-server/pkg/solana"
)

var (
	// TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
	ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

	// ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
	AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}
)

// GetAssociatedAccount derives the token account owner holds for mint. Buyer
// vaults and free balances both live at these addresses, with the position
// account or the buyer as owner.
func GetAssociatedAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, _, err := GetAssociatedAccountAndBump(owner, mint)
	return address, err
}

// GetAssociatedAccountAndBump is GetAssociatedAccount along with the bump seed
func GetAssociatedAccountAndBump(owner, mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		AssociatedTokenAccountProgramKey,
		owner,
		ProgramKey,
		mint,
	)
}
