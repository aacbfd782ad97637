package ledger

import (
	"crypto/ed25519"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/solana"
)

// Authority is presented alongside a token transfer as proof of control over
// the source account's owner
type Authority interface {
	Authorizes(owner *common.Account) bool
}

// SignerAuthority is held by a wallet that has already proven control of its
// key, for example by signing the request that led to the transfer. Program
// derived addresses have no key, so they can never be the signer.
type SignerAuthority struct {
	Signer *common.Account
}

func NewSignerAuthority(signer *common.Account) *SignerAuthority {
	return &SignerAuthority{Signer: signer}
}

func (a *SignerAuthority) Authorizes(owner *common.Account) bool {
	return a.Signer != nil && a.Signer.IsOnCurve() && a.Signer.Equal(owner)
}

// ProgramAuthority is the capability for an owner that is a program derived
// address. It has no private key. Presenting the seeds and bump that derive
// the owner under the program is the authorization.
type ProgramAuthority struct {
	Program ed25519.PublicKey
	Seeds   [][]byte
	Bump    uint8
}

func NewProgramAuthority(program ed25519.PublicKey, bump uint8, seeds ...[]byte) *ProgramAuthority {
	return &ProgramAuthority{
		Program: program,
		Seeds:   seeds,
		Bump:    bump,
	}
}

func (a *ProgramAuthority) Authorizes(owner *common.Account) bool {
	if owner == nil || owner.IsOnCurve() {
		return false
	}
	return solana.VerifyProgramAddress(a.Program, owner.PublicKey().ToBytes(), a.Bump, a.Seeds...)
}
