package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrAddressSpaceExhausted is returned when no bump seed yields an address
	// off the ed25519 curve for the provided program and seeds.
	ErrAddressSpaceExhausted = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// The generated key is rejected when it decodes to a valid compressed
	// Edwards point, since someone could then hold its private key.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	var A edwards25519.ExtendedGroupElement
	if A.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and the bump seed that proves
// the derivation.
//
// ErrAddressSpaceExhausted is returned if every bump seed results in an on
// curve key. Callers must surface it rather than retry with other seeds, so
// that the address stays reproducible from the same inputs.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrAddressSpaceExhausted
}

// FindProgramAddress is like FindProgramAddressAndBump, but only returns the
// address.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// VerifyProgramAddress checks that address is the program address derived from
// the seeds and bump. It is the check a derived authority must pass before it
// can move funds out of an account it controls.
func VerifyProgramAddress(program, address ed25519.PublicKey, bump uint8, seeds ...[]byte) bool {
	withBump := make([][]byte, 0, len(seeds)+1)
	withBump = append(withBump, seeds...)
	withBump = append(withBump, []byte{bump})

	derived, err := CreateProgramAddress(program, withBump...)
	if err != nil {
		return false
	}
	return bytes.Equal(derived, address)
}
