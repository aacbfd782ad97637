package presale_program

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/mr-tron/base58/base58"
)

var (
	ErrInvalidProgram     = errors.New("invalid program id")
	ErrInvalidAccountData = errors.New("unexpected account data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("F8F9Ny7p3jXkZctSmzZFfDnpdhrqnCW4tQnbqVYWHcbv")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

// LockDuration is how long purchased units stay in the buyer vault, counted
// from the buyer's first purchase against a sale.
const LockDuration = 365 * 24 * time.Hour

// LockDurationSeconds is LockDuration as stored in unlock timestamps
const LockDurationSeconds int64 = int64(LockDuration / time.Second)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
