package common

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidKey = errors.New("key must be an ed25519 public or private key")

// Key is an ed25519 public or private key. The base58 form is computed once,
// since it is used as the identity in every store.
type Key struct {
	raw     []byte
	encoded string
}

func NewKeyFromBytes(value []byte) (*Key, error) {
	k := &Key{raw: value, encoded: base58.Encode(value)}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func NewKeyFromString(value string) (*Key, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 key")
	}
	return NewKeyFromBytes(decoded)
}

// NewRandomKey generates a private key
func NewRandomKey() (*Key, error) {
	_, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating key")
	}
	return NewKeyFromBytes(private)
}

func (k *Key) ToBytes() []byte {
	return k.raw
}

func (k *Key) ToBase58() string {
	return k.encoded
}

func (k *Key) IsPublic() bool {
	return len(k.raw) == ed25519.PublicKeySize
}

func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return bytes.Equal(k.raw, other.raw)
}

func (k *Key) Validate() error {
	if k == nil {
		return errors.New("key is nil")
	}

	if len(k.raw) != ed25519.PublicKeySize && len(k.raw) != ed25519.PrivateKeySize {
		return ErrInvalidKey
	}
	if base58.Encode(k.raw) != k.encoded {
		return errors.New("key encoding mismatch")
	}
	return nil
}
