package common

import (
	"crypto/ed25519"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/solana/token"
)

var (
	ErrPrivateKeyRequired    = errors.New("private key is required")
	ErrPrivateKeyUnavailable = errors.New("private key not available")
)

// Account is an identity on the ledger: a sale, mint, treasury, buyer or one
// of the custody accounts derived from them. Only accounts that sign requests
// or transfers carry a private key.
type Account struct {
	publicKey  *Key
	privateKey *Key
}

func newAccount(publicKey, privateKey *Key) (*Account, error) {
	account := &Account{
		publicKey:  publicKey,
		privateKey: privateKey,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

func NewAccountFromPublicKey(publicKey *Key) (*Account, error) {
	return newAccount(publicKey, nil)
}

func NewAccountFromPublicKeyBytes(publicKey []byte) (*Account, error) {
	key, err := NewKeyFromBytes(publicKey)
	if err != nil {
		return nil, err
	}
	return newAccount(key, nil)
}

func NewAccountFromPublicKeyString(publicKey string) (*Account, error) {
	key, err := NewKeyFromString(publicKey)
	if err != nil {
		return nil, err
	}
	return newAccount(key, nil)
}

func NewAccountFromPrivateKey(privateKey *Key) (*Account, error) {
	if privateKey == nil || privateKey.IsPublic() {
		return nil, ErrPrivateKeyRequired
	}

	derived := ed25519.PrivateKey(privateKey.ToBytes()).Public().(ed25519.PublicKey)
	publicKey, err := NewKeyFromBytes(derived)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving public key")
	}
	return newAccount(publicKey, privateKey)
}

func NewAccountFromPrivateKeyString(privateKey string) (*Account, error) {
	key, err := NewKeyFromString(privateKey)
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(key)
}

// NewRandomAccount generates a fresh signing identity
func NewRandomAccount() (*Account, error) {
	key, err := NewRandomKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(key)
}

func (a *Account) PublicKey() *Key {
	return a.publicKey
}

// PrivateKey is nil for accounts built from a public key
func (a *Account) PrivateKey() *Key {
	return a.privateKey
}

func (a *Account) Sign(message []byte) ([]byte, error) {
	if a.privateKey == nil {
		return nil, ErrPrivateKeyUnavailable
	}
	return ed25519.Sign(a.privateKey.ToBytes(), message), nil
}

// Verify reports whether signature is this account's signature over message
func (a *Account) Verify(message, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(a.publicKey.ToBytes(), message, signature)
}

// ToAssociatedTokenAccount is the token account this account holds for mint
func (a *Account) ToAssociatedTokenAccount(mint *Account) (*Account, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}
	if err := mint.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid mint")
	}

	address, err := token.GetAssociatedAccount(a.publicKey.ToBytes(), mint.publicKey.ToBytes())
	if err != nil {
		return nil, err
	}
	return NewAccountFromPublicKeyBytes(address)
}

// IsOnCurve is true for keys that can have a private key. Program derived
// addresses are always off curve.
func (a *Account) IsOnCurve() bool {
	key := a.publicKey.ToBytes()
	if len(key) != ed25519.PublicKeySize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(key)
	return err == nil
}

func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.publicKey.Equal(other.publicKey)
}

func (a *Account) Validate() error {
	if a == nil {
		return errors.New("account is nil")
	}

	if err := a.publicKey.Validate(); err != nil {
		return errors.Wrap(err, "invalid public key")
	}
	if !a.publicKey.IsPublic() {
		return errors.New("public key isn't public")
	}

	if a.privateKey == nil {
		return nil
	}
	if err := a.privateKey.Validate(); err != nil {
		return errors.Wrap(err, "invalid private key")
	}
	if a.privateKey.IsPublic() {
		return errors.New("private key isn't private")
	}
	return nil
}

func (a *Account) String() string {
	return a.publicKey.ToBase58()
}
