package common

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/solana"
	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
	"github.com/code-payments/presale-server/pkg/solana/token"
)

func TestAccountWithPublicKey(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	fromBytes, err := NewAccountFromPublicKeyBytes(publicKey)
	require.NoError(t, err)

	fromString, err := NewAccountFromPublicKeyString(base58.Encode(publicKey))
	require.NoError(t, err)

	for _, account := range []*Account{fromBytes, fromString} {
		assert.EqualValues(t, publicKey, account.PublicKey().ToBytes())
		assert.Nil(t, account.PrivateKey())
		assert.True(t, account.IsOnCurve())
		assert.Equal(t, base58.Encode(publicKey), account.String())

		_, err = account.Sign([]byte("message"))
		assert.ErrorIs(t, err, ErrPrivateKeyUnavailable)
	}
	assert.True(t, fromBytes.Equal(fromString))
}

func TestAccountWithPrivateKey(t *testing.T) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	account, err := NewAccountFromPrivateKeyString(base58.Encode(privateKey))
	require.NoError(t, err)

	assert.EqualValues(t, publicKey, account.PublicKey().ToBytes())
	assert.EqualValues(t, privateKey, account.PrivateKey().ToBytes())

	message := []byte("message")
	signature, err := account.Sign(message)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(publicKey, message, signature))
	assert.True(t, account.Verify(message, signature))
	assert.False(t, account.Verify([]byte("other"), signature))
	assert.False(t, account.Verify(message, signature[:10]))

	_, err = NewAccountFromPrivateKeyString(base58.Encode(publicKey))
	assert.ErrorIs(t, err, ErrPrivateKeyRequired)
}

func TestInvalidAccount(t *testing.T) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = NewAccountFromPublicKeyBytes(privateKey)
	assert.Error(t, err)

	_, err = NewAccountFromPublicKeyString("invalid-key")
	assert.Error(t, err)

	var account *Account
	assert.Error(t, account.Validate())
}

func TestToAssociatedTokenAccount(t *testing.T) {
	owner := newRandomTestAccount(t)
	mint := newRandomTestAccount(t)

	ata, err := owner.ToAssociatedTokenAccount(mint)
	require.NoError(t, err)

	expected, err := token.GetAssociatedAccount(owner.PublicKey().ToBytes(), mint.PublicKey().ToBytes())
	require.NoError(t, err)
	assert.EqualValues(t, expected, ata.PublicKey().ToBytes())
	assert.False(t, ata.IsOnCurve())
}

func TestGetSaleVaultAccounts(t *testing.T) {
	mint := newRandomTestAccount(t)

	accounts, err := GetSaleVaultAccounts(mint)
	require.NoError(t, err)

	assert.Equal(t, mint, accounts.Mint)
	assert.False(t, accounts.Vault.IsOnCurve())
	assert.True(t, solana.VerifyProgramAddress(
		presale_program.PROGRAM_ID,
		accounts.Vault.PublicKey().ToBytes(),
		accounts.VaultBump,
		presale_program.VaultSeeds(mint.PublicKey().ToBytes())...,
	))

	again, err := GetSaleVaultAccounts(mint)
	require.NoError(t, err)
	assert.True(t, accounts.Vault.Equal(again.Vault))
	assert.Equal(t, accounts.VaultBump, again.VaultBump)

	_, err = GetSaleVaultAccounts(nil)
	assert.Error(t, err)
}

func TestGetPositionAccounts(t *testing.T) {
	buyer := newRandomTestAccount(t)
	otherBuyer := newRandomTestAccount(t)
	mint := newRandomTestAccount(t)

	accounts, err := GetPositionAccounts(buyer, mint)
	require.NoError(t, err)

	assert.Equal(t, buyer, accounts.Buyer)
	assert.Equal(t, mint, accounts.Mint)
	assert.False(t, accounts.Position.IsOnCurve())
	assert.False(t, accounts.Vault.IsOnCurve())
	assert.False(t, accounts.FreeBalance.IsOnCurve())

	assert.True(t, solana.VerifyProgramAddress(
		presale_program.PROGRAM_ID,
		accounts.Position.PublicKey().ToBytes(),
		accounts.PositionBump,
		presale_program.UserInfoSeeds(buyer.PublicKey().ToBytes(), mint.PublicKey().ToBytes())...,
	))

	expectedVault, err := accounts.Position.ToAssociatedTokenAccount(mint)
	require.NoError(t, err)
	assert.True(t, expectedVault.Equal(accounts.Vault))

	expectedFree, err := buyer.ToAssociatedTokenAccount(mint)
	require.NoError(t, err)
	assert.True(t, expectedFree.Equal(accounts.FreeBalance))

	// Re-derivable from identities alone
	again, err := GetPositionAccounts(buyer, mint)
	require.NoError(t, err)
	assert.True(t, accounts.Position.Equal(again.Position))
	assert.True(t, accounts.Vault.Equal(again.Vault))

	other, err := GetPositionAccounts(otherBuyer, mint)
	require.NoError(t, err)
	assert.False(t, accounts.Position.Equal(other.Position))
	assert.False(t, accounts.Vault.Equal(other.Vault))

	saleVault, err := GetSaleVaultAccounts(mint)
	require.NoError(t, err)
	assert.False(t, saleVault.Vault.Equal(accounts.Vault))
}

// Required because we'd have a dependency loop with the testutil package
func newRandomTestAccount(t *testing.T) *Account {
	account, err := NewRandomAccount()
	require.NoError(t, err)
	return account
}
