package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/ledger"
)

func NewRandomAccount(t *testing.T) *common.Account {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)

	return account
}

// NewRandomAccounts returns n distinct wallets
func NewRandomAccounts(t *testing.T, n int) []*common.Account {
	accounts := make([]*common.Account, n)
	for i := range accounts {
		accounts[i] = NewRandomAccount(t)
	}
	return accounts
}

// FundNative airdrops lamports to owner and returns the resulting balance
func FundNative(t *testing.T, l *ledger.Ledger, owner *common.Account, lamports uint64) uint64 {
	balance, err := l.Airdrop(context.Background(), owner, lamports)
	require.NoError(t, err)
	return balance
}

// FundTokenAccount mints amount into an existing token account and returns
// the resulting balance
func FundTokenAccount(t *testing.T, l *ledger.Ledger, tokenAccount *common.Account, amount uint64) uint64 {
	balance, err := l.MintTo(context.Background(), tokenAccount, amount)
	require.NoError(t, err)
	return balance
}
