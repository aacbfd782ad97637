package ledger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
)

// Airdrop credits lamports to a wallet out of thin air. It stands in for a
// test validator's faucet and must never be reachable in production.
func (l *Ledger) Airdrop(ctx context.Context, owner *common.Account, lamports uint64) (uint64, error) {
	log := l.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"owner":    owner.String(),
		"lamports": lamports,
	})

	var updated uint64
	err := l.Execute(ctx, []*common.Account{owner}, func(ctx context.Context, tx *Tx) error {
		var err error
		updated, err = tx.airdrop(ctx, owner, lamports)
		return err
	})
	if err != nil {
		log.WithError(err).Warn("failure airdropping lamports")
		return 0, err
	}

	log.Debug("airdropped lamports")
	return updated, nil
}

// MintTo mints new units into an existing token account. Like Airdrop, it only
// exists for development and test environments.
func (l *Ledger) MintTo(ctx context.Context, tokenAccount *common.Account, amount uint64) (uint64, error) {
	log := l.log.WithFields(logrus.Fields{
		"method":        "MintTo",
		"token_account": tokenAccount.String(),
		"amount":        amount,
	})

	var updated uint64
	err := l.Execute(ctx, []*common.Account{tokenAccount}, func(ctx context.Context, tx *Tx) error {
		var err error
		updated, err = tx.mintTo(ctx, tokenAccount, amount)
		return err
	})
	if err != nil {
		log.WithError(err).Warn("failure minting tokens")
		return 0, err
	}

	log.Debug("minted tokens")
	return updated, nil
}

// GetNativeBalance returns the lamports held by owner outside of any
// transaction
func (l *Ledger) GetNativeBalance(ctx context.Context, owner *common.Account) (uint64, error) {
	return l.getNativeBalance(ctx, owner)
}

// GetTokenBalance returns the balance of a token account outside of any
// transaction
func (l *Ledger) GetTokenBalance(ctx context.Context, address *common.Account) (uint64, error) {
	record, err := l.getTokenAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return record.Balance, nil
}
