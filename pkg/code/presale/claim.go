package presale

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/metrics"
	"github.com/code-payments/presale-server/pkg/pointer"
	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

type ClaimResult struct {
	Position *position.Record

	// Units moved from the buyer vault into the buyer's free balance
	Amount uint64

	FreeBalance *common.Account
}

// Claim releases a buyer's escrowed units into their free balance once the
// lock has expired. A position can be claimed exactly once, and always for
// its full amount.
func (e *Engine) Claim(ctx context.Context, saleAccount, buyer *common.Account) (*ClaimResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Claim")
	defer tracer.End()

	log := e.log.WithFields(logrus.Fields{
		"method": "Claim",
		"sale":   saleAccount.String(),
		"buyer":  buyer.String(),
	})

	result, err := e.claim(ctx, saleAccount, buyer)
	if err != nil {
		if KindOf(err) == KindUnknown {
			log.WithError(err).Warn("failure processing claim")
		} else {
			log.WithError(err).Debug("claim rejected")
		}
		tracer.OnError(err)
		return nil, err
	}

	log.WithField("amount", result.Amount).Info("claim completed")

	metrics.RecordEvent(ctx, "PresaleClaim", map[string]interface{}{
		"sale":     result.Position.Sale,
		"position": result.Position.Address,
		"amount":   result.Amount,
	})

	return result, nil
}

func (e *Engine) claim(ctx context.Context, saleAccount, buyer *common.Account) (*ClaimResult, error) {
	if err := buyer.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid buyer")
	}

	_, mint, _, err := e.loadSaleAccounts(ctx, saleAccount)
	if err != nil {
		return nil, err
	}

	positionAccounts, err := e.custody.position(buyer, mint)
	if err != nil {
		return nil, err
	}

	unlock := e.lockPosition(positionAccounts.Position)
	defer unlock()

	writable := []*common.Account{
		positionAccounts.Position,
		positionAccounts.Vault,
		positionAccounts.FreeBalance,
	}

	positionAuthority := ledger.NewProgramAuthority(
		presale_program.PROGRAM_ID,
		positionAccounts.PositionBump,
		presale_program.UserInfoSeeds(buyer.PublicKey().ToBytes(), mint.PublicKey().ToBytes())...,
	)

	eventId := newEventId()

	var result *ClaimResult
	err = e.ledger.Execute(ctx, writable, func(ctx context.Context, tx *ledger.Tx) error {
		positionRecord, err := e.data.GetPositionByAddress(ctx, positionAccounts.Position.PublicKey().ToBase58())
		if err == position.ErrNotFound {
			return ErrPositionNotFound
		} else if err != nil {
			return errors.Wrap(err, "error getting position")
		}

		if positionRecord.Sale != saleAccount.PublicKey().ToBase58() {
			return errors.Wrap(ErrPositionNotFound, "position belongs to another sale")
		}

		if positionRecord.IsClaimed {
			return ErrAlreadyClaimed
		}

		if !positionRecord.IsUnlocked(tx.Now().Unix()) {
			return ErrTokensStillLocked
		}

		_, _, err = tx.GetOrCreateTokenAccount(ctx, positionAccounts.FreeBalance, mint, buyer)
		if err != nil {
			return errors.Wrap(err, "error getting buyer free balance")
		}

		amount := positionRecord.Amount
		err = tx.TransferToken(ctx, positionAccounts.Vault, positionAccounts.FreeBalance, amount, positionAuthority)
		if err != nil {
			return toEngineError(err, "error releasing units from buyer vault")
		}

		// The amount is kept as a record of what was purchased
		positionRecord.IsClaimed = true
		if err := e.data.UpdatePosition(ctx, positionRecord); err != nil {
			return errors.Wrap(err, "error updating position")
		}

		err = e.appendEvent(ctx, &event.Record{
			EventId:   eventId,
			EventType: event.UnitsClaimed,
			Sale:      positionRecord.Sale,
			Actor:     buyer.PublicKey().ToBase58(),
			Position:  pointer.String(positionRecord.Address),
			Amount:    amount,
			CreatedAt: tx.Now(),
		})
		if err != nil {
			return err
		}

		result = &ClaimResult{
			Position:    positionRecord,
			Amount:      amount,
			FreeBalance: positionAccounts.FreeBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
