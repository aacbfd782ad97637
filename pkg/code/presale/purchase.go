package presale

import (
	"context"
	"math"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/metrics"
	"github.com/code-payments/presale-server/pkg/pointer"
	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
)

type PurchaseResult struct {
	Sale     *sale.Record
	Position *position.Record

	// Lamports paid to the treasury
	Cost uint64

	// Whether this purchase opened the buyer's position
	IsFirstPurchase bool
}

// Purchase sells amount units to buyer. Payment to the treasury, the transfer
// into the buyer's vault and the accounting updates either all happen or none
// do. The buyer's unlock time is fixed by their first purchase and later
// purchases only add to the escrowed amount.
func (e *Engine) Purchase(ctx context.Context, saleAccount, buyer *common.Account, amount uint64) (*PurchaseResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Purchase")
	defer tracer.End()

	log := e.log.WithFields(logrus.Fields{
		"method": "Purchase",
		"sale":   saleAccount.String(),
		"buyer":  buyer.String(),
		"amount": amount,
	})

	result, err := e.purchase(ctx, saleAccount, buyer, amount)
	if err != nil {
		if KindOf(err) == KindUnknown {
			log.WithError(err).Warn("failure processing purchase")
		} else {
			log.WithError(err).Debug("purchase rejected")
		}
		tracer.OnError(err)
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"cost":       result.Cost,
		"units_sold": result.Sale.UnitsSold,
		"unlock_at":  result.Position.UnlockAt,
	}).Info("purchase completed")

	metrics.RecordEvent(ctx, "PresalePurchase", map[string]interface{}{
		"sale":       result.Sale.Address,
		"position":   result.Position.Address,
		"amount":     amount,
		"cost":       result.Cost,
		"first":      result.IsFirstPurchase,
		"units_sold": result.Sale.UnitsSold,
		"allocation": result.Sale.TotalAllocation,
	})

	return result, nil
}

func (e *Engine) purchase(ctx context.Context, saleAccount, buyer *common.Account, amount uint64) (*PurchaseResult, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	if e.conf.disablePurchases.Get(ctx) {
		return nil, errors.Wrap(ErrPresaleInactive, "purchases are temporarily disabled")
	}

	if err := buyer.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid buyer")
	}

	_, mint, treasury, err := e.loadSaleAccounts(ctx, saleAccount)
	if err != nil {
		return nil, err
	}

	vault, err := e.custody.saleVault(mint)
	if err != nil {
		return nil, err
	}

	positionAccounts, err := e.custody.position(buyer, mint)
	if err != nil {
		return nil, err
	}

	unlockSale := e.lockSale(saleAccount)
	defer unlockSale()

	unlockPosition := e.lockPosition(positionAccounts.Position)
	defer unlockPosition()

	writable := []*common.Account{
		saleAccount,
		buyer,
		treasury,
		vault.Vault,
		positionAccounts.Position,
		positionAccounts.Vault,
	}

	vaultAuthority := ledger.NewProgramAuthority(
		presale_program.PROGRAM_ID,
		vault.VaultBump,
		presale_program.VaultSeeds(mint.PublicKey().ToBytes())...,
	)

	eventId := newEventId()

	var result *PurchaseResult
	err = e.ledger.Execute(ctx, writable, func(ctx context.Context, tx *ledger.Tx) error {
		saleRecord, err := e.getSaleRecord(ctx, saleAccount)
		if err != nil {
			return err
		}

		if !saleRecord.IsActive {
			return ErrPresaleInactive
		}

		unitsSold, carry := bits.Add64(saleRecord.UnitsSold, amount, 0)
		if carry != 0 {
			return errors.Wrap(ErrCalculationError, "units sold overflow")
		}
		if unitsSold > saleRecord.TotalAllocation {
			return ErrExceedsAllocation
		}

		hi, cost := bits.Mul64(saleRecord.PricePerUnit, amount)
		if hi != 0 {
			return errors.Wrap(ErrCalculationError, "cost overflow")
		}

		err = tx.TransferNative(ctx, buyer, treasury, cost)
		if err != nil {
			return toEngineError(err, "error paying treasury")
		}

		positionRecord, isFirstPurchase, err := e.getOrCreatePosition(ctx, tx, saleRecord, positionAccounts)
		if err != nil {
			return err
		}

		_, _, err = tx.GetOrCreateTokenAccount(ctx, positionAccounts.Vault, mint, positionAccounts.Position)
		if err != nil {
			return errors.Wrap(err, "error getting buyer vault")
		}

		err = tx.TransferToken(ctx, vault.Vault, positionAccounts.Vault, amount, vaultAuthority)
		if err != nil {
			return toEngineError(err, "error moving units into buyer vault")
		}

		positionAmount, carry := bits.Add64(positionRecord.Amount, amount, 0)
		if carry != 0 {
			return errors.Wrap(ErrCalculationError, "position amount overflow")
		}

		saleRecord.UnitsSold = unitsSold
		if err := e.data.UpdateSale(ctx, saleRecord); err != nil {
			return errors.Wrap(err, "error updating sale")
		}

		positionRecord.Amount = positionAmount
		if err := e.data.UpdatePosition(ctx, positionRecord); err != nil {
			return errors.Wrap(err, "error updating position")
		}

		err = e.appendEvent(ctx, &event.Record{
			EventId:   eventId,
			EventType: event.UnitsPurchased,
			Sale:      saleRecord.Address,
			Actor:     buyer.PublicKey().ToBase58(),
			Position:  pointer.String(positionRecord.Address),
			Amount:    amount,
			Payment:   cost,
			UnlockAt:  pointer.Int64(positionRecord.UnlockAt),
			CreatedAt: tx.Now(),
		})
		if err != nil {
			return err
		}

		result = &PurchaseResult{
			Sale:            saleRecord,
			Position:        positionRecord,
			Cost:            cost,
			IsFirstPurchase: isFirstPurchase,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// getOrCreatePosition opens the buyer's position on their first purchase. The
// unlock time is only ever computed here.
func (e *Engine) getOrCreatePosition(ctx context.Context, tx *ledger.Tx, saleRecord *sale.Record, accounts *common.PositionAccounts) (*position.Record, bool, error) {
	existing, err := e.data.GetPositionByAddress(ctx, accounts.Position.PublicKey().ToBase58())
	switch err {
	case nil:
		// Units sent to a claimed position's vault could never be withdrawn
		if existing.IsClaimed {
			return nil, false, errors.Wrap(ErrAlreadyClaimed, "position was already claimed")
		}
		return existing, false, nil
	case position.ErrNotFound:
	default:
		return nil, false, errors.Wrap(err, "error getting position")
	}

	now := tx.Now().Unix()
	if now > math.MaxInt64-presale_program.LockDurationSeconds {
		return nil, false, errors.Wrap(ErrCalculationError, "unlock time overflow")
	}

	record := &position.Record{
		Address: accounts.Position.PublicKey().ToBase58(),
		Bump:    accounts.PositionBump,

		Sale:  saleRecord.Address,
		Mint:  saleRecord.Mint,
		Buyer: accounts.Buyer.PublicKey().ToBase58(),

		VaultAddress: accounts.Vault.PublicKey().ToBase58(),

		Amount:    0,
		UnlockAt:  now + presale_program.LockDurationSeconds,
		IsClaimed: false,
	}
	err = e.data.CreatePosition(ctx, record)
	if err != nil {
		return nil, false, errors.Wrap(err, "error creating position")
	}
	return record, true, nil
}
