package presale

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/metrics"
	"github.com/code-payments/presale-server/pkg/pointer"
)

type InitializeArgs struct {
	// Administers the sale. Must have authorized the request.
	Authority *common.Account

	// Identity of the sale. Must have authorized the request, which proves the
	// caller owns a fresh key for it.
	Sale *common.Account

	Mint     *common.Account
	Treasury *common.Account

	PricePerUnit    uint64
	TotalAllocation uint64
}

func (a *InitializeArgs) validate() error {
	for name, account := range map[string]*common.Account{
		"authority": a.Authority,
		"sale":      a.Sale,
		"mint":      a.Mint,
		"treasury":  a.Treasury,
	} {
		if account == nil {
			return errors.Errorf("%s is required", name)
		}
		if err := account.Validate(); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}
	return nil
}

// Initialize creates a sale and its vault. A sale identity, or a mint, can
// only ever be initialized once.
func (e *Engine) Initialize(ctx context.Context, args *InitializeArgs) (*sale.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Initialize")
	defer tracer.End()

	if err := args.validate(); err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{
		"method":           "Initialize",
		"authority":        args.Authority.PublicKey().ToBase58(),
		"sale":             args.Sale.PublicKey().ToBase58(),
		"mint":             args.Mint.PublicKey().ToBase58(),
		"treasury":         args.Treasury.PublicKey().ToBase58(),
		"price_per_unit":   args.PricePerUnit,
		"total_allocation": args.TotalAllocation,
	})

	vault, err := e.custody.saleVault(args.Mint)
	if err != nil {
		log.WithError(err).Warn("failure deriving sale vault")
		tracer.OnError(err)
		return nil, err
	}

	unlock := e.lockSale(args.Sale)
	defer unlock()

	eventId := newEventId()

	var created *sale.Record
	err = e.ledger.Execute(ctx, []*common.Account{args.Sale, vault.Vault}, func(ctx context.Context, tx *ledger.Tx) error {
		_, err := e.data.GetSaleByAddress(ctx, args.Sale.PublicKey().ToBase58())
		if err == nil {
			return ErrAlreadyInitialized
		} else if err != sale.ErrNotFound {
			return errors.Wrap(err, "error checking for existing sale")
		}

		_, err = e.data.GetSaleByMint(ctx, args.Mint.PublicKey().ToBase58())
		if err == nil {
			return errors.Wrap(ErrAlreadyInitialized, "mint already has a sale vault")
		} else if err != sale.ErrNotFound {
			return errors.Wrap(err, "error checking for existing sale vault")
		}

		_, err = tx.CreateTokenAccount(ctx, vault.Vault, args.Mint, vault.Vault)
		if err == ledger.ErrAccountAlreadyExists {
			return errors.Wrap(ErrAlreadyInitialized, "sale vault already exists")
		} else if err != nil {
			return errors.Wrap(err, "error creating sale vault")
		}

		record := &sale.Record{
			Address: args.Sale.PublicKey().ToBase58(),

			Authority: args.Authority.PublicKey().ToBase58(),
			Mint:      args.Mint.PublicKey().ToBase58(),
			Treasury:  args.Treasury.PublicKey().ToBase58(),

			VaultAddress: vault.Vault.PublicKey().ToBase58(),
			VaultBump:    vault.VaultBump,

			PricePerUnit:    args.PricePerUnit,
			TotalAllocation: args.TotalAllocation,
			UnitsSold:       0,
			IsActive:        true,
		}
		err = e.data.CreateSale(ctx, record)
		if err == sale.ErrAlreadyExists {
			return ErrAlreadyInitialized
		} else if err != nil {
			return errors.Wrap(err, "error creating sale")
		}

		err = e.appendEvent(ctx, &event.Record{
			EventId:   eventId,
			EventType: event.SaleInitialized,
			Sale:      record.Address,
			Actor:     record.Authority,
			IsActive:  pointer.Bool(true),
			CreatedAt: tx.Now(),
		})
		if err != nil {
			return err
		}

		created = record
		return nil
	})
	if err != nil {
		if KindOf(err) == KindUnknown {
			log.WithError(err).Warn("failure initializing sale")
		} else {
			log.WithError(err).Debug("sale initialization rejected")
		}
		tracer.OnError(err)
		return nil, err
	}

	log.Info("sale initialized")

	metrics.RecordEvent(ctx, "PresaleInitialized", map[string]interface{}{
		"sale":             created.Address,
		"mint":             created.Mint,
		"price_per_unit":   created.PricePerUnit,
		"total_allocation": created.TotalAllocation,
	})

	return created, nil
}
