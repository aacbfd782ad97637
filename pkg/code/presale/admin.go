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

// SetActive opens or closes a sale to new purchases. Only the sale authority
// may call it. Existing positions are unaffected.
func (e *Engine) SetActive(ctx context.Context, saleAccount, caller *common.Account, isActive bool) (*sale.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SetActive")
	defer tracer.End()

	log := e.log.WithFields(logrus.Fields{
		"method":    "SetActive",
		"sale":      saleAccount.String(),
		"caller":    caller.String(),
		"is_active": isActive,
	})

	if err := caller.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid caller")
	}

	unlock := e.lockSale(saleAccount)
	defer unlock()

	eventId := newEventId()

	var updated *sale.Record
	err := e.ledger.Execute(ctx, []*common.Account{saleAccount}, func(ctx context.Context, tx *ledger.Tx) error {
		record, err := e.getSaleRecord(ctx, saleAccount)
		if err != nil {
			return err
		}

		if record.Authority != caller.PublicKey().ToBase58() {
			return ErrUnauthorized
		}

		record.IsActive = isActive
		if err := e.data.UpdateSale(ctx, record); err != nil {
			return errors.Wrap(err, "error updating sale")
		}

		err = e.appendEvent(ctx, &event.Record{
			EventId:   eventId,
			EventType: event.SaleActivityChanged,
			Sale:      record.Address,
			Actor:     record.Authority,
			IsActive:  pointer.Bool(isActive),
			CreatedAt: tx.Now(),
		})
		if err != nil {
			return err
		}

		updated = record
		return nil
	})
	if err != nil {
		if KindOf(err) == KindUnknown {
			log.WithError(err).Warn("failure updating sale activity")
		} else {
			log.WithError(err).Debug("sale activity change rejected")
		}
		tracer.OnError(err)
		return nil, err
	}

	log.Info("sale activity updated")
	return updated, nil
}
