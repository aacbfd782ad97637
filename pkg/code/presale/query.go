package presale

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/database/query"
	"github.com/code-payments/presale-server/pkg/metrics"
)

func (e *Engine) GetSale(ctx context.Context, saleAccount *common.Account) (*sale.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetSale")
	defer tracer.End()

	record, err := e.getSaleRecord(ctx, saleAccount)
	tracer.OnError(err)
	return record, err
}

// GetPosition finds a buyer's position by re-deriving its address from the
// buyer and the sale's mint
func (e *Engine) GetPosition(ctx context.Context, saleAccount, buyer *common.Account) (*position.Record, *common.PositionAccounts, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPosition")
	defer tracer.End()

	record, accounts, err := e.getPosition(ctx, saleAccount, buyer)
	tracer.OnError(err)
	return record, accounts, err
}

func (e *Engine) getPosition(ctx context.Context, saleAccount, buyer *common.Account) (*position.Record, *common.PositionAccounts, error) {
	_, mint, _, err := e.loadSaleAccounts(ctx, saleAccount)
	if err != nil {
		return nil, nil, err
	}

	accounts, err := e.custody.position(buyer, mint)
	if err != nil {
		return nil, nil, err
	}

	record, err := e.data.GetPositionByAddress(ctx, accounts.Position.PublicKey().ToBase58())
	switch err {
	case nil:
	case position.ErrNotFound:
		return nil, nil, ErrPositionNotFound
	default:
		return nil, nil, errors.Wrap(err, "error getting position")
	}

	if record.Sale != saleAccount.PublicKey().ToBase58() {
		return nil, nil, ErrPositionNotFound
	}
	return record, accounts, nil
}

// GetPositionsBySale pages through a sale's positions. An empty page is
// returned as an empty slice.
func (e *Engine) GetPositionsBySale(ctx context.Context, saleAccount *common.Account, opts ...query.Option) ([]*position.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPositionsBySale")
	defer tracer.End()

	if _, err := e.getSaleRecord(ctx, saleAccount); err != nil {
		tracer.OnError(err)
		return nil, err
	}

	records, err := e.data.GetAllPositionsBySale(ctx, saleAccount.PublicKey().ToBase58(), opts...)
	switch err {
	case nil:
		return records, nil
	case position.ErrNotFound:
		return []*position.Record{}, nil
	default:
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error getting positions")
	}
}

// GetEvents pages through a sale's audit trail. An empty page is returned as
// an empty slice.
func (e *Engine) GetEvents(ctx context.Context, saleAccount *common.Account, opts ...query.Option) ([]*event.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetEvents")
	defer tracer.End()

	if _, err := e.getSaleRecord(ctx, saleAccount); err != nil {
		tracer.OnError(err)
		return nil, err
	}

	records, err := e.data.GetAllEventsBySale(ctx, saleAccount.PublicKey().ToBase58(), opts...)
	switch err {
	case nil:
		return records, nil
	case event.ErrNotFound:
		return []*event.Record{}, nil
	default:
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error getting events")
	}
}
