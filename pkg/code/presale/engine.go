package presale

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	sync_util "github.com/code-payments/presale-server/pkg/sync"
)

const (
	metricsStructName = "presale.engine"
)

// Engine runs presale operations. Each operation executes as one ledger
// transaction: every precondition is evaluated against state read inside the
// transaction, and any failure discards all of the operation's effects.
type Engine struct {
	log  *logrus.Entry
	conf *conf

	data   code_data.Provider
	ledger *ledger.Ledger

	custody *custodyResolver

	// Reduces contention on the ledger's account locks. Correctness never
	// depends on these.
	saleLocks     *sync_util.StripedLock
	positionLocks *sync_util.StripedLock
}

func NewEngine(data code_data.Provider, ledger *ledger.Ledger, configProvider ConfigProvider) *Engine {
	ctx := context.Background()

	conf := configProvider()

	locks := sync_util.NewStripedLockGroup(uint(conf.stripedLockParallelization.Get(ctx)), 2)

	return &Engine{
		log:  logrus.StandardLogger().WithField("type", "presale/engine"),
		conf: conf,

		data:   data,
		ledger: ledger,

		custody: newCustodyResolver(int(conf.custodyCacheBudget.Get(ctx))),

		saleLocks:     locks[0],
		positionLocks: locks[1],
	}
}

// Ledger is the host environment the engine executes against
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// SaleVault re-derives the custody accounts holding a sale's unsold supply
func (e *Engine) SaleVault(mint *common.Account) (*common.SaleVaultAccounts, error) {
	return e.custody.saleVault(mint)
}

// PositionAccounts re-derives the custody accounts for a buyer in the sale
// of mint
func (e *Engine) PositionAccounts(buyer, mint *common.Account) (*common.PositionAccounts, error) {
	return e.custody.position(buyer, mint)
}

func (e *Engine) lockSale(saleAccount *common.Account) func() {
	return e.saleLocks.Lock(saleAccount.PublicKey().ToBytes())
}

func (e *Engine) lockPosition(position *common.Account) func() {
	return e.positionLocks.Lock(position.PublicKey().ToBytes())
}

// loadSaleAccounts reads the sale outside of a transaction to learn which
// accounts an operation will write. Only immutable fields of the returned
// record may be relied upon.
func (e *Engine) loadSaleAccounts(ctx context.Context, saleAccount *common.Account) (*sale.Record, *common.Account, *common.Account, error) {
	record, err := e.getSaleRecord(ctx, saleAccount)
	if err != nil {
		return nil, nil, nil, err
	}

	mint, err := common.NewAccountFromPublicKeyString(record.Mint)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid mint")
	}

	treasury, err := common.NewAccountFromPublicKeyString(record.Treasury)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid treasury")
	}

	return record, mint, treasury, nil
}

func (e *Engine) getSaleRecord(ctx context.Context, saleAccount *common.Account) (*sale.Record, error) {
	record, err := e.data.GetSaleByAddress(ctx, saleAccount.PublicKey().ToBase58())
	switch err {
	case nil:
		return record, nil
	case sale.ErrNotFound:
		return nil, ErrSaleNotFound
	default:
		return nil, errors.Wrap(err, "error getting sale")
	}
}

func (e *Engine) appendEvent(ctx context.Context, record *event.Record) error {
	if err := e.data.AppendEvent(ctx, record); err != nil {
		return errors.Wrap(err, "error appending audit event")
	}
	return nil
}

func newEventId() string {
	return uuid.New().String()
}

// toEngineError translates host failures into the engine's error taxonomy
func toEngineError(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return errors.Wrap(ErrInsufficientFunds, message)
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return errors.Wrap(ErrCalculationError, message)
	}
	return errors.Wrap(err, message)
}
