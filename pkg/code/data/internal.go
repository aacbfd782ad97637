package data

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"

	pg "github.com/code-payments/presale-server/pkg/database/postgres"
	"github.com/code-payments/presale-server/pkg/database/query"
	"github.com/code-payments/presale-server/pkg/metrics"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"

	balance_memory_client "github.com/code-payments/presale-server/pkg/code/data/balance/memory"
	event_memory_client "github.com/code-payments/presale-server/pkg/code/data/event/memory"
	position_memory_client "github.com/code-payments/presale-server/pkg/code/data/position/memory"
	sale_memory_client "github.com/code-payments/presale-server/pkg/code/data/sale/memory"
	tokenaccount_memory_client "github.com/code-payments/presale-server/pkg/code/data/tokenaccount/memory"

	balance_postgres_client "github.com/code-payments/presale-server/pkg/code/data/balance/postgres"
	event_postgres_client "github.com/code-payments/presale-server/pkg/code/data/event/postgres"
	position_postgres_client "github.com/code-payments/presale-server/pkg/code/data/position/postgres"
	sale_postgres_client "github.com/code-payments/presale-server/pkg/code/data/sale/postgres"
	tokenaccount_postgres_client "github.com/code-payments/presale-server/pkg/code/data/tokenaccount/postgres"
)

const (
	databaseProviderMetricsName = "data.database_provider"
)

type DatabaseData interface {
	// Sales
	// --------------------------------------------------------------------------------
	CreateSale(ctx context.Context, record *sale.Record) error
	UpdateSale(ctx context.Context, record *sale.Record) error
	GetSaleByAddress(ctx context.Context, address string) (*sale.Record, error)
	GetSaleByMint(ctx context.Context, mint string) (*sale.Record, error)

	// Positions
	// --------------------------------------------------------------------------------
	CreatePosition(ctx context.Context, record *position.Record) error
	UpdatePosition(ctx context.Context, record *position.Record) error
	GetPositionByAddress(ctx context.Context, address string) (*position.Record, error)
	GetAllPositionsBySale(ctx context.Context, sale string, opts ...query.Option) ([]*position.Record, error)

	// Token Accounts
	// --------------------------------------------------------------------------------
	CreateTokenAccount(ctx context.Context, record *tokenaccount.Record) error
	UpdateTokenAccountBalance(ctx context.Context, address string, balance uint64) error
	GetTokenAccountByAddress(ctx context.Context, address string) (*tokenaccount.Record, error)

	// Native Balances
	// --------------------------------------------------------------------------------
	SaveNativeBalance(ctx context.Context, record *balance.Record) error
	GetNativeBalance(ctx context.Context, owner string) (*balance.Record, error)

	// Events
	// --------------------------------------------------------------------------------
	AppendEvent(ctx context.Context, record *event.Record) error
	GetEvent(ctx context.Context, eventId string) (*event.Record, error)
	GetAllEventsBySale(ctx context.Context, sale string, opts ...query.Option) ([]*event.Record, error)

	// ExecuteInTx executes fn with a single DB transaction that is scoped to the call.
	// Every store call made with the provided context joins the transaction, and
	// all of their effects are discarded if fn returns an error.
	ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error

	// LockAccounts takes exclusive locks over the provided addresses for the
	// remainder of the transaction in ctx. It must be called within ExecuteInTx.
	LockAccounts(ctx context.Context, addresses ...string) error
}

// journaled memory stores record undo information for the writes of a memory
// transaction, so a rollback costs as much as the transaction wrote
type journaled interface {
	BeginJournal()
	EndJournal(rollback bool)
}

type memoryTxContextKey struct{}

type DatabaseProvider struct {
	sales         sale.Store
	positions     position.Store
	tokenAccounts tokenaccount.Store
	balances      balance.Store
	events        event.Store

	db *sqlx.DB

	// Serializes memory backed transactions against all other memory access.
	// Unused when backed by postgres.
	memoryMu sync.RWMutex
}

func NewDatabaseProvider(dbConfig *pg.Config) (DatabaseData, error) {
	db, err := pg.NewWithUsernameAndPassword(dbConfig)
	if err != nil {
		return nil, err
	}

	return NewDatabaseProviderFromDB(db), nil
}

// NewDatabaseProviderFromDB returns a postgres backed provider over an already
// opened connection pool, such as one authenticated with AWS IAM.
func NewDatabaseProviderFromDB(db *sql.DB) DatabaseData {
	return &DatabaseProvider{
		sales:         sale_postgres_client.New(db),
		positions:     position_postgres_client.New(db),
		tokenAccounts: tokenaccount_postgres_client.New(db),
		balances:      balance_postgres_client.New(db),
		events:        event_postgres_client.New(db),

		db: sqlx.NewDb(db, "pgx"),
	}
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		sales:         sale_memory_client.New(),
		positions:     position_memory_client.New(),
		tokenAccounts: tokenaccount_memory_client.New(),
		balances:      balance_memory_client.New(),
		events:        event_memory_client.New(),
	}
}

func (dp *DatabaseProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	tracer := metrics.TraceMethodCall(ctx, databaseProviderMetricsName, "ExecuteInTx")
	defer tracer.End()

	if dp.db != nil {
		err := pg.ExecuteTxWithinCtx(ctx, dp.db, isolation, fn)
		tracer.OnError(err)
		return err
	}

	if isInMemoryTx(ctx) {
		return pg.ErrAlreadyInTx
	}

	dp.memoryMu.Lock()
	defer dp.memoryMu.Unlock()

	var stores []journaled
	for _, store := range []interface{}{dp.sales, dp.positions, dp.tokenAccounts, dp.balances, dp.events} {
		if s, ok := store.(journaled); ok {
			s.BeginJournal()
			stores = append(stores, s)
		}
	}

	// Runs on panics too, so a failed fn never leaves partial writes behind
	committed := false
	defer func() {
		for _, s := range stores {
			s.EndJournal(!committed)
		}
	}()

	err := fn(context.WithValue(ctx, memoryTxContextKey{}, true))
	if err != nil {
		tracer.OnError(err)
		return err
	}

	committed = true
	return nil
}

func (dp *DatabaseProvider) LockAccounts(ctx context.Context, addresses ...string) error {
	if dp.db != nil {
		if !pg.IsInTx(ctx) {
			return pg.ErrNotInTx
		}
		return pg.LockKeys(ctx, dp.db, addresses...)
	}

	// The memory transaction already holds exclusive access to everything
	if !isInMemoryTx(ctx) {
		return pg.ErrNotInTx
	}
	return nil
}

// Sales
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateSale(ctx context.Context, record *sale.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.sales.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdateSale(ctx context.Context, record *sale.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.sales.Update(ctx, record)
}
func (dp *DatabaseProvider) GetSaleByAddress(ctx context.Context, address string) (*sale.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.sales.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetSaleByMint(ctx context.Context, mint string) (*sale.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.sales.GetByMint(ctx, mint)
}

// Positions
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreatePosition(ctx context.Context, record *position.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.positions.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdatePosition(ctx context.Context, record *position.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.positions.Update(ctx, record)
}
func (dp *DatabaseProvider) GetPositionByAddress(ctx context.Context, address string) (*position.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.positions.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetAllPositionsBySale(ctx context.Context, sale string, opts ...query.Option) ([]*position.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	defer dp.memoryRead(ctx)()
	return dp.positions.GetAllBySale(ctx, sale, req.Cursor, req.Limit, req.SortBy)
}

// Token Accounts
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateTokenAccount(ctx context.Context, record *tokenaccount.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.tokenAccounts.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdateTokenAccountBalance(ctx context.Context, address string, balance uint64) error {
	defer dp.memoryWrite(ctx)()
	return dp.tokenAccounts.UpdateBalance(ctx, address, balance)
}
func (dp *DatabaseProvider) GetTokenAccountByAddress(ctx context.Context, address string) (*tokenaccount.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.tokenAccounts.GetByAddress(ctx, address)
}

// Native Balances
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) SaveNativeBalance(ctx context.Context, record *balance.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.balances.Save(ctx, record)
}
func (dp *DatabaseProvider) GetNativeBalance(ctx context.Context, owner string) (*balance.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.balances.Get(ctx, owner)
}

// Events
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) AppendEvent(ctx context.Context, record *event.Record) error {
	defer dp.memoryWrite(ctx)()
	return dp.events.Append(ctx, record)
}
func (dp *DatabaseProvider) GetEvent(ctx context.Context, eventId string) (*event.Record, error) {
	defer dp.memoryRead(ctx)()
	return dp.events.Get(ctx, eventId)
}
func (dp *DatabaseProvider) GetAllEventsBySale(ctx context.Context, sale string, opts ...query.Option) ([]*event.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	defer dp.memoryRead(ctx)()
	return dp.events.GetAllBySale(ctx, sale, req.Cursor, req.Limit, req.SortBy)
}

func (dp *DatabaseProvider) memoryRead(ctx context.Context) func() {
	if dp.db != nil || isInMemoryTx(ctx) {
		return func() {}
	}

	dp.memoryMu.RLock()
	return dp.memoryMu.RUnlock
}

func (dp *DatabaseProvider) memoryWrite(ctx context.Context) func() {
	if dp.db != nil || isInMemoryTx(ctx) {
		return func() {}
	}

	dp.memoryMu.Lock()
	return dp.memoryMu.Unlock
}

func isInMemoryTx(ctx context.Context) bool {
	inTx, _ := ctx.Value(memoryTxContextKey{}).(bool)
	return inTx
}
