package ledger

import (
	"context"
	"database/sql"
	"math/bits"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/code/data/balance"
	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
	pg "github.com/code-payments/presale-server/pkg/database/postgres"
	"github.com/code-payments/presale-server/pkg/metrics"
)

const (
	metricsStructName = "ledger"
)

// Ledger is the host execution environment for presale operations. It runs
// each operation as a single transaction over an explicitly declared set of
// writable accounts, and provides the native and token transfer primitives
// those operations are built from.
type Ledger struct {
	log   *logrus.Entry
	data  code_data.DatabaseData
	clock Clock
}

func New(data code_data.DatabaseData, clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock()
	}

	return &Ledger{
		log:   logrus.StandardLogger().WithField("type", "ledger"),
		data:  data,
		clock: clock,
	}
}

// Now is the time the next transaction would observe
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

// Tx is a transaction in progress. Writes are only permitted against the
// accounts declared writable when the transaction started.
type Tx struct {
	ledger   *Ledger
	writable map[string]struct{}
	now      time.Time
}

// Execute runs fn in a single database transaction after exclusively locking
// every writable account. Either all of fn's effects are committed or none
// are. Serialization failures reported by the database are retried from the
// start, so fn must read everything it depends on through ctx.
func (l *Ledger) Execute(ctx context.Context, writable []*common.Account, fn func(ctx context.Context, tx *Tx) error) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	addresses := make([]string, 0, len(writable))
	for _, account := range writable {
		if err := account.Validate(); err != nil {
			return errors.Wrap(err, "invalid writable account")
		}
		addresses = append(addresses, account.PublicKey().ToBase58())
	}
	sort.Strings(addresses)

	start := time.Now()
	var attempts int
	err := pg.ExecuteRetryable(func() error {
		attempts++

		return l.data.ExecuteInTx(ctx, sql.LevelReadCommitted, func(ctx context.Context) error {
			if err := l.data.LockAccounts(ctx, addresses...); err != nil {
				return errors.Wrap(err, "error locking accounts")
			}

			tx := &Tx{
				ledger:   l,
				writable: make(map[string]struct{}, len(addresses)),
				now:      l.clock.Now(),
			}
			for _, address := range addresses {
				tx.writable[address] = struct{}{}
			}

			return fn(ctx, tx)
		})
	})
	if attempts > 1 {
		l.log.WithFields(logrus.Fields{
			"method":   "Execute",
			"attempts": attempts,
		}).Debug("transaction retried after serialization failure")
		metrics.RecordCount(ctx, "ledger.execute.retries", uint64(attempts-1))
	}
	metrics.RecordDuration(ctx, "ledger.execute.duration", time.Since(start))
	tracer.OnError(err)
	return err
}

// Now is the transaction's timestamp. It is fixed for the lifetime of the
// transaction.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// GetNativeBalance returns the lamports held by owner. An owner that has never
// been funded holds zero.
func (tx *Tx) GetNativeBalance(ctx context.Context, owner *common.Account) (uint64, error) {
	return tx.ledger.getNativeBalance(ctx, owner)
}

// TransferNative moves lamports between wallets
func (tx *Tx) TransferNative(ctx context.Context, source, destination *common.Account, lamports uint64) error {
	if err := tx.checkWritable(source, destination); err != nil {
		return err
	}

	sourceBalance, err := tx.ledger.getNativeBalance(ctx, source)
	if err != nil {
		return err
	}
	if sourceBalance < lamports {
		return ErrInsufficientFunds
	}

	if source.Equal(destination) {
		return nil
	}

	destinationBalance, err := tx.ledger.getNativeBalance(ctx, destination)
	if err != nil {
		return err
	}
	credited, carry := bits.Add64(destinationBalance, lamports, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}

	err = tx.ledger.data.SaveNativeBalance(ctx, &balance.Record{
		Owner:    source.PublicKey().ToBase58(),
		Lamports: sourceBalance - lamports,
	})
	if err != nil {
		return errors.Wrap(err, "error debiting source")
	}

	err = tx.ledger.data.SaveNativeBalance(ctx, &balance.Record{
		Owner:    destination.PublicKey().ToBase58(),
		Lamports: credited,
	})
	if err != nil {
		return errors.Wrap(err, "error crediting destination")
	}

	return nil
}

// GetTokenAccount returns the token account at address, or ErrAccountNotFound
func (tx *Tx) GetTokenAccount(ctx context.Context, address *common.Account) (*tokenaccount.Record, error) {
	return tx.ledger.getTokenAccount(ctx, address)
}

// CreateTokenAccount creates an empty token account for mint at address,
// owned by owner. Creating over an existing account fails with
// ErrAccountAlreadyExists.
func (tx *Tx) CreateTokenAccount(ctx context.Context, address, mint, owner *common.Account) (*tokenaccount.Record, error) {
	if err := tx.checkWritable(address); err != nil {
		return nil, err
	}

	record := &tokenaccount.Record{
		Address: address.PublicKey().ToBase58(),
		Mint:    mint.PublicKey().ToBase58(),
		Owner:   owner.PublicKey().ToBase58(),
	}
	err := tx.ledger.data.CreateTokenAccount(ctx, record)
	if err == tokenaccount.ErrAlreadyExists {
		return nil, ErrAccountAlreadyExists
	} else if err != nil {
		return nil, errors.Wrap(err, "error creating token account")
	}
	return record, nil
}

// GetOrCreateTokenAccount returns the token account at address, creating it
// when it doesn't exist. An existing account must match the expected mint and
// owner.
func (tx *Tx) GetOrCreateTokenAccount(ctx context.Context, address, mint, owner *common.Account) (*tokenaccount.Record, bool, error) {
	existing, err := tx.ledger.getTokenAccount(ctx, address)
	switch err {
	case nil:
		if existing.Mint != mint.PublicKey().ToBase58() {
			return nil, false, ErrMintMismatch
		}
		if existing.Owner != owner.PublicKey().ToBase58() {
			return nil, false, ErrOwnerMismatch
		}
		return existing, false, nil
	case ErrAccountNotFound:
		created, err := tx.CreateTokenAccount(ctx, address, mint, owner)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	default:
		return nil, false, err
	}
}

// TransferToken moves units between token accounts of the same mint. The
// authority must control the source account's owner.
func (tx *Tx) TransferToken(ctx context.Context, source, destination *common.Account, amount uint64, authority Authority) error {
	if err := tx.checkWritable(source, destination); err != nil {
		return err
	}

	sourceRecord, err := tx.ledger.getTokenAccount(ctx, source)
	if err != nil {
		return errors.Wrap(err, "error getting source token account")
	}

	destinationRecord, err := tx.ledger.getTokenAccount(ctx, destination)
	if err != nil {
		return errors.Wrap(err, "error getting destination token account")
	}

	if sourceRecord.Mint != destinationRecord.Mint {
		return ErrMintMismatch
	}

	owner, err := common.NewAccountFromPublicKeyString(sourceRecord.Owner)
	if err != nil {
		return errors.Wrap(err, "invalid source owner")
	}
	if authority == nil || !authority.Authorizes(owner) {
		return ErrUnauthorized
	}

	if sourceRecord.Balance < amount {
		return ErrInsufficientFunds
	}

	if source.Equal(destination) {
		return nil
	}

	credited, carry := bits.Add64(destinationRecord.Balance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}

	err = tx.ledger.data.UpdateTokenAccountBalance(ctx, sourceRecord.Address, sourceRecord.Balance-amount)
	if err != nil {
		return errors.Wrap(err, "error debiting source token account")
	}

	err = tx.ledger.data.UpdateTokenAccountBalance(ctx, destinationRecord.Address, credited)
	if err != nil {
		return errors.Wrap(err, "error crediting destination token account")
	}

	return nil
}

func (tx *Tx) airdrop(ctx context.Context, owner *common.Account, lamports uint64) (uint64, error) {
	if err := tx.checkWritable(owner); err != nil {
		return 0, err
	}

	current, err := tx.ledger.getNativeBalance(ctx, owner)
	if err != nil {
		return 0, err
	}

	updated, carry := bits.Add64(current, lamports, 0)
	if carry != 0 {
		return 0, ErrBalanceOverflow
	}

	err = tx.ledger.data.SaveNativeBalance(ctx, &balance.Record{
		Owner:    owner.PublicKey().ToBase58(),
		Lamports: updated,
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (tx *Tx) mintTo(ctx context.Context, address *common.Account, amount uint64) (uint64, error) {
	if err := tx.checkWritable(address); err != nil {
		return 0, err
	}

	record, err := tx.ledger.getTokenAccount(ctx, address)
	if err != nil {
		return 0, err
	}

	updated, carry := bits.Add64(record.Balance, amount, 0)
	if carry != 0 {
		return 0, ErrBalanceOverflow
	}

	if err := tx.ledger.data.UpdateTokenAccountBalance(ctx, record.Address, updated); err != nil {
		return 0, err
	}
	return updated, nil
}

func (tx *Tx) checkWritable(accounts ...*common.Account) error {
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			return errors.Wrap(err, "invalid account")
		}

		if _, ok := tx.writable[account.PublicKey().ToBase58()]; !ok {
			return errors.Wrapf(ErrAccountNotWritable, "account %s", account.PublicKey().ToBase58())
		}
	}
	return nil
}

func (l *Ledger) getNativeBalance(ctx context.Context, owner *common.Account) (uint64, error) {
	record, err := l.data.GetNativeBalance(ctx, owner.PublicKey().ToBase58())
	switch err {
	case nil:
		return record.Lamports, nil
	case balance.ErrNotFound:
		return 0, nil
	default:
		return 0, errors.Wrap(err, "error getting native balance")
	}
}

func (l *Ledger) getTokenAccount(ctx context.Context, address *common.Account) (*tokenaccount.Record, error) {
	record, err := l.data.GetTokenAccountByAddress(ctx, address.PublicKey().ToBase58())
	switch err {
	case nil:
		return record, nil
	case tokenaccount.ErrNotFound:
		return nil, ErrAccountNotFound
	default:
		return nil, errors.Wrap(err, "error getting token account")
	}
}
