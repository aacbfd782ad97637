package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/retry"
	"github.com/code-payments/presale-server/pkg/retry/backoff"
)

type txStructContextKey struct{}
type txIsolationContextKey struct{}

var (
	ErrAlreadyInTx = errors.New("already executing in existing db tx")
	ErrNotInTx     = errors.New("not executing in existing db tx")
)

const (
	maxSerializationRetries = 5
	serializationBackoff    = 10 * time.Millisecond
	maxSerializationBackoff = 250 * time.Millisecond
)

// ExecuteRetryable runs fn again when postgres reports a serialization
// failure, up to a bounded number of attempts.
func ExecuteRetryable(fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.Limit(maxSerializationRetries),
		retry.RetriableWhen(IsSerializationFailure),
		retry.BackoffWithJitter(backoff.Exponential(serializationBackoff, 2), maxSerializationBackoff, 0.1),
	)
	return err
}

// ExecuteTxWithinCtx executes a DB transaction that's scoped to a call to fn. The transaction
// is passed along with the context. Once fn is complete, commit/rollback is called based
// on whether an error is returned.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	if IsInTx(ctx) {
		return ErrAlreadyInTx
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txStructContextKey{}, tx)
	ctx = context.WithValue(ctx, txIsolationContextKey{}, isolation)

	if err := fn(ctx); err != nil {
		// Rollback always runs so the connection goes back to the pool
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rollbackErr)
		}
		return err
	}
	return tx.Commit()
}

// ExecuteInTx is meant for DB store implementations to execute an operation within
// the scope of a DB transaction. It joins the transaction started by
// ExecuteTxWithinCtx when there is one, otherwise it owns a new transaction
// and is responsible for its commit or rollback.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	tx, err := getTxFromCtx(ctx, isolation)
	if err == nil {
		return fn(tx)
	} else if err != ErrNotInTx {
		return err
	}

	tx, err = db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rollbackErr)
		}
		return err
	}
	return tx.Commit()
}

// IsInTx reports whether ctx carries a transaction started by ExecuteTxWithinCtx
func IsInTx(ctx context.Context) bool {
	return ctx.Value(txStructContextKey{}) != nil
}

// LockKeys takes a transaction scoped advisory lock for every key. Keys are
// locked in sorted order so that concurrent callers over overlapping key sets
// cannot deadlock. The locks are released when the transaction ends.
func LockKeys(ctx context.Context, db *sqlx.DB, keys ...string) error {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	return ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		var previous string
		for i, key := range sorted {
			if i > 0 && key == previous {
				continue
			}
			previous = key

			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func getTxFromCtx(ctx context.Context, desiredIsolation sql.IsolationLevel) (*sqlx.Tx, error) {
	txFromCtx := ctx.Value(txStructContextKey{})
	if txFromCtx == nil {
		return nil, ErrNotInTx
	}

	tx, ok := txFromCtx.(*sqlx.Tx)
	if !ok {
		return nil, errors.New("invalid type for tx")
	}

	currentIsolation, ok := ctx.Value(txIsolationContextKey{}).(sql.IsolationLevel)
	if !ok {
		return nil, errors.New("unexpectedly don't have isolation level set")
	}

	if currentIsolation < desiredIsolation {
		return nil, errors.New("current tx doesn't meet isolation level requirements")
	}

	return tx, nil
}
