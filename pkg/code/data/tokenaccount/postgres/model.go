package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
	pgutil "github.com/code-payments/presale-server/pkg/database/postgres"
)

const (
	tableName = "presale__core_tokenaccount"

	allColumns = `id, address, mint, owner, balance, created_at, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Mint    string `db:"mint"`
	Owner   string `db:"owner"`

	Balance uint64 `db:"balance"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *tokenaccount.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Mint:    obj.Mint,
		Owner:   obj.Owner,
		Balance: obj.Balance,
	}, nil
}

func fromModel(obj *model) *tokenaccount.Record {
	return &tokenaccount.Record{
		Id:            uint64(obj.Id.Int64),
		Address:       obj.Address,
		Mint:          obj.Mint,
		Owner:         obj.Owner,
		Balance:       obj.Balance,
		CreatedAt:     obj.CreatedAt.UTC(),
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, mint, owner, balance, created_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Mint,
			m.Owner,
			m.Balance,
			time.Now().UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, tokenaccount.ErrAlreadyExists)
	})
}

func dbUpdateBalance(ctx context.Context, db *sqlx.DB, address string, balance uint64) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET balance = $2, last_updated_at = $3
			WHERE address = $1`

		res, err := tx.ExecContext(ctx, query, address, balance, time.Now().UTC())
		if err != nil {
			return err
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return tokenaccount.ErrNotFound
		}
		return nil
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, res, query, address)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, tokenaccount.ErrNotFound)
	}
	return res, nil
}
