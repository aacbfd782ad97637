package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
	pgutil "github.com/code-payments/presale-server/pkg/database/postgres"
)

const (
	tableName = "presale__core_nativebalance"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Owner    string `db:"owner"`
	Lamports uint64 `db:"lamports"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *balance.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Owner:    obj.Owner,
		Lamports: obj.Lamports,
	}, nil
}

func fromModel(obj *model) *balance.Record {
	return &balance.Record{
		Id:            uint64(obj.Id.Int64),
		Owner:         obj.Owner,
		Lamports:      obj.Lamports,
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(owner, lamports, last_updated_at)
			VALUES ($1, $2, $3)

			ON CONFLICT (owner)
			DO UPDATE
				SET lamports = $2, last_updated_at = $3
				WHERE ` + tableName + `.owner = $1

			RETURNING
				id, owner, lamports, last_updated_at`

		m.LastUpdatedAt = time.Now()

		return tx.QueryRowxContext(
			ctx,
			query,
			m.Owner,
			m.Lamports,
			m.LastUpdatedAt.UTC(),
		).StructScan(m)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, owner string) (*model, error) {
	res := &model{}

	query := `SELECT id, owner, lamports, last_updated_at FROM ` + tableName + `
		WHERE owner = $1
		LIMIT 1`

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, res, query, owner)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, balance.ErrNotFound)
	}
	return res, nil
}
