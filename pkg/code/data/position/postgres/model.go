package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/position"
	pgutil "github.com/code-payments/presale-server/pkg/database/postgres"
	q "github.com/code-payments/presale-server/pkg/database/query"
)

const (
	tableName = "presale__core_position"

	allColumns = `id, address, bump, sale, mint, buyer, vault_address, amount, unlock_at, is_claimed, created_at, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint   `db:"bump"`

	Sale  string `db:"sale"`
	Mint  string `db:"mint"`
	Buyer string `db:"buyer"`

	VaultAddress string `db:"vault_address"`

	Amount    uint64 `db:"amount"`
	UnlockAt  int64  `db:"unlock_at"`
	IsClaimed bool   `db:"is_claimed"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *position.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Bump:    uint(obj.Bump),

		Sale:  obj.Sale,
		Mint:  obj.Mint,
		Buyer: obj.Buyer,

		VaultAddress: obj.VaultAddress,

		Amount:    obj.Amount,
		UnlockAt:  obj.UnlockAt,
		IsClaimed: obj.IsClaimed,

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *position.Record {
	return &position.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    uint8(obj.Bump),

		Sale:  obj.Sale,
		Mint:  obj.Mint,
		Buyer: obj.Buyer,

		VaultAddress: obj.VaultAddress,

		Amount:    obj.Amount,
		UnlockAt:  obj.UnlockAt,
		IsClaimed: obj.IsClaimed,

		CreatedAt:     obj.CreatedAt.UTC(),
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, bump, sale, mint, buyer, vault_address, amount, unlock_at, is_claimed, created_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.Sale,
			m.Mint,
			m.Buyer,
			m.VaultAddress,
			m.Amount,
			m.UnlockAt,
			m.IsClaimed,
			time.Now().UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, position.ErrAlreadyExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET amount = $2, is_claimed = $3, last_updated_at = $4
			WHERE address = $1 AND NOT is_claimed
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Amount,
			m.IsClaimed,
			time.Now().UTC(),
		).StructScan(m)
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		err = tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE address = $1)`, m.Address)
		if err != nil {
			return err
		}
		if exists {
			return position.ErrClaimedIsTerminal
		}
		return position.ErrNotFound
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
		return nil, pgutil.CheckNoRows(err, position.ErrNotFound)
	}
	return res, nil
}

func dbGetAllBySale(ctx context.Context, db *sqlx.DB, sale string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE (sale = $1)
	`

	opts := []interface{}{sale}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &res, query, opts...)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, position.ErrNotFound)
	}

	if len(res) == 0 {
		return nil, position.ErrNotFound
	}
	return res, nil
}
