package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/sale"
	pgutil "github.com/code-payments/presale-server/pkg/database/postgres"
)

const (
	tableName = "presale__core_sale"

	allColumns = `id, address, authority, mint, treasury, vault_address, vault_bump, price_per_unit, total_allocation, units_sold, is_active, created_at, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`

	Authority string `db:"authority"`
	Mint      string `db:"mint"`
	Treasury  string `db:"treasury"`

	VaultAddress string `db:"vault_address"`
	VaultBump    uint   `db:"vault_bump"`

	PricePerUnit    uint64 `db:"price_per_unit"`
	TotalAllocation uint64 `db:"total_allocation"`
	UnitsSold       uint64 `db:"units_sold"`
	IsActive        bool   `db:"is_active"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *sale.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,

		Authority: obj.Authority,
		Mint:      obj.Mint,
		Treasury:  obj.Treasury,

		VaultAddress: obj.VaultAddress,
		VaultBump:    uint(obj.VaultBump),

		PricePerUnit:    obj.PricePerUnit,
		TotalAllocation: obj.TotalAllocation,
		UnitsSold:       obj.UnitsSold,
		IsActive:        obj.IsActive,

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *sale.Record {
	return &sale.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,

		Authority: obj.Authority,
		Mint:      obj.Mint,
		Treasury:  obj.Treasury,

		VaultAddress: obj.VaultAddress,
		VaultBump:    uint8(obj.VaultBump),

		PricePerUnit:    obj.PricePerUnit,
		TotalAllocation: obj.TotalAllocation,
		UnitsSold:       obj.UnitsSold,
		IsActive:        obj.IsActive,

		CreatedAt:     obj.CreatedAt.UTC(),
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, authority, mint, treasury, vault_address, vault_bump, price_per_unit, total_allocation, units_sold, is_active, created_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Authority,
			m.Mint,
			m.Treasury,
			m.VaultAddress,
			m.VaultBump,
			m.PricePerUnit,
			m.TotalAllocation,
			m.UnitsSold,
			m.IsActive,
			time.Now().UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, sale.ErrAlreadyExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET units_sold = $2, is_active = $3, last_updated_at = $4
			WHERE address = $1
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.UnitsSold,
			m.IsActive,
			time.Now().UTC(),
		).StructScan(m)

		err = pgutil.CheckConstraintViolation(err, sale.ErrInvalidRecord)
		return pgutil.CheckNoRows(err, sale.ErrNotFound)
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
		return nil, pgutil.CheckNoRows(err, sale.ErrNotFound)
	}
	return res, nil
}

func dbGetByMint(ctx context.Context, db *sqlx.DB, mint string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE mint = $1
		LIMIT 1`

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, res, query, mint)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, sale.ErrNotFound)
	}
	return res, nil
}
