package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/sale"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres sale.Store
func New(db *sql.DB) sale.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements sale.Store.Put
func (s *store) Put(ctx context.Context, record *sale.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Update implements sale.Store.Update
func (s *store) Update(ctx context.Context, record *sale.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// GetByAddress implements sale.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*sale.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByMint implements sale.Store.GetByMint
func (s *store) GetByMint(ctx context.Context, mint string) (*sale.Record, error) {
	model, err := dbGetByMint(ctx, s.db, mint)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
