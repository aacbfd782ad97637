package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres tokenaccount.Store
func New(db *sql.DB) tokenaccount.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements tokenaccount.Store.Put
func (s *store) Put(ctx context.Context, record *tokenaccount.Record) error {
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

// UpdateBalance implements tokenaccount.Store.UpdateBalance
func (s *store) UpdateBalance(ctx context.Context, address string, balance uint64) error {
	return dbUpdateBalance(ctx, s.db, address, balance)
}

// GetByAddress implements tokenaccount.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*tokenaccount.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
