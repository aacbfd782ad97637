package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres balance.Store
func New(db *sql.DB) balance.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements balance.Store.Save
func (s *store) Save(ctx context.Context, record *balance.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Get implements balance.Store.Get
func (s *store) Get(ctx context.Context, owner string) (*balance.Record, error) {
	model, err := dbGet(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
