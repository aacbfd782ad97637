package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres position.Store
func New(db *sql.DB) position.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements position.Store.Put
func (s *store) Put(ctx context.Context, record *position.Record) error {
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

// Update implements position.Store.Update
func (s *store) Update(ctx context.Context, record *position.Record) error {
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

// GetByAddress implements position.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*position.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllBySale implements position.Store.GetAllBySale
func (s *store) GetAllBySale(ctx context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*position.Record, error) {
	models, err := dbGetAllBySale(ctx, s.db, sale, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*position.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}
