package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres event.Store
func New(db *sql.DB) event.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Append implements event.Store.Append
func (s *store) Append(ctx context.Context, record *event.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbAppend(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Get implements event.Store.Get
func (s *store) Get(ctx context.Context, eventId string) (*event.Record, error) {
	model, err := dbGet(ctx, s.db, eventId)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllBySale implements event.Store.GetAllBySale
func (s *store) GetAllBySale(ctx context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*event.Record, error) {
	models, err := dbGetAllBySale(ctx, s.db, sale, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*event.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}
