package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/presale-server/pkg/code/data/event"
	pgutil "github.com/code-payments/presale-server/pkg/database/postgres"
	q "github.com/code-payments/presale-server/pkg/database/query"
	"github.com/code-payments/presale-server/pkg/pointer"
)

const (
	tableName = "presale__core_event"

	allColumns = `id, event_id, event_type, sale, actor, position, amount, payment, unlock_at, is_active, created_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	EventId   string `db:"event_id"`
	EventType uint32 `db:"event_type"`

	Sale     string         `db:"sale"`
	Actor    string         `db:"actor"`
	Position sql.NullString `db:"position"`

	Amount   uint64        `db:"amount"`
	Payment  uint64        `db:"payment"`
	UnlockAt sql.NullInt64 `db:"unlock_at"`
	IsActive sql.NullBool  `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *event.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	m := &model{
		EventId:   obj.EventId,
		EventType: uint32(obj.EventType),

		Sale:  obj.Sale,
		Actor: obj.Actor,

		Amount:  obj.Amount,
		Payment: obj.Payment,

		CreatedAt: obj.CreatedAt,
	}

	if obj.Position != nil {
		m.Position = sql.NullString{Valid: true, String: *obj.Position}
	}
	if obj.UnlockAt != nil {
		m.UnlockAt = sql.NullInt64{Valid: true, Int64: *obj.UnlockAt}
	}
	if obj.IsActive != nil {
		m.IsActive = sql.NullBool{Valid: true, Bool: *obj.IsActive}
	}

	return m, nil
}

func fromModel(obj *model) *event.Record {
	return &event.Record{
		Id: uint64(obj.Id.Int64),

		EventId:   obj.EventId,
		EventType: event.Type(obj.EventType),

		Sale:     obj.Sale,
		Actor:    obj.Actor,
		Position: pointer.StringIfValid(obj.Position.Valid, obj.Position.String),

		Amount:   obj.Amount,
		Payment:  obj.Payment,
		UnlockAt: pointer.Int64IfValid(obj.UnlockAt.Valid, obj.UnlockAt.Int64),
		IsActive: pointer.BoolIfValid(obj.IsActive.Valid, obj.IsActive.Bool),

		CreatedAt: obj.CreatedAt.UTC(),
	}
}

func (m *model) dbAppend(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(event_id, event_type, sale, actor, position, amount, payment, unlock_at, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + allColumns

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.EventId,
			m.EventType,
			m.Sale,
			m.Actor,
			m.Position,
			m.Amount,
			m.Payment,
			m.UnlockAt,
			m.IsActive,
			m.CreatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, event.ErrAlreadyExists)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, eventId string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE event_id = $1
		LIMIT 1`

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, res, query, eventId)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, event.ErrNotFound)
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
		return nil, pgutil.CheckNoRows(err, event.ErrNotFound)
	}

	if len(res) == 0 {
		return nil, event.ErrNotFound
	}
	return res, nil
}
