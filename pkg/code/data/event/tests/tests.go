package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/database/query"
	"github.com/code-payments/presale-server/pkg/pointer"
)

func RunTests(t *testing.T, s event.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s event.Store){
		testHappyPath,
		testValidation,
		testPagination,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s event.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "event_id")
		assert.Equal(t, event.ErrNotFound, err)

		start := time.Now().Add(-time.Second)

		expected := &event.Record{
			EventId:   "event_id",
			EventType: event.UnitsPurchased,
			Sale:      "sale",
			Actor:     "buyer",
			Position:  pointer.String("position"),
			Amount:    100,
			Payment:   1_000,
			UnlockAt:  pointer.Int64(1_700_000_000),
		}
		cloned := expected.Clone()
		require.NoError(t, s.Append(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.CreatedAt.After(start))

		actual, err := s.Get(ctx, "event_id")
		require.NoError(t, err)
		assert.Equal(t, expected.Id, actual.Id)
		assert.Equal(t, cloned.EventId, actual.EventId)
		assert.Equal(t, cloned.EventType, actual.EventType)
		assert.Equal(t, cloned.Sale, actual.Sale)
		assert.Equal(t, cloned.Actor, actual.Actor)
		assert.Equal(t, *cloned.Position, *actual.Position)
		assert.Equal(t, cloned.Amount, actual.Amount)
		assert.Equal(t, cloned.Payment, actual.Payment)
		assert.Equal(t, *cloned.UnlockAt, *actual.UnlockAt)
		assert.Nil(t, actual.IsActive)

		assert.Equal(t, event.ErrAlreadyExists, s.Append(ctx, cloned))

		toggled := &event.Record{
			EventId:   "toggle_id",
			EventType: event.SaleActivityChanged,
			Sale:      "sale",
			Actor:     "authority",
			IsActive:  pointer.Bool(false),
		}
		require.NoError(t, s.Append(ctx, toggled))

		actual, err = s.Get(ctx, "toggle_id")
		require.NoError(t, err)
		assert.Nil(t, actual.Position)
		assert.Nil(t, actual.UnlockAt)
		require.NotNil(t, actual.IsActive)
		assert.False(t, *actual.IsActive)
	})
}

func testValidation(t *testing.T, s event.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		for _, invalid := range []*event.Record{
			{EventType: event.UnitsClaimed, Sale: "sale", Actor: "buyer", Position: pointer.String("position")},
			{EventId: "id", Sale: "sale", Actor: "buyer"},
			{EventId: "id", EventType: event.UnitsPurchased, Sale: "sale", Actor: "buyer", Amount: 1},
			{EventId: "id", EventType: event.UnitsClaimed, Sale: "sale", Actor: "buyer"},
			{EventId: "id", EventType: event.SaleInitialized, Sale: "sale", Actor: "authority"},
		} {
			assert.Error(t, s.Append(ctx, invalid))
		}

		_, err := s.Get(ctx, "id")
		assert.Equal(t, event.ErrNotFound, err)
	})
}

func testPagination(t *testing.T, s event.Store) {
	t.Run("testPagination", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllBySale(ctx, "sale", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, event.ErrNotFound, err)

		var records []*event.Record
		for i := 0; i < 10; i++ {
			record := &event.Record{
				EventId:   fmt.Sprintf("event%d", i),
				EventType: event.UnitsClaimed,
				Sale:      "sale",
				Actor:     "buyer",
				Position:  pointer.String("position"),
				Amount:    uint64(i),
			}
			require.NoError(t, s.Append(ctx, record))
			records = append(records, record)
		}

		require.NoError(t, s.Append(ctx, &event.Record{
			EventId:   "other",
			EventType: event.SaleInitialized,
			Sale:      "other_sale",
			Actor:     "authority",
			IsActive:  pointer.Bool(true),
		}))

		actual, err := s.GetAllBySale(ctx, "sale", query.EmptyCursor, 100, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 10)
		for i, record := range actual {
			assert.Equal(t, records[i].EventId, record.EventId)
		}

		actual, err = s.GetAllBySale(ctx, "sale", query.ToCursor(records[3].Id), 3, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, records[4].EventId, actual[0].EventId)
		assert.Equal(t, records[6].EventId, actual[2].EventId)

		actual, err = s.GetAllBySale(ctx, "sale", query.EmptyCursor, 2, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, records[9].EventId, actual[0].EventId)
		assert.Equal(t, records[8].EventId, actual[1].EventId)

		actual, err = s.GetAllBySale(ctx, "sale", query.ToCursor(records[2].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, records[1].EventId, actual[0].EventId)
		assert.Equal(t, records[0].EventId, actual[1].EventId)

		_, err = s.GetAllBySale(ctx, "sale", query.ToCursor(records[9].Id), 10, query.Ascending)
		assert.Equal(t, event.ErrNotFound, err)
	})
}
