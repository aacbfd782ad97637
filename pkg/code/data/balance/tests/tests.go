package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
)

func RunTests(t *testing.T, s balance.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s balance.Store){
		testHappyPath,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s balance.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "owner")
		assert.Equal(t, balance.ErrNotFound, err)

		start := time.Now()

		expected := &balance.Record{
			Owner:    "owner",
			Lamports: 2_000_000_000,
		}
		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.LastUpdatedAt.After(start))
		id := expected.Id

		actual, err := s.Get(ctx, "owner")
		require.NoError(t, err)
		assert.Equal(t, "owner", actual.Owner)
		assert.EqualValues(t, 2_000_000_000, actual.Lamports)

		expected.Lamports = 0
		require.NoError(t, s.Save(ctx, expected))
		assert.Equal(t, id, expected.Id)

		actual, err = s.Get(ctx, "owner")
		require.NoError(t, err)
		assert.EqualValues(t, 0, actual.Lamports)

		_, err = s.Get(ctx, "other")
		assert.Equal(t, balance.ErrNotFound, err)
	})
}
