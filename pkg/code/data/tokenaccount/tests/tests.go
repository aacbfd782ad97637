package tests

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
)

func RunTests(t *testing.T, s tokenaccount.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s tokenaccount.Store){
		testHappyPath,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s tokenaccount.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		start := time.Now()

		_, err := s.GetByAddress(ctx, "vault")
		assert.Equal(t, tokenaccount.ErrNotFound, err)
		assert.Equal(t, tokenaccount.ErrNotFound, s.UpdateBalance(ctx, "vault", 1))

		expected := &tokenaccount.Record{
			Address: "vault",
			Mint:    "mint",
			Owner:   "vault_authority",
		}
		require.NoError(t, s.Put(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.CreatedAt.After(start))

		assert.Equal(t, tokenaccount.ErrAlreadyExists, s.Put(ctx, &tokenaccount.Record{
			Address: "vault",
			Mint:    "other_mint",
			Owner:   "other_owner",
		}))

		actual, err := s.GetByAddress(ctx, "vault")
		require.NoError(t, err)
		assert.Equal(t, "mint", actual.Mint)
		assert.Equal(t, "vault_authority", actual.Owner)
		assert.EqualValues(t, 0, actual.Balance)

		require.NoError(t, s.UpdateBalance(ctx, "vault", math.MaxUint64))

		actual, err = s.GetByAddress(ctx, "vault")
		require.NoError(t, err)
		assert.EqualValues(t, uint64(math.MaxUint64), actual.Balance)
	})
}
