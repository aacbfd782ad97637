package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/database/query"
)

func RunTests(t *testing.T, s position.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s position.Store){
		testHappyPath,
		testClaimIsTerminal,
		testGetAllBySale,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s position.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		start := time.Now()

		_, err := s.GetByAddress(ctx, "position")
		assert.Equal(t, position.ErrNotFound, err)

		assert.Equal(t, position.ErrNotFound, s.Update(ctx, newTestRecord("sale", "position")))

		expected := newTestRecord("sale", "position")
		require.NoError(t, s.Put(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.CreatedAt.After(start))
		cloned := expected.Clone()

		assert.Equal(t, position.ErrAlreadyExists, s.Put(ctx, newTestRecord("sale", "position")))

		actual, err := s.GetByAddress(ctx, "position")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		expected.Amount += 250
		expected.UnlockAt += 1_000
		require.NoError(t, s.Update(ctx, expected))
		assert.Equal(t, cloned.UnlockAt, expected.UnlockAt)

		cloned.Amount += 250

		actual, err = s.GetByAddress(ctx, "position")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
	})
}

func testClaimIsTerminal(t *testing.T, s position.Store) {
	t.Run("testClaimIsTerminal", func(t *testing.T) {
		ctx := context.Background()

		record := newTestRecord("sale", "position")
		require.NoError(t, s.Put(ctx, record))

		record.IsClaimed = true
		require.NoError(t, s.Update(ctx, record))
		assert.True(t, record.IsClaimed)
		assert.EqualValues(t, 100, record.Amount)

		record.IsClaimed = false
		assert.Equal(t, position.ErrClaimedIsTerminal, s.Update(ctx, record))

		record.IsClaimed = true
		record.Amount = 0
		assert.Equal(t, position.ErrClaimedIsTerminal, s.Update(ctx, record))

		actual, err := s.GetByAddress(ctx, "position")
		require.NoError(t, err)
		assert.True(t, actual.IsClaimed)
		assert.EqualValues(t, 100, actual.Amount)
	})
}

func testGetAllBySale(t *testing.T, s position.Store) {
	t.Run("testGetAllBySale", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllBySale(ctx, "sale1", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, position.ErrNotFound, err)

		var expected []*position.Record
		for i := 0; i < 5; i++ {
			record := newTestRecord("sale1", fmt.Sprintf("position%d", i))
			require.NoError(t, s.Put(ctx, record))
			expected = append(expected, record)

			require.NoError(t, s.Put(ctx, newTestRecord("sale2", fmt.Sprintf("other%d", i))))
		}

		actual, err := s.GetAllBySale(ctx, "sale1", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i := range actual {
			assertEquivalentRecords(t, expected[i], actual[i])
		}

		actual, err = s.GetAllBySale(ctx, "sale1", query.EmptyCursor, 2, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, expected[4], actual[0])
		assertEquivalentRecords(t, expected[3], actual[1])

		actual, err = s.GetAllBySale(ctx, "sale1", query.ToCursor(expected[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, expected[2], actual[0])
		assertEquivalentRecords(t, expected[3], actual[1])

		_, err = s.GetAllBySale(ctx, "sale1", query.ToCursor(expected[4].Id), 2, query.Ascending)
		assert.Equal(t, position.ErrNotFound, err)
	})
}

func newTestRecord(sale, address string) *position.Record {
	return &position.Record{
		Address:      address,
		Bump:         253,
		Sale:         sale,
		Mint:         "mint",
		Buyer:        "buyer_" + address,
		VaultAddress: "vault_" + address,
		Amount:       100,
		UnlockAt:     1_700_000_000,
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *position.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.Sale, obj2.Sale)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Buyer, obj2.Buyer)
	assert.Equal(t, obj1.VaultAddress, obj2.VaultAddress)
	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.UnlockAt, obj2.UnlockAt)
	assert.Equal(t, obj1.IsClaimed, obj2.IsClaimed)
}
