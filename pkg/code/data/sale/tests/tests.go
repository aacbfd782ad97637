package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/sale"
)

func RunTests(t *testing.T, s sale.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s sale.Store){
		testHappyPath,
		testDuplicates,
		testUpdateBounds,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s sale.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		start := time.Now()

		_, err := s.GetByAddress(ctx, "sale")
		assert.Equal(t, sale.ErrNotFound, err)

		_, err = s.GetByMint(ctx, "mint")
		assert.Equal(t, sale.ErrNotFound, err)

		expected := newTestRecord("sale", "mint", "vault")
		require.NoError(t, s.Put(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.CreatedAt.After(start))
		cloned := expected.Clone()

		actual, err := s.GetByAddress(ctx, "sale")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		actual, err = s.GetByMint(ctx, "mint")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		expected.UnitsSold = 400
		expected.IsActive = false
		// Immutable fields are ignored on update
		expected.PricePerUnit = 1
		expected.Treasury = "other_treasury"
		require.NoError(t, s.Update(ctx, expected))
		assert.Equal(t, cloned.PricePerUnit, expected.PricePerUnit)
		assert.Equal(t, cloned.Treasury, expected.Treasury)

		cloned.UnitsSold = 400
		cloned.IsActive = false

		actual, err = s.GetByAddress(ctx, "sale")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.EqualValues(t, 600, actual.RemainingAllocation())
	})
}

func testDuplicates(t *testing.T, s sale.Store) {
	t.Run("testDuplicates", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, newTestRecord("sale1", "mint1", "vault1")))

		assert.Equal(t, sale.ErrAlreadyExists, s.Put(ctx, newTestRecord("sale1", "mint2", "vault2")))
		assert.Equal(t, sale.ErrAlreadyExists, s.Put(ctx, newTestRecord("sale2", "mint1", "vault2")))
		assert.Equal(t, sale.ErrAlreadyExists, s.Put(ctx, newTestRecord("sale2", "mint2", "vault1")))

		require.NoError(t, s.Put(ctx, newTestRecord("sale2", "mint2", "vault2")))
	})
}

func testUpdateBounds(t *testing.T, s sale.Store) {
	t.Run("testUpdateBounds", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, sale.ErrNotFound, s.Update(ctx, newTestRecord("sale", "mint", "vault")))

		record := newTestRecord("sale", "mint", "vault")
		require.NoError(t, s.Put(ctx, record))

		record.UnitsSold = record.TotalAllocation
		require.NoError(t, s.Update(ctx, record))

		record.UnitsSold = record.TotalAllocation + 1
		assert.Error(t, s.Update(ctx, record))

		actual, err := s.GetByAddress(ctx, "sale")
		require.NoError(t, err)
		assert.Equal(t, actual.TotalAllocation, actual.UnitsSold)
		assert.EqualValues(t, 0, actual.RemainingAllocation())
	})
}

func newTestRecord(address, mint, vault string) *sale.Record {
	return &sale.Record{
		Address:         address,
		Authority:       "authority",
		Mint:            mint,
		Treasury:        "treasury",
		VaultAddress:    vault,
		VaultBump:       254,
		PricePerUnit:    1_000_000,
		TotalAllocation: 1_000,
		IsActive:        true,
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *sale.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Authority, obj2.Authority)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Treasury, obj2.Treasury)
	assert.Equal(t, obj1.VaultAddress, obj2.VaultAddress)
	assert.Equal(t, obj1.VaultBump, obj2.VaultBump)
	assert.Equal(t, obj1.PricePerUnit, obj2.PricePerUnit)
	assert.Equal(t, obj1.TotalAllocation, obj2.TotalAllocation)
	assert.Equal(t, obj1.UnitsSold, obj2.UnitsSold)
	assert.Equal(t, obj1.IsActive, obj2.IsActive)
}
