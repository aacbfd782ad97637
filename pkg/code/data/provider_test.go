package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
	pg "github.com/code-payments/presale-server/pkg/database/postgres"
	"github.com/code-payments/presale-server/pkg/database/query"
	"github.com/code-payments/presale-server/pkg/pointer"
)

func TestMemoryTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	provider := NewTestDataProvider()

	require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "buyer", Lamports: 100}))

	err := provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
		require.NoError(t, provider.LockAccounts(ctx, "buyer", "treasury"))

		require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "buyer", Lamports: 40}))
		require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "treasury", Lamports: 60}))
		return nil
	})
	require.NoError(t, err)

	record, err := provider.GetNativeBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.EqualValues(t, 40, record.Lamports)

	failure := errors.New("failure")
	err = provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
		require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "buyer", Lamports: 0}))
		require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "treasury", Lamports: 100}))
		require.NoError(t, provider.CreateTokenAccount(ctx, &tokenaccount.Record{Address: "vault", Mint: "mint", Owner: "vault"}))
		require.NoError(t, provider.AppendEvent(ctx, &event.Record{
			EventId:   "event",
			EventType: event.SaleActivityChanged,
			Sale:      "sale",
			Actor:     "authority",
			IsActive:  pointer.Bool(false),
		}))

		// Staged writes are visible within the transaction
		record, err := provider.GetNativeBalance(ctx, "buyer")
		require.NoError(t, err)
		assert.EqualValues(t, 0, record.Lamports)

		return failure
	})
	assert.Equal(t, failure, err)

	record, err = provider.GetNativeBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.EqualValues(t, 40, record.Lamports)

	record, err = provider.GetNativeBalance(ctx, "treasury")
	require.NoError(t, err)
	assert.EqualValues(t, 60, record.Lamports)

	_, err = provider.GetTokenAccountByAddress(ctx, "vault")
	assert.Equal(t, tokenaccount.ErrNotFound, err)

	_, err = provider.GetEvent(ctx, "event")
	assert.Equal(t, event.ErrNotFound, err)
}

func TestMemoryTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	provider := NewTestDataProvider()

	saleRecord := &sale.Record{
		Address:         "sale",
		Authority:       "authority",
		Mint:            "mint",
		Treasury:        "treasury",
		VaultAddress:    "vault",
		PricePerUnit:    10,
		TotalAllocation: 100,
		IsActive:        true,
	}
	require.NoError(t, provider.CreateSale(ctx, saleRecord))
	require.NoError(t, provider.CreatePosition(ctx, &position.Record{
		Address:      "position",
		Sale:         "sale",
		Mint:         "mint",
		Buyer:        "buyer",
		VaultAddress: "buyer_vault",
		UnlockAt:     1,
	}))
	require.NoError(t, provider.CreateTokenAccount(ctx, &tokenaccount.Record{Address: "vault", Mint: "mint", Owner: "vault"}))

	assert.Panics(t, func() {
		_ = provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
			updated := saleRecord.Clone()
			updated.UnitsSold = 50
			require.NoError(t, provider.UpdateSale(ctx, updated))

			staged, err := provider.GetPositionByAddress(ctx, "position")
			require.NoError(t, err)
			staged.Amount = 50
			require.NoError(t, provider.UpdatePosition(ctx, staged))

			require.NoError(t, provider.UpdateTokenAccountBalance(ctx, "vault", 50))
			require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "treasury", Lamports: 500}))
			require.NoError(t, provider.AppendEvent(ctx, &event.Record{
				EventId:   "purchase",
				EventType: event.SaleActivityChanged,
				Sale:      "sale",
				Actor:     "buyer",
				IsActive:  pointer.Bool(true),
			}))

			panic("failure")
		})
	})

	storedSale, err := provider.GetSaleByAddress(ctx, "sale")
	require.NoError(t, err)
	assert.EqualValues(t, 0, storedSale.UnitsSold)

	storedPosition, err := provider.GetPositionByAddress(ctx, "position")
	require.NoError(t, err)
	assert.EqualValues(t, 0, storedPosition.Amount)

	storedVault, err := provider.GetTokenAccountByAddress(ctx, "vault")
	require.NoError(t, err)
	assert.EqualValues(t, 0, storedVault.Balance)

	_, err = provider.GetNativeBalance(ctx, "treasury")
	assert.Equal(t, balance.ErrNotFound, err)

	_, err = provider.GetEvent(ctx, "purchase")
	assert.Equal(t, event.ErrNotFound, err)

	// The provider is usable afterwards and ids continue where the committed
	// state left off
	record := &event.Record{
		EventId:   "after",
		EventType: event.SaleActivityChanged,
		Sale:      "sale",
		Actor:     "authority",
		IsActive:  pointer.Bool(false),
	}
	require.NoError(t, provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
		return provider.AppendEvent(ctx, record)
	}))
	assert.EqualValues(t, 1, record.Id)
}

func TestMemoryTx_Nesting(t *testing.T) {
	ctx := context.Background()
	provider := NewTestDataProvider()

	err := provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
		return provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
			return nil
		})
	})
	assert.Equal(t, pg.ErrAlreadyInTx, err)

	assert.Equal(t, pg.ErrNotInTx, provider.LockAccounts(ctx, "account"))
}

func TestMemoryTx_Serialized(t *testing.T) {
	ctx := context.Background()
	provider := NewTestDataProvider()

	require.NoError(t, provider.SaveNativeBalance(ctx, &balance.Record{Owner: "counter"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := provider.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
				record, err := provider.GetNativeBalance(ctx, "counter")
				if err != nil {
					return err
				}
				record.Lamports++
				return provider.SaveNativeBalance(ctx, record)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := provider.GetNativeBalance(ctx, "counter")
	require.NoError(t, err)
	assert.EqualValues(t, 50, record.Lamports)
}

func TestPaginationOptions(t *testing.T) {
	ctx := context.Background()
	provider := NewTestDataProvider()

	require.NoError(t, provider.CreateSale(ctx, &sale.Record{
		Address:         "sale",
		Authority:       "authority",
		Mint:            "mint",
		Treasury:        "treasury",
		VaultAddress:    "vault",
		PricePerUnit:    1,
		TotalAllocation: 10,
		IsActive:        true,
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, provider.AppendEvent(ctx, &event.Record{
			EventId:   fmt.Sprintf("event%d", i),
			EventType: event.SaleActivityChanged,
			Sale:      "sale",
			Actor:     "authority",
			IsActive:  pointer.Bool(i%2 == 0),
		}))
	}

	records, err := provider.GetAllEventsBySale(ctx, "sale")
	require.NoError(t, err)
	assert.Len(t, records, 5)

	records, err = provider.GetAllEventsBySale(ctx, "sale", query.WithLimit(2), query.WithDirection(query.Descending))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "event4", records[0].EventId)

	_, err = provider.GetAllEventsBySale(ctx, "sale", query.WithLimit(100_000))
	assert.Equal(t, query.ErrQueryNotSupported, err)
}
