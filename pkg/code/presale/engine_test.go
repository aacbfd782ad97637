package presale

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/common"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/database/query"
	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
	"github.com/code-payments/presale-server/pkg/testutil"
)

var t0 = time.Unix(1_700_000_000, 0)

type testEnv struct {
	ctx    context.Context
	data   code_data.Provider
	clock  *ledger.FixedClock
	ledger *ledger.Ledger
	engine *Engine

	authority *common.Account
	sale      *common.Account
	mint      *common.Account
	treasury  *common.Account
}

func setup(t *testing.T) *testEnv {
	data := code_data.NewTestDataProvider()
	clock := ledger.NewFixedClock(t0)
	l := ledger.New(data, clock)

	return &testEnv{
		ctx:    context.Background(),
		data:   data,
		clock:  clock,
		ledger: l,
		engine: NewEngine(data, l, withManualTestOverrides(&testOverrides{})),

		authority: testutil.NewRandomAccount(t),
		sale:      testutil.NewRandomAccount(t),
		mint:      testutil.NewRandomAccount(t),
		treasury:  testutil.NewRandomAccount(t),
	}
}

// initialize creates the sale and stocks its vault with the full allocation
func (e *testEnv) initialize(t *testing.T, price, allocation uint64) *sale.Record {
	record, err := e.engine.Initialize(e.ctx, &InitializeArgs{
		Authority:       e.authority,
		Sale:            e.sale,
		Mint:            e.mint,
		Treasury:        e.treasury,
		PricePerUnit:    price,
		TotalAllocation: allocation,
	})
	require.NoError(t, err)

	vault := e.saleVault(t)
	testutil.FundTokenAccount(t, e.ledger, vault.Vault, allocation)

	return record
}

func (e *testEnv) saleVault(t *testing.T) *common.SaleVaultAccounts {
	vault, err := e.engine.SaleVault(e.mint)
	require.NoError(t, err)
	return vault
}

func (e *testEnv) newBuyer(t *testing.T, lamports uint64) *common.Account {
	buyer := testutil.NewRandomAccount(t)
	if lamports > 0 {
		testutil.FundNative(t, e.ledger, buyer, lamports)
	}
	return buyer
}

func (e *testEnv) assertNativeBalance(t *testing.T, owner *common.Account, expected uint64) {
	actual, err := e.ledger.GetNativeBalance(e.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func (e *testEnv) assertTokenBalance(t *testing.T, address *common.Account, expected uint64) {
	actual, err := e.ledger.GetTokenBalance(e.ctx, address)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func (e *testEnv) assertUnitsSold(t *testing.T, expected uint64) {
	record, err := e.engine.GetSale(e.ctx, e.sale)
	require.NoError(t, err)
	assert.Equal(t, expected, record.UnitsSold)
	assert.True(t, record.UnitsSold <= record.TotalAllocation)
}

func (e *testEnv) eventTypes(t *testing.T) []event.Type {
	records, err := e.engine.GetEvents(e.ctx, e.sale)
	require.NoError(t, err)

	var types []event.Type
	for _, record := range records {
		types = append(types, record.EventType)
	}
	return types
}

func TestInitialize_HappyPath(t *testing.T) {
	env := setup(t)

	record := env.initialize(t, 100, 1000)

	assert.Equal(t, env.sale.PublicKey().ToBase58(), record.Address)
	assert.Equal(t, env.authority.PublicKey().ToBase58(), record.Authority)
	assert.Equal(t, env.mint.PublicKey().ToBase58(), record.Mint)
	assert.Equal(t, env.treasury.PublicKey().ToBase58(), record.Treasury)
	assert.EqualValues(t, 100, record.PricePerUnit)
	assert.EqualValues(t, 1000, record.TotalAllocation)
	assert.Zero(t, record.UnitsSold)
	assert.True(t, record.IsActive)

	vault := env.saleVault(t)
	assert.Equal(t, vault.Vault.PublicKey().ToBase58(), record.VaultAddress)
	assert.Equal(t, vault.VaultBump, record.VaultBump)

	// The vault is its own authority
	tokenAccount, err := env.data.GetTokenAccountByAddress(env.ctx, record.VaultAddress)
	require.NoError(t, err)
	assert.Equal(t, record.VaultAddress, tokenAccount.Owner)
	assert.Equal(t, record.Mint, tokenAccount.Mint)
	env.assertTokenBalance(t, vault.Vault, 1000)

	assert.Equal(t, []event.Type{event.SaleInitialized}, env.eventTypes(t))
}

func TestInitialize_Duplicate(t *testing.T) {
	env := setup(t)

	env.initialize(t, 100, 1000)

	// Same sale identity
	_, err := env.engine.Initialize(env.ctx, &InitializeArgs{
		Authority:       env.authority,
		Sale:            env.sale,
		Mint:            testutil.NewRandomAccount(t),
		Treasury:        env.treasury,
		PricePerUnit:    1,
		TotalAllocation: 1,
	})
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))
	assert.Equal(t, KindPreconditionViolation, KindOf(err))

	// Same mint, and therefore the same vault
	_, err = env.engine.Initialize(env.ctx, &InitializeArgs{
		Authority:       env.authority,
		Sale:            testutil.NewRandomAccount(t),
		Mint:            env.mint,
		Treasury:        env.treasury,
		PricePerUnit:    1,
		TotalAllocation: 1,
	})
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))

	record, err := env.engine.GetSale(env.ctx, env.sale)
	require.NoError(t, err)
	assert.EqualValues(t, 100, record.PricePerUnit)
	assert.EqualValues(t, 1000, record.TotalAllocation)

	assert.Equal(t, []event.Type{event.SaleInitialized}, env.eventTypes(t))
}

func TestInitialize_Validation(t *testing.T) {
	env := setup(t)

	_, err := env.engine.Initialize(env.ctx, &InitializeArgs{
		Authority: env.authority,
		Sale:      env.sale,
		Mint:      env.mint,
	})
	assert.Error(t, err)

	_, err = env.engine.GetSale(env.ctx, env.sale)
	assert.Equal(t, ErrSaleNotFound, err)
}

// Mirrors the lifecycle of a single buyer through purchase, lock and claim
func TestPurchaseAndClaim_Lifecycle(t *testing.T) {
	env := setup(t)
	env.initialize(t, 100, 1000)

	buyer := env.newBuyer(t, 10_000)

	result, err := env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	require.NoError(t, err)
	assert.True(t, result.IsFirstPurchase)
	assert.EqualValues(t, 1_000, result.Cost)
	assert.EqualValues(t, 10, result.Sale.UnitsSold)
	assert.EqualValues(t, 10, result.Position.Amount)
	assert.Equal(t, t0.Unix()+presale_program.LockDurationSeconds, result.Position.UnlockAt)
	assert.False(t, result.Position.IsClaimed)

	expectedUnlockAt := result.Position.UnlockAt

	accounts, err := env.engine.PositionAccounts(buyer, env.mint)
	require.NoError(t, err)
	env.assertTokenBalance(t, accounts.Vault, 10)
	env.assertTokenBalance(t, env.saleVault(t).Vault, 990)
	env.assertNativeBalance(t, buyer, 9_000)
	env.assertNativeBalance(t, env.treasury, 1_000)

	// Later purchases accumulate without moving the unlock time
	env.clock.Advance(24 * time.Hour)

	result, err = env.engine.Purchase(env.ctx, env.sale, buyer, 5)
	require.NoError(t, err)
	assert.False(t, result.IsFirstPurchase)
	assert.EqualValues(t, 15, result.Sale.UnitsSold)
	assert.EqualValues(t, 15, result.Position.Amount)
	assert.Equal(t, expectedUnlockAt, result.Position.UnlockAt)
	env.assertTokenBalance(t, accounts.Vault, 15)
	env.assertNativeBalance(t, env.treasury, 1_500)

	// Still locked
	_, err = env.engine.Claim(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrTokensStillLocked, err)
	env.assertTokenBalance(t, accounts.Vault, 15)

	env.clock.Set(time.Unix(expectedUnlockAt-1, 0))
	_, err = env.engine.Claim(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrTokensStillLocked, err)

	// Unlocks exactly at the unlock time
	env.clock.Set(time.Unix(expectedUnlockAt, 0))
	claimed, err := env.engine.Claim(env.ctx, env.sale, buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 15, claimed.Amount)
	assert.True(t, claimed.Position.IsClaimed)
	assert.EqualValues(t, 15, claimed.Position.Amount)
	assert.Equal(t, accounts.FreeBalance.PublicKey().ToBase58(), claimed.FreeBalance.PublicKey().ToBase58())

	env.assertTokenBalance(t, accounts.Vault, 0)
	env.assertTokenBalance(t, accounts.FreeBalance, 15)

	freeBalance, err := env.data.GetTokenAccountByAddress(env.ctx, accounts.FreeBalance.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, buyer.PublicKey().ToBase58(), freeBalance.Owner)

	// Exactly once
	_, err = env.engine.Claim(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrAlreadyClaimed, err)
	env.assertTokenBalance(t, accounts.FreeBalance, 15)

	record, _, err := env.engine.GetPosition(env.ctx, env.sale, buyer)
	require.NoError(t, err)
	assert.True(t, record.IsClaimed)
	assert.EqualValues(t, 15, record.Amount)
	assert.Equal(t, expectedUnlockAt, record.UnlockAt)

	assert.Equal(t, []event.Type{
		event.SaleInitialized,
		event.UnitsPurchased,
		event.UnitsPurchased,
		event.UnitsClaimed,
	}, env.eventTypes(t))
}

func TestPurchase_AllocationBoundary(t *testing.T) {
	env := setup(t)
	env.initialize(t, 100, 1000)

	buyerA := env.newBuyer(t, math.MaxUint32)
	buyerB := env.newBuyer(t, math.MaxUint32)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyerA, 15)
	require.NoError(t, err)

	// 15 + 995 = 1010 > 1000
	_, err = env.engine.Purchase(env.ctx, env.sale, buyerB, 995)
	assert.Equal(t, ErrExceedsAllocation, err)
	env.assertUnitsSold(t, 15)
	env.assertNativeBalance(t, buyerB, math.MaxUint32)
	_, _, err = env.engine.GetPosition(env.ctx, env.sale, buyerB)
	assert.Equal(t, ErrPositionNotFound, err)

	// One past the cap
	_, err = env.engine.Purchase(env.ctx, env.sale, buyerB, 986)
	assert.Equal(t, ErrExceedsAllocation, err)
	env.assertUnitsSold(t, 15)

	// Exactly the cap
	result, err := env.engine.Purchase(env.ctx, env.sale, buyerB, 985)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, result.Sale.UnitsSold)
	assert.Zero(t, result.Sale.RemainingAllocation())
	env.assertTokenBalance(t, env.saleVault(t).Vault, 0)

	_, err = env.engine.Purchase(env.ctx, env.sale, buyerA, 1)
	assert.Equal(t, ErrExceedsAllocation, err)
	env.assertUnitsSold(t, 1000)
}

func TestPurchase_InvalidAmount(t *testing.T) {
	env := setup(t)
	env.initialize(t, 100, 1000)

	buyer := env.newBuyer(t, 1_000)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 0)
	assert.Equal(t, ErrInvalidAmount, err)
	env.assertUnitsSold(t, 0)
}

func TestPurchase_UnknownSale(t *testing.T) {
	env := setup(t)

	buyer := env.newBuyer(t, 1_000)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 1)
	assert.Equal(t, ErrSaleNotFound, err)

	_, err = env.engine.Claim(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrSaleNotFound, err)

	_, err = env.engine.GetEvents(env.ctx, env.sale)
	assert.Equal(t, ErrSaleNotFound, err)
}

func TestPurchase_CostOverflow(t *testing.T) {
	env := setup(t)
	env.initialize(t, math.MaxUint64/2+1, 10)

	buyer := env.newBuyer(t, math.MaxUint64)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 2)
	assert.True(t, errors.Is(err, ErrCalculationError))
	assert.Equal(t, KindArithmeticOverflow, KindOf(err))

	env.assertUnitsSold(t, 0)
	env.assertNativeBalance(t, buyer, math.MaxUint64)

	_, err = env.engine.Purchase(env.ctx, env.sale, buyer, 1)
	require.NoError(t, err)
}

func TestPurchase_UnitsSoldOverflow(t *testing.T) {
	env := setup(t)
	env.initialize(t, 0, math.MaxUint64)

	buyer := env.newBuyer(t, 0)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, math.MaxUint64)
	require.NoError(t, err)

	_, err = env.engine.Purchase(env.ctx, env.sale, buyer, 1)
	assert.True(t, errors.Is(err, ErrCalculationError))
	env.assertUnitsSold(t, math.MaxUint64)
}

func TestPurchase_InsufficientPaymentIsAtomic(t *testing.T) {
	env := setup(t)
	env.initialize(t, 100, 1000)

	buyer := env.newBuyer(t, 999)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, KindPreconditionViolation, KindOf(err))

	env.assertUnitsSold(t, 0)
	env.assertNativeBalance(t, buyer, 999)
	env.assertNativeBalance(t, env.treasury, 0)
	env.assertTokenBalance(t, env.saleVault(t).Vault, 1000)

	_, _, err = env.engine.GetPosition(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrPositionNotFound, err)

	assert.Equal(t, []event.Type{event.SaleInitialized}, env.eventTypes(t))
}

func TestPurchase_UnderfundedVaultIsAtomic(t *testing.T) {
	env := setup(t)

	_, err := env.engine.Initialize(env.ctx, &InitializeArgs{
		Authority:       env.authority,
		Sale:            env.sale,
		Mint:            env.mint,
		Treasury:        env.treasury,
		PricePerUnit:    100,
		TotalAllocation: 1000,
	})
	require.NoError(t, err)
	testutil.FundTokenAccount(t, env.ledger, env.saleVault(t).Vault, 5)

	buyer := env.newBuyer(t, 10_000)

	// Payment happens before the unit transfer fails, and must be undone
	_, err = env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	env.assertNativeBalance(t, buyer, 10_000)
	env.assertNativeBalance(t, env.treasury, 0)
	env.assertUnitsSold(t, 0)
	env.assertTokenBalance(t, env.saleVault(t).Vault, 5)

	_, _, err = env.engine.GetPosition(env.ctx, env.sale, buyer)
	assert.Equal(t, ErrPositionNotFound, err)

	accounts, err := env.engine.PositionAccounts(buyer, env.mint)
	require.NoError(t, err)
	_, err = env.ledger.GetTokenBalance(env.ctx, accounts.Vault)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestPurchase_AfterClaim(t *testing.T) {
	env := setup(t)
	env.initialize(t, 1, 100)

	buyer := env.newBuyer(t, 100)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	require.NoError(t, err)

	env.clock.Advance(presale_program.LockDuration)

	_, err = env.engine.Claim(env.ctx, env.sale, buyer)
	require.NoError(t, err)

	_, err = env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	assert.True(t, errors.Is(err, ErrAlreadyClaimed))
	env.assertUnitsSold(t, 10)
	env.assertNativeBalance(t, buyer, 90)
}

func TestSetActive(t *testing.T) {
	env := setup(t)
	env.initialize(t, 1, 100)

	buyer := env.newBuyer(t, 100)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	require.NoError(t, err)

	// Only the authority may toggle the sale
	_, err = env.engine.SetActive(env.ctx, env.sale, buyer, false)
	assert.Equal(t, ErrUnauthorized, err)

	record, err := env.engine.GetSale(env.ctx, env.sale)
	require.NoError(t, err)
	assert.True(t, record.IsActive)

	record, err = env.engine.SetActive(env.ctx, env.sale, env.authority, false)
	require.NoError(t, err)
	assert.False(t, record.IsActive)

	_, err = env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	assert.Equal(t, ErrPresaleInactive, err)
	env.assertUnitsSold(t, 10)

	// Existing positions are unaffected
	env.clock.Advance(presale_program.LockDuration)
	claimed, err := env.engine.Claim(env.ctx, env.sale, buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 10, claimed.Amount)

	_, err = env.engine.SetActive(env.ctx, env.sale, env.authority, true)
	require.NoError(t, err)

	other := env.newBuyer(t, 100)
	_, err = env.engine.Purchase(env.ctx, env.sale, other, 10)
	require.NoError(t, err)

	_, err = env.engine.SetActive(env.ctx, testutil.NewRandomAccount(t), env.authority, false)
	assert.Equal(t, ErrSaleNotFound, err)
}

func TestPurchase_DisabledByConfig(t *testing.T) {
	env := setup(t)
	env.engine = NewEngine(env.data, env.ledger, withManualTestOverrides(&testOverrides{
		disablePurchases: true,
	}))
	env.initialize(t, 1, 100)

	buyer := env.newBuyer(t, 100)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 10)
	assert.True(t, errors.Is(err, ErrPresaleInactive))
	env.assertUnitsSold(t, 0)
}

func TestClaim_NoPosition(t *testing.T) {
	env := setup(t)
	env.initialize(t, 1, 100)

	_, err := env.engine.Claim(env.ctx, env.sale, testutil.NewRandomAccount(t))
	assert.Equal(t, ErrPositionNotFound, err)
}

func TestClaim_ConcurrentClaimsDrainOnce(t *testing.T) {
	env := setup(t)
	env.initialize(t, 1, 100)

	buyer := env.newBuyer(t, 100)

	_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 42)
	require.NoError(t, err)

	env.clock.Advance(presale_program.LockDuration)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, alreadyClaimed int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := env.engine.Claim(env.ctx, env.sale, buyer)

			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				succeeded++
			case ErrAlreadyClaimed:
				alreadyClaimed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, alreadyClaimed)

	accounts, err := env.engine.PositionAccounts(buyer, env.mint)
	require.NoError(t, err)
	env.assertTokenBalance(t, accounts.FreeBalance, 42)
	env.assertTokenBalance(t, accounts.Vault, 0)
}

func TestPurchase_ConcurrentPurchasesNeverExceedCap(t *testing.T) {
	env := setup(t)
	env.initialize(t, 1, 100)

	buyers := make([]*common.Account, 25)
	for i := range buyers {
		buyers[i] = env.newBuyer(t, 1_000)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted uint64
	for _, buyer := range buyers {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(buyer *common.Account) {
				defer wg.Done()

				_, err := env.engine.Purchase(env.ctx, env.sale, buyer, 3)
				if err == nil {
					mu.Lock()
					accepted += 3
					mu.Unlock()
				} else {
					assert.Equal(t, ErrExceedsAllocation, err)
				}
			}(buyer)
		}
	}
	wg.Wait()

	// 33 purchases of 3 units fit under the cap of 100
	assert.EqualValues(t, 99, accepted)
	env.assertUnitsSold(t, accepted)
	env.assertNativeBalance(t, env.treasury, accepted)
	env.assertTokenBalance(t, env.saleVault(t).Vault, 100-accepted)

	positions, err := env.engine.GetPositionsBySale(env.ctx, env.sale, query.WithLimit(100))
	require.NoError(t, err)

	var escrowed uint64
	for _, position := range positions {
		escrowed += position.Amount
		assert.Equal(t, t0.Unix()+presale_program.LockDurationSeconds, position.UnlockAt)
	}
	assert.Equal(t, accepted, escrowed)
}

func TestCustodyAddressing(t *testing.T) {
	env := setup(t)

	buyerA := testutil.NewRandomAccount(t)
	buyerB := testutil.NewRandomAccount(t)
	otherMint := testutil.NewRandomAccount(t)

	// Cached and freshly derived values agree
	vault1, err := env.engine.SaleVault(env.mint)
	require.NoError(t, err)
	vault2, err := common.GetSaleVaultAccounts(env.mint)
	require.NoError(t, err)
	assert.True(t, vault1.Vault.Equal(vault2.Vault))
	assert.Equal(t, vault1.VaultBump, vault2.VaultBump)
	assert.False(t, vault1.Vault.IsOnCurve())

	otherVault, err := env.engine.SaleVault(otherMint)
	require.NoError(t, err)
	assert.False(t, vault1.Vault.Equal(otherVault.Vault))

	positionA1, err := env.engine.PositionAccounts(buyerA, env.mint)
	require.NoError(t, err)
	positionA2, err := common.GetPositionAccounts(buyerA, env.mint)
	require.NoError(t, err)
	assert.True(t, positionA1.Position.Equal(positionA2.Position))
	assert.True(t, positionA1.Vault.Equal(positionA2.Vault))
	assert.Equal(t, positionA1.PositionBump, positionA2.PositionBump)

	positionB, err := env.engine.PositionAccounts(buyerB, env.mint)
	require.NoError(t, err)
	assert.False(t, positionA1.Position.Equal(positionB.Position))
	assert.False(t, positionA1.Vault.Equal(positionB.Vault))

	positionOtherMint, err := env.engine.PositionAccounts(buyerA, otherMint)
	require.NoError(t, err)
	assert.False(t, positionA1.Position.Equal(positionOtherMint.Position))
}

func TestEvents_RecordPurchaseDetails(t *testing.T) {
	env := setup(t)
	env.initialize(t, 7, 100)

	buyer := env.newBuyer(t, 1_000)

	result, err := env.engine.Purchase(env.ctx, env.sale, buyer, 3)
	require.NoError(t, err)

	records, err := env.engine.GetEvents(env.ctx, env.sale, query.WithDirection(query.Descending), query.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, records, 1)

	purchase := records[0]
	assert.Equal(t, event.UnitsPurchased, purchase.EventType)
	assert.Equal(t, buyer.PublicKey().ToBase58(), purchase.Actor)
	require.NotNil(t, purchase.Position)
	assert.Equal(t, result.Position.Address, *purchase.Position)
	assert.EqualValues(t, 3, purchase.Amount)
	assert.EqualValues(t, 21, purchase.Payment)
	require.NotNil(t, purchase.UnlockAt)
	assert.Equal(t, result.Position.UnlockAt, *purchase.UnlockAt)
	assert.Equal(t, t0.Unix(), purchase.CreatedAt.Unix())
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		err  error
		kind Kind
		code presale_program.PresaleError
		name string
	}{
		{ErrPresaleInactive, KindPreconditionViolation, presale_program.ErrPresaleInactive, "PresaleInactive"},
		{ErrExceedsAllocation, KindPreconditionViolation, presale_program.ErrExceedsAllocation, "ExceedsAllocation"},
		{ErrTokensStillLocked, KindPreconditionViolation, presale_program.ErrTokensStillLocked, "TokensStillLocked"},
		{ErrAlreadyClaimed, KindPreconditionViolation, presale_program.ErrAlreadyClaimed, "AlreadyClaimed"},
		{ErrCalculationError, KindArithmeticOverflow, presale_program.ErrCalculationError, "CalculationError"},
	} {
		wrapped := errors.Wrap(tc.err, "context")
		assert.Equal(t, tc.kind, KindOf(wrapped))

		engineErr, ok := AsError(wrapped)
		require.True(t, ok)
		code, ok := engineErr.ProgramCode()
		require.True(t, ok)
		assert.Equal(t, tc.code, code)
		assert.Equal(t, tc.name, engineErr.Name())
	}

	engineErr, ok := AsError(ErrUnauthorized)
	require.True(t, ok)
	_, ok = engineErr.ProgramCode()
	assert.False(t, ok)
	assert.Equal(t, "Unauthorized", engineErr.Name())

	derivationErr := newAddressDerivationError(errors.New("exhausted"), "sale vault")
	assert.Equal(t, KindAddressDerivationFailure, KindOf(derivationErr))
	assert.True(t, errors.Is(derivationErr, ErrAddressDerivation))

	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	assert.EqualValues(t, 0x1770, presale_program.ErrPresaleInactive)
	assert.EqualValues(t, 0x1774, presale_program.ErrCalculationError)
}

func TestQueries_EmptyPages(t *testing.T) {
	env := setup(t)
	env.initialize(t, 100, 1_000)

	positions, err := env.engine.GetPositionsBySale(env.ctx, env.sale, query.WithLimit(10))
	require.NoError(t, err)
	assert.NotNil(t, positions)
	assert.Empty(t, positions)

	events, err := env.engine.GetEvents(env.ctx, env.sale, query.WithLimit(10), query.WithCursor(query.ToCursor(math.MaxUint32)))
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
