package presale_server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/presale-server/pkg/code/auth"
	"github.com/code-payments/presale-server/pkg/code/common"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/code/presale"
	"github.com/code-payments/presale-server/pkg/grpc/client"
	"github.com/code-payments/presale-server/pkg/rate"
	presale_program "github.com/code-payments/presale-server/pkg/solana/presale"
	"github.com/code-payments/presale-server/pkg/testutil"
)

const (
	testPricePerUnit    = 1_000
	testTotalAllocation = 1_000
)

type testEnv struct {
	t      *testing.T
	clock  *ledger.FixedClock
	ledger *ledger.Ledger
	engine *presale.Engine
	router chi.Router

	authority *common.Account
	sale      *common.Account
	mint      *common.Account
	treasury  *common.Account

	// Each signed request is back-dated by one more second so identical
	// bodies never produce identical signatures
	signed int
}

func setup(t *testing.T, overrides *testOverrides, limiter rate.Limiter) *testEnv {
	data := code_data.NewTestDataProvider()
	clock := ledger.NewFixedClock(time.Unix(1_700_000_000, 0))
	l := ledger.New(data, clock)
	engine := presale.NewEngine(data, l, presale.WithEnvConfigs())

	verifier := auth.NewRequestSignatureVerifier(auth.NewEstimatedReplayGuard(data), 5*time.Minute)

	router := chi.NewRouter()
	router.Use(client.Middleware)
	NewPresaleServer(engine, verifier, limiter, withManualTestOverrides(overrides)).RegisterWithHTTP(router)

	return &testEnv{
		t:         t,
		clock:     clock,
		ledger:    l,
		engine:    engine,
		router:    router,
		authority: testutil.NewRandomAccount(t),
		sale:      testutil.NewRandomAccount(t),
		mint:      testutil.NewRandomAccount(t),
		treasury:  testutil.NewRandomAccount(t),
	}
}

func setupDefault(t *testing.T) *testEnv {
	return setup(t, &testOverrides{enableDevFunding: true}, nil)
}

func (e *testEnv) do(method, path string, body interface{}, signers ...*common.Account) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(e.t, err)
	}

	r := httptest.NewRequest(method, path, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")

	if len(signers) > 0 {
		e.signed++
		timestamp := time.Now().Add(-time.Duration(e.signed) * time.Second)
		require.NoError(e.t, SignRequest(r, raw, timestamp, signers...))
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, r)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) *T {
	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v), recorder.Body.String())
	return &v
}

func (e *testEnv) requireError(recorder *httptest.ResponseRecorder, status int, code string) *errorResponse {
	require.Equal(e.t, status, recorder.Code, recorder.Body.String())
	resp := decode[errorResponse](e.t, recorder)
	assert.Equal(e.t, code, resp.Code)
	assert.NotEmpty(e.t, resp.Error)
	return resp
}

func (e *testEnv) salePath(suffix string) string {
	return "/v1/sales/" + e.sale.PublicKey().ToBase58() + suffix
}

// initialize creates the sale over HTTP and stocks its vault with the full
// allocation
func (e *testEnv) initialize() *saleView {
	recorder := e.do(http.MethodPost, "/v1/sales", map[string]interface{}{
		"sale":             e.sale.PublicKey().ToBase58(),
		"authority":        e.authority.PublicKey().ToBase58(),
		"mint":             e.mint.PublicKey().ToBase58(),
		"treasury":         e.treasury.PublicKey().ToBase58(),
		"price_per_unit":   "1000",
		"total_allocation": "1000",
	}, e.authority, e.sale)
	require.Equal(e.t, http.StatusCreated, recorder.Code, recorder.Body.String())
	sale := decode[saleResponse](e.t, recorder).Sale

	recorder = e.do(http.MethodPost, "/v1/dev/mint", map[string]interface{}{
		"token_account": sale.Vault,
		"amount":        "1000",
	})
	require.Equal(e.t, http.StatusOK, recorder.Code, recorder.Body.String())

	return sale
}

func (e *testEnv) newFundedBuyer(lamports uint64) *common.Account {
	buyer := testutil.NewRandomAccount(e.t)

	recorder := e.do(http.MethodPost, "/v1/dev/airdrop", map[string]interface{}{
		"owner":    buyer.PublicKey().ToBase58(),
		"lamports": lamports,
	})
	require.Equal(e.t, http.StatusOK, recorder.Code, recorder.Body.String())
	return buyer
}

func (e *testEnv) purchase(buyer *common.Account, amount string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, e.salePath("/purchase"), map[string]interface{}{
		"buyer":  buyer.PublicKey().ToBase58(),
		"amount": amount,
	}, buyer)
}

func (e *testEnv) claim(buyer *common.Account) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, e.salePath("/claim"), map[string]interface{}{
		"buyer": buyer.PublicKey().ToBase58(),
	}, buyer)
}

func TestServer_PresaleLifecycle(t *testing.T) {
	env := setupDefault(t)

	sale := env.initialize()
	assert.Equal(t, env.sale.PublicKey().ToBase58(), sale.Address)
	assert.EqualValues(t, testPricePerUnit, sale.PricePerUnit)
	assert.EqualValues(t, testTotalAllocation, sale.RemainingAllocation)
	assert.True(t, sale.IsActive)

	recorder := env.do(http.MethodGet, env.salePath(""), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, sale.Vault, decode[saleResponse](t, recorder).Sale.Vault)

	buyer := env.newFundedBuyer(100_000)

	recorder = env.purchase(buyer, "15")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	purchased := decode[purchaseResponse](t, recorder)
	assert.True(t, purchased.IsFirstPurchase)
	assert.EqualValues(t, 15_000, purchased.Cost)
	assert.EqualValues(t, 15, purchased.Position.Amount)
	assert.EqualValues(t, 15, purchased.Sale.UnitsSold)
	assert.Equal(t, int64(1_700_000_000)+presale_program.LockDurationSeconds, purchased.Position.UnlockAt)
	assert.False(t, purchased.Position.IsUnlocked)

	recorder = env.purchase(buyer, "10")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	purchased = decode[purchaseResponse](t, recorder)
	assert.False(t, purchased.IsFirstPurchase)
	assert.EqualValues(t, 25, purchased.Position.Amount)

	recorder = env.do(http.MethodGet, "/v1/accounts/"+buyer.PublicKey().ToBase58()+"/native-balance", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, 75_000, decode[nativeBalanceResponse](t, recorder).Lamports)

	recorder = env.do(http.MethodGet, "/v1/accounts/"+env.treasury.PublicKey().ToBase58()+"/native-balance", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, 25_000, decode[nativeBalanceResponse](t, recorder).Lamports)

	errResp := env.requireError(env.claim(buyer), http.StatusConflict, "TokensStillLocked")
	require.NotNil(t, errResp.ProgramCode)
	assert.EqualValues(t, presale_program.ErrTokensStillLocked, *errResp.ProgramCode)

	env.clock.Advance(presale_program.LockDuration)

	recorder = env.do(http.MethodGet, env.salePath("/positions/"+buyer.PublicKey().ToBase58()), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	position := decode[positionResponse](t, recorder)
	assert.True(t, position.Position.IsUnlocked)
	assert.False(t, position.Position.IsClaimed)

	recorder = env.claim(buyer)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	claimed := decode[claimResponse](t, recorder)
	assert.EqualValues(t, 25, claimed.Amount)
	assert.True(t, claimed.Position.IsClaimed)
	assert.Equal(t, position.Accounts.FreeBalance, claimed.FreeBalance)

	recorder = env.do(http.MethodGet, "/v1/token-accounts/"+claimed.FreeBalance, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, 25, decode[tokenBalanceResponse](t, recorder).Balance)

	recorder = env.do(http.MethodGet, "/v1/token-accounts/"+position.Accounts.Vault, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, 0, decode[tokenBalanceResponse](t, recorder).Balance)

	env.requireError(env.claim(buyer), http.StatusConflict, "AlreadyClaimed")

	recorder = env.do(http.MethodGet, env.salePath("/events"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	events := decode[eventsResponse](t, recorder).Events
	require.Len(t, events, 4)
	var types []string
	for _, event := range events {
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"sale_initialized", "units_purchased", "units_purchased", "units_claimed"}, types)
	assert.EqualValues(t, 15_000, events[1].Payment)
}

func TestServer_Authentication(t *testing.T) {
	env := setupDefault(t)
	env.initialize()

	buyer := env.newFundedBuyer(100_000)
	impostor := testutil.NewRandomAccount(t)

	body := map[string]interface{}{
		"buyer":  buyer.PublicKey().ToBase58(),
		"amount": "1",
	}

	// Unsigned
	env.requireError(env.do(http.MethodPost, env.salePath("/purchase"), body), http.StatusForbidden, "SignatureError")

	// Signed by someone other than the buyer
	env.requireError(env.do(http.MethodPost, env.salePath("/purchase"), body, impostor), http.StatusForbidden, "SignatureError")

	// Replayed
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	timestamp := time.Now()
	for i, expected := range []int{http.StatusOK, http.StatusForbidden} {
		r := httptest.NewRequest(http.MethodPost, env.salePath("/purchase"), bytes.NewReader(raw))
		require.NoError(t, SignRequest(r, raw, timestamp, buyer))

		recorder := httptest.NewRecorder()
		env.router.ServeHTTP(recorder, r)
		require.Equal(t, expected, recorder.Code, "attempt %d: %s", i, recorder.Body.String())
	}

	// Stale
	r := httptest.NewRequest(http.MethodPost, env.salePath("/purchase"), bytes.NewReader(raw))
	require.NoError(t, SignRequest(r, raw, time.Now().Add(-time.Hour), buyer))
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, r)
	env.requireError(recorder, http.StatusForbidden, "SignatureError")

	// Body tampered with after signing
	r = httptest.NewRequest(http.MethodPost, env.salePath("/purchase"), strings.NewReader(strings.Replace(string(raw), `"1"`, `"2"`, 1)))
	require.NoError(t, SignRequest(r, raw, time.Now().Add(-30*time.Second), buyer))
	recorder = httptest.NewRecorder()
	env.router.ServeHTTP(recorder, r)
	env.requireError(recorder, http.StatusForbidden, "SignatureError")

	// Sale initialization needs the sale identity's signature too
	other := setupDefault(t)
	recorder = other.do(http.MethodPost, "/v1/sales", map[string]interface{}{
		"sale":             other.sale.PublicKey().ToBase58(),
		"authority":        other.authority.PublicKey().ToBase58(),
		"mint":             other.mint.PublicKey().ToBase58(),
		"treasury":         other.treasury.PublicKey().ToBase58(),
		"price_per_unit":   "1",
		"total_allocation": "1",
	}, other.authority)
	other.requireError(recorder, http.StatusForbidden, "SignatureError")

	// Malformed signature header
	r = httptest.NewRequest(http.MethodPost, env.salePath("/purchase"), bytes.NewReader(raw))
	r.Header.Set(timestampHeaderName, "1700000000")
	r.Header.Set(signatureHeaderName, "not-a-pair")
	recorder = httptest.NewRecorder()
	env.router.ServeHTTP(recorder, r)
	env.requireError(recorder, http.StatusBadRequest, "InvalidRequest")
}

func TestServer_ErrorMapping(t *testing.T) {
	env := setupDefault(t)

	env.requireError(env.do(http.MethodGet, env.salePath(""), nil), http.StatusNotFound, "SaleNotFound")
	env.requireError(env.do(http.MethodGet, "/v1/sales/not-an-account", nil), http.StatusBadRequest, "InvalidRequest")

	env.initialize()
	buyer := env.newFundedBuyer(10_000_000)

	env.requireError(env.purchase(buyer, "0"), http.StatusBadRequest, "InvalidAmount")
	env.requireError(env.purchase(buyer, "-1"), http.StatusBadRequest, "InvalidRequest")

	errResp := env.requireError(env.purchase(buyer, "1001"), http.StatusConflict, "ExceedsAllocation")
	require.NotNil(t, errResp.ProgramCode)
	assert.EqualValues(t, 0x1771, *errResp.ProgramCode)

	// Units sold plus the requested amount overflows
	whale := env.newFundedBuyer(10_000)
	require.Equal(t, http.StatusOK, env.purchase(whale, "1").Code)
	errResp = env.requireError(env.purchase(buyer, "18446744073709551615"), http.StatusBadRequest, "CalculationError")
	require.NotNil(t, errResp.ProgramCode)
	assert.EqualValues(t, 0x1774, *errResp.ProgramCode)

	poor := env.newFundedBuyer(999)
	env.requireError(env.purchase(poor, "1"), http.StatusConflict, "InsufficientFunds")

	env.requireError(env.claim(buyer), http.StatusNotFound, "PositionNotFound")
	env.requireError(env.do(http.MethodGet, env.salePath("/positions/"+buyer.PublicKey().ToBase58()), nil), http.StatusNotFound, "PositionNotFound")

	stranger := testutil.NewRandomAccount(t)
	env.requireError(env.do(http.MethodPost, env.salePath("/active"), map[string]interface{}{
		"authority": stranger.PublicKey().ToBase58(),
		"is_active": false,
	}, stranger), http.StatusForbidden, "Unauthorized")

	env.requireError(env.do(http.MethodPost, env.salePath("/active"), map[string]interface{}{
		"authority": env.authority.PublicKey().ToBase58(),
	}, env.authority), http.StatusBadRequest, "InvalidRequest")

	recorder := env.do(http.MethodPost, env.salePath("/active"), map[string]interface{}{
		"authority": env.authority.PublicKey().ToBase58(),
		"is_active": false,
	}, env.authority)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.False(t, decode[saleResponse](t, recorder).Sale.IsActive)

	errResp = env.requireError(env.purchase(buyer, "1"), http.StatusConflict, "PresaleInactive")
	require.NotNil(t, errResp.ProgramCode)
	assert.EqualValues(t, 0x1770, *errResp.ProgramCode)

	env.requireError(env.do(http.MethodPost, env.salePath("/purchase"), map[string]interface{}{
		"buyer":   buyer.PublicKey().ToBase58(),
		"amount":  "1",
		"unknown": true,
	}, buyer), http.StatusBadRequest, "InvalidRequest")

	recorder = env.do(http.MethodPost, "/v1/sales", map[string]interface{}{
		"sale":             env.sale.PublicKey().ToBase58(),
		"authority":        env.authority.PublicKey().ToBase58(),
		"mint":             env.mint.PublicKey().ToBase58(),
		"treasury":         env.treasury.PublicKey().ToBase58(),
		"price_per_unit":   "1",
		"total_allocation": "1",
	}, env.authority, env.sale)
	env.requireError(recorder, http.StatusConflict, "AlreadyInitialized")

	env.requireError(env.do(http.MethodGet, "/v1/token-accounts/"+testutil.NewRandomAccount(t).PublicKey().ToBase58(), nil), http.StatusNotFound, "AccountNotFound")
}

func TestServer_Pagination(t *testing.T) {
	env := setupDefault(t)
	env.initialize()

	var buyers []*common.Account
	for i := 0; i < 3; i++ {
		buyer := env.newFundedBuyer(100_000)
		require.Equal(t, http.StatusOK, env.purchase(buyer, "1").Code)
		buyers = append(buyers, buyer)
	}

	recorder := env.do(http.MethodGet, env.salePath("/positions?limit=2"), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	first := decode[positionsResponse](t, recorder)
	require.Len(t, first.Positions, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, buyers[0].PublicKey().ToBase58(), first.Positions[0].Buyer)
	assert.Equal(t, buyers[1].PublicKey().ToBase58(), first.Positions[1].Buyer)

	recorder = env.do(http.MethodGet, env.salePath("/positions?limit=2&cursor="+first.NextCursor), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	second := decode[positionsResponse](t, recorder)
	require.Len(t, second.Positions, 1)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, buyers[2].PublicKey().ToBase58(), second.Positions[0].Buyer)

	recorder = env.do(http.MethodGet, env.salePath("/positions?order=desc"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	descending := decode[positionsResponse](t, recorder)
	require.Len(t, descending.Positions, 3)
	assert.Equal(t, buyers[2].PublicKey().ToBase58(), descending.Positions[0].Buyer)

	for _, invalid := range []string{"?limit=0", "?limit=abc", "?order=sideways", "?cursor=0OIl"} {
		env.requireError(env.do(http.MethodGet, env.salePath("/positions"+invalid), nil), http.StatusBadRequest, "InvalidRequest")
	}

	// Unknown sales are distinguished from sales without any positions
	other := setupDefault(t)
	other.requireError(other.do(http.MethodGet, other.salePath("/events"), nil), http.StatusNotFound, "SaleNotFound")
	other.initialize()
	recorder = other.do(http.MethodGet, other.salePath("/positions"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decode[positionsResponse](t, recorder).Positions)
}

func TestServer_PageSizeIsCapped(t *testing.T) {
	env := setup(t, &testOverrides{enableDevFunding: true, maxPageSize: 1}, nil)
	env.initialize()

	recorder := env.do(http.MethodGet, env.salePath("/events?limit=50"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	events := decode[eventsResponse](t, recorder)
	assert.Len(t, events.Events, 1)
	assert.NotEmpty(t, events.NextCursor)
}

func TestServer_Custody(t *testing.T) {
	env := setupDefault(t)
	buyer := testutil.NewRandomAccount(t)

	recorder := env.do(http.MethodGet, "/v1/custody/vaults/"+env.mint.PublicKey().ToBase58(), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	vault := decode[saleVaultView](t, recorder)

	expectedVault, err := common.GetSaleVaultAccounts(env.mint)
	require.NoError(t, err)
	assert.Equal(t, expectedVault.Vault.PublicKey().ToBase58(), vault.Vault)
	assert.Equal(t, expectedVault.VaultBump, vault.VaultBump)

	path := "/v1/custody/positions/" + env.mint.PublicKey().ToBase58() + "/" + buyer.PublicKey().ToBase58()
	recorder = env.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	accounts := decode[positionAccountsView](t, recorder)

	expectedPosition, err := common.GetPositionAccounts(buyer, env.mint)
	require.NoError(t, err)
	assert.Equal(t, expectedPosition.Position.PublicKey().ToBase58(), accounts.Position)
	assert.Equal(t, expectedPosition.Vault.PublicKey().ToBase58(), accounts.Vault)
	assert.Equal(t, expectedPosition.FreeBalance.PublicKey().ToBase58(), accounts.FreeBalance)

	// Same inputs, same addresses
	recorder = env.do(http.MethodGet, path, nil)
	assert.Equal(t, accounts, decode[positionAccountsView](t, recorder))
}

func TestServer_ProgramAccounts(t *testing.T) {
	env := setupDefault(t)
	env.initialize()

	buyer := env.newFundedBuyer(100_000)
	recorder := env.purchase(buyer, "40")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = env.do(http.MethodGet, env.salePath("/account"), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	saleResp := decode[programAccountResponse](t, recorder)
	assert.Equal(t, env.sale.PublicKey().ToBase58(), saleResp.Address)
	assert.Equal(t, presale_program.PresaleAccountSize, saleResp.Size)

	raw, err := base64.StdEncoding.DecodeString(saleResp.Data)
	require.NoError(t, err)
	require.Len(t, raw, presale_program.PresaleAccountSize)

	var saleAccount presale_program.PresaleAccount
	require.NoError(t, saleAccount.Unmarshal(raw))

	saleRecord, err := env.engine.GetSale(context.Background(), env.sale)
	require.NoError(t, err)
	assert.Equal(t, saleRecord.Authority, base58.Encode(saleAccount.Authority))
	assert.Equal(t, saleRecord.Mint, base58.Encode(saleAccount.Mint))
	assert.Equal(t, saleRecord.Treasury, base58.Encode(saleAccount.Treasury))
	assert.Equal(t, saleRecord.PricePerUnit, saleAccount.PricePerToken)
	assert.Equal(t, saleRecord.TotalAllocation, saleAccount.TotalAllocation)
	assert.EqualValues(t, 40, saleAccount.TokensSold)
	assert.True(t, saleAccount.IsActive)

	recorder = env.do(http.MethodGet, env.salePath("/positions/"+buyer.PublicKey().ToBase58()+"/account"), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	positionResp := decode[programAccountResponse](t, recorder)
	assert.Equal(t, presale_program.UserInfoAccountSize, positionResp.Size)

	raw, err = base64.StdEncoding.DecodeString(positionResp.Data)
	require.NoError(t, err)
	require.Len(t, raw, presale_program.UserInfoAccountSize)

	var userInfo presale_program.UserInfoAccount
	require.NoError(t, userInfo.Unmarshal(raw))

	positionRecord, accounts, err := env.engine.GetPosition(context.Background(), env.sale, buyer)
	require.NoError(t, err)
	assert.Equal(t, accounts.Position.PublicKey().ToBase58(), positionResp.Address)
	assert.Equal(t, buyer.PublicKey().ToBase58(), base58.Encode(userInfo.Buyer))
	assert.EqualValues(t, 40, userInfo.Amount)
	assert.Equal(t, positionRecord.UnlockAt, userInfo.UnlockTime)
	assert.Equal(t, positionRecord.Bump, userInfo.Bump)
	assert.False(t, userInfo.Claimed)

	env.requireError(env.do(http.MethodGet, env.salePath("/positions/"+testutil.NewRandomAccount(t).PublicKey().ToBase58()+"/account"), nil), http.StatusNotFound, "PositionNotFound")
}

func TestServer_DevFundingDisabled(t *testing.T) {
	env := setup(t, &testOverrides{}, nil)

	env.requireError(env.do(http.MethodPost, "/v1/dev/airdrop", map[string]interface{}{
		"owner":    testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		"lamports": "1",
	}), http.StatusNotFound, "Disabled")
}

func TestServer_PurchaseRateLimited(t *testing.T) {
	env := setup(t, &testOverrides{enableDevFunding: true}, rate.NewLocalRateLimiter(xrate.Limit(0.001), 1, 0))
	env.initialize()

	buyer := env.newFundedBuyer(100_000)
	other := env.newFundedBuyer(100_000)

	require.Equal(t, http.StatusOK, env.purchase(buyer, "1").Code)
	env.requireError(env.purchase(buyer, "2"), http.StatusTooManyRequests, "RateLimited")
	require.Equal(t, http.StatusOK, env.purchase(other, "1").Code)
}

func TestServer_RequestTooLarge(t *testing.T) {
	env := setupDefault(t)
	env.initialize()

	buyer := testutil.NewRandomAccount(t)
	recorder := env.do(http.MethodPost, env.salePath("/claim"), map[string]interface{}{
		"buyer":   buyer.PublicKey().ToBase58(),
		"padding": strings.Repeat("a", defaultMaxRequestBodySize),
	}, buyer)
	env.requireError(recorder, http.StatusRequestEntityTooLarge, "InvalidRequest")
}

func TestServer_RequestID(t *testing.T) {
	env := setupDefault(t)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(client.RequestIDHeaderName, "trace-1")
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, r)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "trace-1", recorder.Header().Get(client.RequestIDHeaderName))
}

func TestAmount_JSON(t *testing.T) {
	encoded, err := json.Marshal(Amount(18446744073709551615))
	require.NoError(t, err)
	assert.Equal(t, `"18446744073709551615"`, string(encoded))

	var amount Amount
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &amount))
	assert.EqualValues(t, 42, amount)
	require.NoError(t, json.Unmarshal([]byte(`7`), &amount))
	assert.EqualValues(t, 7, amount)

	for _, invalid := range []string{`"-1"`, `"1.5"`, `"18446744073709551616"`, `""`, `"abc"`} {
		assert.Error(t, json.Unmarshal([]byte(invalid), &amount), invalid)
	}
}

func TestParseAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseAllowedOrigins(""))
	assert.Equal(t, []string{"*"}, parseAllowedOrigins(" , "))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parseAllowedOrigins("https://a.example, https://b.example"))
}
