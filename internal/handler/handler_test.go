package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/ledger"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/middleware"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository/repositorytest"
)

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		OperatorPrimary:    "op-main",
		OperatorSecondaryA: "op-a",
		OperatorSecondaryB: "op-b",
		SenderFeeRate:      0.02,
		ReceiverFeeRate:    0.01,
		ReferralBonusStep:  1,
	}
}

// stubAuth plays the role of the Telegram middleware: every request is
// authenticated as the given user.
func stubAuth(userID int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, userID)
		return c.Next()
	}
}

func newTestApp(store *repositorytest.Store, callerID int64, pinger Pinger) *fiber.App {
	cfg := &config.Config{Ledger: testLedgerConfig()}
	locker := ledger.NewLocker()
	logger := zerolog.Nop()
	registry := ledger.NewAccountRegistry(store)
	reconciler := ledger.NewBalanceReconciler(store, locker, logger)
	transfer := ledger.NewTransferEngine(store, registry, cfg.Ledger, locker, logger)
	deposit := ledger.NewDepositAuthorizer(store, cfg.Ledger, locker, logger)
	referral := ledger.NewReferralLedger(store, registry, cfg.Ledger, locker, logger)

	app := fiber.New()
	h := New(cfg, registry, reconciler, transfer, deposit, referral, store, pinger)
	h.RegisterRoutes(app, stubAuth(callerID))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	return resp.StatusCode, fields
}

func asInt64(t *testing.T, raw json.RawMessage) int64 {
	t.Helper()
	var v int64
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func asString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v string
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestCreateAccount(t *testing.T) {
	store := repositorytest.NewStore()
	app := newTestApp(store, 0, nil)

	status, body := postJSON(t, app, "/api/account/create", fiber.Map{"telegramId": 42})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, asString(t, body["accountId"]))
	require.Zero(t, asInt64(t, body["balance"]))

	// Same identity resolves to the same account.
	_, again := postJSON(t, app, "/api/account/create", fiber.Map{"telegramId": 42})
	require.Equal(t, asString(t, body["accountId"]), asString(t, again["accountId"]))
}

func TestGetBalance(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 250)
	app := newTestApp(store, 0, nil)

	status, body := postJSON(t, app, "/api/account/balance", fiber.Map{"accountId": "alice"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(250), asInt64(t, body["balance"]))

	status, _ = postJSON(t, app, "/api/account/balance", fiber.Map{"accountId": "ghost"})
	require.Equal(t, http.StatusNotFound, status)

	status, _ = postJSON(t, app, "/api/account/balance", fiber.Map{})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestSend(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 5000)
	app := newTestApp(store, 0, nil)

	status, body := postJSON(t, app, "/api/account/send", fiber.Map{
		"fromAccount": "alice",
		"toAccount":   "bob",
		"amount":      1000,
		"note":        "thanks",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(3980), asInt64(t, body["balance"]))
	require.Equal(t, int64(990), store.Balance("bob"))
}

func TestSendInsufficientBalance(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 10)
	app := newTestApp(store, 0, nil)

	status, body := postJSON(t, app, "/api/account/send", fiber.Map{
		"fromAccount": "alice",
		"toAccount":   "bob",
		"amount":      1000,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, asString(t, body["error"]), "insufficient")
}

func TestSendUnknownSender(t *testing.T) {
	store := repositorytest.NewStore()
	app := newTestApp(store, 0, nil)

	status, _ := postJSON(t, app, "/api/account/send", fiber.Map{
		"fromAccount": "ghost",
		"toAccount":   "bob",
		"amount":      10,
	})
	require.Equal(t, http.StatusNotFound, status)
}

func TestListTransactions(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 5000)
	app := newTestApp(store, 0, nil)

	status, _ := postJSON(t, app, "/api/account/send", fiber.Map{
		"fromAccount": "alice",
		"toAccount":   "bob",
		"amount":      100,
	})
	require.Equal(t, http.StatusOK, status)

	status, body := postJSON(t, app, "/api/account/transactions", fiber.Map{"accountId": "alice"})
	require.Equal(t, http.StatusOK, status)

	var txs []json.RawMessage
	require.NoError(t, json.Unmarshal(body["transactions"], &txs))
	require.Len(t, txs, 2) // seed deposit plus the send

	status, _ = postJSON(t, app, "/api/account/transactions", fiber.Map{"accountId": "ghost"})
	require.Equal(t, http.StatusNotFound, status)
}

func TestDepositAuthorized(t *testing.T) {
	store := repositorytest.NewStore()
	ownerID := int64(7)
	store.SeedAccount("alice", &ownerID, 50)
	app := newTestApp(store, ownerID, nil)

	status, body := postJSON(t, app, "/api/account/deposit", fiber.Map{
		"accountId": "alice",
		"amount":    25,
		"game":      "snake",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(75), asInt64(t, body["balance"]))
}

func TestDepositOwnershipMismatch(t *testing.T) {
	store := repositorytest.NewStore()
	ownerID := int64(7)
	store.SeedAccount("alice", &ownerID, 50)
	app := newTestApp(store, 8, nil)

	status, _ := postJSON(t, app, "/api/account/deposit", fiber.Map{
		"accountId": "alice",
		"amount":    25,
	})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, int64(50), store.Balance("alice"))
}

func TestReferralEndpoints(t *testing.T) {
	store := repositorytest.NewStore()
	app := newTestApp(store, 0, nil)

	status, body := postJSON(t, app, "/api/referral/code", fiber.Map{"telegramId": 100})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "100", asString(t, body["referralCode"]))

	status, body = postJSON(t, app, "/api/referral/claim", fiber.Map{
		"telegramId": 200,
		"code":       "100",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "claimed", asString(t, body["message"]))

	status, body = postJSON(t, app, "/api/referral/claim", fiber.Map{
		"telegramId": 200,
		"code":       "nope",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, asString(t, body["error"]), "invalid code")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	app := newTestApp(repositorytest.NewStore(), 0, fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthDegraded(t *testing.T) {
	app := newTestApp(repositorytest.NewStore(), 0, fakePinger{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
