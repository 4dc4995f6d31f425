package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/ledger"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	cfg        *config.Config
	registry   *ledger.AccountRegistry
	reconciler *ledger.BalanceReconciler
	transfer   *ledger.TransferEngine
	deposit    *ledger.DepositAuthorizer
	referral   *ledger.ReferralLedger
	store      repository.Store
	pinger     Pinger
}

func New(
	cfg *config.Config,
	registry *ledger.AccountRegistry,
	reconciler *ledger.BalanceReconciler,
	transfer *ledger.TransferEngine,
	deposit *ledger.DepositAuthorizer,
	referral *ledger.ReferralLedger,
	store repository.Store,
	pinger Pinger,
) *Handler {
	return &Handler{
		cfg:        cfg,
		registry:   registry,
		reconciler: reconciler,
		transfer:   transfer,
		deposit:    deposit,
		referral:   referral,
		store:      store,
		pinger:     pinger,
	}
}

// RegisterRoutes mounts the API. auth guards the deposit endpoint; the
// rest of the surface is open, matching the webapp's usage.
func (h *Handler) RegisterRoutes(app *fiber.App, auth fiber.Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	account := api.Group("/account")
	account.Post("/create", h.CreateAccount)
	account.Post("/balance", h.GetBalance)
	account.Post("/transactions", h.ListTransactions)
	account.Post("/send", h.Send)
	account.Post("/deposit", auth, h.Deposit)

	referral := api.Group("/referral")
	referral.Post("/code", h.ReferralCode)
	referral.Post("/claim", h.ReferralClaim)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
