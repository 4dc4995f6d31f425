package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/middleware"
)

type CreateAccountRequest struct {
	TelegramID *int64 `json:"telegramId"`
}

// CreateAccount creates or fetches the account for a Telegram identity.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	account, err := h.registry.GetOrCreate(c.Context(), req.TelegramID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"accountId": account.AccountID,
		"balance":   account.Balance,
	})
}

type AccountRequest struct {
	AccountID string `json:"accountId"`
}

// GetBalance returns the reconciled balance of an account.
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	var req AccountRequest
	if err := c.BodyParser(&req); err != nil || req.AccountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "accountId required",
		})
	}

	balance, err := h.reconciler.Reconcile(c.Context(), req.AccountID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"balance": balance,
	})
}

// ListTransactions returns an account's transaction history, newest
// first.
func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	var req AccountRequest
	if err := c.BodyParser(&req); err != nil || req.AccountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "accountId required",
		})
	}

	if _, err := h.registry.Find(c.Context(), req.AccountID); err != nil {
		return fail(c, err)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	transactions, err := h.store.ListTransactions(c.Context(), req.AccountID, limit, offset)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}

type SendRequest struct {
	FromAccount string `json:"fromAccount"`
	ToAccount   string `json:"toAccount"`
	Amount      int64  `json:"amount"`
	Note        string `json:"note"`
}

// Send executes a TPC transfer between accounts.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.transfer.Transfer(c.Context(), req.FromAccount, req.ToAccount, req.Amount, req.Note)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"balance":     result.Balance,
		"transaction": result.Transaction,
	})
}

type DepositRequest struct {
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"`
	Game      string `json:"game"`
}

// Deposit credits a game payout or reward. The route is authenticated;
// the caller's Telegram id drives the ownership check.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	callerID := middleware.GetUserID(c)

	result, err := h.deposit.Deposit(c.Context(), req.AccountID, req.Amount, callerID, req.Game)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"balance":     result.Balance,
		"transaction": result.Transaction,
	})
}
