package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/ledger"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// fail maps ledger errors onto HTTP statuses. Storage failures stay
// opaque to the caller.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInsufficientBalance):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
