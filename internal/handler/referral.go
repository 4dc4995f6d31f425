package handler

import (
	"github.com/gofiber/fiber/v2"
)

type ReferralCodeRequest struct {
	TelegramID int64 `json:"telegramId"`
}

// ReferralCode resolves the caller's referral code and bonus rates,
// creating the account on first touch.
func (h *Handler) ReferralCode(c *fiber.Ctx) error {
	var req ReferralCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	info, err := h.referral.Code(c.Context(), req.TelegramID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(info)
}

type ReferralClaimRequest struct {
	TelegramID int64  `json:"telegramId"`
	Code       string `json:"code"`
}

// ReferralClaim links the caller to an inviter's code.
func (h *Handler) ReferralClaim(c *fiber.Ctx) error {
	var req ReferralClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.referral.Claim(c.Context(), req.TelegramID, req.Code)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(result)
}
