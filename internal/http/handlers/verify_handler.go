package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nymph/internal/domain"
	applog "nymph/internal/log"
	"nymph/internal/payment"
	"nymph/internal/validate"
)

// VerifyHandler is the server side of the verification round-trip.
type VerifyHandler struct {
	Verifier payment.Verifier
}

// Verify answers {"success": bool}. A 502 means the gateway could not be asked;
// callers must treat it as unknown, not as a rejection.
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	var req payment.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(payment.VerifyResponse{Success: false})
	}
	token, ok := validate.Token(req.Token)
	if !ok || req.Amount < 1 {
		applog.Security(c, "validation.fail", map[string]any{"field": "payment"})
		return c.Status(fiber.StatusBadRequest).JSON(payment.VerifyResponse{Success: false})
	}

	verified, err := h.Verifier.Verify(c.UserContext(), token, domain.Money(req.Amount))
	if err != nil {
		applog.Error(c, "verify.unreachable", err, map[string]any{"amount": req.Amount})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "verification unavailable"})
	}
	if verified {
		applog.Audit(c, "verify.ok", map[string]any{"amount": req.Amount})
	} else {
		applog.Security(c, "verify.rejected", map[string]any{"amount": req.Amount})
	}
	return c.JSON(payment.VerifyResponse{Success: verified})
}
