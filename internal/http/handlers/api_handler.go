package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nymph/internal/domain"
)

type APIHandler struct {
	carts
}

type cartJSON struct {
	Count         int               `json:"count"`
	Subtotal      string            `json:"subtotal"`
	SubtotalMinor int64             `json:"subtotal_minor"`
	Lines         []domain.CartLine `json:"lines"`
}

// Cart returns the shopper's cart for scripts that refresh the badge.
func (h *APIHandler) Cart(c *fiber.Ctx) error {
	s := h.store(c)
	s.Load(c.UserContext())
	sub := s.Subtotal()
	return c.JSON(cartJSON{
		Count:         s.TotalItems(),
		Subtotal:      sub.String(),
		SubtotalMinor: sub.Minor(),
		Lines:         s.Lines(),
	})
}
