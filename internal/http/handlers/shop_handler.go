package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nymph/internal/views"
)

type ShopHandler struct {
	carts
}

func (h *ShopHandler) Home(c *fiber.Ctx) error {
	_, b, err := h.page(c, views.FeaturedGrid)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Home"
	return render(c, "home", data)
}

func (h *ShopHandler) Shop(c *fiber.Ctx) error {
	_, b, err := h.page(c, views.ShopGrid)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Shop"
	return render(c, "shop", data)
}

func (h *ShopHandler) PaymentSuccess(c *fiber.Ctx) error {
	_, b, err := h.page(c)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Payment successful"
	return render(c, "payment_success", data)
}

func (h *ShopHandler) PaymentFailure(c *fiber.Ctx) error {
	_, b, err := h.page(c)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Payment failed"
	return render(c, "payment_failure", data)
}
