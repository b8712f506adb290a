package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	applog "nymph/internal/log"
	"nymph/internal/services"
	"nymph/internal/validate"
	"nymph/internal/views"
)

type CartHandler struct {
	carts
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	_, b, err := h.page(c, views.CartContainer)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Your cart"
	return render(c, "cart", data)
}

// mutate applies intent to the shopper's cart through the page lifecycle.
func (h *CartHandler) mutate(c *fiber.Ctx, intent func(context.Context, *services.CartStore)) error {
	p, _, err := h.page(c, views.CartContainer)
	if err != nil {
		return err
	}
	return p.Mutate(c.UserContext(), intent)
}

// Add puts one unit in the cart and sends the shopper back to the page they
// came from. Unknown products are ignored.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	back := validate.ReturnPath(c.FormValue("return"), "/cart")
	id, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Redirect(back)
	}
	var added bool
	if err := h.mutate(c, func(ctx context.Context, s *services.CartStore) {
		added = s.Add(ctx, id)
	}); err != nil {
		return err
	}
	if !added {
		applog.Info(c, "cart.add.miss", map[string]any{"product_id": id})
	} else {
		applog.Info(c, "cart.add", map[string]any{"product_id": id})
	}
	return c.Redirect(back)
}

func (h *CartHandler) Quantity(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Redirect("/cart")
	}
	raw := c.FormValue("quantity")
	var changed bool
	if err := h.mutate(c, func(ctx context.Context, s *services.CartStore) {
		changed = s.SetQuantityInput(ctx, id, raw)
	}); err != nil {
		return err
	}
	if !changed {
		applog.Info(c, "cart.quantity.ignored", map[string]any{"product_id": id, "quantity": validate.Message(raw)})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Redirect("/cart")
	}
	if err := h.mutate(c, func(ctx context.Context, s *services.CartStore) {
		s.Remove(ctx, id)
	}); err != nil {
		return err
	}
	applog.Info(c, "cart.remove", map[string]any{"product_id": id})
	return c.Redirect("/cart")
}
