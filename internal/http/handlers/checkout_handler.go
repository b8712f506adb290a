package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nymph/internal/log"
	"nymph/internal/payment"
	"nymph/internal/services"
	"nymph/internal/validate"
	"nymph/internal/views"
)

// KhaltiScriptURL is the widget bundle loaded on the checkout page.
const KhaltiScriptURL = "https://khalti.s3.ap-south-1.amazonaws.com/KPG/dist/2020.12.17.0.0.0/khalti-checkout.iffe.js"

type CheckoutHandler struct {
	carts
	Ctl *services.CheckoutController
}

func (h *CheckoutHandler) View(c *fiber.Ctx) error {
	_, b, err := h.page(c, views.CheckoutForm)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Checkout"
	return render(c, "checkout", data)
}

// Start opens the payment widget for the current cart total.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	p, b, err := h.page(c, views.CheckoutForm)
	if err != nil {
		return err
	}
	gw := &payment.WidgetGateway{}
	req, err := h.Ctl.Checkout(c.UserContext(), p.Store(), gw)
	if errors.Is(err, services.ErrEmptyCart) {
		applog.Info(c, "checkout.empty", nil)
		setToast(c, services.MsgEmptyCart)
		return c.Redirect("/checkout")
	}
	if err != nil {
		return err
	}
	widget, err := json.Marshal(gw.Shown.Widget)
	if err != nil {
		return err
	}
	data := fiber.Map(b.Data())
	data["Title"] = "Checkout"
	data["Widget"] = string(widget)
	data["Amount"] = req.Amount.Minor()
	data["OrderID"] = req.OrderID
	data["KhaltiScript"] = KhaltiScriptURL
	return render(c, "checkout", data)
}

// Success settles the widget's success callback. Nothing is trusted until the
// verification round-trip answers.
func (h *CheckoutHandler) Success(c *fiber.Ctx) error {
	p, b, err := h.page(c, views.CheckoutForm)
	if err != nil {
		return err
	}
	events := h.Ctl.Events(p.Store())

	token, okTok := validate.Token(c.FormValue("token"))
	amount, okAmt := validate.Amount(c.FormValue("amount"))
	if !okTok || !okAmt {
		applog.Security(c, "validation.fail", map[string]any{"field": "payment"})
		res := events.OnError(c.UserContext(), errors.New("invalid payment payload"))
		setToast(c, res.Message)
		return c.Redirect("/checkout")
	}

	res := events.OnSuccess(c.UserContext(), payment.Payload{
		Token:           token,
		Amount:          amount,
		ProductIdentity: validate.Message(c.FormValue("order_id")),
	})
	if res.Redirect != "" {
		setToast(c, res.Message)
		return c.Redirect(res.Redirect)
	}
	// unreachable: stay on checkout with the cart intact
	data := fiber.Map(b.Data())
	data["Title"] = "Checkout"
	data["Alert"] = res.Message
	c.Status(fiber.StatusBadGateway)
	return render(c, "checkout", data)
}

func (h *CheckoutHandler) Error(c *fiber.Ctx) error {
	msg := validate.Message(c.FormValue("message"))
	if msg == "" {
		msg = "unknown widget error"
	}
	res := h.Ctl.Events(h.store(c)).OnError(c.UserContext(), errors.New(msg))
	setToast(c, res.Message)
	return c.Redirect("/checkout")
}

func (h *CheckoutHandler) Close(c *fiber.Ctx) error {
	h.Ctl.Events(h.store(c)).OnClose(c.UserContext())
	return c.Redirect("/checkout")
}
