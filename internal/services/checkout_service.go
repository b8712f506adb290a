package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nymph/internal/domain"
	applog "nymph/internal/log"
	"nymph/internal/payment"
)

var ErrEmptyCart = errors.New("cart empty")

// Messages shown to the shopper.
const (
	MsgEmptyCart   = "Your cart is empty. Please add items before paying."
	MsgPaid        = "Payment successful and verified!"
	MsgRejected    = "Payment verification failed! Please contact support."
	MsgUnreachable = "Could not connect to the server for verification. Please contact support."
	MsgGatewayFail = "Khalti payment failed."
	MsgUnderpaid   = "Payment amount does not match your cart total. Please contact support."
)

// Terminal pages after verification.
const (
	SuccessPath = "/payment-success"
	FailurePath = "/payment-failure"
)

const OrderPrefix = "NYMPH-KLT"

// NewOrderID returns a fresh order identity, e.g. NYMPH-KLT-1718000000000-9f3a1c2b.
func NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", OrderPrefix, time.Now().UnixMilli(), suffix)
}

// CheckoutSettings are the merchant values sent to the widget.
type CheckoutSettings struct {
	PublicKey         string
	ProductName       string
	ProductURL        string
	PaymentPreference []string
}

// CheckoutController starts payments and settles gateway callbacks.
type CheckoutController struct {
	verifier payment.Verifier
	settings CheckoutSettings
	newID    func() string
}

func NewCheckoutController(v payment.Verifier, settings CheckoutSettings) *CheckoutController {
	if settings.ProductName == "" {
		settings.ProductName = "Nymph Ecommerce Order"
	}
	if len(settings.PaymentPreference) == 0 {
		settings.PaymentPreference = payment.DefaultPaymentPreference
	}
	return &CheckoutController{verifier: v, settings: settings, newID: NewOrderID}
}

// Checkout hands the cart total to the gateway. A cart with nothing payable
// (no line left in the catalog, or a zero total) is rejected before the
// gateway is contacted.
func (c *CheckoutController) Checkout(ctx context.Context, cart *CartStore, gw payment.Gateway) (payment.ShowRequest, error) {
	total := cart.Subtotal()
	if cart.Empty() || total <= 0 {
		return payment.ShowRequest{}, ErrEmptyCart
	}
	orderID := c.newID()
	pref := make([]string, len(c.settings.PaymentPreference))
	copy(pref, c.settings.PaymentPreference)
	req := payment.ShowRequest{
		OrderID: orderID,
		Amount:  total,
		Widget: payment.WidgetConfig{
			PublicKey:         c.settings.PublicKey,
			ProductIdentity:   orderID,
			ProductName:       c.settings.ProductName,
			ProductURL:        c.settings.ProductURL,
			PaymentPreference: pref,
		},
	}
	if err := gw.Show(ctx, req, c.Events(cart)); err != nil {
		return payment.ShowRequest{}, fmt.Errorf("show gateway: %w", err)
	}
	applog.AuditCtx(ctx, "checkout.start", map[string]any{"order_id": orderID, "amount": total.Minor()})
	return req, nil
}

// Events binds the gateway callbacks to one cart.
func (c *CheckoutController) Events(cart *CartStore) *CheckoutEvents {
	return &CheckoutEvents{c: c, cart: cart}
}

// CheckoutEvents settles the widget callbacks for one cart.
type CheckoutEvents struct {
	c    *CheckoutController
	cart *CartStore
}

var _ payment.EventHandler = (*CheckoutEvents)(nil)

// OnSuccess never trusts the widget: the payment counts only after the
// verification round-trip says so, and only when it covers the cart total.
func (e *CheckoutEvents) OnSuccess(ctx context.Context, p payment.Payload) payment.Result {
	amount := domain.Money(p.Amount)
	total := e.cart.Subtotal()
	start := time.Now()
	ok, err := e.c.verifier.Verify(ctx, p.Token, amount)
	fields := map[string]any{
		"order_id":   p.ProductIdentity,
		"amount":     p.Amount,
		"cart_total": total.Minor(),
		"mismatch":   total != amount,
		"verify_ms":  time.Since(start).Milliseconds(),
	}
	if err != nil {
		applog.ErrorCtx(ctx, "checkout.verify.unreachable", err, fields)
		return payment.Result{Outcome: payment.OutcomeUnreachable, Message: MsgUnreachable}
	}
	if !ok {
		applog.SecurityCtx(ctx, "checkout.verify.rejected", fields)
		return payment.Result{Outcome: payment.OutcomeRejected, Message: MsgRejected, Redirect: FailurePath}
	}
	if amount < total {
		applog.SecurityCtx(ctx, "checkout.verify.underpaid", fields)
		return payment.Result{Outcome: payment.OutcomeRejected, Message: MsgUnderpaid, Redirect: FailurePath}
	}
	applog.AuditCtx(ctx, "checkout.paid", fields)
	e.cart.Clear(ctx)
	return payment.Result{Outcome: payment.OutcomePaid, Message: MsgPaid, Redirect: SuccessPath}
}

func (e *CheckoutEvents) OnError(ctx context.Context, err error) payment.Result {
	applog.ErrorCtx(ctx, "checkout.gateway.error", err, nil)
	return payment.Result{Outcome: payment.OutcomeGatewayError, Message: MsgGatewayFail}
}

func (e *CheckoutEvents) OnClose(ctx context.Context) payment.Result {
	applog.InfoCtx(ctx, "checkout.widget.closed", nil)
	return payment.Result{Outcome: payment.OutcomeClosed}
}
