// Package payment models the Khalti checkout widget and the verification
// round-trip that must confirm every client-reported payment.
package payment

import (
	"context"

	"nymph/internal/domain"
)

// Methods offered in the widget, in display order.
var DefaultPaymentPreference = []string{"KHALTI", "EBANKING", "MOBILE_BANKING"}

// WidgetConfig is the construction config handed to the client-side widget.
type WidgetConfig struct {
	PublicKey         string   `json:"publicKey"`
	ProductIdentity   string   `json:"productIdentity"`
	ProductName       string   `json:"productName"`
	ProductURL        string   `json:"productUrl"`
	PaymentPreference []string `json:"paymentPreference"`
}

// ShowRequest opens the widget for one order.
type ShowRequest struct {
	OrderID string
	Amount  domain.Money
	Widget  WidgetConfig
}

// Payload is what the widget reports on success. Untrusted until verified.
type Payload struct {
	Token           string `json:"token"`
	Amount          int64  `json:"amount"`
	ProductIdentity string `json:"product_identity,omitempty"`
}

type Outcome int

const (
	OutcomePaid Outcome = iota + 1
	OutcomeRejected
	OutcomeUnreachable
	OutcomeGatewayError
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePaid:
		return "paid"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeGatewayError:
		return "gateway_error"
	case OutcomeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Result tells the page what to do after a gateway callback. An empty Redirect
// means stay on the current page.
type Result struct {
	Outcome  Outcome
	Message  string
	Redirect string
}

// EventHandler receives exactly one terminal callback per show, plus an optional
// informational close.
type EventHandler interface {
	OnSuccess(ctx context.Context, p Payload) Result
	OnError(ctx context.Context, err error) Result
	OnClose(ctx context.Context) Result
}

// Gateway opens the payment flow.
type Gateway interface {
	Show(ctx context.Context, req ShowRequest, h EventHandler) error
}

// WidgetGateway records the show request so the page can embed the widget config.
// The widget runs in the browser and its callbacks come back as separate requests.
type WidgetGateway struct {
	Shown *ShowRequest
}

func (g *WidgetGateway) Show(_ context.Context, req ShowRequest, _ EventHandler) error {
	g.Shown = &req
	return nil
}
