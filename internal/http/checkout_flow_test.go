package handlers_test

import (
	"context"
	"encoding/json"
	"html"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"nymph/internal/domain"
	"nymph/internal/payment"
)

func TestCheckoutPageSummary(t *testing.T) {
	a := newTestApp(t, nil)
	a.fillCart(t, 2, 2, 8)

	_, body := a.get(t, "/checkout")
	for _, want := range []string{"Classic Denim Jacket (x2)", "Rs 6400.00", "Athletic Jogger Pants (x1)", "Rs 8300.00", `id="checkoutForm"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("checkout page missing %q; body=%s", want, body)
		}
	}
}

func TestCheckoutEmptyCartNeverShowsWidget(t *testing.T) {
	a := newTestApp(t, nil)

	_, body := a.get(t, "/checkout")
	if !strings.Contains(body, `id="checkout-empty-message"`) {
		t.Fatal("empty state expected")
	}

	resp, body := a.post(t, "/checkout", url.Values{})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/checkout" {
		t.Fatalf("expected redirect to /checkout, got %d", resp.StatusCode)
	}
	if got := toastOf(t, resp); got != "Your cart is empty. Please add items before paying." {
		t.Fatalf("toast = %q", got)
	}
	if strings.Contains(body, "khalti-widget") {
		t.Fatal("widget must not be opened for an empty cart")
	}
	if len(a.verifier.calls) != 0 {
		t.Fatal("verifier must not be contacted")
	}
}

var widgetAttr = regexp.MustCompile(`data-config="([^"]*)" data-amount="(\d+)"`)

func TestCheckoutStartRendersWidgetConfig(t *testing.T) {
	a := newTestApp(t, nil)
	a.fillCart(t, 1, 1)

	resp, body := a.post(t, "/checkout", url.Values{})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	m := widgetAttr.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("widget config missing; body=%s", body)
	}
	if m[2] != "500000" {
		t.Fatalf("amount in paisa = %s, want 500000", m[2])
	}
	var cfg payment.WidgetConfig
	if err := json.Unmarshal([]byte(html.UnescapeString(m[1])), &cfg); err != nil {
		t.Fatalf("widget config not json: %v", err)
	}
	if cfg.PublicKey != "test_public_key" || cfg.ProductName != "Nymph Ecommerce Order" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !strings.HasPrefix(cfg.ProductIdentity, "NYMPH-KLT-") {
		t.Fatalf("order id %q", cfg.ProductIdentity)
	}
	if strings.Join(cfg.PaymentPreference, ",") != "KHALTI,EBANKING,MOBILE_BANKING" {
		t.Fatalf("payment preference %v", cfg.PaymentPreference)
	}
}

func TestCheckoutSuccessVerifiedClearsCart(t *testing.T) {
	a := newTestApp(t, &stubVerifier{ok: true})
	a.fillCart(t, 1, 1)

	resp, _ := a.post(t, "/checkout/success", url.Values{"token": {"tok_abc"}, "amount": {"500000"}})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/payment-success" {
		t.Fatalf("expected redirect to success page, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if got := toastOf(t, resp); got != "Payment successful and verified!" {
		t.Fatalf("toast = %q", got)
	}
	if len(a.verifier.calls) != 1 || a.verifier.calls[0] != (verifyCall{"tok_abc", domain.Money(500000)}) {
		t.Fatalf("verifier calls %+v", a.verifier.calls)
	}
	if lines := a.cartLines(t); lines != nil {
		t.Fatalf("persisted cart should be removed, got %+v", lines)
	}

	_, body := a.get(t, "/payment-success")
	if !strings.Contains(body, `<span id="cart-count" class="badge">0</span>`) {
		t.Fatal("badge should be reset")
	}
}

func TestCheckoutSuccessRejectedKeepsCart(t *testing.T) {
	a := newTestApp(t, &stubVerifier{ok: false})
	a.fillCart(t, 1, 1)

	resp, _ := a.post(t, "/checkout/success", url.Values{"token": {"tok_abc"}, "amount": {"500000"}})
	if resp.Header.Get("Location") != "/payment-failure" {
		t.Fatalf("expected failure page, got %q", resp.Header.Get("Location"))
	}
	if got := toastOf(t, resp); got != "Payment verification failed! Please contact support." {
		t.Fatalf("toast = %q", got)
	}
	if lines := a.cartLines(t); len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("cart should be kept, got %+v", lines)
	}
}

func TestCheckoutSuccessUnreachableStaysOnCheckout(t *testing.T) {
	a := newTestApp(t, &stubVerifier{err: payment.ErrUnreachable})
	a.fillCart(t, 4)

	resp, body := a.post(t, "/checkout/success", url.Values{"token": {"tok_abc"}, "amount": {"450000"}})
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "" {
		t.Fatal("no navigation expected")
	}
	if !strings.Contains(body, "Could not connect to the server for verification. Please contact support.") {
		t.Fatalf("alert missing; body=%s", body)
	}
	if lines := a.cartLines(t); len(lines) != 1 {
		t.Fatalf("cart should be kept, got %+v", lines)
	}
}

func TestCheckoutSuccessUnderpaidKeepsCart(t *testing.T) {
	a := newTestApp(t, &stubVerifier{ok: true})
	a.fillCart(t, 1, 1)

	resp, _ := a.post(t, "/checkout/success", url.Values{"token": {"tok_abc"}, "amount": {"250000"}})
	if resp.Header.Get("Location") != "/payment-failure" {
		t.Fatalf("expected failure page, got %q", resp.Header.Get("Location"))
	}
	if got := toastOf(t, resp); got != "Payment amount does not match your cart total. Please contact support." {
		t.Fatalf("toast = %q", got)
	}
	if lines := a.cartLines(t); len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("cart should be kept, got %+v", lines)
	}
}

// A cart whose products all left the catalog has nothing payable.
func TestRetiredProductsCartIsEmpty(t *testing.T) {
	a := newTestApp(t, nil)
	raw := `[{"id":42,"quantity":3,"price":1000,"name":"Discontinued Scarf"}]`
	if err := a.kv.Set(context.Background(), "cart:"+testSID, []byte(raw)); err != nil {
		t.Fatal(err)
	}

	_, body := a.get(t, "/cart")
	if !strings.Contains(body, `id="cart-empty-message"`) || strings.Contains(body, `class="table cart-table"`) {
		t.Fatalf("cart page should show the empty state; body=%s", body)
	}
	_, body = a.get(t, "/checkout")
	if !strings.Contains(body, `id="checkout-empty-message"`) {
		t.Fatalf("checkout page should show the empty state; body=%s", body)
	}

	resp, body := a.post(t, "/checkout", url.Values{})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/checkout" {
		t.Fatalf("expected redirect to /checkout, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "khalti-widget") {
		t.Fatal("widget must not be opened")
	}
	if got := toastOf(t, resp); got != "Your cart is empty. Please add items before paying." {
		t.Fatalf("toast = %q", got)
	}
}

func TestCheckoutSuccessInvalidPayload(t *testing.T) {
	a := newTestApp(t, nil)
	a.fillCart(t, 4)

	resp, _ := a.post(t, "/checkout/success", url.Values{"token": {"<script>"}, "amount": {"12.5"}})
	if resp.Header.Get("Location") != "/checkout" {
		t.Fatalf("expected back to checkout, got %q", resp.Header.Get("Location"))
	}
	if got := toastOf(t, resp); got != "Khalti payment failed." {
		t.Fatalf("toast = %q", got)
	}
	if len(a.verifier.calls) != 0 {
		t.Fatal("invalid payload must not be verified")
	}
}

func TestCheckoutErrorAndClose(t *testing.T) {
	a := newTestApp(t, nil)
	a.fillCart(t, 5)

	resp, _ := a.post(t, "/checkout/error", url.Values{"message": {"insufficient balance"}})
	if resp.Header.Get("Location") != "/checkout" || toastOf(t, resp) != "Khalti payment failed." {
		t.Fatalf("unexpected error handling: %q", resp.Header.Get("Location"))
	}

	entries := captureLogs(t, func() {
		resp, _ = a.post(t, "/checkout/close", url.Values{})
	})
	if resp.Header.Get("Location") != "/checkout" {
		t.Fatal("close should return to checkout")
	}
	if _, ok := findLog(entries, "checkout.widget.closed"); !ok {
		t.Fatal("widget close should be logged")
	}
	if lines := a.cartLines(t); len(lines) != 1 {
		t.Fatalf("cart should be untouched, got %+v", lines)
	}
}
