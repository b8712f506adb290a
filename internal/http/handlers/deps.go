package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "nymph/internal/log"
	"nymph/internal/payment"
	"nymph/internal/services"
	"nymph/internal/storage"
	"nymph/internal/views"
)

type Deps struct {
	ShopHandler     *ShopHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	VerifyHandler   *VerifyHandler
	APIHandler      *APIHandler
}

// NewDeps wires handlers over a shared cart backend. verifier backs
// /verify-khalti; the checkout controller carries its own.
func NewDeps(kv storage.Store, catalog services.Catalog, ctl *services.CheckoutController, verifier payment.Verifier) *Deps {
	cs := carts{kv: kv, catalog: catalog}
	return &Deps{
		ShopHandler:     &ShopHandler{carts: cs},
		CartHandler:     &CartHandler{carts: cs},
		CheckoutHandler: &CheckoutHandler{carts: cs, Ctl: ctl},
		VerifyHandler:   &VerifyHandler{Verifier: verifier},
		APIHandler:      &APIHandler{carts: cs},
	}
}

func paymentLimiter(name string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}

// Mount registers every storefront route on r.
func (d *Deps) Mount(r fiber.Router) {
	// Public pages
	r.Get("/", d.ShopHandler.Home)
	r.Get("/shop", d.ShopHandler.Shop)
	r.Get("/payment-success", d.ShopHandler.PaymentSuccess)
	r.Get("/payment-failure", d.ShopHandler.PaymentFailure)

	// Cart
	r.Get("/cart", d.CartHandler.View)
	r.Post("/cart", d.CartHandler.Add)
	r.Post("/cart/quantity", d.CartHandler.Quantity)
	r.Post("/cart/remove", d.CartHandler.Remove)

	// Checkout and widget callbacks
	r.Get("/checkout", d.CheckoutHandler.View)
	r.Post("/checkout", d.CheckoutHandler.Start)
	r.Post("/checkout/success", paymentLimiter("checkout"), d.CheckoutHandler.Success)
	r.Post("/checkout/error", d.CheckoutHandler.Error)
	r.Post("/checkout/close", d.CheckoutHandler.Close)

	// Verification backend
	r.Post("/verify-khalti", paymentLimiter("verify"), d.VerifyHandler.Verify)

	api := r.Group("/api/v1")
	api.Get("/cart", d.APIHandler.Cart)
}

// carts builds the per-request cart store and page over the shared backend.
type carts struct {
	kv      storage.Store
	catalog services.Catalog
}

func (s carts) store(c *fiber.Ctx) *services.CartStore {
	sid := ensureSID(c)
	return services.NewCartStore(storage.Scope(s.kv, sid), s.catalog, toastNotifier{c})
}

// page loads the shopper's cart and renders the badge plus the given
// containers.
func (s carts) page(c *fiber.Ctx, containers ...views.Container) (*views.Page, *views.Bindings, error) {
	b := views.NewBindings(append([]views.Container{views.CartCount}, containers...)...)
	p := views.NewPage(b, s.catalog, s.store(c))
	if err := p.Load(c.UserContext()); err != nil {
		return nil, nil, err
	}
	if err := p.Render(); err != nil {
		return nil, nil, err
	}
	return p, b, nil
}
