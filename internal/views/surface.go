package views

import (
	"nymph/internal/services"
)

// Container names a region a page may or may not have.
type Container string

const (
	FeaturedGrid  Container = "featured-product-grid"
	ShopGrid      Container = "shop-product-grid"
	CartContainer Container = "cart-container"
	CheckoutForm  Container = "checkoutForm"
	CartCount     Container = "cart-count"
)

// Surface is the page being drawn. Render is only called for containers the
// surface reports it has.
type Surface interface {
	Has(c Container) bool
	Render(c Container, data any)
}

// Render fills every container present on s and skips the rest.
func Render(s Surface, catalog services.Catalog, store *services.CartStore) {
	if s.Has(CartCount) {
		s.Render(CartCount, Badge(store))
	}
	if s.Has(FeaturedGrid) {
		s.Render(FeaturedGrid, ProductGrid(catalog.First(FeaturedCount)))
	}
	if s.Has(ShopGrid) {
		s.Render(ShopGrid, ProductGrid(catalog.All()))
	}
	if s.Has(CartContainer) {
		s.Render(CartContainer, Cart(catalog, store))
	}
	if s.Has(CheckoutForm) {
		s.Render(CheckoutForm, Checkout(catalog, store))
	}
}

// bindingKeys are the template field names each container renders into.
var bindingKeys = map[Container]string{
	FeaturedGrid:  "Featured",
	ShopGrid:      "Products",
	CartContainer: "Cart",
	CheckoutForm:  "Checkout",
	CartCount:     "CartCount",
}

// Bindings is a Surface backed by a template: it declares its containers up
// front and collects the rendered data by template field name.
type Bindings struct {
	present map[Container]bool
	data    map[string]any
}

func NewBindings(containers ...Container) *Bindings {
	b := &Bindings{present: make(map[Container]bool, len(containers)), data: map[string]any{}}
	for _, c := range containers {
		b.present[c] = true
	}
	return b
}

func (b *Bindings) Has(c Container) bool { return b.present[c] }

func (b *Bindings) Render(c Container, data any) {
	key, ok := bindingKeys[c]
	if !ok {
		key = string(c)
	}
	b.data[key] = data
}

// Data returns the collected values; callers may add their own keys.
func (b *Bindings) Data() map[string]any {
	out := make(map[string]any, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}
