// Package views projects the catalog and a cart into page data. Every function
// here is pure: the same catalog and cart always give the same view.
package views

import (
	"fmt"

	"nymph/internal/domain"
	"nymph/internal/services"
)

// FeaturedCount is how many products the home page shows.
const FeaturedCount = 4

type ProductCard struct {
	ID    int
	Name  string
	Image string
	Price string
}

func ProductGrid(products []domain.Product) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, ProductCard{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price.String()})
	}
	return cards
}

type CartRow struct {
	ID        int
	Name      string
	Image     string
	UnitPrice string
	Quantity  int
	LineTotal string
}

// CartPage is the cart table. Empty is set instead of rendering a table with
// no rows.
type CartPage struct {
	Empty    bool
	Rows     []CartRow
	Subtotal string
	Total    string
	Count    int
}

// Cart prices rows at the current catalog price; lines whose product is gone
// from the catalog are left out. A cart of only such lines is Empty.
func Cart(catalog services.Catalog, store *services.CartStore) CartPage {
	page := CartPage{Empty: store.Empty(), Count: store.TotalItems()}
	if page.Empty {
		return page
	}
	for _, l := range store.Lines() {
		p, ok := catalog.Lookup(l.ID)
		if !ok {
			continue
		}
		page.Rows = append(page.Rows, CartRow{
			ID:        p.ID,
			Name:      p.Name,
			Image:     p.Image,
			UnitPrice: p.Price.String(),
			Quantity:  l.Quantity,
			LineTotal: p.Price.Times(l.Quantity).String(),
		})
	}
	sub := store.Subtotal()
	page.Subtotal = sub.String()
	page.Total = sub.String()
	return page
}

type SummaryItem struct {
	Label  string
	Amount string
}

type CheckoutPage struct {
	Empty      bool
	Items      []SummaryItem
	Total      string
	TotalMinor int64
}

func Checkout(catalog services.Catalog, store *services.CartStore) CheckoutPage {
	page := CheckoutPage{Empty: store.Empty()}
	if page.Empty {
		return page
	}
	for _, l := range store.Lines() {
		p, ok := catalog.Lookup(l.ID)
		if !ok {
			continue
		}
		page.Items = append(page.Items, SummaryItem{
			Label:  fmt.Sprintf("%s (x%d)", p.Name, l.Quantity),
			Amount: p.Price.Times(l.Quantity).String(),
		})
	}
	total := store.Subtotal()
	page.Total = total.String()
	page.TotalMinor = total.Minor()
	return page
}

// Badge is the number shown on the navbar cart icon.
func Badge(store *services.CartStore) int {
	return store.TotalItems()
}
