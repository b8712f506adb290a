package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nymph/internal/domain"
	applog "nymph/internal/log"
	"nymph/internal/storage"
	"nymph/internal/validate"
)

// CartKey is the persistence key of the serialized cart.
const CartKey = "cart"

// Notifier shows transient messages (toasts) to the shopper.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// CartStore owns the cart of one page context. It is not safe for concurrent
// use; each request builds its own store over the shared backend.
type CartStore struct {
	kv      storage.Store
	catalog Catalog
	notify  Notifier
	lines   []domain.CartLine
}

// NewCartStore expects kv to be scoped to the shopper's session already.
func NewCartStore(kv storage.Store, catalog Catalog, notify Notifier) *CartStore {
	if notify == nil {
		notify = NotifierFunc(func(string) {})
	}
	return &CartStore{kv: kv, catalog: catalog, notify: notify}
}

// Load rehydrates from the backend. Missing or unreadable state yields an empty
// cart; nothing is reported to the caller.
func (s *CartStore) Load(ctx context.Context) {
	s.lines = nil
	b, err := s.kv.Get(ctx, CartKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			applog.ErrorCtx(ctx, "cart.load.fail", err, nil)
		}
		return
	}
	lines, err := decodeCart(b)
	if err != nil {
		applog.InfoCtx(ctx, "cart.load.malformed", map[string]any{"err": err.Error()})
		return
	}
	s.lines = lines
}

// decodeCart parses the persisted JSON array. Lines with a non-positive id or
// quantity are dropped and repeated ids are merged into the first occurrence.
func decodeCart(b []byte) ([]domain.CartLine, error) {
	var raw []domain.CartLine
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	out := make([]domain.CartLine, 0, len(raw))
	seen := make(map[int]int, len(raw))
	for _, l := range raw {
		if l.ID <= 0 || l.Quantity <= 0 {
			continue
		}
		if i, ok := seen[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.ID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// persist writes the cart. Failures are logged and the in-memory cart stays
// authoritative for the rest of the request.
func (s *CartStore) persist(ctx context.Context) {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		applog.ErrorCtx(ctx, "cart.persist.fail", err, nil)
		return
	}
	if err := s.kv.Set(ctx, CartKey, b); err != nil {
		applog.ErrorCtx(ctx, "cart.persist.fail", err, map[string]any{"lines": len(lines)})
	}
}

func (s *CartStore) index(productID int) int {
	for i, l := range s.lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of productID in the cart. Unknown products are ignored.
func (s *CartStore) Add(ctx context.Context, productID int) bool {
	p, ok := s.catalog.Lookup(productID)
	if !ok {
		return false
	}
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, domain.CartLine{ID: p.ID, Quantity: 1, Price: p.Price, Name: p.Name})
	}
	s.persist(ctx)
	s.notify.Notify(p.Name + " added to cart!")
	return true
}

// SetQuantity replaces the quantity of an existing line. Non-positive quantities
// and unknown lines are ignored.
func (s *CartStore) SetQuantity(ctx context.Context, productID, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	i := s.index(productID)
	if i < 0 {
		return false
	}
	s.lines[i].Quantity = quantity
	s.persist(ctx)
	return true
}

// SetQuantityInput is SetQuantity for raw form input; anything but a whole
// positive number is ignored.
func (s *CartStore) SetQuantityInput(ctx context.Context, productID int, raw string) bool {
	q, ok := validate.Quantity(raw)
	if !ok {
		return false
	}
	return s.SetQuantity(ctx, productID, q)
}

// Remove deletes the line for productID. The cart is persisted and the shopper
// notified whether or not the line existed.
func (s *CartStore) Remove(ctx context.Context, productID int) bool {
	removed := false
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.ID == productID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	s.persist(ctx)
	s.notify.Notify("Item removed from cart.")
	return removed
}

// Clear empties the cart and removes the persisted state.
func (s *CartStore) Clear(ctx context.Context) {
	s.lines = nil
	if err := s.kv.Delete(ctx, CartKey); err != nil {
		applog.ErrorCtx(ctx, "cart.clear.fail", err, nil)
	}
}

// Lines returns a copy of the cart in add order.
func (s *CartStore) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Empty reports whether no line resolves in the catalog. Lines whose product
// left the catalog can be neither shown nor paid for.
func (s *CartStore) Empty() bool {
	for _, l := range s.lines {
		if _, ok := s.catalog.Lookup(l.ID); ok {
			return false
		}
	}
	return true
}

// TotalItems is the badge count: the sum of all quantities.
func (s *CartStore) TotalItems() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal prices every line at the current catalog price. Lines whose product
// left the catalog are not counted.
func (s *CartStore) Subtotal() domain.Money {
	var total domain.Money
	for _, l := range s.lines {
		p, ok := s.catalog.Lookup(l.ID)
		if !ok {
			continue
		}
		total += p.Price.Times(l.Quantity)
	}
	return total
}
