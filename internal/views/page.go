package views

import (
	"context"
	"errors"
	"fmt"

	"nymph/internal/services"
)

type PageState int

const (
	Uninitialized PageState = iota
	Loaded
	Rendered
	Mutated
)

func (s PageState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loaded:
		return "loaded"
	case Rendered:
		return "rendered"
	case Mutated:
		return "mutated"
	}
	return "unknown"
}

var ErrPageState = errors.New("illegal page transition")

// Page drives one page load: load the cart, render, then any number of
// mutations each followed by a re-render.
type Page struct {
	state   PageState
	surface Surface
	catalog services.Catalog
	store   *services.CartStore
}

func NewPage(surface Surface, catalog services.Catalog, store *services.CartStore) *Page {
	return &Page{surface: surface, catalog: catalog, store: store}
}

func (p *Page) State() PageState { return p.state }

func (p *Page) Store() *services.CartStore { return p.store }

func (p *Page) Load(ctx context.Context) error {
	if p.state != Uninitialized {
		return fmt.Errorf("load from %s: %w", p.state, ErrPageState)
	}
	p.store.Load(ctx)
	p.state = Loaded
	return nil
}

func (p *Page) Render() error {
	if p.state != Loaded && p.state != Mutated {
		return fmt.Errorf("render from %s: %w", p.state, ErrPageState)
	}
	Render(p.surface, p.catalog, p.store)
	p.state = Rendered
	return nil
}

// Mutate applies an intent to the cart and re-renders before returning.
func (p *Page) Mutate(ctx context.Context, intent func(context.Context, *services.CartStore)) error {
	if p.state != Rendered {
		return fmt.Errorf("mutate from %s: %w", p.state, ErrPageState)
	}
	intent(ctx, p.store)
	p.state = Mutated
	return p.Render()
}
