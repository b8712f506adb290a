package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nymph/internal/domain"
	"nymph/internal/repos"
)

// Catalog is the read-only source of truth for products.
type Catalog interface {
	All() []domain.Product
	Lookup(id int) (domain.Product, bool)
	First(n int) []domain.Product
}

// StaticCatalog is an immutable, ordered product list.
type StaticCatalog struct {
	products []domain.Product
	byID     map[int]int
}

func NewStaticCatalog(products []domain.Product) (*StaticCatalog, error) {
	c := &StaticCatalog{
		products: make([]domain.Product, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	copy(c.products, products)
	for i, p := range c.products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product %q: id must be positive", p.Name)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("product %d: negative price", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func (c *StaticCatalog) All() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *StaticCatalog) Lookup(id int) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// First returns at most n products from the head of the catalog (featured view).
func (c *StaticCatalog) First(n int) []domain.Product {
	if n < 0 {
		n = 0
	}
	if n > len(c.products) {
		n = len(c.products)
	}
	out := make([]domain.Product, n)
	copy(out, c.products[:n])
	return out
}

// DefaultProducts is the built-in storefront catalog.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Elegant Floral Dress", Price: domain.Rupees(2500), Image: "images/product-1.jpg"},
		{ID: 2, Name: "Classic Denim Jacket", Price: domain.Rupees(3200), Image: "images/product-2.jpg"},
		{ID: 3, Name: "Summer Vibe T-Shirt", Price: domain.Rupees(1200), Image: "images/product-3.jpg"},
		{ID: 4, Name: "Formal Office Blazer", Price: domain.Rupees(4500), Image: "images/product-4.jpg"},
		{ID: 5, Name: "Cozy Knit Sweater", Price: domain.Rupees(2800), Image: "images/product-5.jpg"},
		{ID: 6, Name: "Casual Striped Shirt", Price: domain.Rupees(1800), Image: "images/product-6.jpg"},
		{ID: 7, Name: "Bohemian Maxi Skirt", Price: domain.Rupees(2200), Image: "images/product-7.jpg"},
		{ID: 8, Name: "Athletic Jogger Pants", Price: domain.Rupees(1900), Image: "images/product-8.jpg"},
	}
}

func DefaultCatalog() *StaticCatalog {
	c, _ := NewStaticCatalog(DefaultProducts())
	return c
}

type catalogFile struct {
	Products []catalogFileProduct `yaml:"products"`
}

type catalogFileProduct struct {
	ID    int       `yaml:"id"`
	Name  string    `yaml:"name"`
	Price yamlPrice `yaml:"price"`
	Image string    `yaml:"image"`
}

// yamlPrice keeps the literal scalar so "2500" and "25.50" parse without floats.
type yamlPrice string

func (p *yamlPrice) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.New("price must be a scalar")
	}
	*p = yamlPrice(n.Value)
	return nil
}

// ParseCatalogYAML reads a catalog document:
//
//	products:
//	  - {id: 1, name: Elegant Floral Dress, price: 2500, image: images/product-1.jpg}
func ParseCatalogYAML(b []byte) (*StaticCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	products := make([]domain.Product, 0, len(f.Products))
	for _, fp := range f.Products {
		price, err := domain.ParseMoney(string(fp.Price))
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", fp.ID, err)
		}
		products = append(products, domain.Product{ID: fp.ID, Name: fp.Name, Price: price, Image: fp.Image})
	}
	return NewStaticCatalog(products)
}

func LoadCatalogFile(path string) (*StaticCatalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogYAML(b)
}

// LoadCatalogDB snapshots the products table. The snapshot is immutable for the
// life of the process.
func LoadCatalogDB(ctx context.Context, prods *repos.ProductRepo) (*StaticCatalog, error) {
	ps, err := prods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewStaticCatalog(ps)
}
