package domain

// Product is a catalog entry. Catalog-owned and never mutated.
type Product struct {
	ID    int    `json:"id" db:"id" yaml:"id"`
	Name  string `json:"name" db:"name" yaml:"name"`
	Price Money  `json:"price" db:"price_minor" yaml:"-"`
	Image string `json:"image" db:"image" yaml:"image"`
}

// CartLine is one product's entry in a cart. Price and Name are snapshots taken
// when the line was first added.
type CartLine struct {
	ID       int    `json:"id"`
	Quantity int    `json:"quantity"`
	Price    Money  `json:"price"`
	Name     string `json:"name"`
}
