package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"nymph/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// List returns every product in catalog order.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name, price_minor, image
	  FROM products
	  ORDER BY position, id
	`)
	return out, err
}
