package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID      `db:"id"`
	TenantID    uuid.UUID      `db:"tenant_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	PriceCents  int64          `db:"price_cents"`
	Currency    string         `db:"currency"`
	ImageURL    sql.NullString `db:"image_url"`
	InStock     bool           `db:"in_stock"`
	CreatedAt   string         `db:"created_at"`
}

// ProductFilter narrows catalog searches. Zero values mean "no constraint".
type ProductFilter struct {
	Query         string
	MaxPriceCents int64
	MinPriceCents int64
	Limit         int
	Offset        int
}

const sqlSearchProducts = `
SELECT * FROM products
WHERE tenant_id = $1
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
  AND ($3 = 0 OR price_cents <= $3)
  AND ($4 = 0 OR price_cents >= $4)
ORDER BY name ASC
LIMIT $5 OFFSET $6`

const sqlCountProducts = `
SELECT COUNT(*) FROM products
WHERE tenant_id = $1
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
  AND ($3 = 0 OR price_cents <= $3)
  AND ($4 = 0 OR price_cents >= $4)`

// SearchProducts returns a page of matching products plus the total match count
// so callers can report pagination hints.
func (s *Store) SearchProducts(ctx context.Context, tenantID uuid.UUID, filter ProductFilter) ([]Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	var products []Product
	err := s.db.SelectContext(ctx, &products, sqlSearchProducts,
		tenantID, filter.Query, filter.MaxPriceCents, filter.MinPriceCents, filter.Limit, filter.Offset)
	if err != nil {
		s.logger.Error(ctx, "failed to search products", err)
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}

	var total int
	err = s.db.GetContext(ctx, &total, sqlCountProducts,
		tenantID, filter.Query, filter.MaxPriceCents, filter.MinPriceCents)
	if err != nil {
		s.logger.Error(ctx, "failed to count products", err)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

const sqlGetTopProducts = `
SELECT * FROM products WHERE tenant_id = $1 AND in_stock = true ORDER BY created_at DESC LIMIT $2`

func (s *Store) GetTopProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]Product, error) {
	var products []Product
	err := s.db.SelectContext(ctx, &products, sqlGetTopProducts, tenantID, limit)
	if err != nil {
		s.logger.Error(ctx, "failed to get top products", err)
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}
