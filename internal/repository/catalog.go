package repository

import "context"

const getVariantByID = `
SELECT id, product_id, sku, name, unit_price_cents, weight_grams, size, color, active, created_at, updated_at
FROM product_variants
WHERE id = $1
`

func (q *Queries) GetVariantByID(ctx context.Context, id string) (VariantRow, error) {
	var v VariantRow
	err := q.db.QueryRow(ctx, getVariantByID, id).Scan(&v.ID, &v.ProductID, &v.SKU,
		&v.Name, &v.UnitPriceCents, &v.WeightGrams, &v.Size, &v.Color, &v.Active,
		&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

const getProductByID = `
SELECT id, name, slug, active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProductByID(ctx context.Context, id string) (ProductRow, error) {
	var p ProductRow
	err := q.db.QueryRow(ctx, getProductByID, id).Scan(&p.ID, &p.Name, &p.Slug,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
