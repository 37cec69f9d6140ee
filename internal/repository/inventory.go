package repository

import "context"

const getTotalStockByVariant = `
SELECT COALESCE(SUM(quantity), 0)
FROM stock_levels
WHERE variant_id = $1
`

func (q *Queries) GetTotalStockByVariant(ctx context.Context, variantID string) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, getTotalStockByVariant, variantID).Scan(&total)
	return total, err
}

// AdjustStock applies a signed delta to one stock level and records the
// movement, in a single statement. The WHERE guard makes a decrement
// below zero match no row, which surfaces as pgx.ErrNoRows.
const adjustStock = `
WITH updated AS (
    UPDATE stock_levels
    SET quantity = quantity + $3, updated_at = now()
    WHERE variant_id = $1 AND location_id = $2 AND quantity + $3 >= 0
    RETURNING quantity
), movement AS (
    INSERT INTO stock_adjustments (variant_id, location_id, delta, reason, reference)
    SELECT $1, $2, $3, $4, $5 FROM updated
)
SELECT quantity FROM updated
`

func (q *Queries) AdjustStock(ctx context.Context, arg AdjustStockParams) (int64, error) {
	var remaining int64
	err := q.db.QueryRow(ctx, adjustStock,
		arg.VariantID, arg.LocationID, arg.Delta, arg.Reason, arg.Reference).Scan(&remaining)
	return remaining, err
}

const getLocationByID = `
SELECT id, name, kind, priority, active, created_at
FROM stock_locations
WHERE id = $1
`

func (q *Queries) GetLocationByID(ctx context.Context, id string) (LocationRow, error) {
	return scanLocation(q.db.QueryRow(ctx, getLocationByID, id))
}

const findFirstWarehouse = `
SELECT id, name, kind, priority, active, created_at
FROM stock_locations
WHERE kind = 'warehouse' AND active
ORDER BY priority, created_at
LIMIT 1
`

func (q *Queries) FindFirstWarehouse(ctx context.Context) (LocationRow, error) {
	return scanLocation(q.db.QueryRow(ctx, findFirstWarehouse))
}

func scanLocation(row rowScanner) (LocationRow, error) {
	var l LocationRow
	err := row.Scan(&l.ID, &l.Name, &l.Kind, &l.Priority, &l.Active, &l.CreatedAt)
	return l, err
}
