package orderitem

import (
	"context"
	"fmt"

	"florist-storefront/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1::uuid`, orderID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) Insert(ctx context.Context, item domain.OrderItem) error {
	const q = `
INSERT INTO order_items (order_id, product_id, special_item_id, product_title, unit_price, quantity)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5::numeric, $6)
`
	_, err := r.pool.Exec(ctx, q,
		item.OrderID,
		item.ProductID,
		item.SpecialItemID,
		item.ProductTitle,
		item.UnitPrice.String(),
		item.Quantity,
	)
	return err
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, special_item_id::text, product_title, unit_price::text, quantity
FROM order_items
WHERE order_id = $1::uuid
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrderItem
	for rows.Next() {
		var (
			it    domain.OrderItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SpecialItemID, &it.ProductTitle, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price %q: %w", price, err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
