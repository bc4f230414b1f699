package specialitem

import (
	"context"
	"errors"
	"fmt"

	"florist-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const selectColumns = `id::text, name, slug, COALESCE(description, ''), price::text, COALESCE(image, ''), active, created_at`

func scanItem(row pgx.Row) (domain.SpecialItem, error) {
	var (
		it    domain.SpecialItem
		price string
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Slug, &it.Description, &price, &it.Image, &it.Active, &it.CreatedAt); err != nil {
		return it, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return it, fmt.Errorf("parse price %q: %w", price, err)
	}
	it.Price = d
	return it, nil
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.SpecialItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM special_items WHERE active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SpecialItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.SpecialItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM special_items WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item domain.SpecialItem) (*domain.SpecialItem, error) {
	const q = `
INSERT INTO special_items (name, slug, description, price, image, active)
VALUES ($1, $2, NULLIF($3, ''), $4::numeric, NULLIF($5, ''), $6)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    image = EXCLUDED.image,
    active = EXCLUDED.active
RETURNING id::text, created_at
`
	out := item
	err := r.pool.QueryRow(ctx, q, item.Name, item.Slug, item.Description, item.Price.String(), item.Image, item.Active).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
