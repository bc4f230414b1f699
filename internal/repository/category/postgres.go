package category

import (
	"context"
	"errors"

	"florist-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, slug, COALESCE(description, ''), sort_order, created_at
FROM categories
ORDER BY sort_order ASC, name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	const q = `
SELECT id::text, name, slug, COALESCE(description, ''), sort_order, created_at
FROM categories
WHERE slug = $1
`
	var c domain.Category
	err := r.pool.QueryRow(ctx, q, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, slug, description, sort_order)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = COALESCE(EXCLUDED.description, categories.description),
    sort_order = EXCLUDED.sort_order
RETURNING id::text, COALESCE(description, ''), created_at
`
	out := c
	err := r.pool.QueryRow(ctx, q, c.Name, c.Slug, c.Description, c.SortOrder).Scan(&out.ID, &out.Description, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
