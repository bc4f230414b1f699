package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"florist-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id::text, COALESCE(category_id::text, ''), name, slug, COALESCE(description, ''), price::text, images, active, created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &price, &p.Images, &p.Active, &p.CreatedAt); err != nil {
		return p, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return p, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	q := `
SELECT ` + selectColumns + `
FROM products
WHERE category_id = $1 AND active
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, categoryID)
	if err != nil {
		r.logger.Printf("product repo: list category_id=%s error=%v", categoryID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows category_id=%s error=%v", categoryID, err)
		return nil, err
	}
	r.logger.Printf("product repo: list category_id=%s count=%d", categoryID, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `
SELECT ` + selectColumns + `
FROM products
WHERE id::text = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, name, slug, description, price, images, active)
VALUES (NULLIF($1, '')::uuid, $2, $3, NULLIF($4, ''), $5::numeric, COALESCE($6, '[]'::jsonb), $7)
ON CONFLICT (slug) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    images = EXCLUDED.images,
    active = EXCLUDED.active
RETURNING id::text, created_at
`
	images := product.Images
	if images == nil {
		images = []string{}
	}
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price.String(),
		images,
		product.Active,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert slug=%s error=%v", product.Slug, err)
		return nil, err
	}
	res.Images = images
	r.logger.Printf("product repo: upserted slug=%s id=%s", res.Slug, res.ID)
	return &res, nil
}
