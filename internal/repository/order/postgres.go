package order

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

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (customer_name, customer_email, customer_phone, delivery_date, payment_method, total, status, details)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::numeric, $7, $8)
RETURNING id::text, created_at
`
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	details := o.Details
	if details == nil {
		details = map[string]map[string]string{}
	}
	out := o
	err := r.pool.QueryRow(ctx, q,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerPhone,
		o.DeliveryDate,
		o.PaymentMethod,
		o.Total.String(),
		o.Status,
		details,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.logger.Printf("order repo: create email=%s error=%v", o.CustomerEmail, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s total=%s", out.ID, out.Total.StringFixed(2))
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, customer_name, customer_email, customer_phone, COALESCE(delivery_date, ''), payment_method, total::text, status, details, created_at
FROM orders
WHERE id::text = $1
`
	var (
		o     domain.Order
		total string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.DeliveryDate,
		&o.PaymentMethod,
		&total,
		&o.Status,
		&o.Details,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	return &o, nil
}

func (r *postgresRepo) Update(ctx context.Context, o domain.Order) error {
	const q = `
UPDATE orders
SET customer_name = $2, customer_email = $3, customer_phone = $4, delivery_date = NULLIF($5, ''),
    payment_method = $6, total = $7::numeric, details = $8
WHERE id::text = $1
`
	details := o.Details
	if details == nil {
		details = map[string]map[string]string{}
	}
	tag, err := r.pool.Exec(ctx, q,
		o.ID,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerPhone,
		o.DeliveryDate,
		o.PaymentMethod,
		o.Total.String(),
		details,
	)
	if err != nil {
		r.logger.Printf("order repo: update id=%s error=%v", o.ID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("order repo: updated id=%s total=%s", o.ID, o.Total.StringFixed(2))
	return nil
}
