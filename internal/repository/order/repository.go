package order

import (
	"context"

	"florist-storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Update rewrites the buyer, payment, total and details of order o.ID.
	Update(ctx context.Context, o domain.Order) error
}
