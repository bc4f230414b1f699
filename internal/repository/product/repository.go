package product

import (
	"context"

	"florist-storefront/internal/domain"
)

type Repository interface {
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
