package specialitem

import (
	"context"

	"florist-storefront/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.SpecialItem, error)
	GetByID(ctx context.Context, id string) (*domain.SpecialItem, error)
	Upsert(ctx context.Context, item domain.SpecialItem) (*domain.SpecialItem, error)
}
