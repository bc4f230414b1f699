package orderitem

import (
	"context"

	"florist-storefront/internal/domain"
)

type Repository interface {
	DeleteByOrder(ctx context.Context, orderID string) (int64, error)
	Insert(ctx context.Context, item domain.OrderItem) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}
