// Package orderitems attaches cart lines to a persisted order.
package orderitems

import (
	"context"
	"io"
	"log"

	"florist-storefront/internal/domain"
)

type itemStore interface {
	DeleteByOrder(ctx context.Context, orderID string) (int64, error)
	Insert(ctx context.Context, item domain.OrderItem) error
}

type Service struct {
	store  itemStore
	logger *log.Logger
}

func New(store itemStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, logger: logger}
}

// Save replaces every persisted line of orderID with items. It reports
// false on the first failure and leaves whatever was inserted before it;
// calling it again with the same arguments converges to the same set.
func (s *Service) Save(ctx context.Context, orderID string, items []domain.CartLineItem) bool {
	removed, err := s.store.DeleteByOrder(ctx, orderID)
	if err != nil {
		s.logger.Printf("order items: delete order_id=%s error=%v", orderID, err)
		return false
	}
	if removed > 0 {
		s.logger.Printf("order items: replaced %d existing lines order_id=%s", removed, orderID)
	}

	for _, item := range items {
		if err := s.store.Insert(ctx, toOrderItem(orderID, item)); err != nil {
			s.logger.Printf("order items: insert order_id=%s line=%s error=%v", orderID, item.ID, err)
			return false
		}
	}
	return true
}

func toOrderItem(orderID string, item domain.CartLineItem) domain.OrderItem {
	return domain.OrderItem{
		OrderID:       orderID,
		ProductID:     item.ProductRef(),
		SpecialItemID: item.SpecialItemRef(),
		ProductTitle:  item.Title,
		UnitPrice:     item.Price,
		Quantity:      item.Quantity,
	}
}
