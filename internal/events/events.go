package events

import (
	"time"

	"florist-storefront/internal/domain"
)

const OrderCreatedQueue = "order.created"

type OrderCreated struct {
	EventType     string      `json:"eventType"`
	OrderID       string      `json:"orderId"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	Total         string      `json:"total"`
	Items         []OrderLine `json:"items"`
	Timestamp     time.Time   `json:"timestamp"`
}

type OrderLine struct {
	LineID    string          `json:"lineId"`
	Kind      domain.LineKind `json:"kind"`
	RefID     string          `json:"refId"`
	Title     string          `json:"title"`
	UnitPrice string          `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func NewOrderCreated(o domain.Order, items []domain.CartLineItem, at time.Time) OrderCreated {
	ev := OrderCreated{
		EventType:     "OrderCreated",
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total.StringFixed(2),
		Items:         make([]OrderLine, 0, len(items)),
		Timestamp:     at.UTC(),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, OrderLine{
			LineID:    it.ID,
			Kind:      it.Kind,
			RefID:     it.RefID,
			Title:     it.Title,
			UnitPrice: it.Price.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}
	return ev
}
