package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"
)

// Order is the record created when the payment stage is submitted.
// Details holds the staged checkout state keyed by stage name.
type Order struct {
	ID            string                       `json:"id"`
	CustomerName  string                       `json:"customerName"`
	CustomerEmail string                       `json:"customerEmail"`
	CustomerPhone string                       `json:"customerPhone"`
	DeliveryDate  string                       `json:"deliveryDate,omitempty"`
	PaymentMethod string                       `json:"paymentMethod"`
	Total         decimal.Decimal              `json:"total"`
	Status        string                       `json:"status"`
	Details       map[string]map[string]string `json:"details,omitempty"`
	CreatedAt     time.Time                    `json:"createdAt"`
}

// OrderItem is a denormalized line of a persisted order.
type OrderItem struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orderId"`
	ProductID     *string         `json:"productId"`
	SpecialItemID *string         `json:"specialItemId"`
	ProductTitle  string          `json:"productTitle"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
}
