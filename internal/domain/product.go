package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FirstImage returns the cover image used for cart snapshots.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// SpecialItem is a purchasable add-on (balloons, chocolates, cards) that is
// not part of the product catalog.
type SpecialItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
}
