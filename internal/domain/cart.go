package domain

import "github.com/shopspring/decimal"

// LineKind discriminates what a cart line refers to.
type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindSpecial LineKind = "special"
)

// SpecialLinePrefix namespaces special item ids inside a cart so they never
// collide with product ids.
const SpecialLinePrefix = "special-"

// CartLineItem is one entry of a cart. Title, Price and Image are snapshots
// taken when the line was first added.
type CartLineItem struct {
	ID       string          `json:"id"`
	Kind     LineKind        `json:"kind"`
	RefID    string          `json:"refId"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// NewProductLine snapshots a catalog product into a cart line.
func NewProductLine(p Product, quantity int) CartLineItem {
	return CartLineItem{
		ID:       p.ID,
		Kind:     LineKindProduct,
		RefID:    p.ID,
		Title:    p.Name,
		Price:    p.Price,
		Quantity: quantity,
		Image:    p.FirstImage(),
	}
}

// NewSpecialLine snapshots a special item into a cart line.
func NewSpecialLine(s SpecialItem, quantity int) CartLineItem {
	return CartLineItem{
		ID:       SpecialLinePrefix + s.ID,
		Kind:     LineKindSpecial,
		RefID:    s.ID,
		Title:    s.Name,
		Price:    s.Price,
		Quantity: quantity,
		Image:    s.Image,
	}
}

// Subtotal is price times quantity, unrounded.
func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ProductRef returns the catalog product id, or nil for special items.
func (l CartLineItem) ProductRef() *string {
	if l.Kind != LineKindProduct {
		return nil
	}
	id := l.RefID
	return &id
}

// SpecialItemRef returns the special item id, or nil for catalog products.
func (l CartLineItem) SpecialItemRef() *string {
	if l.Kind != LineKindSpecial {
		return nil
	}
	id := l.RefID
	return &id
}
