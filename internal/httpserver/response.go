package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/service/cart"
)

const persistWarning = "cart changes could not be saved and may be lost on reload"

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}

type productResponse struct {
	ID          string   `json:"id"`
	CategoryID  string   `json:"categoryId,omitempty"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Images      []string `json:"images"`
}

type specialItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
}

type lineResponse struct {
	ID       string          `json:"id"`
	Kind     domain.LineKind `json:"kind"`
	RefID    string          `json:"refId"`
	Title    string          `json:"title"`
	Price    string          `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
	Image    string          `json:"image,omitempty"`
}

type cartResponse struct {
	Items     []lineResponse `json:"items"`
	Total     string         `json:"total"`
	ItemCount int            `json:"itemCount"`
	LastAdded *lineResponse  `json:"lastAdded"`
	Open      bool           `json:"open"`
	Warning   string         `json:"warning,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
	}
}

func toProductResponse(p domain.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       money(p.Price),
		Images:      images,
	}
}

func toSpecialItemResponse(s domain.SpecialItem) specialItemResponse {
	return specialItemResponse{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Price:       money(s.Price),
		Image:       s.Image,
	}
}

func toLineResponse(l domain.CartLineItem) lineResponse {
	return lineResponse{
		ID:       l.ID,
		Kind:     l.Kind,
		RefID:    l.RefID,
		Title:    l.Title,
		Price:    money(l.Price),
		Quantity: l.Quantity,
		Subtotal: money(l.Subtotal()),
		Image:    l.Image,
	}
}

func toCartResponse(snap cart.Snapshot) cartResponse {
	out := cartResponse{
		Items:     make([]lineResponse, 0, len(snap.Items)),
		Total:     money(snap.Total),
		ItemCount: snap.ItemCount,
		Open:      snap.Open,
	}
	for _, l := range snap.Items {
		out.Items = append(out.Items, toLineResponse(l))
	}
	if snap.LastAdded != nil {
		last := toLineResponse(*snap.LastAdded)
		out.LastAdded = &last
	}
	if snap.Warning != nil {
		out.Warning = persistWarning
	}
	return out
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
