package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/service/cart"
)

type addCartItemRequest struct {
	Kind     domain.LineKind `json:"kind" binding:"required,oneof=product special"`
	RefID    string          `json:"refId" binding:"required"`
	Quantity int             `json:"quantity" binding:"max=999"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}

type cartOpenRequest struct {
	Open *bool `json:"open" binding:"required"`
}

func getCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, toCartResponse(sessionFrom(c).Cart.Snapshot()))
	}
}

// addCartItemHandler snapshots the referenced catalog entry into a new cart
// line, so later catalog edits never change what is already in the cart.
func addCartItemHandler(products productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "kind (product|special) and refId are required, quantity at most 999")
			return
		}

		ctx := c.Request.Context()
		var line domain.CartLineItem
		switch req.Kind {
		case domain.LineKindProduct:
			p, err := products.Get(ctx, req.RefID)
			if err != nil {
				writeLookupError(c, err, "product")
				return
			}
			line = domain.NewProductLine(*p, req.Quantity)
		case domain.LineKindSpecial:
			item, err := products.SpecialItem(ctx, req.RefID)
			if err != nil {
				writeLookupError(c, err, "special item")
				return
			}
			line = domain.NewSpecialLine(*item, req.Quantity)
		}

		store := sessionFrom(c).Cart
		if err := store.AddItem(ctx, line); err != nil {
			if errors.Is(err, cart.ErrInvalidItem) {
				writeError(c, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(c, http.StatusInternalServerError, "failed to add item")
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func updateCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "quantity is required and at most 999")
			return
		}
		store := sessionFrom(c).Cart
		id := c.Param("id")
		if !hasLine(store, id) {
			writeError(c, http.StatusNotFound, "cart item not found")
			return
		}
		if err := store.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
			writeError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func removeCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionFrom(c).Cart
		id := c.Param("id")
		if !hasLine(store, id) {
			writeError(c, http.StatusNotFound, "cart item not found")
			return
		}
		store.RemoveItem(c.Request.Context(), id)
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func clearCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionFrom(c).Cart
		store.Clear(c.Request.Context())
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func setCartOpenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartOpenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "open is required")
			return
		}
		store := sessionFrom(c).Cart
		store.SetOpen(*req.Open)
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func dismissNotificationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionFrom(c).Cart
		store.DismissNotification()
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func viewCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionFrom(c).Cart
		store.ViewCart()
		c.JSON(http.StatusOK, toCartResponse(store.Snapshot()))
	}
}

func hasLine(store *cart.Store, id string) bool {
	for _, l := range store.Items() {
		if l.ID == id {
			return true
		}
	}
	return false
}

func writeLookupError(c *gin.Context, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(c, http.StatusNotFound, what+" not found")
		return
	}
	writeError(c, http.StatusInternalServerError, "failed to load "+what)
}
