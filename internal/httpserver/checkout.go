package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"florist-storefront/internal/service/checkout"
)

type stageResponse struct {
	Stage   int             `json:"stage"`
	Name    string          `json:"name"`
	Fields  checkout.Fields `json:"fields,omitempty"`
	OrderID string          `json:"orderId,omitempty"`
	Cart    *cartResponse   `json:"cart,omitempty"`
}

func enterCheckoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, err := checkout.ParseStage(c.Param("step"))
		if err != nil {
			writeError(c, http.StatusNotFound, "unknown checkout step")
			return
		}
		s := sessionFrom(c)
		view, err := s.Checkout.Enter(c.Request.Context(), stage)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to load checkout state")
			return
		}
		if view.Redirect != 0 {
			redirectTo(c, view.Redirect)
			return
		}

		resp := stageResponse{
			Stage:   int(view.Stage),
			Name:    view.Stage.String(),
			Fields:  view.Fields,
			OrderID: view.OrderID,
		}
		if stage == checkout.StagePayment {
			summary := toCartResponse(s.Cart.Snapshot())
			resp.Cart = &summary
		}
		c.JSON(http.StatusOK, resp)
	}
}

// submitCheckoutHandler answers a successful submission with 303 See Other
// pointing at the next stage.
func submitCheckoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, err := checkout.ParseStage(c.Param("step"))
		if err != nil {
			writeError(c, http.StatusNotFound, "unknown checkout step")
			return
		}
		var fields checkout.Fields
		if err := c.ShouldBindJSON(&fields); err != nil {
			writeError(c, http.StatusBadRequest, "body must be a JSON object of string fields")
			return
		}

		pipeline := sessionFrom(c).Checkout
		ctx := c.Request.Context()

		if stage == checkout.StagePayment {
			orderID, err := pipeline.SubmitPayment(ctx, fields)
			if err != nil {
				writeCheckoutError(c, err)
				return
			}
			c.Header("Location", checkout.StageConfirmation.Path())
			c.JSON(http.StatusSeeOther, gin.H{"next": checkout.StageConfirmation.Path(), "orderId": orderID})
			return
		}

		next, err := pipeline.Continue(ctx, stage, fields)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.Header("Location", next.Path())
		c.JSON(http.StatusSeeOther, gin.H{"next": next.Path()})
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var (
		verr   *checkout.ValidationError
		locked *checkout.LockedError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
	case errors.As(err, &locked):
		redirectTo(c, locked.Missing)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrSubmitFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": checkout.ErrSubmitFailed.Error(), "retryable": true})
	case errors.Is(err, checkout.ErrNotSubmittable):
		writeError(c, http.StatusMethodNotAllowed, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "checkout failed")
	}
}

func redirectTo(c *gin.Context, stage checkout.Stage) {
	c.Header("Location", stage.Path())
	c.JSON(http.StatusSeeOther, gin.H{"redirect": stage.Path()})
}
