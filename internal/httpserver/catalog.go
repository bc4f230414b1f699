package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"florist-storefront/internal/domain"
)

func listCategoriesHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to list categories")
			return
		}
		out := make([]categoryResponse, 0, len(categories))
		for _, cat := range categories {
			out = append(out, toCategoryResponse(cat))
		}
		c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out)})
	}
}

func listCategoryProductsHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, products, err := svc.ListByCategorySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(c, http.StatusNotFound, "category not found")
				return
			}
			writeError(c, http.StatusInternalServerError, "failed to list products")
			return
		}
		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, toProductResponse(p))
		}
		c.JSON(http.StatusOK, gin.H{"category": toCategoryResponse(*cat), "results": out, "count": len(out)})
	}
}

func getProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(c, http.StatusNotFound, "product not found")
				return
			}
			writeError(c, http.StatusInternalServerError, "failed to load product")
			return
		}
		c.JSON(http.StatusOK, toProductResponse(*p))
	}
}

func listSpecialItemsHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.SpecialItems(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to list special items")
			return
		}
		out := make([]specialItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, toSpecialItemResponse(item))
		}
		c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out)})
	}
}
