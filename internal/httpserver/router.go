package httpserver

import (
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/service/session"
)

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type productService interface {
	ListByCategorySlug(ctx context.Context, categorySlug string) (*domain.Category, []domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	SpecialItems(ctx context.Context) ([]domain.SpecialItem, error)
	SpecialItem(ctx context.Context, id string) (*domain.SpecialItem, error)
}

type sessionService interface {
	Issue() string
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Deps carries the services the handlers call into.
type Deps struct {
	CategorySvc categoryService
	ProductSvc  productService
	Sessions    sessionService
	Checks      []ReadinessCheck
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.CategorySvc == nil:
		return errors.New("httpserver: category service is required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service is required")
	case d.Sessions == nil:
		return errors.New("httpserver: session service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Checks))

	router.POST("/session", createSessionHandler(deps.Sessions))

	router.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	router.GET("/categories/:slug/products", listCategoryProductsHandler(deps.ProductSvc))
	router.GET("/products/:id", getProductHandler(deps.ProductSvc))
	router.GET("/special-items", listSpecialItemsHandler(deps.ProductSvc))

	scoped := router.Group("/", sessionMiddleware(deps.Sessions))

	scoped.GET("/cart", getCartHandler())
	scoped.DELETE("/cart", clearCartHandler())
	scoped.POST("/cart/items", addCartItemHandler(deps.ProductSvc))
	scoped.PATCH("/cart/items/:id", updateCartItemHandler())
	scoped.DELETE("/cart/items/:id", removeCartItemHandler())
	scoped.PUT("/cart/open", setCartOpenHandler())
	scoped.POST("/cart/notification/dismiss", dismissNotificationHandler())
	scoped.POST("/cart/notification/view", viewCartHandler())

	scoped.GET("/checkout/:step", enterCheckoutHandler())
	scoped.POST("/checkout/:step", submitCheckoutHandler())

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", sessionHeader},
		ExposeHeaders:    []string{sessionHeader, "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
