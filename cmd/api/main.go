package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"florist-storefront/internal/config"
	"florist-storefront/internal/db"
	"florist-storefront/internal/events"
	"florist-storefront/internal/httpserver"
	"florist-storefront/internal/kv"
	categoryrepo "florist-storefront/internal/repository/category"
	orderrepo "florist-storefront/internal/repository/order"
	orderitemrepo "florist-storefront/internal/repository/orderitem"
	productrepo "florist-storefront/internal/repository/product"
	specialitemrepo "florist-storefront/internal/repository/specialitem"
	categorysvc "florist-storefront/internal/service/category"
	"florist-storefront/internal/service/checkout"
	"florist-storefront/internal/service/orderitems"
	productsvc "florist-storefront/internal/service/product"
	"florist-storefront/internal/service/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient, err := kv.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer redisClient.Close()

	categoryRepo := categoryrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	specialRepo := specialitemrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	orderItemRepo := orderitemrepo.NewPostgres(dbpool)

	categoryService := categorysvc.New(categoryRepo)
	productService := productsvc.New(productRepo, specialRepo, categoryRepo)

	checkoutDeps := checkout.Deps{
		Orders: orderRepo,
		Items:  orderitems.New(orderItemRepo, logger),
		Logger: logger,
	}
	if cfg.AMQPURL != "" {
		conn, publisher, err := events.Dial(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatalf("connect to rabbitmq: %v", err)
		}
		defer conn.Close()
		defer publisher.Close()
		checkoutDeps.Publisher = publisher
	} else {
		logger.Printf("AMQP_URL not set, order events disabled")
	}

	sessions := session.NewManager(kv.NewRedis(redisClient, cfg.StagedStateRetention), session.Options{
		Logger:              logger,
		NotificationTimeout: cfg.NotificationTimeout,
		IdleTimeout:         cfg.SessionIdleTimeout,
		Checkout:            checkoutDeps,
	})
	defer sessions.Close()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CategorySvc: categoryService,
		ProductSvc:  productService,
		Sessions:    sessions,
		Checks: []httpserver.ReadinessCheck{
			{Name: "db", Ping: dbpool.Ping},
			{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		},
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
