// Package testutil holds helpers for integration tests that need Postgres.
package testutil

import (
	"context"
	"os"
	"testing"

	"florist-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates every
// table. Tests are skipped when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, products, special_items, categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}
