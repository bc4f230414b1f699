package specialitem

import (
	"context"
	"errors"
	"testing"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestPostgres_ListActiveSkipsInactive(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(testutil.Pool(t))

	balloon, err := repo.Upsert(ctx, domain.SpecialItem{Name: "Balão", Slug: "balao", Price: decimal.RequireFromString("25.00"), Active: true})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := repo.Upsert(ctx, domain.SpecialItem{Name: "Urso", Slug: "urso", Price: decimal.RequireFromString("60"), Active: false}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	list, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 1 || list[0].ID != balloon.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := repo.GetByID(ctx, balloon.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected price %s", got.Price)
	}

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
