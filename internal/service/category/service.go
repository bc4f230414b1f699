package category

import (
	"context"
	"fmt"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/repository/category"
	"florist-storefront/internal/slug"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// BySlug rejects malformed slugs before touching the store so a degenerate
// route never reaches the database.
func (s *Service) BySlug(ctx context.Context, value string) (*domain.Category, error) {
	if !slug.IsValid(value) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetBySlug(ctx, value)
}

// Upsert fills in the slug from the name when it is missing.
func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.Slug == "" {
		derived, err := slug.Derive(c.Name)
		if err != nil {
			return nil, fmt.Errorf("category: %w", err)
		}
		c.Slug = derived
	}
	if !slug.IsValid(c.Slug) {
		return nil, fmt.Errorf("category %q: invalid slug %q", c.Name, c.Slug)
	}
	return s.repo.Upsert(ctx, c)
}
