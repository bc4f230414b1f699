// Package product serves the sellable catalog: regular products grouped by
// category and the standalone special items.
package product

import (
	"context"
	"fmt"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/repository/category"
	productrepo "florist-storefront/internal/repository/product"
	"florist-storefront/internal/repository/specialitem"
	"florist-storefront/internal/slug"
)

type Service struct {
	repo       productrepo.Repository
	specials   specialitem.Repository
	categories category.Repository
}

func New(repo productrepo.Repository, specials specialitem.Repository, categories category.Repository) *Service {
	return &Service{repo: repo, specials: specials, categories: categories}
}

// ListByCategorySlug resolves the category first so an unknown slug is
// reported as not found instead of an empty listing.
func (s *Service) ListByCategorySlug(ctx context.Context, categorySlug string) (*domain.Category, []domain.Product, error) {
	if !slug.IsValid(categorySlug) {
		return nil, nil, domain.ErrNotFound
	}
	c, err := s.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.repo.ListByCategory(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *Service) SpecialItems(ctx context.Context) ([]domain.SpecialItem, error) {
	return s.specials.ListActive(ctx)
}

func (s *Service) SpecialItem(ctx context.Context, id string) (*domain.SpecialItem, error) {
	item, err := s.specials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// Upsert derives the slug from the name when it is missing.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Slug == "" {
		derived, err := slug.Derive(p.Name)
		if err != nil {
			return nil, fmt.Errorf("product: %w", err)
		}
		p.Slug = derived
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("product %q: negative price", p.Name)
	}
	return s.repo.Upsert(ctx, p)
}

func (s *Service) UpsertSpecialItem(ctx context.Context, item domain.SpecialItem) (*domain.SpecialItem, error) {
	if item.Slug == "" {
		derived, err := slug.Derive(item.Name)
		if err != nil {
			return nil, fmt.Errorf("special item: %w", err)
		}
		item.Slug = derived
	}
	if item.Price.IsNegative() {
		return nil, fmt.Errorf("special item %q: negative price", item.Name)
	}
	return s.specials.Upsert(ctx, item)
}
