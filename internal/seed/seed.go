// Package seed loads a catalog description from YAML and writes it through
// the catalog services.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"florist-storefront/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Categories   []CategorySeed    `yaml:"categories"`
	SpecialItems []SpecialItemSeed `yaml:"special_items"`
}

type CategorySeed struct {
	Name        string        `yaml:"name"`
	Slug        string        `yaml:"slug,omitempty"`
	Description string        `yaml:"description,omitempty"`
	SortOrder   int           `yaml:"sort_order,omitempty"`
	Products    []ProductSeed `yaml:"products,omitempty"`
}

type ProductSeed struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Price       string   `yaml:"price"`
	Images      []string `yaml:"images,omitempty"`
	Inactive    bool     `yaml:"inactive,omitempty"`
}

type SpecialItemSeed struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug,omitempty"`
	Description string `yaml:"description,omitempty"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image,omitempty"`
	Inactive    bool   `yaml:"inactive,omitempty"`
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertSpecialItem(ctx context.Context, item domain.SpecialItem) (*domain.SpecialItem, error)
}

type Result struct {
	Categories   int
	Products     int
	SpecialItems int
}

// Default returns the catalog shipped with the binary.
func Default() (Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// Parse decodes a catalog, rejecting unknown keys.
func Parse(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, errors.New("catalog is empty")
		}
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// Apply upserts every entry of the catalog. Entries are keyed by slug, so
// applying the same catalog twice leaves the store unchanged.
func Apply(ctx context.Context, c Catalog, categories CategoryWriter, products ProductWriter) (Result, error) {
	var res Result
	for _, cs := range c.Categories {
		saved, err := categories.Upsert(ctx, domain.Category{
			Name:        cs.Name,
			Slug:        cs.Slug,
			Description: cs.Description,
			SortOrder:   cs.SortOrder,
		})
		if err != nil {
			return res, fmt.Errorf("upsert category %q: %w", cs.Name, err)
		}
		res.Categories++

		for _, ps := range cs.Products {
			price, err := decimal.NewFromString(ps.Price)
			if err != nil {
				return res, fmt.Errorf("product %q: invalid price %q", ps.Name, ps.Price)
			}
			_, err = products.Upsert(ctx, domain.Product{
				CategoryID:  saved.ID,
				Name:        ps.Name,
				Slug:        ps.Slug,
				Description: ps.Description,
				Price:       price,
				Images:      ps.Images,
				Active:      !ps.Inactive,
			})
			if err != nil {
				return res, fmt.Errorf("upsert product %q: %w", ps.Name, err)
			}
			res.Products++
		}
	}

	for _, ss := range c.SpecialItems {
		price, err := decimal.NewFromString(ss.Price)
		if err != nil {
			return res, fmt.Errorf("special item %q: invalid price %q", ss.Name, ss.Price)
		}
		_, err = products.UpsertSpecialItem(ctx, domain.SpecialItem{
			Name:        ss.Name,
			Slug:        ss.Slug,
			Description: ss.Description,
			Price:       price,
			Image:       ss.Image,
			Active:      !ss.Inactive,
		})
		if err != nil {
			return res, fmt.Errorf("upsert special item %q: %w", ss.Name, err)
		}
		res.SpecialItems++
	}
	return res, nil
}
