package importer

import (
	"context"
	"strings"
	"testing"

	"florist-storefront/internal/domain"
)

type stubProductRepo struct {
	items    []domain.Product
	specials []domain.SpecialItem
}

type stubCategoryRepo struct {
	existing map[string]domain.Category
	items    []domain.Category
	lookups  int
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubProductRepo) UpsertSpecialItem(_ context.Context, item domain.SpecialItem) (*domain.SpecialItem, error) {
	s.specials = append(s.specials, item)
	return &item, nil
}

func (s *stubCategoryRepo) BySlug(_ context.Context, value string) (*domain.Category, error) {
	s.lookups++
	c, ok := s.existing[value]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *stubCategoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	if c.Slug == "" {
		c.Slug = strings.ToLower(c.Name)
	}
	c.ID = "cat-" + c.Slug
	s.items = append(s.items, c)
	return &c, nil
}

func TestCSVImporter_RunProducts(t *testing.T) {
	csvData := `type,category,name,slug,description,price,image,active
product,Buquês,Buquê de Rosas,,Doze rosas,149.90,https://example.com/rosas-1.jpg,true
,,,,,,https://example.com/rosas-2.jpg,
product,buques,Buquê de Girassóis,girassois,,119.9,,
special,,Caixa de Bombons,,,39.90,https://example.com/bombons.jpg,
product,Orquídeas,Orquídea Azul,,,99,,false`

	repo := &stubProductRepo{}
	catRepo := &stubCategoryRepo{existing: map[string]domain.Category{"orquideas": {ID: "c-orq", Slug: "orquideas"}}}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 records imported, got %d", count)
	}
	if len(repo.items) != 3 || len(repo.specials) != 1 {
		t.Fatalf("expected 3 products and 1 special item, got %d and %d", len(repo.items), len(repo.specials))
	}

	rosas := repo.items[0]
	if len(rosas.Images) != 2 {
		t.Fatalf("expected continuation row image to be attached, got %v", rosas.Images)
	}
	if rosas.Price.StringFixed(2) != "149.90" || rosas.CategoryID != "cat-buques" || !rosas.Active {
		t.Fatalf("unexpected product data: %+v", rosas)
	}
	if repo.items[1].CategoryID != "cat-buques" || repo.items[1].Slug != "girassois" {
		t.Fatalf("expected category reuse and explicit slug, got %+v", repo.items[1])
	}
	if len(catRepo.items) != 1 {
		t.Fatalf("expected a single category to be created, got %d", len(catRepo.items))
	}
	if catRepo.items[0].Name != "Buquês" {
		t.Fatalf("expected created category to keep its display name, got %q", catRepo.items[0].Name)
	}
	if repo.items[2].CategoryID != "c-orq" || repo.items[2].Active {
		t.Fatalf("expected existing category and inactive flag, got %+v", repo.items[2])
	}
	if repo.specials[0].Image != "https://example.com/bombons.jpg" {
		t.Fatalf("unexpected special item %+v", repo.specials[0])
	}
}

func TestCSVImporter_RunCategoriesFile(t *testing.T) {
	csvData := `name,slug,description,sort_order
Buquês,,Buquês do dia,1
Arranjos,arranjos-de-mesa,,2
,,,
Coroas de Flores,,,x
`
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 categories imported, got %d", count)
	}
	if catRepo.items[0].Description != "Buquês do dia" || catRepo.items[0].SortOrder != 1 {
		t.Fatalf("unexpected first category %+v", catRepo.items[0])
	}
	if catRepo.items[1].Slug != "arranjos-de-mesa" {
		t.Fatalf("expected explicit slug, got %+v", catRepo.items[1])
	}
	if catRepo.items[2].SortOrder != 0 {
		t.Fatalf("expected unparsable sort order to default to 0, got %d", catRepo.items[2].SortOrder)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	cases := map[string]string{
		"missing price": "name,price\nRosas,\n",
		"bad price":     "name,price\nRosas,dez\n",
		"unknown type":  "type,name,price\nvoucher,Rosas,10\n",
		"empty slug":    "category,name,price\n???,Rosas,10\n",
		"no columns":    "foo,bar\n1,2\n",
	}
	for name, data := range cases {
		imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}, &stubCategoryRepo{})
		if _, err := imp.Run(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDetectKind(t *testing.T) {
	productCSV := `type,category,name,price
product,buques,Rosas,10`
	categoryCSV := `name,slug,sort_order
Buquês,buques,1`

	kind, err := DetectKind(strings.NewReader(productCSV))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader(categoryCSV))
	if err != nil {
		t.Fatalf("detect category kind: %v", err)
	}
	if kind != KindCategories {
		t.Fatalf("expected category kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("sku,qty\n")); err == nil {
		t.Fatalf("expected error for unrecognized header")
	}
}
