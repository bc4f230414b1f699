package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/slug"
)

type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

type CategoryStore interface {
	BySlug(ctx context.Context, value string) (*domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertSpecialItem(ctx context.Context, item domain.SpecialItem) (*domain.SpecialItem, error)
}

// CSVImporter reads catalog spreadsheets and inserts/updates categories,
// products and special items.
type CSVImporter struct {
	reader      *csv.Reader
	products    ProductWriter
	categories  CategoryStore
	categoryIDs map[string]string
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryStore) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		products:    products,
		categories:  categories,
		categoryIDs: make(map[string]string),
	}
}

// DetectKind peeks at the header row: a price column marks a product file.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	return kindOf(headerIndex(headers))
}

func kindOf(index map[string]int) (Kind, error) {
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["name"]; ok {
		return KindCategories, nil
	}
	return "", errors.New("unrecognized csv: expected a name or price column")
}

type csvRow struct {
	line      int
	Type      domain.LineKind
	Category  string
	Name      string
	Slug      string
	Desc      string
	Price     string
	SortOrder int
	Inactive  bool
	ImageURLs []string
}

// Run parses CSV rows and upserts them; it returns how many records were
// written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return 0, err
	}
	if kind == KindCategories {
		return i.runCategories(ctx, index)
	}
	return i.runProducts(ctx, index)
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}

		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			return imported, nil
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index, line)
		if row == nil || row.Name == "" {
			continue
		}
		saved, err := i.categories.Upsert(ctx, domain.Category{
			Name:        row.Name,
			Slug:        row.Slug,
			Description: row.Desc,
			SortOrder:   row.SortOrder,
		})
		if err != nil {
			return imported, fmt.Errorf("line %d: upsert category %q: %w", row.line, row.Name, err)
		}
		i.categoryIDs[saved.Slug] = saved.ID
		imported++
	}
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Price == "" {
		return fmt.Errorf("line %d: invalid row (missing price) for %q", row.line, row.Name)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q for %q", row.line, row.Price, row.Name)
	}

	switch row.Type {
	case domain.LineKindSpecial:
		item := domain.SpecialItem{
			Name:        row.Name,
			Slug:        row.Slug,
			Description: row.Desc,
			Price:       price,
			Active:      !row.Inactive,
		}
		if len(row.ImageURLs) > 0 {
			item.Image = row.ImageURLs[0]
		}
		if _, err := i.products.UpsertSpecialItem(ctx, item); err != nil {
			return fmt.Errorf("line %d: upsert special item %q: %w", row.line, row.Name, err)
		}
		return nil
	case domain.LineKindProduct:
	default:
		return fmt.Errorf("line %d: unknown type %q", row.line, row.Type)
	}

	categoryID, err := i.resolveCategory(ctx, row.Category)
	if err != nil {
		return fmt.Errorf("line %d: category %q: %w", row.line, row.Category, err)
	}

	p := domain.Product{
		CategoryID:  categoryID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Desc,
		Price:       price,
		Images:      row.ImageURLs,
		Active:      !row.Inactive,
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("line %d: upsert product %q: %w", row.line, row.Name, err)
	}
	return nil
}

// resolveCategory maps a category name or slug to its id, creating the
// category when it does not exist yet.
func (i *CSVImporter) resolveCategory(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	key, err := slug.Derive(raw)
	if err != nil {
		return "", err
	}
	if id, ok := i.categoryIDs[key]; ok {
		return id, nil
	}

	c, err := i.categories.BySlug(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		c, err = i.categories.Upsert(ctx, domain.Category{Name: raw, Slug: key})
	}
	if err != nil {
		return "", err
	}
	i.categoryIDs[key] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	name := pick(record, index, "name")
	imageURL := pick(record, index, "image")
	if name == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		line:     line,
		Type:     domain.LineKindProduct,
		Category: pick(record, index, "category"),
		Name:     name,
		Slug:     pick(record, index, "slug"),
		Desc:     pick(record, index, "description"),
		Price:    pick(record, index, "price"),
	}
	if t := strings.ToLower(pick(record, index, "type")); t != "" {
		row.Type = domain.LineKind(t)
	}
	if v := pick(record, index, "sort_order"); v != "" {
		row.SortOrder, _ = strconv.Atoi(v)
	}
	if v := pick(record, index, "active"); v != "" {
		active, err := strconv.ParseBool(v)
		row.Inactive = err == nil && !active
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
