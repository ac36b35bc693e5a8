package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// Kind is the type of catalog file, detected from its header row.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

// CSVImporter reads catalog CSV files and inserts/updates products or categories.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     logrus.FieldLogger

	categoryIDs map[string]string
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger logrus.FieldLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		products:    products,
		categories:  categories,
		logger:      logging.OrDiscard(logger),
		categoryIDs: map[string]string{},
	}
}

// DetectKind reads the header row of r to tell products from categories.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	return kindOf(headerIndex(headers))
}

func kindOf(index map[string]int) (Kind, error) {
	_, hasPrice := index["price"]
	_, hasName := index["name"]
	switch {
	case hasPrice && hasName:
		return KindProducts, nil
	case hasName:
		return KindCategories, nil
	default:
		return "", errors.New("unrecognized catalog header: need at least a name column")
	}
}

// Run parses the file and upserts every row, returning how many were written.
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
	if kind == KindProducts && i.products == nil {
		return 0, errors.New("product writer is required for product files")
	}
	if i.categories == nil {
		return 0, errors.New("category writer is required")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		switch kind {
		case KindProducts:
			err = i.saveProduct(ctx, record, index)
		case KindCategories:
			_, err = i.ensureCategory(ctx, pick(record, index, "name"), pick(record, index, "slug"))
		}
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		imported++
	}

	i.logger.WithFields(logrus.Fields{"kind": kind, "rows": imported}).Info("importer: done")
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, record []string, index map[string]int) error {
	name := pick(record, index, "name")
	if name == "" {
		return errors.New("product name is required")
	}
	slug := pick(record, index, "slug")
	if slug == "" {
		slug = Slugify(name)
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || price.IsNegative() {
		return fmt.Errorf("product %q: invalid price %q", slug, pick(record, index, "price"))
	}

	p := domain.Product{
		Name:        name,
		Slug:        slug,
		Description: pick(record, index, "description"),
		Image:       pick(record, index, "image"),
		Price:       price,
		Available:   true,
	}

	if raw := pick(record, index, "original_price"); raw != "" {
		original, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("product %q: invalid original price %q", slug, raw)
		}
		p.OriginalPrice = &original
	}
	if raw := pick(record, index, "stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return fmt.Errorf("product %q: invalid stock %q", slug, raw)
		}
		p.StockQuantity = stock
	}
	if raw := pick(record, index, "available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("product %q: invalid available flag %q", slug, raw)
		}
		p.Available = available
	}
	if category := pick(record, index, "category"); category != "" {
		id, err := i.ensureCategory(ctx, category, "")
		if err != nil {
			return err
		}
		p.CategoryID = id
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", slug, err)
	}
	return nil
}

// ensureCategory upserts a category once per import and returns its id.
func (i *CSVImporter) ensureCategory(ctx context.Context, name, slug string) (string, error) {
	if name == "" {
		return "", errors.New("category name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if id, ok := i.categoryIDs[slug]; ok {
		return id, nil
	}
	c, err := i.categories.Upsert(ctx, domain.Category{Name: name, Slug: slug})
	if err != nil {
		return "", fmt.Errorf("upsert category %q: %w", slug, err)
	}
	i.categoryIDs[slug] = c.ID
	return c.ID, nil
}

// Slugify lowercases s and joins its letter/digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
