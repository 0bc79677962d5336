package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"coffeespot/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Columns recognised in the header row. Title, price and category are required.
const (
	colTitle       = "title"
	colDescription = "description"
	colPrice       = "price"
	colCategories  = "categories"
	colStock       = "stock"
	colImageURL    = "image_url"
)

// CSVImporter reads a menu export and upserts products matched by title.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	addedBy  string
}

// NewCSVImporter reads from r. addedBy is the admin recorded on new products
// and may be empty.
func NewCSVImporter(r io.Reader, repo ProductWriter, addedBy string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, products: repo, addedBy: addedBy}
}

// Run upserts every row and returns the number imported. It stops at the first
// invalid row; rows before it stay imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{colTitle, colPrice, colCategories} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing %q column", required)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		p.AddedBy = i.addedBy
		if _, err := i.products.Upsert(ctx, p); err != nil {
			return imported, fmt.Errorf("upsert %q: %w", p.Title, err)
		}
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		Title:       pick(record, index, colTitle),
		Description: pick(record, index, colDescription),
		ImageURL:    pick(record, index, colImageURL),
		Categories:  splitCategories(pick(record, index, colCategories)),
	}
	if p.Title == "" {
		return p, errors.New("title is required")
	}
	if len(p.Categories) == 0 {
		return p, fmt.Errorf("%q needs at least one category", p.Title)
	}

	cents, err := domain.ParseCents(pick(record, index, colPrice))
	if err != nil {
		return p, fmt.Errorf("price: %s", domain.ErrorMessage(err))
	}
	p.PriceCents = cents

	if raw := pick(record, index, colStock); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return p, fmt.Errorf("invalid stock %q", raw)
		}
		p.Stock = stock
	}
	return p, nil
}

// splitCategories accepts "a|b|c" and lowercases each tag.
func splitCategories(raw string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, "|") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
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
