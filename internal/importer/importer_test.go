package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coffeespot/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
	err   error
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `Title,description,price,categories,stock,image_url
Espresso,Short and strong,2.5,Espresso|hot,40,https://cdn.example.com/espresso.png

Iced Latte,"Milk, ice, espresso",4,cold|milk|cold,,
`
	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "admin-1")

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got count=%d saved=%d", count, len(repo.items))
	}

	first := repo.items[0]
	if first.Title != "Espresso" || first.PriceCents != 250 || first.Stock != 40 || first.AddedBy != "admin-1" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if first.ImageURL != "https://cdn.example.com/espresso.png" {
		t.Fatalf("expected image url, got %q", first.ImageURL)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "espresso" || first.Categories[1] != "hot" {
		t.Fatalf("unexpected categories %v", first.Categories)
	}

	second := repo.items[1]
	if second.Description != "Milk, ice, espresso" || second.PriceCents != 400 || second.Stock != 0 {
		t.Fatalf("unexpected product data: %+v", second)
	}
	if len(second.Categories) != 2 {
		t.Fatalf("expected duplicate categories collapsed, got %v", second.Categories)
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	imp := NewCSVImporter(strings.NewReader("title,categories\nMocha,hot\n"), &stubProductRepo{}, "")
	if _, err := imp.Run(context.Background()); err == nil || !strings.Contains(err.Error(), `"price"`) {
		t.Fatalf("expected missing price column error, got %v", err)
	}
}

func TestCSVImporter_StopsAtInvalidRow(t *testing.T) {
	cases := map[string]string{
		"bad price":      "Mocha,1.234,hot,1",
		"negative stock": "Mocha,3,hot,-1",
		"no title":       ",3,hot,1",
		"no category":    "Mocha,3,,1",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			csvData := "title,price,categories,stock\nCortado,3.2,hot,5\n" + row + "\n"
			repo := &stubProductRepo{}
			count, err := NewCSVImporter(strings.NewReader(csvData), repo, "").Run(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), "line 3") {
				t.Fatalf("expected line number in error, got %v", err)
			}
			if count != 1 || len(repo.items) != 1 {
				t.Fatalf("expected the valid row to be imported, got %d", count)
			}
		})
	}
}

func TestCSVImporter_RepoError(t *testing.T) {
	repo := &stubProductRepo{err: errors.New("db down")}
	_, err := NewCSVImporter(strings.NewReader("title,price,categories\nMocha,3,hot\n"), repo, "").Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}
