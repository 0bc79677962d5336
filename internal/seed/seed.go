// Package seed loads a starter coffee menu for local development.
package seed

import (
	"context"
	"fmt"

	"coffeespot/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Menu is the starter catalog. Upserts match on title so Apply can be rerun.
var Menu = []domain.Product{
	{
		Title:       "Espresso",
		Description: "A single shot of our house blend",
		PriceCents:  250,
		Categories:  []string{"espresso", "hot"},
		Stock:       100,
	},
	{
		Title:       "Cappuccino",
		Description: "Espresso with steamed milk and a thick foam cap",
		PriceCents:  380,
		Categories:  []string{"espresso", "milk", "hot"},
		Stock:       80,
	},
	{
		Title:       "Flat White",
		Description: "Double ristretto with velvety microfoam",
		PriceCents:  400,
		Categories:  []string{"espresso", "milk", "hot"},
		Stock:       60,
	},
	{
		Title:       "Cold Brew",
		Description: "Steeped for eighteen hours and served over ice",
		PriceCents:  420,
		Categories:  []string{"cold"},
		Stock:       40,
	},
	{
		Title:       "Almond Croissant",
		Description: "Baked every morning",
		PriceCents:  350,
		Categories:  []string{"pastry"},
		Stock:       24,
	},
}

// Apply upserts the menu and returns how many products were written.
// addedBy may be empty.
func Apply(ctx context.Context, products ProductWriter, addedBy string) (int, error) {
	for i, p := range Menu {
		p.AddedBy = addedBy
		if _, err := products.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert product %s: %w", p.Title, err)
		}
	}
	return len(Menu), nil
}
