package domain

import "time"

// MaxStock caps the stock of one product.
const MaxStock = 1_000_000

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Categories  []string  `json:"category"`
	Stock       int       `json:"stock"`
	ImageKey    string    `json:"-"`
	ImageURL    string    `json:"productImage,omitempty"`
	AddedBy     string    `json:"addedBy"`
	AddedByName string    `json:"addedByName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductSummary is the product detail expanded into cart lines and order items.
type ProductSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"priceCents"`
	ImageURL   string `json:"productImage,omitempty"`
}
