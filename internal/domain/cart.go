package domain

import "time"

// CartLine is one (user, product) entry of a customer's cart. PriceCents is
// Quantity times the catalog price at the last add.
type CartLine struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	ProductID      string         `json:"productId"`
	Quantity       int            `json:"quantity"`
	UnitPriceCents int64          `json:"unitPriceCents"`
	PriceCents     int64          `json:"priceCents"`
	Product        ProductSummary `json:"product"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
