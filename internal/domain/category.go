package domain

// Category is a product tag with the number of products carrying it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}
