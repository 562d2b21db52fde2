package model

import "time"

// Product is a catalog item: one sticker design that shoppers can order in
// any of its materials.  Prices are integer cents.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int64     `json:"stock"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	Materials   []string  `json:"materials"` // e.g. vinyl, matte, holographic; never empty
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductPatch is a partial update.  Nil fields are left unchanged; an
// all-nil patch only refreshes UpdatedAt.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	Stock       *int64    `json:"stock,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Materials   *[]string `json:"materials,omitempty"`
}

// HasMaterial reports whether m is one of the product's material options.
func (p Product) HasMaterial(m string) bool {
	for _, x := range p.Materials {
		if x == m {
			return true
		}
	}
	return false
}
