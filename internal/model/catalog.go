// Package model defines the canonical records the storefront renders and the
// shared error and money types used across packages.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder values used when a product cannot be resolved.
const (
	PlaceholderTitle = "Unavailable product"
	PlaceholderImage = "/images/placeholder.png"
)

// Product is the canonical catalog record.
type Product struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	Images          []string        `json:"images,omitempty"`
	Sizes           []string        `json:"sizes,omitempty"`
	Stock           int             `json:"stock"`
	Price           Money           `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountedPrice Money           `json:"discounted_price"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
}

// PrimaryImage returns the first image URL or empty.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HeroBanner is a homepage carousel slide.
type HeroBanner struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Image        string `json:"image"`
	Link         string `json:"link,omitempty"`
	Active       bool   `json:"active"`
	DisplayOrder int    `json:"display_order"`
}

// ProductQuery filters a product listing.
type ProductQuery struct {
	Category string
	Search   string
	Skip     int
	Limit    int
}

// Upload is a file part in a multipart admin request.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// ProductForm is the admin create/update payload for a product.
// Zero-valued optional fields are omitted from the multipart body.
type ProductForm struct {
	Title           string   `validate:"required"`
	Description     string
	Category        string   `validate:"required"`
	Price           string   `validate:"required,numeric"`
	DiscountPercent string   `validate:"omitempty,numeric"`
	Stock           string   `validate:"omitempty,numeric"`
	Sizes           []string
	Images          []Upload
}

// BannerForm is the admin create/update payload for a hero banner.
type BannerForm struct {
	Title        string `validate:"required"`
	Subtitle     string
	Link         string
	Active       *bool
	DisplayOrder string `validate:"omitempty,numeric"`
	Image        *Upload
}
