package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (product, size) entry in the cart. Display fields are
// copied from the catalog when the line is added or reconciled.
type CartLine struct {
	ProductID       string          `json:"productId"`
	SelectedSize    string          `json:"selectedSize"`
	Quantity        int             `json:"quantity"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	Price           Money           `json:"price"`
	OriginalPrice   Money           `json:"originalPrice"`
	DiscountPercent decimal.Decimal `json:"discount"`
	Category        string          `json:"category,omitempty"`
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() Money {
	return l.Price.Mul(l.Quantity)
}

// WishlistEntry is one product in the wishlist.
type WishlistEntry struct {
	ProductID       string          `json:"productId"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	Price           Money           `json:"price"`
	OriginalPrice   Money           `json:"originalPrice"`
	DiscountPercent decimal.Decimal `json:"discount"`
	Category        string          `json:"category,omitempty"`
	AddedAt         time.Time       `json:"addedAt"`
}

// Incomplete reports whether the entry lacks display data, as legacy
// entries persisted by older clients do.
func (w WishlistEntry) Incomplete() bool {
	return w.Image == "" || w.Title == "" || w.Price.IsZero()
}

// CartItemRef is the backend's view of a cart line.
type CartItemRef struct {
	ProductID    string `json:"productId"`
	SelectedSize string `json:"selectedSize"`
	Quantity     int    `json:"quantity"`
}

// CartLineFromProduct denormalizes a product into a cart line.
func CartLineFromProduct(p *Product, size string, qty int) CartLine {
	return CartLine{
		ProductID:       p.ID,
		SelectedSize:    size,
		Quantity:        qty,
		Title:           p.Title,
		Image:           p.PrimaryImage(),
		Price:           p.DiscountedPrice,
		OriginalPrice:   p.Price,
		DiscountPercent: p.DiscountPercent,
		Category:        p.Category,
	}
}

// WishlistEntryFromProduct denormalizes a product into a wishlist entry.
func WishlistEntryFromProduct(p *Product, addedAt time.Time) WishlistEntry {
	return WishlistEntry{
		ProductID:       p.ID,
		Title:           p.Title,
		Image:           p.PrimaryImage(),
		Price:           p.DiscountedPrice,
		OriginalPrice:   p.Price,
		DiscountPercent: p.DiscountPercent,
		Category:        p.Category,
		AddedAt:         addedAt,
	}
}

// PriceProduct fills DiscountedPrice from Price and DiscountPercent.
func PriceProduct(p *Product) {
	p.DiscountedPrice = NewMoney(DiscountedAmount(p.Price.Amount, p.DiscountPercent), p.Price.Currency)
}
