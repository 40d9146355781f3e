package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BACKEND RECORD SHAPES
// =============================================================================
//
// The backend is not consistent about field names: some records carry
// snake_case names, some camelCase, and ids arrive as ints, strings or Mongo
// style "_id". These raw types accept every known variant; transform.go picks
// the first populated one.
// =============================================================================

// flexID decodes a JSON string or number into a string id.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// flexNumber decodes a JSON number or numeric string. Valid is false when the
// field was absent, null or unparsable.
type flexNumber struct {
	Value decimal.Decimal
	Valid bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err == nil {
			f.Value, f.Valid = d, true
		}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err == nil {
		f.Value, f.Valid = d, true
	}
	return nil
}

// Int returns the value truncated to int.
func (f flexNumber) Int() int {
	return int(f.Value.IntPart())
}

// flexStrings decodes either a JSON array of strings or a comma separated
// string ("S,M,L").
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = nil
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*f = out
	return nil
}

// flexBool decodes true/false, 0/1 and "true"/"false".
type flexBool struct {
	Value bool
	Valid bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	f.Value, f.Valid = b, true
	return nil
}

type rawProduct struct {
	ID              flexID      `json:"id"`
	MongoID         flexID      `json:"_id"`
	ProductID       flexID      `json:"product_id"`
	Title           string      `json:"title"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	CategoryName    string      `json:"category_name"`
	Price           flexNumber  `json:"price"`
	BasePrice       flexNumber  `json:"base_price"`
	Discount        flexNumber  `json:"discount"`
	DiscountPercent flexNumber  `json:"discount_percent"`
	Images          flexStrings `json:"images"`
	ImageURL        string      `json:"image_url"`
	Image           string      `json:"image"`
	Sizes           flexStrings `json:"sizes"`
	Stock           flexNumber  `json:"stock"`
	StockQuantity   flexNumber  `json:"stock_quantity"`
	CreatedAt       string      `json:"created_at"`
}

type rawCartItem struct {
	ProductID     flexID      `json:"productId"`
	ProductIDAlt  flexID      `json:"product_id"`
	SelectedSize  string      `json:"selectedSize"`
	SelectedSize2 string      `json:"selected_size"`
	Size          string      `json:"size"`
	Quantity      flexNumber  `json:"quantity"`
	Product       *rawProduct `json:"product"`
}

// rawWishlistItem is one wishlist element when the backend returns objects
// instead of bare ids.
type rawWishlistItem struct {
	ProductID    flexID      `json:"productId"`
	ProductIDAlt flexID      `json:"product_id"`
	ID           flexID      `json:"id"`
	Product      *rawProduct `json:"product"`
}

type rawOrderItem struct {
	ProductID     flexID      `json:"product_id"`
	ProductIDAlt  flexID      `json:"productId"`
	Product       *rawProduct `json:"product"`
	Title         string      `json:"title"`
	Name          string      `json:"name"`
	ProductName   string      `json:"product_name"`
	Image         string      `json:"image"`
	SelectedSize  string      `json:"selected_size"`
	SelectedSize2 string      `json:"selectedSize"`
	Size          string      `json:"size"`
	Quantity      flexNumber  `json:"quantity"`
	Price         flexNumber  `json:"price"`
}

type rawAddress struct {
	FullName   string `json:"full_name"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Address    string `json:"address"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type rawUser struct {
	ID       flexID   `json:"id"`
	MongoID  flexID   `json:"_id"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Address  string   `json:"address"`
	Role     string   `json:"role"`
	IsAdmin  flexBool `json:"is_admin"`
}

type rawOrder struct {
	ID              flexID          `json:"id"`
	MongoID         flexID          `json:"_id"`
	Status          string          `json:"status"`
	OrderStatus     string          `json:"order_status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	Items           []rawOrderItem  `json:"items"`
	OrderItems      []rawOrderItem  `json:"order_items"`
	Total           flexNumber      `json:"total"`
	TotalAmount     flexNumber      `json:"total_amount"`
	TotalPrice      flexNumber      `json:"total_price"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	User            *rawUser        `json:"user"`
	ShippingAddress json.RawMessage `json:"shipping_address"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type rawBanner struct {
	ID           flexID     `json:"id"`
	MongoID      flexID     `json:"_id"`
	Title        string     `json:"title"`
	Subtitle     string     `json:"subtitle"`
	ImageURL     string     `json:"image_url"`
	Image        string     `json:"image"`
	Link         string     `json:"link"`
	CTALink      string     `json:"cta_link"`
	IsActive     flexBool   `json:"is_active"`
	Active       flexBool   `json:"active"`
	DisplayOrder flexNumber `json:"display_order"`
	Order        flexNumber `json:"order"`
}

type rawLoginResponse struct {
	AccessToken string   `json:"access_token"`
	Token       string   `json:"token"`
	TokenType   string   `json:"token_type"`
	User        *rawUser `json:"user"`
}

type rawPaymentConfig struct {
	CODEnabled     flexBool   `json:"cod_enabled"`
	BkashEnabled   flexBool   `json:"bkash_enabled"`
	BkashNumber    string     `json:"bkash_number"`
	CardEnabled    flexBool   `json:"card_enabled"`
	DeliveryCharge flexNumber `json:"delivery_charge"`
	MerchantKey    string     `json:"merchant_key"`
	MerchantSecret string     `json:"merchant_secret"`
}

// listEnvelopeKeys are the wrapper keys seen around list responses.
var listEnvelopeKeys = []string{"items", "data", "results", "products", "orders", "banners", "wishlist", "cart", "categories"}

// decodeList unmarshals a bare JSON array or the first array found under a
// known envelope key.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	for _, k := range listEnvelopeKeys {
		if inner, ok := envelope[k]; ok {
			return decodeList[T](inner)
		}
	}
	return nil, nil
}
