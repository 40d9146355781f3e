package backend

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// =============================================================================
// BACKEND → CANONICAL RECORDS
// =============================================================================
//
// Pure mapping functions. Each canonical field takes the first populated
// backend variant; missing numbers become zero and missing strings stay empty
// so the views can substitute placeholders.
// =============================================================================

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstID(ids ...flexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

func firstNumber(nums ...flexNumber) decimal.Decimal {
	for _, n := range nums {
		if n.Valid {
			return n.Value
		}
	}
	return decimal.Zero
}

// MapProduct converts a backend product into the canonical record and applies
// the pricing rule to fill DiscountedPrice.
func MapProduct(raw *rawProduct, currency string) *model.Product {
	if raw == nil {
		return nil
	}
	images := []string(raw.Images)
	if len(images) == 0 {
		if img := firstNonEmpty(raw.ImageURL, raw.Image); img != "" {
			images = []string{img}
		}
	}
	p := &model.Product{
		ID:              firstID(raw.ID, raw.MongoID, raw.ProductID),
		Title:           firstNonEmpty(raw.Title, raw.Name),
		Description:     raw.Description,
		Category:        firstNonEmpty(raw.Category, raw.CategoryName),
		Images:          images,
		Sizes:           []string(raw.Sizes),
		Stock:           int(firstNumber(raw.Stock, raw.StockQuantity).IntPart()),
		Price:           model.NewMoney(firstNumber(raw.Price, raw.BasePrice), currency),
		DiscountPercent: firstNumber(raw.Discount, raw.DiscountPercent),
		CreatedAt:       parseTime(raw.CreatedAt),
	}
	model.PriceProduct(p)
	return p
}

// orderStatusMap translates normalized backend statuses into the fixed
// vocabulary. Keys are lowercase with '-' and ' ' folded to '_'.
var orderStatusMap = map[string]model.OrderStatus{
	"pending":          model.OrderPending,
	"processing":       model.OrderProcessing,
	"packed":           model.OrderPacked,
	"shipped":          model.OrderShipped,
	"out_for_delivery": model.OrderOutForDelivery,
	"delivered":        model.OrderDelivered,
	"cancelled":        model.OrderCancelled,
	"canceled":         model.OrderCancelled,
}

// MapOrderStatus maps a backend status string onto the fixed lowercase
// vocabulary. Unknown values become pending.
func MapOrderStatus(s string) model.OrderStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if status, ok := orderStatusMap[key]; ok {
		return status
	}
	return model.OrderPending
}

// MapOrder converts a backend order.
func MapOrder(raw *rawOrder, currency string) *model.Order {
	if raw == nil {
		return nil
	}
	rawItems := raw.Items
	if len(rawItems) == 0 {
		rawItems = raw.OrderItems
	}
	items := make([]model.OrderItem, 0, len(rawItems))
	for i := range rawItems {
		items = append(items, mapOrderItem(&rawItems[i], currency))
	}

	o := &model.Order{
		ID:              firstID(raw.ID, raw.MongoID),
		Status:          MapOrderStatus(firstNonEmpty(raw.Status, raw.OrderStatus)),
		PaymentStatus:   strings.ToLower(raw.PaymentStatus),
		PaymentMethod:   raw.PaymentMethod,
		Items:           items,
		Total:           model.NewMoney(firstNumber(raw.Total, raw.TotalAmount, raw.TotalPrice), currency),
		Customer:        mapCustomer(raw),
		ShippingAddress: mapAddress(raw.ShippingAddress),
		CreatedAt:       parseTime(raw.CreatedAt),
		StatusUpdatedAt: parseTime(raw.UpdatedAt),
	}
	if o.Total.IsZero() {
		// Some list endpoints omit the total; derive it from the lines.
		sum := model.NewMoney(decimal.Zero, currency)
		for _, it := range items {
			sum = sum.Add(it.Price.Mul(it.Quantity))
		}
		o.Total = sum
	}
	return o
}

func mapOrderItem(raw *rawOrderItem, currency string) model.OrderItem {
	item := model.OrderItem{
		ProductID:    firstID(raw.ProductID, raw.ProductIDAlt),
		Title:        firstNonEmpty(raw.Title, raw.Name, raw.ProductName),
		Image:        raw.Image,
		SelectedSize: firstNonEmpty(raw.SelectedSize, raw.SelectedSize2, raw.Size),
		Quantity:     raw.Quantity.Int(),
		Price:        model.NewMoney(firstNumber(raw.Price), currency),
	}
	if raw.Product != nil {
		p := MapProduct(raw.Product, currency)
		if item.ProductID == "" {
			item.ProductID = p.ID
		}
		if item.Title == "" {
			item.Title = p.Title
		}
		if item.Image == "" {
			item.Image = p.PrimaryImage()
		}
		if item.Price.IsZero() {
			item.Price = p.DiscountedPrice
		}
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	return item
}

func mapCustomer(raw *rawOrder) model.Customer {
	c := model.Customer{
		Name:  raw.CustomerName,
		Email: raw.CustomerEmail,
		Phone: raw.CustomerPhone,
	}
	if raw.User != nil {
		c.Name = firstNonEmpty(c.Name, raw.User.Name, raw.User.FullName)
		c.Email = firstNonEmpty(c.Email, raw.User.Email)
		c.Phone = firstNonEmpty(c.Phone, raw.User.Phone)
	}
	return c
}

// mapAddress accepts the structured address or a single free-text line.
func mapAddress(raw json.RawMessage) model.Address {
	if len(raw) == 0 {
		return model.Address{}
	}
	var line string
	if err := json.Unmarshal(raw, &line); err == nil {
		return model.Address{Line1: line}
	}
	var a rawAddress
	if err := json.Unmarshal(raw, &a); err != nil {
		return model.Address{}
	}
	return model.Address{
		FullName:   firstNonEmpty(a.FullName, a.Name),
		Phone:      a.Phone,
		Line1:      firstNonEmpty(a.Line1, a.Address),
		Line2:      a.Line2,
		City:       a.City,
		PostalCode: a.PostalCode,
	}
}

// MapBanner converts a backend hero banner. Banners are active unless the
// backend says otherwise.
func MapBanner(raw *rawBanner) *model.HeroBanner {
	if raw == nil {
		return nil
	}
	active := true
	switch {
	case raw.IsActive.Valid:
		active = raw.IsActive.Value
	case raw.Active.Valid:
		active = raw.Active.Value
	}
	return &model.HeroBanner{
		ID:           firstID(raw.ID, raw.MongoID),
		Title:        raw.Title,
		Subtitle:     raw.Subtitle,
		Image:        firstNonEmpty(raw.ImageURL, raw.Image),
		Link:         firstNonEmpty(raw.Link, raw.CTALink),
		Active:       active,
		DisplayOrder: int(firstNumber(raw.DisplayOrder, raw.Order).IntPart()),
	}
}

// ActiveBanners filters to active banners ordered by display order.
func ActiveBanners(banners []model.HeroBanner) []model.HeroBanner {
	out := make([]model.HeroBanner, 0, len(banners))
	for _, b := range banners {
		if b.Active {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// MapUser converts a backend user profile.
func MapUser(raw *rawUser) *model.User {
	if raw == nil {
		return nil
	}
	return &model.User{
		ID:      firstID(raw.ID, raw.MongoID),
		Name:    firstNonEmpty(raw.Name, raw.FullName),
		Email:   raw.Email,
		Phone:   raw.Phone,
		Address: raw.Address,
		Role:    strings.ToLower(raw.Role),
		IsAdmin: raw.IsAdmin.Value,
	}
}

func mapCartItem(raw *rawCartItem) model.CartItemRef {
	ref := model.CartItemRef{
		ProductID:    firstID(raw.ProductID, raw.ProductIDAlt),
		SelectedSize: firstNonEmpty(raw.SelectedSize, raw.SelectedSize2, raw.Size),
		Quantity:     raw.Quantity.Int(),
	}
	if ref.ProductID == "" && raw.Product != nil {
		ref.ProductID = firstID(raw.Product.ID, raw.Product.MongoID, raw.Product.ProductID)
	}
	return ref
}

func mapPaymentConfig(raw *rawPaymentConfig, currency string) *model.PaymentConfig {
	return &model.PaymentConfig{
		CODEnabled:     raw.CODEnabled.Value,
		BkashEnabled:   raw.BkashEnabled.Value,
		BkashNumber:    raw.BkashNumber,
		CardEnabled:    raw.CardEnabled.Value,
		DeliveryCharge: model.NewMoney(firstNumber(raw.DeliveryCharge), currency),
		MerchantKey:    raw.MerchantKey,
		MerchantSecret: raw.MerchantSecret,
	}
}

// timeLayouts are the timestamp formats the backend has been seen to emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime returns nil for empty or unrecognized timestamps.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
