package orders

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// Customers aggregates orders per customer, keyed by lowercased email or,
// without one, phone. Orders with neither are skipped. Cancelled orders count
// toward OrderCount but not TotalSpent. Most recent customers come first.
func Customers(list []model.Order) []model.CustomerSummary {
	byKey := make(map[string]*model.CustomerSummary)
	var keys []string
	for _, o := range list {
		key := strings.ToLower(strings.TrimSpace(o.Customer.Email))
		if key == "" {
			key = strings.TrimSpace(o.Customer.Phone)
		}
		if key == "" {
			continue
		}

		c, ok := byKey[key]
		if !ok {
			c = &model.CustomerSummary{
				Email:      o.Customer.Email,
				TotalSpent: model.NewMoney(decimal.Zero, o.Total.Currency),
			}
			byKey[key] = c
			keys = append(keys, key)
		}
		c.OrderCount++
		if o.Status != model.OrderCancelled {
			c.TotalSpent = c.TotalSpent.Add(o.Total)
		}
		if c.Name == "" {
			c.Name = o.Customer.Name
		}
		if c.Phone == "" {
			c.Phone = o.Customer.Phone
		}
		if o.CreatedAt != nil && (c.LastOrderAt == nil || o.CreatedAt.After(*c.LastOrderAt)) {
			t := *o.CreatedAt
			c.LastOrderAt = &t
		}
	}

	out := make([]model.CustomerSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastOrderAt, out[j].LastOrderAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}
