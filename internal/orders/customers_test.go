package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func TestCustomers(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	list := []model.Order{
		{ID: "o1", Customer: model.Customer{Email: "Rahim@Example.com"}, Total: model.MoneyFromInt(500), CreatedAt: &jan},
		{ID: "o2", Customer: model.Customer{Email: "rahim@example.com", Name: "Rahim", Phone: "017"}, Total: model.MoneyFromInt(300), CreatedAt: &mar},
		{ID: "o3", Customer: model.Customer{Email: "rahim@example.com"}, Total: model.MoneyFromInt(900), Status: model.OrderCancelled},
		{ID: "o4", Customer: model.Customer{Phone: "018", Name: "Karim"}, Total: model.MoneyFromInt(100), CreatedAt: &jan},
		{ID: "o5", Total: model.MoneyFromInt(1000)},
	}

	got := Customers(list)
	require.Len(t, got, 2)

	rahim := got[0]
	assert.Equal(t, "Rahim@Example.com", rahim.Email)
	assert.Equal(t, "Rahim", rahim.Name)
	assert.Equal(t, "017", rahim.Phone)
	assert.Equal(t, 3, rahim.OrderCount)
	assert.Equal(t, "800", rahim.TotalSpent.Amount.String())
	require.NotNil(t, rahim.LastOrderAt)
	assert.Equal(t, mar, *rahim.LastOrderAt)

	karim := got[1]
	assert.Empty(t, karim.Email)
	assert.Equal(t, "Karim", karim.Name)
	assert.Equal(t, 1, karim.OrderCount)
}

func TestCustomers_UndatedLast(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	list := []model.Order{
		{ID: "o1", Customer: model.Customer{Email: "undated@example.com"}},
		{ID: "o2", Customer: model.Customer{Email: "dated@example.com"}, CreatedAt: &jan},
	}

	got := Customers(list)
	require.Len(t, got, 2)
	assert.Equal(t, "dated@example.com", got[0].Email)
	assert.Nil(t, got[1].LastOrderAt)
}

func TestCustomers_Empty(t *testing.T) {
	assert.Empty(t, Customers(nil))
}
