package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// orderItemBody is one line in an order placement.
type orderItemBody struct {
	ProductID    string `json:"product_id"`
	SelectedSize string `json:"selected_size,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
}

// placeOrderBody is the POST /api/orders/ payload.
type placeOrderBody struct {
	Items           []orderItemBody `json:"items"`
	ShippingAddress model.Address   `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Email           string          `json:"email,omitempty"`
	Note            string          `json:"note,omitempty"`
	TotalAmount     string          `json:"total_amount"`
}

// ListOrders returns the signed-in user's orders.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	return c.listOrders(ctx, "/api/orders/")
}

// PlaceOrder submits a checkout for the given cart lines.
func (c *Client) PlaceOrder(ctx context.Context, form model.CheckoutForm, lines []model.CartLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, model.NewValidationError("cart", "is empty")
	}
	body := placeOrderBody{
		Items:           make([]orderItemBody, 0, len(lines)),
		ShippingAddress: form.ShippingAddress,
		PaymentMethod:   form.PaymentMethod,
		Email:           form.Email,
		Note:            form.Note,
	}
	total := model.NewMoney(decimal.Zero, c.currency)
	for _, l := range lines {
		body.Items = append(body.Items, orderItemBody{
			ProductID:    l.ProductID,
			SelectedSize: l.SelectedSize,
			Quantity:     l.Quantity,
			Price:        l.Price.Amount.String(),
		})
		total = total.Add(l.LineTotal())
	}
	body.TotalAmount = total.Amount.String()

	var raw rawOrder
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/orders/", auth: authBasic, json: body}, &raw); err != nil {
		return nil, err
	}
	return MapOrder(&raw, c.currency), nil
}

// ListAllOrders returns every order (admin).
func (c *Client) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	return c.listOrders(ctx, "/api/admin/orders/")
}

// UpdateOrderStatus sets an order's fulfilment status (admin).
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	return c.putOrder(ctx, "/api/admin/orders/"+url.PathEscape(id)+"/status", map[string]string{"status": string(status)})
}

// UpdatePaymentStatus sets an order's payment status (admin).
func (c *Client) UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error) {
	return c.putOrder(ctx, "/api/admin/orders/"+url.PathEscape(id)+"/payment-status", map[string]string{"payment_status": status})
}

func (c *Client) listOrders(ctx context.Context, path string) ([]model.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: authBasic}, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList[rawOrder](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing orders: %w", err)
	}
	out := make([]model.Order, 0, len(list))
	for i := range list {
		out = append(out, *MapOrder(&list[i], c.currency))
	}
	return out, nil
}

// putOrder sends an admin update. Some backend versions reply with an empty
// body; the returned order then only carries the id.
func (c *Client) putOrder(ctx context.Context, path string, body any) (*model.Order, error) {
	var raw rawOrder
	if err := c.do(ctx, request{method: http.MethodPut, path: path, auth: authBasic, json: body}, &raw); err != nil {
		return nil, err
	}
	return MapOrder(&raw, c.currency), nil
}
