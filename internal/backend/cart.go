package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

// cartItemBody is the JSON shape the cart endpoints accept.
type cartItemBody struct {
	ProductID    string `json:"productId"`
	SelectedSize string `json:"selectedSize"`
	Quantity     int    `json:"quantity"`
}

// GetCart returns the server cart as bare references.
func (c *Client) GetCart(ctx context.Context) ([]model.CartItemRef, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/cart/", auth: authBasic}, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList[rawCartItem](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing cart: %w", err)
	}
	out := make([]model.CartItemRef, 0, len(list))
	for i := range list {
		ref := mapCartItem(&list[i])
		if ref.ProductID == "" {
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}

// AddCartItem adds quantity to the (product, size) line on the server.
func (c *Client) AddCartItem(ctx context.Context, ref model.CartItemRef) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/cart/",
		auth:   authBasic,
		json:   cartItemBody(ref),
	}, nil)
}

// UpdateCartItem sets the absolute quantity of a line, creating it if needed.
func (c *Client) UpdateCartItem(ctx context.Context, ref model.CartItemRef) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/cart/",
		auth:   authBasic,
		json:   cartItemBody(ref),
	}, nil)
}

// RemoveCartItem deletes one line.
func (c *Client) RemoveCartItem(ctx context.Context, productID, selectedSize string) error {
	q := url.Values{"productId": {productID}}
	if selectedSize != "" {
		q.Set("selectedSize", selectedSize)
	}
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/cart/", query: q, auth: authBasic}, nil)
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/cart/", auth: authBasic}, nil)
}
