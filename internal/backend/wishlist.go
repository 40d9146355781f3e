package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GetWishlist returns the product ids on the server wishlist. Elements may be
// bare ids or objects carrying one.
func (c *Client) GetWishlist(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/wishlist/", auth: authBasic}, &raw); err != nil {
		return nil, err
	}
	elems, err := decodeList[json.RawMessage](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing wishlist: %w", err)
	}
	ids := make([]string, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for _, elem := range elems {
		id := wishlistElementID(elem)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func wishlistElementID(elem json.RawMessage) string {
	var id flexID
	if err := json.Unmarshal(elem, &id); err == nil && id != "" {
		return string(id)
	}
	var item rawWishlistItem
	if err := json.Unmarshal(elem, &item); err != nil {
		return ""
	}
	if got := firstID(item.ProductID, item.ProductIDAlt); got != "" {
		return got
	}
	if item.Product != nil {
		if got := firstID(item.Product.ID, item.Product.MongoID, item.Product.ProductID); got != "" {
			return got
		}
	}
	return string(item.ID)
}

// ToggleWishlist flips a product's membership on the server wishlist.
func (c *Client) ToggleWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/wishlist/toggle",
		query:  url.Values{"productId": {productID}},
		auth:   authBasic,
	}, nil)
}

// RemoveWishlist deletes a product from the server wishlist.
func (c *Client) RemoveWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/wishlist/",
		query:  url.Values{"productId": {productID}},
		auth:   authBasic,
	}, nil)
}
