package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/model"
)

// ListProducts fetches the public catalog, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	query := url.Values{}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Skip > 0 {
		query.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/", query: query}, &raw); err != nil {
		return nil, err
	}
	return c.mapProducts(raw)
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.NewValidationError("product id", "must not be empty")
	}
	var raw rawProduct
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/" + url.PathEscape(id)}, &raw); err != nil {
		return nil, err
	}
	p := MapProduct(&raw, c.currency)
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// Categories lists the catalog categories. The backend returns either bare
// names or {name} objects.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/categories"}, &raw); err != nil {
		return nil, err
	}
	if names, err := decodeList[string](raw); err == nil {
		return names, nil
	}
	objs, err := decodeList[struct {
		Name string `json:"name"`
	}](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names, nil
}

// CreateProduct posts a new product as multipart form data.
func (c *Client) CreateProduct(ctx context.Context, form model.ProductForm) (*model.Product, error) {
	var raw rawProduct
	req := request{method: http.MethodPost, path: "/api/products/admin", auth: authBasic, form: productFormBody(form)}
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	return MapProduct(&raw, c.currency), nil
}

// UpdateProduct replaces the fields present in form.
func (c *Client) UpdateProduct(ctx context.Context, id string, form model.ProductForm) (*model.Product, error) {
	var raw rawProduct
	req := request{method: http.MethodPut, path: "/api/products/admin/" + url.PathEscape(id), auth: authBasic, form: productFormBody(form)}
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	p := MapProduct(&raw, c.currency)
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/products/admin/" + url.PathEscape(id), auth: authBasic}, nil)
}

func productFormBody(form model.ProductForm) *formBody {
	body := &formBody{}
	body.addOptional("title", form.Title)
	body.addOptional("description", form.Description)
	body.addOptional("category", form.Category)
	body.addOptional("price", form.Price)
	body.addOptional("discount", form.DiscountPercent)
	body.addOptional("stock", form.Stock)
	if len(form.Sizes) > 0 {
		sizes, _ := json.Marshal(form.Sizes)
		body.add("sizes", string(sizes))
	}
	for _, img := range form.Images {
		if img.Field == "" {
			img.Field = "images"
		}
		body.files = append(body.files, img)
	}
	return body
}

func (c *Client) mapProducts(raw json.RawMessage) ([]model.Product, error) {
	list, err := decodeList[rawProduct](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing products: %w", err)
	}
	out := make([]model.Product, 0, len(list))
	for i := range list {
		out = append(out, *MapProduct(&list[i], c.currency))
	}
	return out, nil
}
