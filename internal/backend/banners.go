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

// ListBanners returns every hero banner, active or not.
func (c *Client) ListBanners(ctx context.Context) ([]model.HeroBanner, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/hero-banners/"}, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList[rawBanner](raw)
	if err != nil {
		return nil, fmt.Errorf("parsing banners: %w", err)
	}
	out := make([]model.HeroBanner, 0, len(list))
	for i := range list {
		out = append(out, *MapBanner(&list[i]))
	}
	return out, nil
}

// CreateBanner uploads a new banner.
func (c *Client) CreateBanner(ctx context.Context, form model.BannerForm) (*model.HeroBanner, error) {
	var raw rawBanner
	req := request{method: http.MethodPost, path: "/api/hero-banners/", auth: authBasic, form: bannerFormBody(form)}
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	return MapBanner(&raw), nil
}

// UpdateBanner changes the fields present in form.
func (c *Client) UpdateBanner(ctx context.Context, id string, form model.BannerForm) (*model.HeroBanner, error) {
	var raw rawBanner
	req := request{method: http.MethodPut, path: "/api/hero-banners/" + url.PathEscape(id), auth: authBasic, form: bannerFormBody(form)}
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	b := MapBanner(&raw)
	if b.ID == "" {
		b.ID = id
	}
	return b, nil
}

// DeleteBanner removes a banner.
func (c *Client) DeleteBanner(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/hero-banners/" + url.PathEscape(id), auth: authBasic}, nil)
}

func bannerFormBody(form model.BannerForm) *formBody {
	body := &formBody{}
	body.addOptional("title", form.Title)
	body.addOptional("subtitle", form.Subtitle)
	body.addOptional("link", form.Link)
	body.addOptional("display_order", form.DisplayOrder)
	if form.Active != nil {
		body.add("is_active", strconv.FormatBool(*form.Active))
	}
	if form.Image != nil {
		img := *form.Image
		if img.Field == "" {
			img.Field = "image"
		}
		body.files = append(body.files, img)
	}
	return body
}
