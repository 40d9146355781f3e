package handler

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/session"
)

const (
	featuredLimit = 8
	relatedLimit  = 4
	pageSize      = 24
)

// productView is a product with the session's wishlist flag.
type productView struct {
	model.Product
	InWishlist bool `json:"in_wishlist"`
}

func viewProducts(s *session.Session, products []model.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = productView{Product: p, InWishlist: s.Shop.InWishlist(p.ID)}
	}
	return out
}

// handleHome returns active banners, categories and featured products. The
// three reads run in parallel; a failed banner or category read degrades to
// an empty section.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var (
		banners    []model.HeroBanner
		categories []string
		featured   []model.Product
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		all, err := s.Backend.ListBanners(ctx)
		if err != nil {
			s.Logger.Warn("loading banners failed", "error", err)
			return nil
		}
		banners = backend.ActiveBanners(all)
		return nil
	})
	g.Go(func() error {
		list, err := s.Backend.Categories(ctx)
		if err != nil {
			s.Logger.Warn("loading categories failed", "error", err)
			return nil
		}
		categories = list
		return nil
	})
	g.Go(func() error {
		list, err := s.Backend.ListProducts(ctx, model.ProductQuery{Limit: featuredLimit})
		featured = list
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"banners":    nonNil(banners),
		"categories": nonNil(categories),
		"featured":   viewProducts(s, featured),
	})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request, s *session.Session) {
	categories, err := s.Backend.Categories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"categories": nonNil(categories)})
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request, s *session.Session) {
	category := r.PathValue("category")
	products, err := s.Backend.ListProducts(r.Context(), model.ProductQuery{
		Category: category,
		Skip:     queryInt(r, "skip", 0),
		Limit:    queryInt(r, "limit", pageSize),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"products": viewProducts(s, products),
	})
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request, s *session.Session) {
	products, err := s.Backend.ListProducts(r.Context(), model.ProductQuery{
		Category: r.URL.Query().Get("category"),
		Skip:     queryInt(r, "skip", 0),
		Limit:    queryInt(r, "limit", pageSize),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"products": viewProducts(s, products)})
}

// handleProduct returns one product and a few others from its category.
func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request, s *session.Session) {
	p, err := s.Backend.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var related []model.Product
	if p.Category != "" {
		list, err := s.Backend.ListProducts(r.Context(), model.ProductQuery{Category: p.Category, Limit: relatedLimit + 1})
		if err != nil {
			s.Logger.Warn("loading related products failed", "product_id", p.ID, "error", err)
		}
		for _, rp := range list {
			if rp.ID != p.ID && len(related) < relatedLimit {
				related = append(related, rp)
			}
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"product": productView{Product: *p, InWishlist: s.Shop.InWishlist(p.ID)},
		"related": viewProducts(s, related),
	})
}

// handleSearch narrows the backend search result to products whose title or
// category contains q, case-insensitively.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, s *session.Session) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{"query": q, "products": []productView{}})
		return
	}
	products, err := s.Backend.ListProducts(r.Context(), model.ProductQuery{Search: q, Limit: queryInt(r, "limit", pageSize)})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":    q,
		"products": viewProducts(s, MatchProducts(products, q)),
	})
}

// MatchProducts keeps products whose title or category contains q.
func MatchProducts(products []model.Product, q string) []model.Product {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return products
	}
	var out []model.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(p.Category), needle) {
			out = append(out, p)
		}
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
