package handler

import (
	"net/http"
	"slices"

	"storefront/internal/model"
	"storefront/internal/session"
)

// cartRequest addresses one cart line.
type cartRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// cartView is the cart page.
type cartView struct {
	Items []model.CartLine `json:"items"`
	Total model.Money      `json:"total"`
	Count int              `json:"count"`
}

func (h *Handler) cartView(r *http.Request, s *session.Session) cartView {
	return cartView{
		Items: s.Shop.Cart(),
		Total: s.Shop.CartTotal(),
		Count: s.Shop.CartItemsCount(r.Context()),
	}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeJSON(w, http.StatusOK, h.cartView(r, s))
}

// handleAddToCart resolves the product so the line carries its display
// fields, then adds it.
func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if !s.Creds.IsAuthenticated(r.Context()) {
		h.writeError(w, model.NewAuthRequiredError("add items to your cart"))
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewValidationError("product_id", "is required"))
		return
	}

	p, err := s.Backend.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := checkSize(p, req.Size); err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Shop.AddToCart(r.Context(), p, req.Quantity, req.Size); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView(r, s))
}

// checkSize requires a listed size for products that have sizes.
func checkSize(p *model.Product, size string) error {
	if len(p.Sizes) == 0 {
		return nil
	}
	if size == "" {
		return model.NewValidationError("size", "is required")
	}
	if !slices.Contains(p.Sizes, size) {
		return model.NewValidationError("size", "is not available for this product")
	}
	return nil
}

func (h *Handler) handleUpdateCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewValidationError("product_id", "is required"))
		return
	}
	s.Shop.UpdateCartQuantity(r.Context(), req.ProductID, req.Size, req.Quantity)
	h.writeJSON(w, http.StatusOK, h.cartView(r, s))
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Shop.RemoveFromCart(r.Context(), r.PathValue("productId"), r.URL.Query().Get("size"))
	h.writeJSON(w, http.StatusOK, h.cartView(r, s))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Shop.ClearCart(r.Context())
	h.writeJSON(w, http.StatusOK, h.cartView(r, s))
}

// wishlistView is the wishlist page.
type wishlistView struct {
	Items []model.WishlistEntry `json:"items"`
	Count int                   `json:"count"`
}

func (h *Handler) wishlistView(r *http.Request, s *session.Session) wishlistView {
	return wishlistView{Items: s.Shop.Wishlist(), Count: s.Shop.WishlistCount(r.Context())}
}

func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeJSON(w, http.StatusOK, h.wishlistView(r, s))
}

func (h *Handler) handleToggleWishlist(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if !s.Creds.IsAuthenticated(r.Context()) {
		h.writeError(w, model.NewAuthRequiredError("save items to your wishlist"))
		return
	}
	p, err := s.Backend.GetProduct(r.Context(), r.PathValue("productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := s.Shop.ToggleWishlist(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"in_wishlist": in,
		"wishlist":    h.wishlistView(r, s),
	})
}

func (h *Handler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Shop.RemoveFromWishlist(r.Context(), r.PathValue("productId"))
	h.writeJSON(w, http.StatusOK, h.wishlistView(r, s))
}

func (h *Handler) handleClearWishlist(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Shop.ClearWishlist(r.Context())
	h.writeJSON(w, http.StatusOK, h.wishlistView(r, s))
}

// handleNav returns the header badge counts and the signed-in user.
func (h *Handler) handleNav(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ctx := r.Context()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"authenticated":  s.Creds.IsAuthenticated(ctx),
		"admin":          s.Creds.IsAdmin(ctx),
		"user":           s.Creds.User(ctx),
		"cart_count":     s.Shop.CartItemsCount(ctx),
		"wishlist_count": s.Shop.WishlistCount(ctx),
	})
}

// handleState exposes the store snapshot, including the reconciliation
// phase and error slot.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeJSON(w, http.StatusOK, s.Shop.Snapshot())
}
