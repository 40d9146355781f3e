package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/session"
)

// checkoutSummary is the checkout page before submission.
type checkoutSummary struct {
	Items      []model.CartLine     `json:"items"`
	Subtotal   model.Money          `json:"subtotal"`
	Delivery   model.Money          `json:"delivery_charge"`
	Total      model.Money          `json:"total"`
	Payment    *model.PaymentConfig `json:"payment"`
	ItemsCount int                  `json:"items_count"`
}

// handleCheckoutSummary returns the cart with the public payment options.
func (h *Handler) handleCheckoutSummary(w http.ResponseWriter, r *http.Request, s *session.Session) {
	cfg, err := s.Backend.PaymentConfig(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	subtotal := s.Shop.CartTotal()
	h.writeJSON(w, http.StatusOK, checkoutSummary{
		Items:      s.Shop.Cart(),
		Subtotal:   subtotal,
		Delivery:   cfg.DeliveryCharge,
		Total:      subtotal.Add(cfg.DeliveryCharge),
		Payment:    cfg,
		ItemsCount: s.Shop.CartItemsCount(r.Context()),
	})
}

// handleCheckoutSubmit validates the form, makes the server cart match what
// the shopper sees, places the order and clears the cart.
func (h *Handler) handleCheckoutSubmit(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ctx := r.Context()
	var form model.CheckoutForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := model.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}
	lines := s.Shop.Cart()
	if len(lines) == 0 {
		h.writeError(w, model.NewValidationError("cart", "is empty"))
		return
	}

	if err := s.Shop.PushCart(ctx); err != nil {
		h.writeError(w, err)
		return
	}
	order, err := s.Orders.PlaceOrder(ctx, form, lines)
	if err != nil {
		h.writeError(w, err)
		return
	}
	s.Shop.ClearCart(ctx)
	s.Logger.Info("order placed", "order_id", order.ID, "lines", len(lines))

	h.writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}
