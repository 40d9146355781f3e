package handler

import (
	"net/http"

	"storefront/internal/session"
)

// handleOrders lists the user's orders, fetched once per session unless
// refresh=1 is passed.
func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request, s *session.Session) {
	load := s.Orders.Load
	if r.URL.Query().Get("refresh") == "1" {
		load = s.Orders.Refresh
	}
	list, err := load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"orders": nonNil(list)})
}

// handleAdvanceOrder steps an order's status forward in this session only.
// The backend is not told; the response marks the order as simulated.
func (h *Handler) handleAdvanceOrder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if _, err := s.Orders.Load(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	order, err := s.Orders.AdvanceOrderStatus(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"order": order})
}
