package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/orders"
	"storefront/internal/session"
)

// === Products ===

func (h *Handler) handleAdminCreateProduct(w http.ResponseWriter, r *http.Request, s *session.Session) {
	form, err := parseProductForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := s.Backend.CreateProduct(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	s.Logger.Info("product created", "product_id", p.ID)
	h.writeJSON(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *Handler) handleAdminUpdateProduct(w http.ResponseWriter, r *http.Request, s *session.Session) {
	form, err := parseProductForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := s.Backend.UpdateProduct(r.Context(), r.PathValue("id"), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handler) handleAdminDeleteProduct(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id := r.PathValue("id")
	if err := s.Backend.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	s.Logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// parseProductForm reads a multipart product form. Sizes may be a JSON array
// or a comma-separated list; every "images" file part is passed through.
func parseProductForm(w http.ResponseWriter, r *http.Request) (model.ProductForm, error) {
	if err := parseMultipart(w, r); err != nil {
		return model.ProductForm{}, err
	}
	form := model.ProductForm{
		Title:           strings.TrimSpace(r.FormValue("title")),
		Description:     r.FormValue("description"),
		Category:        strings.TrimSpace(r.FormValue("category")),
		Price:           strings.TrimSpace(r.FormValue("price")),
		DiscountPercent: strings.TrimSpace(r.FormValue("discount")),
		Stock:           strings.TrimSpace(r.FormValue("stock")),
		Sizes:           parseSizes(r.FormValue("sizes")),
	}
	images, err := readUploads(r.MultipartForm, "images")
	if err != nil {
		return model.ProductForm{}, err
	}
	form.Images = images
	if err := model.Validate(form); err != nil {
		return model.ProductForm{}, err
	}
	return form, nil
}

func parseSizes(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var sizes []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &sizes) == nil {
		return sizes
	}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// === Banners ===

func (h *Handler) handleAdminBanners(w http.ResponseWriter, r *http.Request, s *session.Session) {
	banners, err := s.Backend.ListBanners(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	slices.SortStableFunc(banners, func(a, b model.HeroBanner) int { return a.DisplayOrder - b.DisplayOrder })
	h.writeJSON(w, http.StatusOK, map[string]any{"banners": nonNil(banners)})
}

func (h *Handler) handleAdminCreateBanner(w http.ResponseWriter, r *http.Request, s *session.Session) {
	form, err := parseBannerForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if form.Image == nil {
		h.writeError(w, model.NewValidationError("image", "is required"))
		return
	}
	b, err := s.Backend.CreateBanner(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"banner": b})
}

func (h *Handler) handleAdminUpdateBanner(w http.ResponseWriter, r *http.Request, s *session.Session) {
	form, err := parseBannerForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	b, err := s.Backend.UpdateBanner(r.Context(), r.PathValue("id"), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"banner": b})
}

func (h *Handler) handleAdminDeleteBanner(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Backend.DeleteBanner(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseBannerForm(w http.ResponseWriter, r *http.Request) (model.BannerForm, error) {
	if err := parseMultipart(w, r); err != nil {
		return model.BannerForm{}, err
	}
	form := model.BannerForm{
		Title:        strings.TrimSpace(r.FormValue("title")),
		Subtitle:     r.FormValue("subtitle"),
		Link:         strings.TrimSpace(r.FormValue("link")),
		DisplayOrder: strings.TrimSpace(r.FormValue("display_order")),
	}
	if v := r.FormValue("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return model.BannerForm{}, model.NewValidationError("is_active", "must be true or false")
		}
		form.Active = &active
	}
	uploads, err := readUploads(r.MultipartForm, "image")
	if err != nil {
		return model.BannerForm{}, err
	}
	if len(uploads) > 0 {
		form.Image = &uploads[0]
	}
	if err := model.Validate(form); err != nil {
		return model.BannerForm{}, err
	}
	return form, nil
}

// === Orders and customers ===

func (h *Handler) handleAdminOrders(w http.ResponseWriter, r *http.Request, s *session.Session) {
	list, err := s.Backend.ListAllOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		list = slices.DeleteFunc(list, func(o model.Order) bool { return string(o.Status) != status })
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"orders": nonNil(list)})
}

func (h *Handler) handleAdminOrderStatus(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if !validStatus(req.Status) {
		h.writeError(w, model.NewValidationError("status", "is not a known order status"))
		return
	}
	o, err := s.Backend.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	s.Logger.Info("order status updated", "order_id", o.ID, "status", o.Status)
	h.writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func validStatus(st model.OrderStatus) bool {
	return st == model.OrderCancelled || slices.Contains(model.OrderProgression, st)
}

// paymentStatuses are the values the admin console offers.
var paymentStatuses = []string{"pending", "paid", "failed", "refunded"}

func (h *Handler) handleAdminPaymentStatus(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.PaymentStatus))
	if !slices.Contains(paymentStatuses, status) {
		h.writeError(w, model.NewValidationError("payment_status", "must be one of: "+strings.Join(paymentStatuses, ", ")))
		return
	}
	o, err := s.Backend.UpdatePaymentStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

// handleAdminCustomers derives the customer list from all orders; the
// backend has no customer endpoint.
func (h *Handler) handleAdminCustomers(w http.ResponseWriter, r *http.Request, s *session.Session) {
	list, err := s.Backend.ListAllOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"customers": orders.Customers(list)})
}

// === Payments ===

func (h *Handler) handleAdminPaymentConfig(w http.ResponseWriter, r *http.Request, s *session.Session) {
	cfg, err := s.Backend.AdminPaymentConfig(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleAdminUpdatePaymentConfig(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var cfg model.PaymentConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		h.writeError(w, err)
		return
	}
	if cfg.BkashEnabled && strings.TrimSpace(cfg.BkashNumber) == "" {
		h.writeError(w, model.NewValidationError("bkash_number", "is required when bKash is enabled"))
		return
	}
	updated, err := s.Backend.UpdatePaymentConfig(r.Context(), cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// === Multipart helpers ===

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return model.NewValidationError("body", "expected multipart/form-data")
		}
		return model.NewValidationError("body", "invalid multipart form")
	}
	return nil
}

// readUploads loads every file under field into memory for pass-through.
func readUploads(mf *multipart.Form, field string) ([]model.Upload, error) {
	if mf == nil {
		return nil, nil
	}
	var out []model.Upload
	for _, fh := range mf.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, model.NewValidationError(field, "unreadable file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, model.NewValidationError(field, "unreadable file")
		}
		out = append(out, model.Upload{
			Field:       field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}
