package handler

import (
	"net/http"

	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/session"
)

// guard is the access level a route requires.
type guard int

const (
	public  guard = iota
	private       // signed in
	admin         // signed in with the admin role
)

// sessionHandler is a view with its resolved session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

type route struct {
	pattern string // Go 1.22+ method pattern
	name    string // metrics label
	guard   guard
	handle  sessionHandler
}

// routes is the storefront's route table.
func (h *Handler) routes() []route {
	return []route{
		// Catalog pages
		{"GET /api/home", "home", public, h.handleHome},
		{"GET /api/categories", "categories", public, h.handleCategories},
		{"GET /api/categories/{category}", "category", public, h.handleCategory},
		{"GET /api/products", "products", public, h.handleProducts},
		{"GET /api/products/{id}", "product", public, h.handleProduct},
		{"GET /api/search", "search", public, h.handleSearch},

		// Cart and wishlist. Guests can read; the store refuses their writes.
		{"GET /api/cart", "cart", public, h.handleGetCart},
		{"POST /api/cart", "cart.add", public, h.handleAddToCart},
		{"PUT /api/cart", "cart.update", public, h.handleUpdateCart},
		{"DELETE /api/cart/{productId}", "cart.remove", public, h.handleRemoveFromCart},
		{"DELETE /api/cart", "cart.clear", public, h.handleClearCart},
		{"GET /api/wishlist", "wishlist", public, h.handleGetWishlist},
		{"POST /api/wishlist/{productId}/toggle", "wishlist.toggle", public, h.handleToggleWishlist},
		{"DELETE /api/wishlist/{productId}", "wishlist.remove", public, h.handleRemoveFromWishlist},
		{"DELETE /api/wishlist", "wishlist.clear", public, h.handleClearWishlist},
		{"GET /api/nav", "nav", public, h.handleNav},
		{"GET /api/state", "state", public, h.handleState},

		// Account
		{"POST /api/auth/register", "auth.register", public, h.handleRegister},
		{"POST /api/auth/login", "auth.login", public, h.handleLogin},
		{"POST /api/auth/logout", "auth.logout", public, h.handleLogout},
		{"GET /api/profile", "profile", private, h.handleProfile},
		{"PUT /api/profile", "profile.update", private, h.handleUpdateProfile},
		{"PUT /api/profile/password", "profile.password", private, h.handleChangePassword},

		// Checkout and orders
		{"GET /api/checkout", "checkout", private, h.handleCheckoutSummary},
		{"POST /api/checkout", "checkout.submit", private, h.handleCheckoutSubmit},
		{"GET /api/orders", "orders", private, h.handleOrders},
		{"POST /api/orders/{id}/advance", "orders.advance", private, h.handleAdvanceOrder},

		// Admin console
		{"POST /api/admin/products", "admin.products.create", admin, h.handleAdminCreateProduct},
		{"PUT /api/admin/products/{id}", "admin.products.update", admin, h.handleAdminUpdateProduct},
		{"DELETE /api/admin/products/{id}", "admin.products.delete", admin, h.handleAdminDeleteProduct},
		{"GET /api/admin/banners", "admin.banners", admin, h.handleAdminBanners},
		{"POST /api/admin/banners", "admin.banners.create", admin, h.handleAdminCreateBanner},
		{"PUT /api/admin/banners/{id}", "admin.banners.update", admin, h.handleAdminUpdateBanner},
		{"DELETE /api/admin/banners/{id}", "admin.banners.delete", admin, h.handleAdminDeleteBanner},
		{"GET /api/admin/orders", "admin.orders", admin, h.handleAdminOrders},
		{"PUT /api/admin/orders/{id}/status", "admin.orders.status", admin, h.handleAdminOrderStatus},
		{"PUT /api/admin/orders/{id}/payment-status", "admin.orders.payment", admin, h.handleAdminPaymentStatus},
		{"GET /api/admin/customers", "admin.customers", admin, h.handleAdminCustomers},
		{"GET /api/admin/payments/config", "admin.payments", admin, h.handleAdminPaymentConfig},
		{"PUT /api/admin/payments/config", "admin.payments.update", admin, h.handleAdminUpdatePaymentConfig},
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	for _, rt := range h.routes() {
		mux.Handle(rt.pattern, middleware.Chain(
			middleware.Metrics(rt.name),
			h.sessions.Middleware,
		)(h.guarded(rt.guard, rt.handle)))
	}

	// MCP transport - per-session tools over the official MCP SDK
	mux.Handle("/mcp", middleware.Chain(
		middleware.Metrics("mcp"),
		h.sessions.Middleware,
	)(h.NewMCPHandler()))

	// Operational endpoints carry no session
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// guarded enforces the route's access level before calling next.
// Private failures are 401, admin failures 403.
func (h *Handler) guarded(g guard, next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil {
			h.writeError(w, model.NewInternalError(errNoSession))
			return
		}
		switch g {
		case private:
			if !s.Creds.IsAuthenticated(r.Context()) {
				h.writeError(w, model.NewUnauthorizedError("sign in required"))
				return
			}
		case admin:
			if !s.Creds.IsAuthenticated(r.Context()) {
				h.writeError(w, model.NewUnauthorizedError("sign in required"))
				return
			}
			if !s.Creds.IsAdmin(r.Context()) {
				h.writeError(w, model.NewForbiddenError("admin access required"))
				return
			}
		}
		next(w, r, s)
	})
}
