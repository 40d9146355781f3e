// Package adapter defines the backend operations the storefront consumes.
// The gateway client in internal/backend implements them against the REST
// backend; Mock implements them in memory for tests.
package adapter

import (
	"context"

	"storefront/internal/model"
)

// Catalog is the public product surface.
type Catalog interface {
	ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Cart is the server cart. Lines are keyed by (productId, selectedSize).
type Cart interface {
	GetCart(ctx context.Context) ([]model.CartItemRef, error)

	// AddCartItem adds ref.Quantity to the line, creating it if needed.
	AddCartItem(ctx context.Context, ref model.CartItemRef) error

	// UpdateCartItem sets the line's absolute quantity. Idempotent by key.
	UpdateCartItem(ctx context.Context, ref model.CartItemRef) error

	RemoveCartItem(ctx context.Context, productID, selectedSize string) error
	ClearCart(ctx context.Context) error
}

// Wishlist is the server wishlist, a set of product ids.
type Wishlist interface {
	GetWishlist(ctx context.Context) ([]string, error)
	ToggleWishlist(ctx context.Context, productID string) error
	RemoveWishlist(ctx context.Context, productID string) error
}

// ShopBackend is everything the cart/wishlist store talks to.
type ShopBackend interface {
	Catalog
	Cart
	Wishlist
}

// Orders is the signed-in user's order surface.
type Orders interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	PlaceOrder(ctx context.Context, form model.CheckoutForm, lines []model.CartLine) (*model.Order, error)
}

// Account covers registration, login and the profile.
type Account interface {
	Register(ctx context.Context, form model.RegisterForm) (*model.User, error)
	Login(ctx context.Context, form model.LoginForm) (*model.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.User, error)
	UpdateMe(ctx context.Context, form model.ProfileForm) (*model.User, error)
	ChangePassword(ctx context.Context, form model.PasswordForm) error
}

// Storefront covers the remaining public reads.
type Storefront interface {
	ListBanners(ctx context.Context) ([]model.HeroBanner, error)
	PaymentConfig(ctx context.Context) (*model.PaymentConfig, error)
}

// Admin is the admin console surface. The backend enforces the role; the
// route guard only keeps non-admins from reaching it.
type Admin interface {
	CreateProduct(ctx context.Context, form model.ProductForm) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, form model.ProductForm) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateBanner(ctx context.Context, form model.BannerForm) (*model.HeroBanner, error)
	UpdateBanner(ctx context.Context, id string, form model.BannerForm) (*model.HeroBanner, error)
	DeleteBanner(ctx context.Context, id string) error

	ListAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error)

	AdminPaymentConfig(ctx context.Context) (*model.PaymentConfig, error)
	UpdatePaymentConfig(ctx context.Context, cfg model.PaymentConfig) (*model.PaymentConfig, error)
}

// Backend is the full surface one session uses. Implementations are bound to
// that session's credentials.
type Backend interface {
	ShopBackend
	Orders
	Account
	Storefront
	Admin
}
