package adapter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"storefront/internal/model"
)

// Mock implements Backend for testing.
// Catalog, cart, wishlist and order calls are served from in-memory state;
// each method can be overridden via its function field. Every call is
// recorded so tests can assert on backend traffic.
type Mock struct {
	mu sync.Mutex

	products map[string]model.Product
	order    []string
	cart     []model.CartItemRef
	wishlist []string
	orders   []model.Order
	banners  []model.HeroBanner
	payments model.PaymentConfig
	user     *model.User
	calls    []string

	GetProductFunc     func(ctx context.Context, id string) (*model.Product, error)
	GetCartFunc        func(ctx context.Context) ([]model.CartItemRef, error)
	AddCartItemFunc    func(ctx context.Context, ref model.CartItemRef) error
	UpdateCartItemFunc func(ctx context.Context, ref model.CartItemRef) error
	RemoveCartItemFunc func(ctx context.Context, productID, selectedSize string) error
	ClearCartFunc      func(ctx context.Context) error
	GetWishlistFunc    func(ctx context.Context) ([]string, error)
	ToggleWishlistFunc func(ctx context.Context, productID string) error
	RemoveWishlistFunc func(ctx context.Context, productID string) error
	ListOrdersFunc     func(ctx context.Context) ([]model.Order, error)
	PlaceOrderFunc     func(ctx context.Context, form model.CheckoutForm, lines []model.CartLine) (*model.Order, error)
	LoginFunc          func(ctx context.Context, form model.LoginForm) (*model.LoginResult, error)
	ListAllOrdersFunc  func(ctx context.Context) ([]model.Order, error)
}

// NewMock returns a Mock whose catalog holds products, priced by the
// storefront pricing rule.
func NewMock(products ...model.Product) *Mock {
	m := &Mock{products: make(map[string]model.Product)}
	for _, p := range products {
		m.PutProduct(p)
	}
	return m
}

// PutProduct adds or replaces a catalog product.
func (m *Mock) PutProduct(p model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.products == nil {
		m.products = make(map[string]model.Product)
	}
	if p.DiscountedPrice.IsZero() {
		model.PriceProduct(&p)
	}
	if _, ok := m.products[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = p
}

// SetCart replaces the server cart.
func (m *Mock) SetCart(refs ...model.CartItemRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = slices.Clone(refs)
}

// ServerCart returns a copy of the server cart.
func (m *Mock) ServerCart() []model.CartItemRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cart)
}

// SetWishlist replaces the server wishlist.
func (m *Mock) SetWishlist(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishlist = slices.Clone(ids)
}

// ServerWishlist returns a copy of the server wishlist.
func (m *Mock) ServerWishlist() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.wishlist)
}

// SetOrders replaces the stored orders.
func (m *Mock) SetOrders(orders ...model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = slices.Clone(orders)
}

// SetBanners replaces the stored hero banners.
func (m *Mock) SetBanners(banners ...model.HeroBanner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = slices.Clone(banners)
}

// SetUser sets the profile returned by Login and Me.
func (m *Mock) SetUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
}

// Calls returns the recorded calls as "Method:arg,arg".
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount counts recorded calls with the given prefix.
func (m *Mock) CallCount(prefix string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *Mock) record(method string, args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method+":"+strings.Join(args, ","))
}

// ListProducts filters the catalog by category and title/category substring.
func (m *Mock) ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	m.record("ListProducts", q.Category, q.Search)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	search := strings.ToLower(q.Search)
	for _, id := range m.order {
		p := m.products[id]
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Category), search) {
			continue
		}
		out = append(out, p)
	}
	if q.Skip > 0 {
		if q.Skip >= len(out) {
			return nil, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetProduct calls GetProductFunc or looks the product up in the catalog.
func (m *Mock) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	m.record("GetProduct", id)
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, model.NewNotFoundError("product")
	}
	return &p, nil
}

// Categories returns the distinct product categories in insertion order.
func (m *Mock) Categories(ctx context.Context) ([]string, error) {
	m.record("Categories")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range m.order {
		if c := m.products[id].Category; c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCart calls GetCartFunc or returns the server cart.
func (m *Mock) GetCart(ctx context.Context) ([]model.CartItemRef, error) {
	m.record("GetCart")
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx)
	}
	return m.ServerCart(), nil
}

// AddCartItem calls AddCartItemFunc or increments the server line.
func (m *Mock) AddCartItem(ctx context.Context, ref model.CartItemRef) error {
	m.record("AddCartItem", ref.ProductID, ref.SelectedSize, fmt.Sprint(ref.Quantity))
	if m.AddCartItemFunc != nil {
		return m.AddCartItemFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cart {
		if m.cart[i].ProductID == ref.ProductID && m.cart[i].SelectedSize == ref.SelectedSize {
			m.cart[i].Quantity += ref.Quantity
			return nil
		}
	}
	m.cart = append(m.cart, ref)
	return nil
}

// UpdateCartItem calls UpdateCartItemFunc or upserts the server line.
func (m *Mock) UpdateCartItem(ctx context.Context, ref model.CartItemRef) error {
	m.record("UpdateCartItem", ref.ProductID, ref.SelectedSize, fmt.Sprint(ref.Quantity))
	if m.UpdateCartItemFunc != nil {
		return m.UpdateCartItemFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cart {
		if m.cart[i].ProductID == ref.ProductID && m.cart[i].SelectedSize == ref.SelectedSize {
			m.cart[i].Quantity = ref.Quantity
			return nil
		}
	}
	m.cart = append(m.cart, ref)
	return nil
}

// RemoveCartItem calls RemoveCartItemFunc or deletes the server line.
func (m *Mock) RemoveCartItem(ctx context.Context, productID, selectedSize string) error {
	m.record("RemoveCartItem", productID, selectedSize)
	if m.RemoveCartItemFunc != nil {
		return m.RemoveCartItemFunc(ctx, productID, selectedSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = slices.DeleteFunc(m.cart, func(r model.CartItemRef) bool {
		return r.ProductID == productID && r.SelectedSize == selectedSize
	})
	return nil
}

// ClearCart calls ClearCartFunc or empties the server cart.
func (m *Mock) ClearCart(ctx context.Context) error {
	m.record("ClearCart")
	if m.ClearCartFunc != nil {
		return m.ClearCartFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = nil
	return nil
}

// GetWishlist calls GetWishlistFunc or returns the server wishlist.
func (m *Mock) GetWishlist(ctx context.Context) ([]string, error) {
	m.record("GetWishlist")
	if m.GetWishlistFunc != nil {
		return m.GetWishlistFunc(ctx)
	}
	return m.ServerWishlist(), nil
}

// ToggleWishlist calls ToggleWishlistFunc or flips membership.
func (m *Mock) ToggleWishlist(ctx context.Context, productID string) error {
	m.record("ToggleWishlist", productID)
	if m.ToggleWishlistFunc != nil {
		return m.ToggleWishlistFunc(ctx, productID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.Index(m.wishlist, productID); i >= 0 {
		m.wishlist = slices.Delete(m.wishlist, i, i+1)
		return nil
	}
	m.wishlist = append(m.wishlist, productID)
	return nil
}

// RemoveWishlist calls RemoveWishlistFunc or deletes the id.
func (m *Mock) RemoveWishlist(ctx context.Context, productID string) error {
	m.record("RemoveWishlist", productID)
	if m.RemoveWishlistFunc != nil {
		return m.RemoveWishlistFunc(ctx, productID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishlist = slices.DeleteFunc(m.wishlist, func(id string) bool { return id == productID })
	return nil
}

// ListOrders calls ListOrdersFunc or returns the stored orders.
func (m *Mock) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.record("ListOrders")
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.orders), nil
}

// PlaceOrder calls PlaceOrderFunc or stores a pending order for the lines.
func (m *Mock) PlaceOrder(ctx context.Context, form model.CheckoutForm, lines []model.CartLine) (*model.Order, error) {
	m.record("PlaceOrder", form.PaymentMethod)
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(ctx, form, lines)
	}
	if len(lines) == 0 {
		return nil, model.NewValidationError("cart", "is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o := model.Order{
		ID:              fmt.Sprintf("order-%d", len(m.orders)+1),
		Status:          model.OrderPending,
		PaymentStatus:   "unpaid",
		PaymentMethod:   form.PaymentMethod,
		ShippingAddress: form.ShippingAddress,
		Customer:        model.Customer{Name: form.ShippingAddress.FullName, Email: form.Email, Phone: form.ShippingAddress.Phone},
	}
	for _, l := range lines {
		o.Items = append(o.Items, model.OrderItem{
			ProductID: l.ProductID, Title: l.Title, Image: l.Image,
			SelectedSize: l.SelectedSize, Quantity: l.Quantity, Price: l.Price,
		})
		o.Total = o.Total.Add(l.LineTotal())
	}
	m.orders = append([]model.Order{o}, m.orders...)
	return &o, nil
}

// Register returns a user built from the form.
func (m *Mock) Register(ctx context.Context, form model.RegisterForm) (*model.User, error) {
	m.record("Register", form.Email)
	return &model.User{ID: "user-" + form.Email, Name: form.Name, Email: form.Email, Phone: form.Phone}, nil
}

// Login calls LoginFunc or accepts any credentials.
func (m *Mock) Login(ctx context.Context, form model.LoginForm) (*model.LoginResult, error) {
	m.record("Login", form.Email)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, form)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user
	if u == nil {
		u = &model.User{ID: "user-" + form.Email, Email: form.Email}
	}
	cp := *u
	return &model.LoginResult{Token: "mock-token", User: &cp}, nil
}

// Logout always succeeds.
func (m *Mock) Logout(ctx context.Context) error {
	m.record("Logout")
	return nil
}

// Me returns the user set with SetUser.
func (m *Mock) Me(ctx context.Context) (*model.User, error) {
	m.record("Me")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, model.NewUnauthorizedError("not signed in")
	}
	cp := *m.user
	return &cp, nil
}

// UpdateMe applies the form to the stored user.
func (m *Mock) UpdateMe(ctx context.Context, form model.ProfileForm) (*model.User, error) {
	m.record("UpdateMe")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		m.user = &model.User{}
	}
	m.user.Name, m.user.Phone, m.user.Address = form.Name, form.Phone, form.Address
	cp := *m.user
	return &cp, nil
}

// ChangePassword always succeeds.
func (m *Mock) ChangePassword(ctx context.Context, form model.PasswordForm) error {
	m.record("ChangePassword")
	return nil
}

// ListBanners returns the stored banners.
func (m *Mock) ListBanners(ctx context.Context) ([]model.HeroBanner, error) {
	m.record("ListBanners")
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.banners), nil
}

// PaymentConfig returns the stored config without merchant credentials.
func (m *Mock) PaymentConfig(ctx context.Context) (*model.PaymentConfig, error) {
	m.record("PaymentConfig")
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.payments
	cfg.MerchantKey, cfg.MerchantSecret = "", ""
	return &cfg, nil
}

// CreateProduct adds a product built from the form.
func (m *Mock) CreateProduct(ctx context.Context, form model.ProductForm) (*model.Product, error) {
	m.record("CreateProduct", form.Title)
	p := model.Product{
		ID:       fmt.Sprintf("prod-%d", len(m.productIDs())+1),
		Title:    form.Title,
		Category: form.Category,
		Price:    model.NewMoney(model.ParseDisplayAmount(form.Price), ""),
		Sizes:    form.Sizes,
	}
	for _, img := range form.Images {
		p.Images = append(p.Images, "/uploads/"+img.Filename)
	}
	model.PriceProduct(&p)
	m.PutProduct(p)
	return &p, nil
}

// UpdateProduct changes the title and price of a stored product.
func (m *Mock) UpdateProduct(ctx context.Context, id string, form model.ProductForm) (*model.Product, error) {
	m.record("UpdateProduct", id)
	m.mu.Lock()
	p, ok := m.products[id]
	m.mu.Unlock()
	if !ok {
		return nil, model.NewNotFoundError("product")
	}
	if form.Title != "" {
		p.Title = form.Title
	}
	if form.Price != "" {
		p.Price = model.NewMoney(model.ParseDisplayAmount(form.Price), p.Price.Currency)
	}
	model.PriceProduct(&p)
	m.PutProduct(p)
	return &p, nil
}

// DeleteProduct removes a product.
func (m *Mock) DeleteProduct(ctx context.Context, id string) error {
	m.record("DeleteProduct", id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return model.NewNotFoundError("product")
	}
	delete(m.products, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return nil
}

// CreateBanner appends a banner built from the form.
func (m *Mock) CreateBanner(ctx context.Context, form model.BannerForm) (*model.HeroBanner, error) {
	m.record("CreateBanner", form.Title)
	m.mu.Lock()
	defer m.mu.Unlock()
	b := model.HeroBanner{ID: fmt.Sprintf("banner-%d", len(m.banners)+1), Title: form.Title, Subtitle: form.Subtitle, Link: form.Link, Active: true}
	if form.Active != nil {
		b.Active = *form.Active
	}
	m.banners = append(m.banners, b)
	return &b, nil
}

// UpdateBanner changes a stored banner.
func (m *Mock) UpdateBanner(ctx context.Context, id string, form model.BannerForm) (*model.HeroBanner, error) {
	m.record("UpdateBanner", id)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.banners {
		if m.banners[i].ID != id {
			continue
		}
		if form.Title != "" {
			m.banners[i].Title = form.Title
		}
		if form.Active != nil {
			m.banners[i].Active = *form.Active
		}
		b := m.banners[i]
		return &b, nil
	}
	return nil, model.NewNotFoundError("banner")
}

// DeleteBanner removes a banner.
func (m *Mock) DeleteBanner(ctx context.Context, id string) error {
	m.record("DeleteBanner", id)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = slices.DeleteFunc(m.banners, func(b model.HeroBanner) bool { return b.ID == id })
	return nil
}

// ListAllOrders calls ListAllOrdersFunc or returns the stored orders.
func (m *Mock) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	m.record("ListAllOrders")
	if m.ListAllOrdersFunc != nil {
		return m.ListAllOrdersFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.orders), nil
}

// UpdateOrderStatus sets a stored order's status.
func (m *Mock) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	m.record("UpdateOrderStatus", id, string(status))
	return m.updateOrder(id, func(o *model.Order) { o.Status = status })
}

// UpdatePaymentStatus sets a stored order's payment status.
func (m *Mock) UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error) {
	m.record("UpdatePaymentStatus", id, status)
	return m.updateOrder(id, func(o *model.Order) { o.PaymentStatus = status })
}

func (m *Mock) updateOrder(id string, fn func(*model.Order)) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			fn(&m.orders[i])
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, model.NewNotFoundError("order")
}

// AdminPaymentConfig returns the stored config.
func (m *Mock) AdminPaymentConfig(ctx context.Context) (*model.PaymentConfig, error) {
	m.record("AdminPaymentConfig")
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.payments
	return &cfg, nil
}

// UpdatePaymentConfig stores cfg.
func (m *Mock) UpdatePaymentConfig(ctx context.Context, cfg model.PaymentConfig) (*model.PaymentConfig, error) {
	m.record("UpdatePaymentConfig")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = cfg
	return &cfg, nil
}

func (m *Mock) productIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
