// Package orders holds the signed-in user's order history.
//
// AdvanceOrderStatus is a local simulation: it never reaches the backend and
// is lost on reload. Advanced orders carry Simulated so views can say so.
package orders

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// AuthGate reports whether the session currently holds credentials.
type AuthGate interface {
	IsAuthenticated(ctx context.Context) bool
}

// Store caches one session's orders.
type Store struct {
	backend adapter.Orders
	auth    AuthGate
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	orders  []model.Order
	loaded  bool
	loading bool
	lastErr error
}

// New creates an empty order store.
func New(backend adapter.Orders, auth AuthGate, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, auth: auth, logger: logger, now: time.Now}
}

// Load fetches the orders the first time it is called. Later calls return the
// cached list; use Refresh to refetch.
func (s *Store) Load(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	if s.loaded {
		defer s.mu.Unlock()
		return slices.Clone(s.orders), nil
	}
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh refetches the orders, replacing any local simulation.
func (s *Store) Refresh(ctx context.Context) ([]model.Order, error) {
	if !s.auth.IsAuthenticated(ctx) {
		return nil, model.NewAuthRequiredError("view your orders")
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.backend.ListOrders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
	if err != nil {
		return nil, err
	}
	s.orders = list
	s.loaded = true
	return slices.Clone(s.orders), nil
}

// Orders returns the cached list without fetching.
func (s *Store) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Loading reports whether a fetch is running.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// NextStatus returns the status after current on the forward path, and false
// when current is delivered, cancelled, or unknown.
func NextStatus(current model.OrderStatus) (model.OrderStatus, bool) {
	i := slices.Index(model.OrderProgression, current)
	if i < 0 || i == len(model.OrderProgression)-1 {
		return current, false
	}
	return model.OrderProgression[i+1], true
}

// AdvanceOrderStatus moves an order one step along the forward path and
// stamps StatusUpdatedAt. The change is local only.
func (s *Store) AdvanceOrderStatus(orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.orders, func(o model.Order) bool { return o.ID == orderID })
	if i < 0 {
		return nil, model.NewNotFoundError("order")
	}
	o := &s.orders[i]
	next, ok := NextStatus(o.Status)
	if !ok {
		return nil, model.NewValidationError("status", "order "+string(o.Status)+" cannot advance")
	}
	now := s.now()
	o.Status = next
	o.StatusUpdatedAt = &now
	o.Simulated = true
	s.logger.Info("order status advanced locally", "order_id", orderID, "status", next)

	cp := *o
	return &cp, nil
}

// PlaceOrder submits the checkout and puts the new order first.
func (s *Store) PlaceOrder(ctx context.Context, form model.CheckoutForm, lines []model.CartLine) (*model.Order, error) {
	if !s.auth.IsAuthenticated(ctx) {
		return nil, model.NewAuthRequiredError("place an order")
	}
	if err := model.Validate(form); err != nil {
		return nil, err
	}
	order, err := s.backend.PlaceOrder(ctx, form, lines)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]model.Order{*order}, s.orders...)
	return order, nil
}

// Reset forgets the cached orders, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
	s.loaded = false
	s.lastErr = nil
}
