package shop

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// AddToCart adds quantity of product in size. Signed-out sessions are refused
// with ErrAuthRequired and nothing is queued. A zero quantity means one; a
// negative one is a validation error. The local line changes immediately and
// is never rolled back; the backend write is mirrored.
func (s *Store) AddToCart(ctx context.Context, p *model.Product, quantity int, size string) error {
	if !s.auth.IsAuthenticated(ctx) {
		return model.NewAuthRequiredError("add items to your cart")
	}
	if p == nil || p.ID == "" {
		return model.NewValidationError("product", "is required")
	}
	switch {
	case quantity < 0:
		return model.NewValidationError("quantity", "must not be negative")
	case quantity == 0:
		quantity = 1
	}

	s.mu.Lock()
	var total int
	if i := indexCart(s.cart, p.ID, size); i >= 0 {
		s.cart[i].Quantity += quantity
		total = s.cart[i].Quantity
	} else {
		s.cart = append(s.cart, model.CartLineFromProduct(p, size, quantity))
		total = quantity
	}
	s.persistCartLocked(ctx)
	s.mu.Unlock()

	s.mirrorUpsert(p.ID, size, total)
	return nil
}

// RemoveFromCart drops the (product, size) line.
func (s *Store) RemoveFromCart(ctx context.Context, productID, size string) {
	s.mu.Lock()
	before := len(s.cart)
	s.cart = deleteLines(s.cart, productID, size)
	changed := len(s.cart) != before
	s.persistCartLocked(ctx)
	s.mu.Unlock()

	if changed && s.auth.IsAuthenticated(ctx) {
		s.mirror.Enqueue("cart.remove", lineLabel(productID, size), func(ctx context.Context) error {
			return s.backend.RemoveCartItem(ctx, productID, size)
		})
	}
}

// UpdateCartQuantity sets a line's quantity. Zero or less removes the line.
// Unknown lines are ignored.
func (s *Store) UpdateCartQuantity(ctx context.Context, productID, size string, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(ctx, productID, size)
		return
	}

	s.mu.Lock()
	i := indexCart(s.cart, productID, size)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.cart[i].Quantity = quantity
	s.persistCartLocked(ctx)
	s.mu.Unlock()

	if s.auth.IsAuthenticated(ctx) {
		s.mirrorUpsert(productID, size, quantity)
	}
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.cart = nil
	s.persistCartLocked(ctx)
	s.mu.Unlock()

	if s.auth.IsAuthenticated(ctx) {
		s.mirror.Enqueue("cart.clear", "*", s.backend.ClearCart)
	}
}

// CartTotal sums price × quantity across lines.
func (s *Store) CartTotal() model.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := model.NewMoney(decimal.Zero, "")
	for _, l := range s.cart {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CartItemsCount sums quantities. It is zero while signed out, whatever the
// collection holds.
func (s *Store) CartItemsCount(ctx context.Context) int {
	if !s.auth.IsAuthenticated(ctx) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.cart {
		n += l.Quantity
	}
	return n
}

// PushCart makes the server cart match the local one: queued mirror writes
// are drained, then the remaining difference is applied synchronously.
// Checkout calls it so the order reflects what the shopper sees.
func (s *Store) PushCart(ctx context.Context) error {
	if !s.auth.IsAuthenticated(ctx) {
		return model.NewAuthRequiredError("check out")
	}
	if err := s.mirror.Drain(ctx); err != nil {
		return err
	}
	server, err := s.backend.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("fetching cart: %w", err)
	}

	diff := reconcile.DiffCart(server, reconcile.CartRefs(s.Cart()))
	for _, r := range diff.ToRemove {
		if err := s.backend.RemoveCartItem(ctx, r.ProductID, r.SelectedSize); err != nil {
			return fmt.Errorf("removing %s: %w", lineLabel(r.ProductID, r.SelectedSize), err)
		}
	}
	for _, r := range diff.ToUpdate {
		if err := s.backend.UpdateCartItem(ctx, r); err != nil {
			return fmt.Errorf("updating %s: %w", lineLabel(r.ProductID, r.SelectedSize), err)
		}
	}
	for _, r := range diff.ToAdd {
		if err := s.backend.AddCartItem(ctx, r); err != nil {
			return fmt.Errorf("adding %s: %w", lineLabel(r.ProductID, r.SelectedSize), err)
		}
	}
	return nil
}

// mirrorUpsert queues an absolute-quantity write, which stays correct when
// retried or replayed.
func (s *Store) mirrorUpsert(productID, size string, quantity int) {
	ref := model.CartItemRef{ProductID: productID, SelectedSize: size, Quantity: quantity}
	s.mirror.Enqueue("cart.upsert", lineLabel(productID, size), func(ctx context.Context) error {
		return s.backend.UpdateCartItem(ctx, ref)
	})
}

func deleteLines(lines []model.CartLine, productID, size string) []model.CartLine {
	out := lines[:0]
	for _, l := range lines {
		if l.ProductID == productID && l.SelectedSize == size {
			continue
		}
		out = append(out, l)
	}
	return out
}

func lineLabel(productID, size string) string {
	if size == "" {
		return productID
	}
	return productID + "/" + size
}
