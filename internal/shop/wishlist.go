package shop

import (
	"context"
	"errors"

	"storefront/internal/model"
)

// AddToWishlist adds product. Signed-out sessions are refused with
// ErrAuthRequired. While the wishlist is unsynced the add reconciles first: a
// full run if none has happened this session, otherwise the wishlist half
// only. The entry is added locally, then toggled on the server once queued
// writes have landed; if that call fails the entry is rolled back and the
// error returned.
func (s *Store) AddToWishlist(ctx context.Context, p *model.Product) error {
	if !s.auth.IsAuthenticated(ctx) {
		return model.NewAuthRequiredError("save items to your wishlist")
	}
	if p == nil || p.ID == "" {
		return model.NewValidationError("product", "is required")
	}

	s.mu.Lock()
	synced, attempted := s.synced, s.machine.attempted
	s.mu.Unlock()
	if !synced {
		run := s.Sync
		if attempted {
			run = s.retryWishlistSync
		}
		if err := run(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
			s.logger.Warn("reconciliation before wishlist add failed", "product_id", p.ID, "error", err)
		}
	}

	// The toggle is not idempotent: a queued removal of the same id must
	// reach the server before it.
	if err := s.mirror.Drain(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if indexWishlist(s.wishlist, p.ID) >= 0 {
		s.mu.Unlock()
		return nil
	}
	s.wishlist = append(s.wishlist, model.WishlistEntryFromProduct(p, s.now()))
	s.persistWishlistLocked(ctx)
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.backend.ToggleWishlist(ctx, p.ID); err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			if i := indexWishlist(s.wishlist, p.ID); i >= 0 {
				s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
				s.persistWishlistLocked(ctx)
			}
		}
		s.mu.Unlock()
		s.logger.Warn("wishlist add rolled back", "product_id", p.ID, "error", err)
		return err
	}
	return nil
}

// RemoveFromWishlist drops productID and mirrors the removal when signed in.
func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) {
	s.mu.Lock()
	i := indexWishlist(s.wishlist, productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
	s.persistWishlistLocked(ctx)
	s.mu.Unlock()

	if s.auth.IsAuthenticated(ctx) {
		s.mirror.Enqueue("wishlist.remove", productID, func(ctx context.Context) error {
			return s.backend.RemoveWishlist(ctx, productID)
		})
	}
}

// ToggleWishlist removes product when present, otherwise adds it. It reports
// whether the product is in the wishlist afterwards.
func (s *Store) ToggleWishlist(ctx context.Context, p *model.Product) (bool, error) {
	if p == nil || p.ID == "" {
		return false, model.NewValidationError("product", "is required")
	}
	if s.InWishlist(p.ID) {
		s.RemoveFromWishlist(ctx, p.ID)
		return false, nil
	}
	if err := s.AddToWishlist(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

// ClearWishlist empties the wishlist locally. The backend has no bulk clear,
// so server entries return at the next reconciliation.
func (s *Store) ClearWishlist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wishlist = nil
	s.persistWishlistLocked(ctx)
}

// WishlistCount is the number of entries, zero while signed out.
func (s *Store) WishlistCount(ctx context.Context) int {
	if !s.auth.IsAuthenticated(ctx) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wishlist)
}
