package shop

import (
	"context"

	"storefront/internal/model"
)

// NormalizeLegacy repairs wishlist entries persisted without an image, title
// or price by refetching their products in parallel. Entries whose product
// cannot be fetched get placeholders. It runs at most once per store; entries
// that become incomplete later are left alone.
func (s *Store) NormalizeLegacy(ctx context.Context) {
	s.normalizeOnce.Do(func() {
		s.normalizeLegacy(ctx)
	})
}

func (s *Store) normalizeLegacy(ctx context.Context) {
	s.mu.Lock()
	epoch := s.epoch
	var stale []model.WishlistEntry
	for _, e := range s.wishlist {
		if e.Incomplete() {
			stale = append(stale, e)
		}
	}
	s.mu.Unlock()
	if len(stale) == 0 {
		return
	}

	ids := make([]string, len(stale))
	for i, e := range stale {
		ids[i] = e.ProductID
	}
	products := s.fetchProducts(ctx, ids)

	repaired := make(map[string]model.WishlistEntry, len(stale))
	for _, e := range stale {
		if p, ok := products[e.ProductID]; ok {
			repaired[e.ProductID] = model.WishlistEntryFromProduct(p, s.stamp(e.AddedAt))
			continue
		}
		repaired[e.ProductID] = s.fallbackEntry(e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	for i, e := range s.wishlist {
		if r, ok := repaired[e.ProductID]; ok && e.Incomplete() {
			s.wishlist[i] = r
		}
	}
	s.persistWishlistLocked(ctx)
	s.logger.Debug("normalized legacy wishlist entries", "count", len(repaired))
}
