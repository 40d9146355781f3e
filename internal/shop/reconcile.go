package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// Sync reconciles local state with the server: the wishlist is merged (server
// entries first, then local extras, which are pushed), and the cart is
// replaced by the server cart. A run already in flight makes Sync return
// ErrSyncInFlight without waiting for it.
func (s *Store) Sync(ctx context.Context) error {
	return s.reconcile(ctx, true)
}

// retryWishlistSync reruns the wishlist half of a reconciliation whose
// wishlist fetch failed. The cart is not touched: lines added since login
// stay even if their mirror writes never landed.
func (s *Store) retryWishlistSync(ctx context.Context) error {
	return s.reconcile(ctx, false)
}

func (s *Store) reconcile(ctx context.Context, withCart bool) error {
	if !s.auth.IsAuthenticated(ctx) {
		return model.NewAuthRequiredError("sync your cart and wishlist")
	}

	s.mu.Lock()
	if s.reconciling {
		s.mu.Unlock()
		metrics.ReconcileRuns.WithLabelValues("skipped").Inc()
		return ErrSyncInFlight
	}
	s.reconciling = true
	s.loading = true
	s.machine.phase = PhaseSyncPending
	s.machine.attempted = true
	epoch := s.epoch
	// Captured before any server call so a partial failure cannot lose it.
	localWishlist := cloneOrEmpty(s.wishlist)
	s.mu.Unlock()

	err := s.syncWishlist(ctx, epoch, localWishlist)
	if withCart {
		err = errors.Join(err, s.syncCart(ctx, epoch))
	}

	s.mu.Lock()
	s.reconciling = false
	s.loading = false
	if s.epoch == epoch {
		s.lastErr = err
		if s.synced {
			s.machine.phase = PhaseSynced
		}
	}
	s.mu.Unlock()

	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		s.logger.Warn("reconciliation incomplete", "error", err, "cart", withCart)
		return err
	}
	metrics.ReconcileRuns.WithLabelValues("ok").Inc()
	return nil
}

func (s *Store) syncWishlist(ctx context.Context, epoch uint64, local []model.WishlistEntry) error {
	serverIDs, err := s.backend.GetWishlist(ctx)
	if err != nil {
		return fmt.Errorf("fetching wishlist: %w", err)
	}

	products := s.fetchProducts(ctx, serverIDs)
	serverEntries := make([]model.WishlistEntry, 0, len(serverIDs))
	for _, id := range serverIDs {
		if p, ok := products[id]; ok {
			serverEntries = append(serverEntries, model.WishlistEntryFromProduct(p, s.addedAt(local, id)))
		}
	}

	// Extras are measured against the server's id list, not the fetched
	// products: toggling an id the server already holds would remove it.
	extraIDs := reconcile.WishlistExtras(reconcile.EntryIDs(local), serverIDs)
	s.pushExtras(ctx, extraIDs)

	extras := make([]model.WishlistEntry, 0, len(extraIDs))
	resolved := s.fetchProducts(ctx, extraIDs)
	for _, id := range extraIDs {
		stale := local[indexWishlist(local, id)]
		if p, ok := resolved[id]; ok {
			extras = append(extras, model.WishlistEntryFromProduct(p, s.stamp(stale.AddedAt)))
			continue
		}
		extras = append(extras, s.fallbackEntry(stale))
	}

	merged := reconcile.MergeWishlist(serverEntries, extras)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.wishlist = merged
	s.persistWishlistLocked(ctx)
	s.synced = true
	return nil
}

// pushExtras toggles each guest-only id onto the server. Failures are
// swallowed; the entry still shows locally. Queued removals land first, since
// a toggle racing a pending DELETE for the same id would undo it.
func (s *Store) pushExtras(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.mirror.Drain(ctx); err != nil {
		s.logger.Warn("waiting for queued writes before wishlist push", "error", err)
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for _, id := range ids {
		g.Go(func() error {
			if err := s.backend.ToggleWishlist(gctx, id); err != nil {
				s.logger.Warn("pushing guest wishlist entry", "product_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Store) syncCart(ctx context.Context, epoch uint64) error {
	refs, err := s.backend.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("fetching cart: %w", err)
	}

	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ProductID)
	}
	products := s.fetchProducts(ctx, ids)

	lines := make([]model.CartLine, 0, len(refs))
	for _, r := range refs {
		qty := r.Quantity
		if qty <= 0 {
			qty = 1
		}
		if p, ok := products[r.ProductID]; ok {
			lines = append(lines, model.CartLineFromProduct(p, r.SelectedSize, qty))
			continue
		}
		lines = append(lines, model.CartLine{
			ProductID:    r.ProductID,
			SelectedSize: r.SelectedSize,
			Quantity:     qty,
			Title:        model.PlaceholderTitle,
			Image:        model.PlaceholderImage,
		})
	}
	lines = dedupeCart(lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.cart = lines
	s.persistCartLocked(ctx)
	return nil
}

// fetchProducts resolves ids in parallel. Failed lookups are absent from the
// result rather than failing the batch.
func (s *Store) fetchProducts(ctx context.Context, ids []string) map[string]*model.Product {
	var (
		mu  sync.Mutex
		out = make(map[string]*model.Product, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for _, id := range ids {
		if id == "" {
			continue
		}
		g.Go(func() error {
			p, err := s.backend.GetProduct(gctx, id)
			if err != nil {
				s.logger.Debug("product lookup failed", "product_id", id, "error", err)
				return nil
			}
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// addedAt keeps the local timestamp for an id both sides hold.
func (s *Store) addedAt(local []model.WishlistEntry, id string) time.Time {
	if i := indexWishlist(local, id); i >= 0 {
		return s.stamp(local[i].AddedAt)
	}
	return s.now()
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// fallbackEntry fills what a stale local copy lacks: placeholder strings,
// zero money.
func (s *Store) fallbackEntry(stale model.WishlistEntry) model.WishlistEntry {
	e := stale
	if e.Title == "" {
		e.Title = model.PlaceholderTitle
	}
	if e.Image == "" {
		e.Image = model.PlaceholderImage
	}
	if e.Price.Currency == "" {
		e.Price = model.NewMoney(e.Price.Amount, "")
	}
	if e.OriginalPrice.Currency == "" {
		e.OriginalPrice = model.NewMoney(e.OriginalPrice.Amount, "")
	}
	e.AddedAt = s.stamp(e.AddedAt)
	return e
}
