// Package shop is the cart and wishlist state store for one session.
//
// Local state is authoritative and persisted on every mutation, so a guest
// cart survives restarts. Once the session authenticates, the wishlist is
// merged with the server's and the cart is replaced by the server's. Cart
// writes are mirrored to the backend in the background.
package shop

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// Local storage keys for the two collections.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
)

// ErrSyncInFlight is returned by Sync when another reconciliation is running.
var ErrSyncInFlight = errors.New("reconciliation already in progress")

// AuthGate reports whether the session currently holds credentials.
// credentials.Store implements it.
type AuthGate interface {
	IsAuthenticated(ctx context.Context) bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; session attributes belong on it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now for addedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMirror supplies the background writer. Without it the store starts its
// own with DefaultMirrorConfig, and Close stops it.
func WithMirror(m *Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithFetchLimit caps parallel product fetches during reconciliation.
func WithFetchLimit(n int) Option {
	return func(s *Store) { s.fetchLimit = n }
}

// Store holds one session's cart and wishlist.
type Store struct {
	backend    adapter.ShopBackend
	auth       AuthGate
	local      storage.Store
	logger     *slog.Logger
	now        func() time.Time
	mirror     *Mirror
	ownMirror  bool
	fetchLimit int

	mu          sync.Mutex
	cart        []model.CartLine
	wishlist    []model.WishlistEntry
	loading     bool
	lastErr     error
	machine     authMachine
	synced      bool
	reconciling bool
	epoch       uint64 // bumped on every wipe; stale reconciliations discard their result

	normalizeOnce sync.Once
}

// New builds a store and seeds both collections from local storage. Absent or
// unparsable keys seed empty collections.
func New(ctx context.Context, backend adapter.ShopBackend, auth AuthGate, local storage.Store, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		auth:       auth,
		local:      local,
		logger:     slog.Default(),
		now:        time.Now,
		fetchLimit: 8,
		machine:    newAuthMachine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mirror == nil {
		s.mirror = NewMirror(DefaultMirrorConfig(), s.logger)
		s.ownMirror = true
	}

	if !storage.LoadJSON(ctx, local, KeyCart, &s.cart) {
		s.cart = nil
	}
	if !storage.LoadJSON(ctx, local, KeyWishlist, &s.wishlist) {
		s.wishlist = nil
	}
	s.cart = dedupeCart(s.cart)
	s.wishlist = dedupeWishlist(s.wishlist)
	return s
}

// Close stops the store's own mirror after draining it for up to the ctx
// deadline. A shared mirror passed with WithMirror is left running.
func (s *Store) Close(ctx context.Context) error {
	if !s.ownMirror {
		return nil
	}
	err := s.mirror.Drain(ctx)
	s.mirror.Close()
	return err
}

// Drain waits for queued backend writes.
func (s *Store) Drain(ctx context.Context) error {
	return s.mirror.Drain(ctx)
}

// ObserveAuth feeds the current authentication value into the lifecycle. Call
// it on every render: each request, each CLI start, after login and logout.
//
// A transition from authenticated to unauthenticated wipes both collections.
// Authenticated and not yet synced starts a reconciliation in the caller's
// goroutine and returns its error.
func (s *Store) ObserveAuth(ctx context.Context, authenticated bool) error {
	s.mu.Lock()
	t := s.machine.observe(authenticated, s.synced, s.reconciling)
	s.mu.Unlock()

	switch t {
	case transitionLogout:
		s.logger.Info("session signed out, clearing cart and wishlist")
		s.wipe(ctx)
	case transitionSync:
		err := s.Sync(ctx)
		if errors.Is(err, ErrSyncInFlight) {
			return nil
		}
		return err
	}
	return nil
}

// EndSession wipes both collections regardless of observed state. Used for
// an explicit logout when no authenticated render preceded it.
func (s *Store) EndSession(ctx context.Context) {
	s.mu.Lock()
	s.machine.forceLogout()
	s.mu.Unlock()
	s.wipe(ctx)
}

// wipe empties both collections and their keys, resets the synced flag and
// the error slot, then settles in Guest.
func (s *Store) wipe(ctx context.Context) {
	s.mu.Lock()
	s.cart = nil
	s.wishlist = nil
	s.synced = false
	s.lastErr = nil
	s.epoch++
	s.machine.settle()
	s.mu.Unlock()

	if err := s.local.Remove(ctx, KeyCart, KeyWishlist); err != nil {
		s.logger.Warn("clearing local cart and wishlist", "error", err)
	}
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Cart           []model.CartLine      `json:"cart"`
	Wishlist       []model.WishlistEntry `json:"wishlist"`
	Loading        bool                  `json:"loading"`
	Error          string                `json:"error,omitempty"`
	Phase          Phase                 `json:"phase"`
	WishlistSynced bool                  `json:"wishlist_synced"`
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Cart:           cloneOrEmpty(s.cart),
		Wishlist:       cloneOrEmpty(s.wishlist),
		Loading:        s.loading,
		Phase:          s.machine.phase,
		WishlistSynced: s.synced,
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Cart returns a copy of the cart lines.
func (s *Store) Cart() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.cart)
}

// Wishlist returns a copy of the wishlist entries.
func (s *Store) Wishlist() []model.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.wishlist)
}

// InWishlist reports whether productID is in the wishlist.
func (s *Store) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexWishlist(s.wishlist, productID) >= 0
}

// Phase returns the lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.phase
}

// persistCartLocked writes the cart. Storage failures are logged; local
// memory stays authoritative. Caller holds s.mu.
func (s *Store) persistCartLocked(ctx context.Context) {
	if err := storage.SaveJSON(ctx, s.local, KeyCart, cloneOrEmpty(s.cart)); err != nil {
		s.logger.Warn("persisting cart", "error", err)
	}
}

// persistWishlistLocked writes the wishlist. Caller holds s.mu.
func (s *Store) persistWishlistLocked(ctx context.Context) {
	if err := storage.SaveJSON(ctx, s.local, KeyWishlist, cloneOrEmpty(s.wishlist)); err != nil {
		s.logger.Warn("persisting wishlist", "error", err)
	}
}

// cloneOrEmpty copies a slice, returning an empty (non-nil) slice for nil so
// it encodes as [].
func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

func indexCart(lines []model.CartLine, productID, size string) int {
	return slices.IndexFunc(lines, func(l model.CartLine) bool {
		return l.ProductID == productID && l.SelectedSize == size
	})
}

func indexWishlist(entries []model.WishlistEntry, productID string) int {
	return slices.IndexFunc(entries, func(e model.WishlistEntry) bool {
		return e.ProductID == productID
	})
}

// dedupeCart folds duplicate (product, size) lines left by older clients
// into the first occurrence.
func dedupeCart(lines []model.CartLine) []model.CartLine {
	out := lines[:0:0]
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		if i := indexCart(out, l.ProductID, l.SelectedSize); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

func dedupeWishlist(entries []model.WishlistEntry) []model.WishlistEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.ProductID == "" || indexWishlist(out, e.ProductID) >= 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}
