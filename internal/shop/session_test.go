package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/storage"
)

func TestAuthMachine(t *testing.T) {
	tests := []struct {
		name      string
		steps     []bool // observed authentication values
		synced    bool
		inFlight  bool
		wantLast  transition
		wantPhase Phase
	}{
		{"unauthenticated mount", []bool{false}, false, false, transitionNone, PhaseGuest},
		{"authenticated mount syncs", []bool{true}, false, false, transitionSync, PhaseSyncPending},
		{"authenticated and synced", []bool{true, true}, true, false, transitionNone, PhaseSynced},
		{"in flight skips", []bool{true}, false, true, transitionNone, PhaseGuest},
		{"logout transition", []bool{true, false}, true, false, transitionLogout, PhaseLoggedOut},
		{"guest stays guest", []bool{false, false, false}, false, false, transitionNone, PhaseGuest},
		{"login after guest", []bool{false, true}, false, false, transitionSync, PhaseSyncPending},
		{"failed sync not rerun", []bool{true, true, true}, false, false, transitionNone, PhaseSyncPending},
		{"new login session syncs again", []bool{true, false, true}, false, false, transitionSync, PhaseSyncPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAuthMachine()
			var last transition
			for _, auth := range tt.steps {
				last = m.observe(auth, tt.synced, tt.inFlight)
			}
			assert.Equal(t, tt.wantLast, last)
			assert.Equal(t, tt.wantPhase, m.phase)
		})
	}
}

func TestObserveAuth_InitialGuestMountKeepsCart(t *testing.T) {
	local := storage.NewMemory()
	guestCart := []model.CartLine{{ProductID: "p1", SelectedSize: "M", Quantity: 2, Title: "Kurta"}}
	seed(t, local, KeyCart, guestCart)
	f := newFixture(t, &fakeAuth{}, local)
	ctx := context.Background()

	require.NoError(t, f.store.ObserveAuth(ctx, false))
	require.NoError(t, f.store.ObserveAuth(ctx, false))

	assert.Equal(t, guestCart, f.store.Cart())
	var persisted []model.CartLine
	require.True(t, storage.LoadJSON(ctx, local, KeyCart, &persisted))
	assert.Equal(t, guestCart, persisted)
	assert.Equal(t, PhaseGuest, f.store.Phase())
}

func TestObserveAuth_LogoutWipesBothCollections(t *testing.T) {
	a := product("A", "Alpha", 100)
	auth := signedIn()
	f := newFixture(t, auth, nil, a)
	ctx := context.Background()

	require.NoError(t, f.store.ObserveAuth(ctx, true))
	require.NoError(t, f.store.AddToCart(ctx, &a, 1, "M"))
	require.NoError(t, f.store.AddToWishlist(ctx, &a))
	f.drain(t)

	auth.on.Store(false)
	require.NoError(t, f.store.ObserveAuth(ctx, false))

	assert.Empty(t, f.store.Cart())
	assert.Empty(t, f.store.Wishlist())
	for _, key := range []string{KeyCart, KeyWishlist} {
		_, ok, err := f.local.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "%s removed", key)
	}
	snap := f.store.Snapshot()
	assert.False(t, snap.WishlistSynced)
	assert.Empty(t, snap.Error)
	assert.Equal(t, PhaseGuest, snap.Phase)

	// A fresh store over the same storage sees nothing either.
	again := newFixture(t, auth, f.local)
	assert.Empty(t, again.store.Cart())
	assert.Empty(t, again.store.Wishlist())
}

func TestObserveAuth_SyncsOncePerSession(t *testing.T) {
	auth := signedIn()
	f := newFixture(t, auth, nil)
	ctx := context.Background()

	require.NoError(t, f.store.ObserveAuth(ctx, true))
	require.NoError(t, f.store.ObserveAuth(ctx, true))
	require.NoError(t, f.store.ObserveAuth(ctx, true))
	assert.Equal(t, 1, f.backend.CallCount("GetWishlist"))

	// Log out and back in: a new session reconciles again.
	auth.on.Store(false)
	require.NoError(t, f.store.ObserveAuth(ctx, false))
	auth.on.Store(true)
	require.NoError(t, f.store.ObserveAuth(ctx, true))
	assert.Equal(t, 2, f.backend.CallCount("GetWishlist"))
	assert.Equal(t, PhaseSynced, f.store.Phase())
}

func TestObserveAuth_FailedSyncKeepsLaterCartLines(t *testing.T) {
	a := product("A", "Alpha", 100)
	f := newFixture(t, signedIn(), nil, a)
	f.backend.GetWishlistFunc = func(context.Context) ([]string, error) {
		return nil, model.FromStatus(502, "bad gateway", nil)
	}
	f.backend.UpdateCartItemFunc = func(context.Context, model.CartItemRef) error {
		return model.FromStatus(503, "cart down", nil)
	}
	ctx := context.Background()

	require.Error(t, f.store.ObserveAuth(ctx, true))
	require.NoError(t, f.store.AddToCart(ctx, &a, 2, "M"))
	f.drain(t)

	require.NoError(t, f.store.ObserveAuth(ctx, true))
	require.NoError(t, f.store.ObserveAuth(ctx, true))

	cart := f.store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 1, f.backend.CallCount("GetCart"))
	assert.Equal(t, 1, f.backend.CallCount("GetWishlist"))
	assert.Equal(t, PhaseSyncPending, f.store.Phase())
}

func TestEndSession_WipesWithoutPriorObservation(t *testing.T) {
	local := storage.NewMemory()
	seed(t, local, KeyCart, []model.CartLine{{ProductID: "p1", Quantity: 1}})
	f := newFixture(t, &fakeAuth{}, local)

	f.store.EndSession(context.Background())

	assert.Empty(t, f.store.Cart())
	assert.Equal(t, PhaseGuest, f.store.Phase())
}
