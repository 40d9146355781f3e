package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/storage"
)

func TestSync_MergesGuestWishlist(t *testing.T) {
	a, b, c := product("A", "Alpha", 100), product("B", "Beta", 200), product("C", "Gamma", 300)
	local := storage.NewMemory()
	seed(t, local, KeyWishlist, []model.WishlistEntry{
		model.WishlistEntryFromProduct(&a, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		{ProductID: "B", Title: "stale B"},
	})
	f := newFixture(t, signedIn(), local, a, b, c)
	f.backend.SetWishlist("B", "C")

	require.NoError(t, f.store.Sync(context.Background()))

	wishlist := f.store.Wishlist()
	assert.Equal(t, []string{"B", "C", "A"}, entryIDs(wishlist))
	assert.Equal(t, "Beta", wishlist[0].Title, "server copy wins")
	assert.Equal(t, 1, f.backend.CallCount("ToggleWishlist:A"), "the guest extra is pushed")
	assert.Zero(t, f.backend.CallCount("ToggleWishlist:B"))
	assert.ElementsMatch(t, []string{"A", "B", "C"}, f.backend.ServerWishlist())

	snap := f.store.Snapshot()
	assert.True(t, snap.WishlistSynced)
	assert.Equal(t, PhaseSynced, snap.Phase)
	assert.Empty(t, snap.Error)

	var persisted []model.WishlistEntry
	require.True(t, storage.LoadJSON(context.Background(), local, KeyWishlist, &persisted))
	assert.Equal(t, []string{"B", "C", "A"}, entryIDs(persisted))
}

func TestSync_ExtraKeptWhenPushFails(t *testing.T) {
	a := product("A", "Alpha", 100)
	local := storage.NewMemory()
	seed(t, local, KeyWishlist, []model.WishlistEntry{{ProductID: "A", Title: "Alpha"}})
	f := newFixture(t, signedIn(), local, a)
	f.backend.ToggleWishlistFunc = func(context.Context, string) error { return errors.New("offline") }

	require.NoError(t, f.store.Sync(context.Background()))

	assert.Equal(t, []string{"A"}, entryIDs(f.store.Wishlist()))
}

func TestSync_TolerantOfProductFailures(t *testing.T) {
	b := product("B", "Beta", 200)
	local := storage.NewMemory()
	seed(t, local, KeyWishlist, []model.WishlistEntry{{ProductID: "GONE", Price: model.MoneyFromInt(40)}})
	f := newFixture(t, signedIn(), local, b)
	f.backend.SetWishlist("B", "MISSING")

	require.NoError(t, f.store.Sync(context.Background()))

	wishlist := f.store.Wishlist()
	require.Equal(t, []string{"B", "GONE"}, entryIDs(wishlist), "unresolvable server ids are dropped")
	gone := wishlist[1]
	assert.Equal(t, model.PlaceholderTitle, gone.Title)
	assert.Equal(t, model.PlaceholderImage, gone.Image)
	assert.Equal(t, int64(40), gone.Price.Amount.IntPart(), "stale fields survive")
	assert.False(t, gone.AddedAt.IsZero())
}

func TestSync_ReplacesCartWithServerCart(t *testing.T) {
	a, b := product("A", "Alpha", 100), product("B", "Beta", 200)
	local := storage.NewMemory()
	seed(t, local, KeyCart, []model.CartLine{{ProductID: "GUEST", SelectedSize: "M", Quantity: 4}})
	f := newFixture(t, signedIn(), local, a, b)
	f.backend.SetCart(
		model.CartItemRef{ProductID: "A", SelectedSize: "M", Quantity: 2},
		model.CartItemRef{ProductID: "UNKNOWN", SelectedSize: "L", Quantity: 1},
	)

	require.NoError(t, f.store.Sync(context.Background()))

	cart := f.store.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "A", cart[0].ProductID)
	assert.Equal(t, "Alpha", cart[0].Title)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, "UNKNOWN", cart[1].ProductID)
	assert.Equal(t, model.PlaceholderTitle, cart[1].Title)
	assert.Zero(t, f.backend.CallCount("AddCartItem"), "guest lines are not pushed")
}

func TestSync_CartFailureStillMarksWishlistSynced(t *testing.T) {
	f := newFixture(t, signedIn(), nil)
	f.backend.GetCartFunc = func(context.Context) ([]model.CartItemRef, error) {
		return nil, model.FromStatus(500, "cart down", nil)
	}

	err := f.store.Sync(context.Background())

	require.Error(t, err)
	snap := f.store.Snapshot()
	assert.True(t, snap.WishlistSynced)
	assert.Contains(t, snap.Error, "cart down")
}

func TestSync_WishlistFailureLeavesUnsynced(t *testing.T) {
	f := newFixture(t, signedIn(), nil)
	f.backend.GetWishlistFunc = func(context.Context) ([]string, error) {
		return nil, model.FromStatus(502, "bad gateway", nil)
	}

	require.Error(t, f.store.Sync(context.Background()))
	assert.False(t, f.store.Snapshot().WishlistSynced)
	assert.Equal(t, PhaseSyncPending, f.store.Phase())
}

func TestSync_InFlightCallerSkips(t *testing.T) {
	f := newFixture(t, signedIn(), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	f.backend.GetWishlistFunc = func(context.Context) ([]string, error) {
		close(started)
		<-release
		return nil, nil
	}

	first := make(chan error, 1)
	go func() { first <- f.store.Sync(context.Background()) }()
	<-started

	assert.True(t, f.store.Snapshot().Loading)
	assert.ErrorIs(t, f.store.Sync(context.Background()), ErrSyncInFlight)
	// An observation during the run must not start another one.
	assert.NoError(t, f.store.ObserveAuth(context.Background(), true))

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, 1, f.backend.CallCount("GetWishlist"))
	assert.False(t, f.store.Snapshot().Loading)
}

func TestSync_RequiresAuth(t *testing.T) {
	f := newFixture(t, &fakeAuth{}, nil)
	assert.ErrorIs(t, f.store.Sync(context.Background()), model.ErrAuthRequired)
	assert.Empty(t, f.backend.Calls())
}

func TestSync_LogoutDuringRunDiscardsResult(t *testing.T) {
	a := product("A", "Alpha", 100)
	auth := signedIn()
	f := newFixture(t, auth, nil, a)
	f.backend.SetWishlist("A")
	started := make(chan struct{})
	release := make(chan struct{})
	f.backend.GetWishlistFunc = func(context.Context) ([]string, error) {
		close(started)
		<-release
		return []string{"A"}, nil
	}

	require.NoError(t, f.store.ObserveAuth(context.Background(), false))
	done := make(chan error, 1)
	go func() { done <- f.store.ObserveAuth(context.Background(), true) }()
	<-started

	auth.on.Store(false)
	require.NoError(t, f.store.ObserveAuth(context.Background(), false))
	close(release)
	<-done

	assert.Empty(t, f.store.Wishlist())
	assert.False(t, f.store.Snapshot().WishlistSynced)
	assert.Equal(t, PhaseGuest, f.store.Phase())
}
