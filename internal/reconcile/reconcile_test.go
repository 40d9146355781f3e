package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/internal/model"
)

func TestWishlistExtras(t *testing.T) {
	tests := []struct {
		name   string
		local  []string
		server []string
		want   []string
	}{
		{"guest extras", []string{"A", "B"}, []string{"B", "C"}, []string{"A"}},
		{"nothing local", nil, []string{"B"}, nil},
		{"nothing on server", []string{"A", "B"}, nil, []string{"A", "B"}},
		{"duplicates and blanks dropped", []string{"A", "", "A", "D"}, []string{"X"}, []string{"A", "D"}},
		{"all synced", []string{"A"}, []string{"A"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WishlistExtras(tt.local, tt.server))
		})
	}
}

func TestMergeWishlist_ServerFirst(t *testing.T) {
	now := time.Now()
	server := []model.WishlistEntry{
		{ProductID: "B", Title: "server B"},
		{ProductID: "C", Title: "server C"},
	}
	extras := []model.WishlistEntry{
		{ProductID: "A", Title: "local A", AddedAt: now},
		{ProductID: "B", Title: "stale local B"},
	}

	merged := MergeWishlist(server, extras)

	assert.Equal(t, []string{"B", "C", "A"}, EntryIDs(merged))
	assert.Equal(t, "server B", merged[0].Title)
	assert.Equal(t, now, merged[2].AddedAt)
}

func TestDiffCart(t *testing.T) {
	server := []model.CartItemRef{
		{ProductID: "p1", SelectedSize: "M", Quantity: 1},
		{ProductID: "p2", SelectedSize: "L", Quantity: 2},
		{ProductID: "p3", SelectedSize: "S", Quantity: 1},
	}
	desired := []model.CartItemRef{
		{ProductID: "p1", SelectedSize: "M", Quantity: 3}, // update
		{ProductID: "p2", SelectedSize: "L", Quantity: 2}, // unchanged
		{ProductID: "p1", SelectedSize: "L", Quantity: 1}, // same product, new size
	}

	diff := DiffCart(server, desired)

	assert.Equal(t, []model.CartItemRef{{ProductID: "p1", SelectedSize: "L", Quantity: 1}}, diff.ToAdd)
	assert.Equal(t, []model.CartItemRef{{ProductID: "p1", SelectedSize: "M", Quantity: 3}}, diff.ToUpdate)
	assert.Equal(t, []model.CartItemRef{{ProductID: "p3", SelectedSize: "S", Quantity: 1}}, diff.ToRemove)
	assert.False(t, diff.IsEmpty())
}

func TestDiffCart_Identical(t *testing.T) {
	refs := []model.CartItemRef{{ProductID: "p1", SelectedSize: "M", Quantity: 1}}
	assert.True(t, DiffCart(refs, refs).IsEmpty())
	assert.True(t, DiffCart(nil, nil).IsEmpty())
}

func TestDiffCart_EmptyDesiredRemovesAll(t *testing.T) {
	server := []model.CartItemRef{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 1}}
	diff := DiffCart(server, nil)
	assert.Len(t, diff.ToRemove, 2)
	assert.Empty(t, diff.ToAdd)
}

func TestCartRefs(t *testing.T) {
	lines := []model.CartLine{{ProductID: "p1", SelectedSize: "M", Quantity: 2, Title: "Kurta"}}
	assert.Equal(t, []model.CartItemRef{{ProductID: "p1", SelectedSize: "M", Quantity: 2}}, CartRefs(lines))
}
