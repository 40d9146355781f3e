// Package reconcile provides the set logic behind guest→server merges.
// It is pure: callers fetch both sides, diff here, then issue the calls.
package reconcile

import "storefront/internal/model"

// =============================================================================
// WISHLIST
// =============================================================================

// WishlistExtras returns the local ids missing from the server wishlist, in
// local order. These are the guest choices to push after login.
func WishlistExtras(local, server []string) []string {
	serverSet := make(map[string]bool, len(server))
	for _, id := range server {
		serverSet[id] = true
	}
	var extras []string
	seen := make(map[string]bool, len(local))
	for _, id := range local {
		if id == "" || serverSet[id] || seen[id] {
			continue
		}
		seen[id] = true
		extras = append(extras, id)
	}
	return extras
}

// MergeWishlist joins server-derived entries and local extras, server first.
// An id appearing in both keeps the server copy.
func MergeWishlist(server, extras []model.WishlistEntry) []model.WishlistEntry {
	merged := make([]model.WishlistEntry, 0, len(server)+len(extras))
	seen := make(map[string]bool, len(server)+len(extras))
	for _, group := range [][]model.WishlistEntry{server, extras} {
		for _, e := range group {
			if seen[e.ProductID] {
				continue
			}
			seen[e.ProductID] = true
			merged = append(merged, e)
		}
	}
	return merged
}

// EntryIDs returns the product ids of entries, in order.
func EntryIDs(entries []model.WishlistEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	return ids
}

// =============================================================================
// CART
// =============================================================================

// CartDiff describes the calls that make the server cart match a local one.
// Apply in order: Remove → Update → Add.
type CartDiff struct {
	ToAdd    []model.CartItemRef // Lines only the local cart has
	ToRemove []model.CartItemRef // Lines only the server cart has
	ToUpdate []model.CartItemRef // Lines in both with a different quantity; Quantity is the local value
}

// IsEmpty returns true if the carts already match.
func (d *CartDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffCart computes the delta from the server cart to the desired cart.
// Lines match by (productId, selectedSize). Output follows input order.
func DiffCart(server []model.CartItemRef, desired []model.CartItemRef) *CartDiff {
	diff := &CartDiff{}

	serverByKey := make(map[string]model.CartItemRef, len(server))
	for _, item := range server {
		serverByKey[lineKey(item.ProductID, item.SelectedSize)] = item
	}
	desiredByKey := make(map[string]bool, len(desired))
	for _, item := range desired {
		key := lineKey(item.ProductID, item.SelectedSize)
		desiredByKey[key] = true
		current, exists := serverByKey[key]
		switch {
		case !exists:
			diff.ToAdd = append(diff.ToAdd, item)
		case current.Quantity != item.Quantity:
			diff.ToUpdate = append(diff.ToUpdate, item)
		}
	}

	for _, item := range server {
		if !desiredByKey[lineKey(item.ProductID, item.SelectedSize)] {
			diff.ToRemove = append(diff.ToRemove, item)
		}
	}
	return diff
}

// CartRefs strips display fields from cart lines.
func CartRefs(lines []model.CartLine) []model.CartItemRef {
	refs := make([]model.CartItemRef, len(lines))
	for i, l := range lines {
		refs[i] = model.CartItemRef{ProductID: l.ProductID, SelectedSize: l.SelectedSize, Quantity: l.Quantity}
	}
	return refs
}

// lineKey identifies a cart line. Sizes are free-form tokens, so a separator
// that cannot appear in an id keeps keys distinct.
func lineKey(productID, selectedSize string) string {
	return productID + "\x00" + selectedSize
}
