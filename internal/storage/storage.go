// Package storage provides the synchronous key/value store that stands in for
// browser local storage. Every session owns one namespace; values are raw
// bytes (JSON documents in practice) and missing keys are not an error.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is a namespaced key/value store.
type Store interface {
	// Get returns the value for key, or ok=false when absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
}

// ErrClosed is returned by stores that have been shut down.
var ErrClosed = errors.New("storage closed")

// LoadJSON decodes key into v. Absent or unparsable values leave v untouched
// and report false, so callers can fall back to an empty collection.
func LoadJSON(ctx context.Context, s Store, key string, v any) bool {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SaveJSON encodes v under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// Namespacer hands out per-session views of one backing store.
type Namespacer interface {
	Namespace(ns string) Store
}
