package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File persists all keys in a single JSON document on disk, one string value
// per key, the way a browser keeps local storage. It suits the CLI and small
// single-instance servers; concurrent processes writing the same file are not
// coordinated and the last write wins.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile loads path, creating parent directories as needed. A missing or
// corrupt file starts empty.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	f := &File{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		f.data = make(map[string]string)
	}
	return f, nil
}

// Namespace returns a view whose keys are prefixed by ns. Every view writes
// through to the same document.
func (f *File) Namespace(ns string) Store {
	return &fileView{parent: f, prefix: ns + ":"}
}

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value)
	return f.flush()
}

func (f *File) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return f.flush()
}

// flush writes the document through a temp file and rename. Callers hold mu.
func (f *File) flush() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}

type fileView struct {
	parent *File
	prefix string
}

func (v *fileView) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return v.parent.Get(ctx, v.prefix+key)
}

func (v *fileView) Set(ctx context.Context, key string, value []byte) error {
	return v.parent.Set(ctx, v.prefix+key, value)
}

func (v *fileView) Remove(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = v.prefix + k
	}
	return v.parent.Remove(ctx, prefixed...)
}
