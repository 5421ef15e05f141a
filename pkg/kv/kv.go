// Package kv provides a key-value store abstraction used for both client-side
// session persistence and the server-side credential blacklist. Backends can be
// swapped (OS keyring, badger, Valkey/Redis, in-memory) without changing callers.
package kv

import (
	"context"
	"strings"
	"time"
)

// Store defines a minimal key-value interface. Keys are strings, values are
// byte slices. All write operations accept a TTL; 0 means no expiry.
type Store interface {
	// Set stores a value with the given key and TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns nil if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// SetNX sets a value only if the key doesn't exist.
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Close releases the backend.
	Close() error
}

// NormalizeNamespace converts a base URL into a stable namespace so that
// https://Example.com/ and https://example.com share stored entries.
func NormalizeNamespace(baseURL string) string {
	s := strings.TrimSpace(baseURL)
	s = strings.TrimRight(s, "/")
	return strings.ToLower(s)
}

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix scopes every key of s under prefix. Close is forwarded.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + "/"}
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.inner.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.inner.SetNX(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Close() error { return p.inner.Close() }
