package kv

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendBadger  = "badger"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend   string
	Path      string // badger directory
	Service   string // keyring service name
	Valkey    ValkeyConfig
	Namespace string // usually the normalized base URL
}

// Open builds the configured backend and scopes it to Namespace.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case "", BackendKeyring:
		s = NewKeyringStore(opts.Service)
	case BackendBadger:
		s, err = NewBadgerStore(opts.Path)
	case BackendRedis:
		s, err = NewValkeyStore(ctx, opts.Valkey)
	case BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	return WithPrefix(s, opts.Namespace), nil
}
