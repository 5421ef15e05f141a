package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const valkeyDialTimeout = 5 * time.Second

// ValkeyStore keeps entries in Valkey (or Redis); TTLs use server-side expiry.
type ValkeyStore struct {
	client *redis.Client
}

type ValkeyConfig struct {
	// URL (redis://[user:pass@]host:port/db) takes precedence over the
	// discrete fields.
	URL      string
	Addr     string
	Password string
	DB       int
}

func (c ValkeyConfig) options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse valkey url: %w", err)
		}
		return opts, nil
	}
	if c.Addr == "" {
		return nil, errors.New("valkey address is empty")
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

// NewValkeyStore connects and pings before returning.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = valkeyDialTimeout
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, valkeyDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping valkey at %s: %w", opts.Addr, err)
	}
	return &ValkeyStore{client: client}, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return b, nil
}

// Delete is idempotent; a missing key is not an error.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *ValkeyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *ValkeyStore) Close() error { return s.client.Close() }

var _ Store = (*ValkeyStore)(nil)
