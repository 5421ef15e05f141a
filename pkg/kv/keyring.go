package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "libra"

// KeyringStore keeps values in the OS keyring. The keyring has no native
// expiry, so each value is stored with its deadline and expired entries are
// treated as absent on read.
type KeyringStore struct {
	service string
	mu      sync.Mutex
	now     func() time.Time
}

type keyringEntry struct {
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"e,omitempty"`
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service, now: time.Now}
}

func (s *KeyringStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, value, ttl)
}

func (s *KeyringStore) set(key string, value []byte, ttl time.Duration) error {
	entry := keyringEntry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl).UnixNano()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return keyring.Set(s.service, key, string(raw))
}

func (s *KeyringStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

func (s *KeyringStore) get(key string) ([]byte, error) {
	raw, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var entry keyringEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// written by something other than this store; hand it back as is
		return []byte(raw), nil
	}
	if entry.ExpiresAt != 0 && s.now().UnixNano() >= entry.ExpiresAt {
		_ = keyring.Delete(s.service, key)
		return nil, ErrNotFound
	}
	return entry.Value, nil
}

func (s *KeyringStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := keyring.Delete(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// SetNX is atomic only within this process.
func (s *KeyringStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(key); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	return true, s.set(key, value, ttl)
}

func (s *KeyringStore) Close() error { return nil }

var _ Store = (*KeyringStore)(nil)
