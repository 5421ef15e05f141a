package lsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lauth"
)

// Keys under which the session is persisted.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	ProfileKey      = "user_profile"
)

var errSessionChanged = errors.New("session changed during refresh")

// Tokens is a point-in-time copy of the session credentials.
type Tokens struct {
	Access  string
	Refresh string
}

// Session owns the current credential pair. Every outgoing request reads a
// snapshot, so a request in flight is never retroactively updated.
type Session struct {
	mu      sync.RWMutex
	store   kv.Store
	access  string
	refresh string
	profile *UserProfile
}

func newSession(store kv.Store) *Session {
	return &Session{store: store}
}

// Restore loads persisted credentials. Missing keys leave the session empty.
func (s *Session) Restore(ctx context.Context) error {
	access, err := s.load(ctx, AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, err := s.load(ctx, RefreshTokenKey)
	if err != nil {
		return err
	}
	raw, err := s.load(ctx, ProfileKey)
	if err != nil {
		return err
	}

	var profile *UserProfile
	if raw != "" {
		profile = &UserProfile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			profile = nil
		}
	}

	s.mu.Lock()
	s.access, s.refresh, s.profile = access, refresh, profile
	s.mu.Unlock()
	return nil
}

func (s *Session) load(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return string(v), nil
}

func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Tokens{Access: s.access, Refresh: s.refresh}
}

// Active reports whether an access credential is current.
func (s *Session) Active() bool {
	return s.Tokens().Access != ""
}

func (s *Session) Profile() *UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Principal decodes the current access credential without verifying it.
func (s *Session) Principal() (*lauth.Principal, error) {
	access := s.Tokens().Access
	if access == "" {
		return nil, errors.New("no active session")
	}
	return lauth.FromToken(access)
}

// establish makes a new pair current and persists it with the profile.
func (s *Session) establish(ctx context.Context, access, refresh string, profile *UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access, s.refresh = access, refresh
	if profile != nil {
		p := *profile
		s.profile = &p
	} else {
		s.profile = nil
	}

	if err := s.store.Set(ctx, AccessTokenKey, []byte(access), 0); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if err := s.store.Set(ctx, RefreshTokenKey, []byte(refresh), 0); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	if profile == nil {
		return s.store.Delete(ctx, ProfileKey)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, ProfileKey, raw, 0); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// replaceAccess installs a refreshed access credential, as long as the
// refresh credential it was obtained with is still the current one.
func (s *Session) replaceAccess(ctx context.Context, usedRefresh, access, rotated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh != usedRefresh {
		return errSessionChanged
	}
	s.access = access
	if err := s.store.Set(ctx, AccessTokenKey, []byte(access), 0); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if rotated != "" && rotated != s.refresh {
		s.refresh = rotated
		if err := s.store.Set(ctx, RefreshTokenKey, []byte(rotated), 0); err != nil {
			return fmt.Errorf("saving refresh token: %w", err)
		}
	}
	return nil
}

// clear drops both credentials and the profile. Memory is cleared even
// when the store fails.
func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access, s.refresh, s.profile = "", "", nil

	var errs []error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey, ProfileKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
