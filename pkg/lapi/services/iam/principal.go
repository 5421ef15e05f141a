package iam

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/lauth"
)

type ctxKey string

const (
	principalKey ctxKey = "libra.principal"
	clientIPKey  ctxKey = "libra.client_ip"
)

func (s *IAMService) Principal(ctx context.Context) (*lauth.Principal, bool) {
	if v := ctx.Value(principalKey); v != nil {
		if p, ok := v.(*lauth.Principal); ok {
			return p, true
		}
	}
	return nil, false
}

func (s *IAMService) Get(ctx context.Context) (*lauth.Principal, error) {
	if p, ok := s.Principal(ctx); ok && p != nil {
		return p, nil
	}
	return nil, nil
}

// Require answers 401 for anonymous callers.
func (s *IAMService) Require(ctx context.Context) (*lauth.Principal, error) {
	p, _ := s.Get(ctx)
	if p == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return p, nil
}

// RequireLibrarian answers 401 for anonymous callers and 403 for readers.
func (s *IAMService) RequireLibrarian(ctx context.Context) (*lauth.Principal, error) {
	p, err := s.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsLibrarian {
		return nil, huma.Error403Forbidden("librarian role required")
	}
	return p, nil
}

// RequireSelfOrLibrarian lets users act on their own records.
func (s *IAMService) RequireSelfOrLibrarian(ctx context.Context, userID int64) (*lauth.Principal, error) {
	p, err := s.Require(ctx)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !p.IsLibrarian {
		return nil, huma.Error403Forbidden("not allowed to access another user's records")
	}
	return p, nil
}

// ClientIP is the caller's address as seen by the middleware.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok {
		return v
	}
	return ""
}
