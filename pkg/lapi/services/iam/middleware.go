package iam

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/quatton/libra/pkg/lapi/utils"
)

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Middleware attaches the client address and, for a valid bearer
// credential, the principal. Invalid credentials fall through as anonymous;
// routes that need a principal answer 401 themselves.
func (s *IAMService) Middleware() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, _ := humachi.Unwrap(ctx)
		ctx = huma.WithValue(ctx, clientIPKey, utils.ClientIP(r.RemoteAddr))

		if token := BearerToken(r.Header.Get("Authorization")); token != "" {
			if p, err := s.auth.ValidateAccess(r.Context(), token); err == nil {
				s.log.Debug("authenticated user", "user", p.Username, "librarian", p.IsLibrarian)
				ctx = huma.WithValue(ctx, principalKey, p)
			} else {
				s.log.Warn("invalid token", "error", err)
			}
		}

		next(ctx)
	}
}
