package lauth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the identity carried by an access or refresh credential.
// When obtained through FromToken the signature has NOT been checked: use it
// for display and local session decisions only. Servers must go through
// Issuer.Verify.
type Principal struct {
	UserID      int64
	Username    string
	IsLibrarian bool
	TokenType   string
	TokenID     string
	Iss         string
	Iat         int64
	Exp         int64
}

// ExpiresAt returns the expiry as a time, or the zero time when the token
// carries no exp claim.
func (p *Principal) ExpiresAt() time.Time {
	if p.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(p.Exp, 0)
}

// ParseTokenClaims extracts raw claims from a JWT without verifying its
// signature. Numeric claims come back as float64 per the jwt library.
func ParseTokenClaims(tokenStr string) (jwt.MapClaims, error) {
	var claims jwt.MapClaims
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(tokenStr, &claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func FromToken(tokenStr string) (*Principal, error) {
	claims, err := ParseTokenClaims(tokenStr)
	if err != nil {
		return nil, err
	}
	return FromMapClaims(claims)
}

// FromMapClaims maps token claims into a Principal. It tolerates both string
// and numeric forms of `id`, `iat` and `exp`.
func FromMapClaims(mc jwt.MapClaims) (*Principal, error) {
	p := &Principal{}

	if sub, ok := mc["sub"].(string); ok {
		p.Username = sub
	}

	if id, ok := mc["id"]; ok {
		switch v := id.(type) {
		case float64:
			p.UserID = int64(v)
		case int64:
			p.UserID = v
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id claim %q: %w", v, err)
			}
			p.UserID = n
		}
	}

	if lib, ok := mc["is_librarian"].(bool); ok {
		p.IsLibrarian = lib
	}
	if tt, ok := mc["token_type"].(string); ok {
		p.TokenType = tt
	}
	if jti, ok := mc["jti"].(string); ok {
		p.TokenID = jti
	}
	if iss, ok := mc["iss"].(string); ok {
		p.Iss = iss
	}

	p.Iat = numericClaim(mc["iat"])
	p.Exp = numericClaim(mc["exp"])

	return p, nil
}

func numericClaim(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// ToClaims converts a Principal into jwt.MapClaims. Empty fields are omitted.
func ToClaims(p *Principal) jwt.MapClaims {
	mc := jwt.MapClaims{}
	if p.Username != "" {
		mc["sub"] = p.Username
	}
	if p.UserID != 0 {
		mc["id"] = p.UserID
	}
	if p.IsLibrarian {
		mc["is_librarian"] = true
	}
	if p.TokenType != "" {
		mc["token_type"] = p.TokenType
	}
	if p.TokenID != "" {
		mc["jti"] = p.TokenID
	}
	if p.Iss != "" {
		mc["iss"] = p.Iss
	}
	if p.Iat != 0 {
		mc["iat"] = p.Iat
	}
	if p.Exp != 0 {
		mc["exp"] = p.Exp
	}
	return mc
}

// IsTokenExpired reports whether the token is expired or within skew of
// expiring. Tokens without an exp claim never expire. An empty token counts
// as expired.
func IsTokenExpired(token string, skew time.Duration) (bool, error) {
	if token == "" {
		return true, nil
	}
	p, err := FromToken(token)
	if err != nil {
		return true, err
	}
	if p.Exp == 0 {
		return false, nil
	}
	return !time.Now().Before(p.ExpiresAt().Add(-skew)), nil
}
