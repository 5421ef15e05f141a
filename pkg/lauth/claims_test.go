package lauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signUnverified(t *testing.T, mc jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	s, err := token.SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func TestFromTokenReadsLibraryClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := signUnverified(t, jwt.MapClaims{
		"sub":          "alice",
		"id":           42,
		"is_librarian": true,
		"token_type":   "refresh",
		"jti":          "abc",
		"exp":          exp,
	})

	p, err := FromToken(tok)
	if err != nil {
		t.Fatalf("FromToken failed: %v", err)
	}
	if p.Username != "alice" || p.UserID != 42 || !p.IsLibrarian {
		t.Errorf("unexpected principal: %+v", p)
	}
	if p.TokenType != "refresh" || p.TokenID != "abc" {
		t.Errorf("unexpected token metadata: %+v", p)
	}
	if p.Exp != exp {
		t.Errorf("Exp = %d, want %d", p.Exp, exp)
	}
}

func TestFromMapClaimsStringID(t *testing.T) {
	p, err := FromMapClaims(jwt.MapClaims{"id": "7"})
	if err != nil {
		t.Fatalf("FromMapClaims failed: %v", err)
	}
	if p.UserID != 7 {
		t.Errorf("UserID = %d, want 7", p.UserID)
	}

	if _, err := FromMapClaims(jwt.MapClaims{"id": "seven"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestToClaimsRoundTrip(t *testing.T) {
	in := &Principal{UserID: 3, Username: "bob", TokenType: "access", Exp: 100}
	out, err := FromMapClaims(ToClaims(in))
	if err != nil {
		t.Fatalf("FromMapClaims failed: %v", err)
	}
	if out.UserID != 3 || out.Username != "bob" || out.TokenType != "access" || out.Exp != 100 {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if _, ok := ToClaims(&Principal{})["is_librarian"]; ok {
		t.Error("empty principal should not carry is_librarian")
	}
}

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name string
		exp  any
		skew time.Duration
		want bool
	}{
		{"future", time.Now().Add(time.Hour).Unix(), 0, false},
		{"past", time.Now().Add(-time.Minute).Unix(), 0, true},
		{"within skew", time.Now().Add(10 * time.Second).Unix(), 30 * time.Second, true},
		{"no exp", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := jwt.MapClaims{"sub": "x"}
			if tt.exp != nil {
				mc["exp"] = tt.exp
			}
			got, err := IsTokenExpired(signUnverified(t, mc), tt.skew)
			if err != nil {
				t.Fatalf("IsTokenExpired failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsTokenExpired = %v, want %v", got, tt.want)
			}
		})
	}

	expired, err := IsTokenExpired("", 0)
	if err != nil || !expired {
		t.Errorf("empty token: expired=%v err=%v", expired, err)
	}
	if _, err := IsTokenExpired("not-a-jwt", 0); err == nil {
		t.Error("expected parse error for garbage token")
	}
}
