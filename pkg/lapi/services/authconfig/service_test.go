package authconfig

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lapi/metrics"
	"golang.org/x/crypto/bcrypt"
)

const goodPassword = "Secr3t!pass"

func testConfig() *config.EnvConfig {
	return &config.EnvConfig{
		AuthSecret:         strings.Repeat("k", 32),
		AccessTokenTTL:     60,
		RefreshTokenTTL:    3600,
		LoginRatePerMinute: 60,
		LoginBurst:         2,
	}
}

func newTestService(t *testing.T) (*AuthService, *miniredis.Miniredis, db.Repository[models.User]) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := kv.NewValkeyStore(context.Background(), kv.ValkeyConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewValkeyStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	users := db.NewMemoryRepos().Users
	svc := NewAuthService(testConfig(), users, store, metrics.New())
	svc.SetBcryptCost(bcrypt.MinCost)
	return svc, mr, users
}

func register(t *testing.T, svc *AuthService, username string, librarian bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", FirstName: "A", LastName: "B"}
	if err := svc.Register(context.Background(), u, goodPassword, librarian); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "alice", false)

	if u.ID == 0 || !u.IsActive || u.IsLibrarian {
		t.Fatalf("unexpected user after register: %+v", u)
	}
	if u.DateOfJoining == "" {
		t.Error("DateOfJoining not set")
	}
	if u.PasswordHash == goodPassword || !CheckPassword(u.PasswordHash, goodPassword) {
		t.Error("password not stored as a bcrypt hash")
	}

	got, pair, err := svc.Login(ctx, "alice", goodPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login returned %+v %+v", got, pair)
	}

	p, err := svc.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if p.UserID != u.ID || p.Username != "alice" {
		t.Errorf("principal = %+v", p)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, users := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "bob", false)

	if _, _, err := svc.Login(ctx, "bob", "Wrong!pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", goodPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}

	u.IsActive = false
	if err := users.Update(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "bob", goodPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("inactive user: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	weak := &models.User{Username: "weak", Email: "weak@example.com"}
	err := svc.Register(ctx, weak, "password", false)
	var verr *apierr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("weak password: err = %v, want ValidationError", err)
	}

	register(t, svc, "carol", false)
	dup := &models.User{Username: "carol", Email: "other@example.com"}
	if err := svc.Register(ctx, dup, goodPassword, false); !errors.Is(err, db.ErrConflict) {
		t.Errorf("duplicate username: err = %v, want conflict", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _, users := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "dave", false)
	_, pair, err := svc.Login(ctx, "dave", goodPassword)
	if err != nil {
		t.Fatal(err)
	}

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := svc.ValidateAccess(ctx, access); err != nil {
		t.Errorf("refreshed access token rejected: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token used as refresh: err = %v", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage refresh: err = %v", err)
	}

	u.IsActive = false
	if err := users.Update(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("inactive user refresh: err = %v", err)
	}
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "erin", false)
	_, pair, err := svc.Login(ctx, "erin", goodPassword)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken, pair.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Errorf("refresh after logout: err = %v, want ErrRevoked", err)
	}
	if _, err := svc.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrRevoked) {
		t.Errorf("access after logout: err = %v, want ErrRevoked", err)
	}

	keys := mr.Keys()
	if len(keys) != 2 {
		t.Fatalf("revocation keys = %v, want 2", keys)
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, kvPrefixToken) {
			t.Errorf("unexpected key %q", k)
		}
		if ttl := mr.TTL(k); ttl <= 0 || ttl > time.Hour {
			t.Errorf("key %q ttl = %v", k, ttl)
		}
	}

	// entries expire with the credentials they revoke
	mr.FastForward(2 * time.Hour)
	if len(mr.Keys()) != 0 {
		t.Errorf("keys after expiry = %v", mr.Keys())
	}
}

func TestRevokeUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "frank", false)
	_, pair, err := svc.Login(ctx, "frank", goodPassword)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.RevokeUser(ctx, u.ID); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	if _, err := svc.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrRevoked) {
		t.Errorf("access after RevokeUser: err = %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Errorf("refresh after RevokeUser: err = %v", err)
	}

	// credentials issued after the revocation are unaffected
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	if err := svc.RevokeUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Errorf("token newer than revocation rejected: %v", err)
	}
}

func TestAllowLogin(t *testing.T) {
	svc, _, _ := newTestService(t)

	if !svc.AllowLogin("10.0.0.1") || !svc.AllowLogin("10.0.0.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if svc.AllowLogin("10.0.0.1") {
		t.Error("third attempt should be throttled")
	}
	if !svc.AllowLogin("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
	if got := svc.RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter = %v, want 1s at 60/min", got)
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	r := NewLimiterRegistry(0, 5)
	if r != nil {
		t.Fatal("expected nil registry")
	}
	for i := 0; i < 100; i++ {
		if !r.Allow("x") {
			t.Fatal("nil registry throttled")
		}
	}
	if r.RetryAfter() != 0 {
		t.Error("nil registry RetryAfter should be 0")
	}
}

func TestBootstrap(t *testing.T) {
	svc, _, users := newTestService(t)
	ctx := context.Background()
	svc.cfg.BootstrapLibrarianUsername = "admin"
	svc.cfg.BootstrapLibrarianPassword = goodPassword
	svc.cfg.BootstrapLibrarianEmail = "admin@example.com"

	for i := 0; i < 2; i++ {
		if err := svc.Bootstrap(ctx); err != nil {
			t.Fatalf("Bootstrap #%d: %v", i+1, err)
		}
	}

	all, err := users.List(ctx, db.Page{Number: 1, Size: 10}, db.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].IsLibrarian {
		t.Fatalf("users after bootstrap = %+v", all)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw string
		ok bool
	}{
		{"Secr3t!pass", true},
		{"Sh0rt!", false},
		{"alllower1!", false},
		{"ALLUPPER1!", false},
		{"NoDigits!!", false},
		{"NoSymbol11", false},
	}
	for _, tt := range tests {
		if err := ValidatePassword(tt.pw); (err == nil) != tt.ok {
			t.Errorf("ValidatePassword(%q) = %v, want ok=%v", tt.pw, err, tt.ok)
		}
	}
}

func TestReady(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	for name, err := range svc.Ready(ctx) {
		if err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	mr.Close()
	got := svc.Ready(ctx)
	if got["store"] == nil {
		t.Error("store check should fail with redis down")
	}
	if got["database"] != nil {
		t.Errorf("database: %v", got["database"])
	}
}
