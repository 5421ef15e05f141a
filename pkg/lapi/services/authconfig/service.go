package authconfig

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lapi/metrics"
	"github.com/quatton/libra/pkg/lauth"
	"github.com/quatton/libra/pkg/llog"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Key prefixes for the revocation list
	kvPrefixToken = "bl_"
	kvPrefixUser  = "bl_user_"

	dateLayout = "2006-01-02"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevoked            = errors.New("token has been revoked")
)

// AuthService owns password checks, credential issuance and the revocation
// list kept in the kv store.
type AuthService struct {
	cfg        *config.EnvConfig
	issuer     *lauth.Issuer
	users      db.Repository[models.User]
	kv         kv.Store
	limiter    *LimiterRegistry
	metrics    *metrics.Metrics
	log        *llog.Logger
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(cfg *config.EnvConfig, users db.Repository[models.User], kvStore kv.Store, m *metrics.Metrics) *AuthService {
	return &AuthService{
		cfg:        cfg,
		issuer:     lauth.NewIssuer(cfg.AuthSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		users:      users,
		kv:         kvStore,
		limiter:    NewLimiterRegistry(cfg.LoginRatePerMinute, cfg.LoginBurst),
		metrics:    m,
		log:        llog.NewDefault().With("component", "auth"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// SetBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func (s *AuthService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

func (s *AuthService) AccessTokenTTL() int {
	return s.cfg.AccessTokenTTL
}

// Ready probes the user table and the revocation store, keyed by name.
func (s *AuthService) Ready(ctx context.Context) map[string]error {
	_, dbErr := s.users.List(ctx, db.Page{Number: 1, Size: 1}, db.Filter{})
	_, kvErr := s.kv.Get(ctx, kvPrefixToken+"probe")
	if errors.Is(kvErr, kv.ErrNotFound) {
		kvErr = nil
	}
	return map[string]error{"database": dbErr, "store": kvErr}
}

// AllowLogin consumes one token from the client's login bucket.
func (s *AuthService) AllowLogin(clientKey string) bool {
	if s.limiter.Allow(clientKey) {
		return true
	}
	s.metrics.ObserveLogin(metrics.ResultThrottled)
	return false
}

func (s *AuthService) RetryAfter() time.Duration {
	return s.limiter.RetryAfter()
}

func identity(u *models.User) lauth.Identity {
	return lauth.Identity{UserID: u.ID, Username: u.Username, IsLibrarian: u.IsLibrarian}
}

// Login checks the password and mints a credential pair. Unknown users,
// wrong passwords and deactivated accounts are indistinguishable.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *lauth.Pair, error) {
	var f db.Filter
	u, err := s.users.FindOne(ctx, *f.SetEq("username", username))
	if errors.Is(err, db.ErrNotFound) {
		s.metrics.ObserveLogin(metrics.ResultFailure)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		s.metrics.ObserveLogin(metrics.ResultFailure)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(identity(u))
	if err != nil {
		return nil, nil, fmt.Errorf("issue credentials: %w", err)
	}
	s.metrics.ObserveLogin(metrics.ResultSuccess)
	s.log.Debug("login", "user", u.Username)
	return u, pair, nil
}

// Register creates an account. The caller decides whether it is a
// librarian.
func (s *AuthService) Register(ctx context.Context, u *models.User, password string, librarian bool) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.ID = 0
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.PasswordHash = hash
	u.IsLibrarian = librarian
	u.IsActive = true
	u.DateOfJoining = s.now().UTC().Format(dateLayout)

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return apierr.Conflict("user with this username or email already exists")
		}
		return err
	}
	s.log.Info("user registered", "user", u.Username, "librarian", librarian)
	return nil
}

// IssueFor mints a pair for a freshly registered user.
func (s *AuthService) IssueFor(u *models.User) (*lauth.Pair, error) {
	return s.issuer.IssuePair(identity(u))
}

// Refresh exchanges a refresh credential for a new access credential. The
// refresh credential itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	p, err := s.issuer.Verify(refreshToken, lauth.KindRefresh)
	if err != nil {
		s.metrics.ObserveRefresh(metrics.ResultFailure)
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := s.checkRevoked(ctx, p); err != nil {
		s.metrics.ObserveRefresh(metrics.ResultFailure)
		return "", err
	}

	u, err := s.users.Get(ctx, p.UserID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !u.IsActive) {
		s.metrics.ObserveRefresh(metrics.ResultFailure)
		return "", fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
	}
	if err != nil {
		return "", err
	}

	access, err := s.issuer.IssueAccess(identity(u))
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	s.metrics.ObserveRefresh(metrics.ResultSuccess)
	return access, nil
}

// ValidateAccess verifies an access credential and checks it against the
// revocation list.
func (s *AuthService) ValidateAccess(ctx context.Context, token string) (*lauth.Principal, error) {
	p, err := s.issuer.Verify(token, lauth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := s.checkRevoked(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Logout revokes the refresh credential and, when it still verifies, the
// access credential presented with it.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	p, err := s.issuer.Verify(refreshToken, lauth.KindRefresh)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := s.revoke(ctx, p); err != nil {
		return err
	}

	if accessToken != "" {
		if ap, err := s.issuer.Verify(accessToken, lauth.KindAccess); err == nil && ap.UserID == p.UserID {
			if err := s.revoke(ctx, ap); err != nil {
				return err
			}
		}
	}
	s.log.Debug("logout", "user", p.Username)
	return nil
}

// RevokeUser invalidates every credential issued to the user so far.
func (s *AuthService) RevokeUser(ctx context.Context, userID int64) error {
	key := kvPrefixUser + strconv.FormatInt(userID, 10)
	at := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.kv.Set(ctx, key, []byte(at), s.cfg.RefreshTTL()); err != nil {
		return fmt.Errorf("revoke user %d: %w", userID, err)
	}
	s.metrics.ObserveRevocation()
	return nil
}

func (s *AuthService) revoke(ctx context.Context, p *lauth.Principal) error {
	ttl := time.Until(p.ExpiresAt())
	if p.TokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, kvPrefixToken+p.TokenID, []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.metrics.ObserveRevocation()
	return nil
}

func (s *AuthService) checkRevoked(ctx context.Context, p *lauth.Principal) error {
	if p.TokenID != "" {
		_, err := s.kv.Get(ctx, kvPrefixToken+p.TokenID)
		switch {
		case err == nil:
			return ErrRevoked
		case !errors.Is(err, kv.ErrNotFound):
			return fmt.Errorf("check revocation: %w", err)
		}
	}

	raw, err := s.kv.Get(ctx, kvPrefixUser+strconv.FormatInt(p.UserID, 10))
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || p.Iat <= revokedAt {
		return ErrRevoked
	}
	return nil
}

// Bootstrap creates the configured librarian account unless the username is
// already taken.
func (s *AuthService) Bootstrap(ctx context.Context) error {
	name := s.cfg.BootstrapLibrarianUsername
	if name == "" {
		return nil
	}
	var f db.Filter
	_, err := s.users.FindOne(ctx, *f.SetEq("username", name))
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	u := &models.User{
		Username:  name,
		Email:     s.cfg.BootstrapLibrarianEmail,
		FirstName: name,
		LastName:  "librarian",
	}
	if err := s.Register(ctx, u, s.cfg.BootstrapLibrarianPassword, true); err != nil {
		return fmt.Errorf("bootstrap librarian: %w", err)
	}
	return nil
}
