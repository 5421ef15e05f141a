package lauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access from refresh credentials. It is carried in
// the token_type claim so one cannot be presented in place of the other.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"

	issuerName = "libra"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Identity is what the server knows about a user when minting credentials.
type Identity struct {
	UserID      int64
	Username    string
	IsLibrarian bool
}

// Pair is a freshly minted access/refresh credential pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type tokenClaims struct {
	UserID      int64  `json:"id"`
	IsLibrarian bool   `json:"is_librarian"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 credentials.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair mints both credentials for the identity.
func (i *Issuer) IssuePair(id Identity) (*Pair, error) {
	access, err := i.issue(id, KindAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.issue(id, KindRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(i.accessTTL / time.Second),
	}, nil
}

// IssueAccess mints a single access credential, used by the refresh exchange.
func (i *Issuer) IssueAccess(id Identity) (string, error) {
	return i.issue(id, KindAccess, i.accessTTL)
}

func (i *Issuer) issue(id Identity, kind TokenKind, ttl time.Duration) (string, error) {
	now := i.now()
	claims := tokenClaims{
		UserID:      id.UserID,
		IsLibrarian: id.IsLibrarian,
		TokenType:   string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuerName,
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature, expiry and kind, returning the verified principal.
func (i *Issuer) Verify(tokenStr string, kind TokenKind) (*Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithIssuer(issuerName), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != string(kind) {
		return nil, ErrWrongTokenKind
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	p := &Principal{
		UserID:      claims.UserID,
		Username:    claims.Subject,
		IsLibrarian: claims.IsLibrarian,
		TokenType:   claims.TokenType,
		TokenID:     claims.ID,
		Iss:         claims.Issuer,
	}
	if claims.IssuedAt != nil {
		p.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		p.Exp = claims.ExpiresAt.Unix()
	}
	return p, nil
}
