// Package lsdk is the client for the libra backend. A Client attaches the
// current access credential to every request and, when the server rejects
// it, makes at most one silent refresh before failing the caller.
package lsdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lauth"
	"github.com/quatton/libra/pkg/llog"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath             = "/api/auth/token"
	registerPath          = "/api/auth/register"
	librarianRegisterPath = "/api/auth/librarian/register"
	refreshPath           = "/api/auth/refresh_token"
	logoutPath            = "/api/auth/logout"

	defaultUserAgent = "libra-sdk"
)

// SessionExpiredHandler is told when the session had to be dropped, so the
// caller can send the user back to login.
type SessionExpiredHandler func(ctx context.Context, reason string)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *llog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithSessionExpiredHandler(h SessionExpiredHandler) Option {
	return func(c *Client) { c.onExpired = h }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	log        *llog.Logger
	userAgent  string
	onExpired  SessionExpiredHandler

	refreshGroup singleflight.Group

	Authors   *Resource[Author]
	Books     *BooksService
	Copies    *CopiesService
	Genres    *Resource[Genre]
	Languages *Resource[Language]
	Statuses  *Resource[Status]
	Users     *UsersService
	Borrowed  *BorrowedService
}

// New builds a client and restores any persisted session from store. A nil
// store keeps the session in memory only.
func New(ctx context.Context, cfg *Config, store kv.Store, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lsdk: nil config")
	}
	if store == nil {
		store = kv.NewMemoryStore()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		session:    newSession(store),
		log:        llog.Discard(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.session.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	c.Authors = newResource[Author](c, "/api/author")
	c.Books = &BooksService{Resource: newResource[Book](c, "/api/book")}
	c.Copies = &CopiesService{Resource: newResource[Copy](c, "/api/copy")}
	c.Genres = newResource[Genre](c, "/api/genre")
	c.Languages = newResource[Language](c, "/api/language")
	c.Statuses = newResource[Status](c, "/api/status")
	c.Users = &UsersService{c: c}
	c.Borrowed = &BorrowedService{Resource: newResource[Borrowed](c, "/api/borrowed")}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Session() *Session { return c.session }

// Principal decodes the identity of the current access credential.
func (c *Client) Principal() (*lauth.Principal, error) {
	return c.session.Principal()
}

// Profile returns the cached user profile, fetching it when the session has
// none yet.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	if p := c.session.Profile(); p != nil {
		return p, nil
	}
	return c.Users.Me(ctx)
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}
