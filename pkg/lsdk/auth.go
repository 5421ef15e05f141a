package lsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/quatton/libra/pkg/lsdk/lerr"
	"golang.org/x/oauth2"
)

// Login runs the password grant against the token endpoint. On success both
// credentials and the profile are persisted and current before it returns.
func (c *Client) Login(ctx context.Context, creds Credentials) (*SessionPair, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.url(tokenPath),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := conf.PasswordCredentialsToken(tokenCtx, creds.Username, creds.Password)
	if err != nil {
		return nil, loginError(err)
	}
	if tok.RefreshToken == "" {
		return nil, lerr.New(lerr.CodeServer, errors.New("token response carried no refresh token"))
	}

	pair := &SessionPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    int(tok.ExpiresIn),
		User:         userFromExtra(tok.Extra("user")),
	}
	if err := c.session.establish(ctx, pair.AccessToken, pair.RefreshToken, pair.User); err != nil {
		return pair, lerr.New(lerr.CodeUnknown, err)
	}
	c.log.Debug("logged in", "user", creds.Username)
	return pair, nil
}

func loginError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return lerr.FromStatus(rerr.Response.StatusCode, errorMessage(rerr.Response.StatusCode, rerr.Body))
	}
	return lerr.New(lerr.CodeNetwork, err)
}

func userFromExtra(v any) *User {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil || u.Username == "" {
		return nil
	}
	return &u
}

// Signup registers an account and starts a session for it, with the same
// persistence contract as Login.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (*SessionPair, error) {
	var pair SessionPair
	r := &request{method: http.MethodPost, path: registerPath, body: in, anonymous: true}
	if err := c.do(ctx, r, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, lerr.New(lerr.CodeServer, errors.New("register response carried no credentials"))
	}
	if err := c.session.establish(ctx, pair.AccessToken, pair.RefreshToken, pair.User); err != nil {
		return &pair, lerr.New(lerr.CodeUnknown, err)
	}
	return &pair, nil
}

// Logout revokes the refresh credential on the server and clears the local
// session. The local session is cleared even when the server call fails; the
// server error is still returned.
func (c *Client) Logout(ctx context.Context) error {
	tokens := c.session.Tokens()

	var serverErr error
	if tokens.Refresh != "" {
		r := &request{
			method:    http.MethodPost,
			path:      logoutPath,
			body:      refreshRequest{RefreshToken: tokens.Refresh},
			noRecover: true,
		}
		serverErr = c.do(ctx, r, nil)
	}

	if err := c.session.clear(ctx); err != nil {
		c.log.Warn("clearing session failed", "error", err)
		if serverErr == nil {
			return lerr.New(lerr.CodeUnknown, err)
		}
	}
	if serverErr != nil {
		return fmt.Errorf("logout: %w", serverErr)
	}
	return nil
}

// Refresh explicitly exchanges the refresh credential for a new access
// credential, through the same path as the silent refresh.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	tokens := c.session.Tokens()
	if tokens.Refresh == "" {
		return "", lerr.FromStatus(http.StatusUnauthorized, "not logged in")
	}
	return c.renew(ctx, tokens.Refresh, tokens.Access, nil)
}
