package lsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/quatton/libra/pkg/lauth"
	"github.com/quatton/libra/pkg/lsdk/lerr"
	"golang.org/x/sync/singleflight"
)

const maxResponseBody = 8 << 20

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// anonymous requests never carry a credential and never trigger a
	// refresh: the auth endpoints themselves.
	anonymous bool
	// noRecover requests carry the credential but a 401 is final.
	noRecover bool
}

type response struct {
	status int
	body   []byte
}

// Do sends an authorized request to path (relative to the base URL) and
// decodes a 2xx body into out, unwrapping the backend envelope. body, when
// non-nil, is sent as JSON. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, &request{method: method, path: path, body: body}, out)
}

// do runs one logical request. The first attempt may go through recovery;
// the retry below has no recovery branch, so a second 401 is final.
func (c *Client) do(ctx context.Context, r *request, out any) error {
	sent := ""
	if !r.anonymous {
		sent = c.session.Tokens().Access
	}

	resp, err := c.send(ctx, r, sent)
	if err != nil {
		return err
	}
	if resp.status != http.StatusUnauthorized || r.anonymous || r.noRecover {
		return decode(resp, out)
	}

	c.log.Debug("request rejected", "method", r.method, "path", r.path)
	access, err := c.recover(ctx, sent, decode(resp, nil))
	if err != nil {
		return err
	}

	resp, err = c.send(ctx, r, access)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// recover finds an access credential for the retry. cause is the error of
// the rejected attempt.
func (c *Client) recover(ctx context.Context, sent string, cause error) (string, error) {
	current := c.session.Tokens()
	if current.Access != "" && current.Access != sent {
		// another request already refreshed while this one was in flight
		return current.Access, nil
	}
	if current.Refresh == "" {
		if sent == "" && current.Access == "" {
			// never logged in: nothing to drop
			return "", cause
		}
		c.expire(ctx, "no refresh credential")
		return "", lerr.Expired("session expired, log in again", cause)
	}
	return c.renew(ctx, current.Refresh, sent, cause)
}

// renew exchanges refresh for a new access credential. stale is the access
// credential being replaced. The session is dropped only when the server
// rejects the refresh credential; any other failure keeps it for a later try.
func (c *Client) renew(ctx context.Context, refresh, stale string, cause error) (string, error) {
	if expired, err := lauth.IsTokenExpired(refresh, 0); err == nil && expired {
		c.expire(ctx, "refresh credential expired")
		return "", lerr.Expired("session expired, log in again", cause)
	}

	// Waiting callers share the exchange, so it outlives the caller that
	// started it. The http client timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refresh, func() (any, error) {
		if cur := c.session.Tokens().Access; cur != "" && cur != stale {
			return cur, nil
		}
		return c.exchange(shared, refresh)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", lerr.New(lerr.CodeNetwork, ctx.Err())
	case res = <-ch:
	}
	if res.Shared {
		c.log.Debug("joined in-flight refresh")
	}

	err := res.Err
	switch {
	case err == nil:
		return res.Val.(string), nil
	case errors.Is(err, errSessionChanged):
		if access := c.session.Tokens().Access; access != "" {
			return access, nil
		}
		if cause == nil {
			return "", lerr.FromStatus(http.StatusUnauthorized, "session changed during refresh")
		}
		return "", cause
	case !refreshRejected(err):
		c.log.Warn("refresh failed, keeping session", "error", err)
		return "", err
	}
	if c.session.Tokens().Refresh != refresh {
		// logged out or in again while the exchange ran
		return "", lerr.Expired("session expired, log in again", err)
	}
	c.log.Warn("refresh rejected", "error", err)
	c.expire(ctx, "refresh failed")
	return "", lerr.Expired("session expired, log in again", err)
}

// refreshRejected reports whether the refresh endpoint answered with a
// client error, meaning the refresh credential itself is no good.
func refreshRejected(err error) bool {
	status := lerr.StatusOf(err)
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}

func (c *Client) exchange(ctx context.Context, refresh string) (string, error) {
	var out refreshResponse
	r := &request{
		method:    http.MethodPost,
		path:      refreshPath,
		body:      refreshRequest{RefreshToken: refresh},
		anonymous: true,
	}
	if err := c.do(ctx, r, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", lerr.New(lerr.CodeServer, errors.New("refresh response carried no access token"))
	}
	if err := c.session.replaceAccess(ctx, refresh, out.AccessToken, out.RefreshToken); err != nil {
		return "", err
	}
	c.log.Debug("access credential refreshed")
	return out.AccessToken, nil
}

func (c *Client) expire(ctx context.Context, reason string) {
	if err := c.session.clear(ctx); err != nil {
		c.log.Warn("clearing session failed", "error", err)
	}
	c.log.Debug("session dropped", "reason", reason)
	if c.onExpired != nil {
		c.onExpired(ctx, reason)
	}
}

func (c *Client) send(ctx context.Context, r *request, access string) (*response, error) {
	target := c.url(r.path)
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, lerr.New(lerr.CodeUnknown, fmt.Errorf("encoding request body: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, lerr.New(lerr.CodeUnknown, err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if access != "" && !r.anonymous {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lerr.New(lerr.CodeNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, lerr.New(lerr.CodeNetwork, fmt.Errorf("reading response: %w", err))
	}
	c.log.Debug("response", "method", r.method, "path", r.path, "status", resp.StatusCode)
	return &response{status: resp.StatusCode, body: data}, nil
}

// decode turns a response into out or into an *lerr.Error.
func decode(resp *response, out any) error {
	if resp.status < 200 || resp.status > 299 {
		return lerr.FromStatus(resp.status, errorMessage(resp.status, resp.body))
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	payload := unwrapEnvelope(resp.body)
	if err := json.Unmarshal(payload, out); err != nil {
		return lerr.New(lerr.CodeServer, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// unwrapEnvelope returns the data member of {status_code, details, data}, or
// body unchanged when it is not an envelope.
func unwrapEnvelope(body []byte) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	data, hasData := env["data"]
	_, hasStatus := env["status_code"]
	if !hasData || !hasStatus {
		return body
	}
	return data
}

type problem struct {
	Title  string          `json:"title"`
	Detail json.RawMessage `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
	Details string `json:"details"`
}

type fieldError struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

// errorMessage extracts the server's message from a problem document
// (detail plus errors[].message), a detail list of field errors, or an
// envelope; falling back to the status text.
func errorMessage(status int, body []byte) string {
	var p problem
	if err := json.Unmarshal(body, &p); err == nil {
		var parts []string
		if len(p.Detail) > 0 {
			var s string
			var list []fieldError
			switch {
			case json.Unmarshal(p.Detail, &s) == nil && s != "":
				parts = append(parts, s)
			case json.Unmarshal(p.Detail, &list) == nil:
				for _, fe := range list {
					parts = append(parts, fieldMessage(fe.Loc, fe.Msg))
				}
			}
		}
		if len(parts) == 0 && p.Details != "" {
			parts = append(parts, p.Details)
		}
		if len(parts) == 0 && p.Title != "" {
			parts = append(parts, p.Title)
		}
		var fields []string
		for _, e := range p.Errors {
			if e.Message == "" {
				continue
			}
			if e.Location != "" {
				fields = append(fields, e.Location+": "+e.Message)
			} else {
				fields = append(fields, e.Message)
			}
		}
		if len(fields) > 0 {
			parts = append(parts, strings.Join(fields, "; "))
		}
		if len(parts) > 0 {
			return strings.Join(parts, ": ")
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

func fieldMessage(loc []any, msg string) string {
	if len(loc) == 0 {
		return msg
	}
	return fmt.Sprintf("%v: %s", loc[len(loc)-1], msg)
}
