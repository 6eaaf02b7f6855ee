// Package client is a typed HTTP client for the finance API. Credentials
// travel as cookies kept in a cookie jar, the same way a browser holds them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnauthorized matches any 401 response with errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("finance api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("finance api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is installed
// when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a client for the API rooted at baseURL, for example
// "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{base: base, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// cookieScopes are the paths credentials are issued for. The refresh cookie
// is only visible under /auth.
var cookieScopes = []string{"", "/auth"}

// Cookies returns the credentials currently held for the API. Path is set to
// the narrowest scope the cookie was found under, so SetCookies restores it
// to the same place.
func (c *Client) Cookies() []*http.Cookie {
	seen := map[string]bool{}
	var out []*http.Cookie
	for _, scope := range cookieScopes {
		u := *c.base
		u.Path = c.base.Path + scope
		for _, ck := range c.http.Jar.Cookies(&u) {
			if seen[ck.Name] {
				continue
			}
			seen[ck.Name] = true
			ck.Path = u.Path
			out = append(out, ck)
		}
	}
	return out
}

// SetCookies seeds the jar, for example from a saved session. Cookies without
// a path apply to the whole API.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.Path == "" {
			ck.Path = c.base.Path
		}
	}
	c.http.Jar.SetCookies(c.base, cookies)
}

// --- Auth ---

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email": email, "password": password,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Register(ctx context.Context, email, name, password string) (*User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, map[string]string{
		"email": email, "name": name, "password": password,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh rotates the refresh cookie and returns the user it belongs to.
func (c *Client) Refresh(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Accounts ---

func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, in NewAccount) (*Account, error) {
	var a Account
	if err := c.do(ctx, http.MethodPost, "/accounts", nil, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Transactions ---

func (c *Client) Transactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	var out []Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransaction posts in. A non-empty idempotencyKey makes retries safe.
func (c *Client) CreateTransaction(ctx context.Context, in NewTransaction, idempotencyKey string) (*Transaction, error) {
	var t Transaction
	err := c.doWithHeaders(ctx, http.MethodPost, "/transactions", nil, in, &t, func(h http.Header) {
		if idempotencyKey != "" {
			h.Set("Idempotency-Key", idempotencyKey)
		}
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil, nil)
}

// --- Analytics ---

// Summary returns the dashboard figures of one month. A zero year or month
// lets the server pick the current one.
func (c *Client) Summary(ctx context.Context, year, month int, accountID string) (*Summary, error) {
	q := url.Values{}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month > 0 {
		q.Set("month", strconv.Itoa(month))
	}
	if accountID != "" {
		q.Set("accountId", accountID)
	}
	var s Summary
	if err := c.do(ctx, http.MethodGet, "/analytics/summary", q, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- transport ---

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doWithHeaders(ctx, method, path, query, body, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, query url.Values, body, out any, headers func(http.Header)) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if headers != nil {
		headers(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
	}
	return apiErr
}
