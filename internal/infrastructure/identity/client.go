// Package identity is the HTTP client for the marketplace identity and chat
// endpoints. Failures carry the domain error the server reported so callers
// can use errors.Is instead of matching status codes.
package identity

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
	"time"

	"github.com/createsphere/marketplace/internal/core/domain"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrUnauthorized reports a bearer token the server did not accept.
var ErrUnauthorized = errors.New("identity: token not accepted")

// Client talks to a marketplace API instance.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. nil is ignored.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New returns a client for the API at rawURL. A missing scheme defaults to
// http; an empty rawURL targets a local server.
func New(rawURL string, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		raw = defaultBaseURL
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("identity: unsupported api url scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("identity: api url %q has no host", rawURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{base: base, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL reports where requests are sent.
func (c *Client) BaseURL() string { return c.base.String() }

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("identity: %d %s", e.Status, e.Message)
}

// Unwrap exposes the domain error matching the response, if any.
func (e *Error) Unwrap() error { return e.kind }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type eligibilityResponse struct {
	Allowed bool `json:"allowed"`
}

// Profile fetches the account that token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	err := c.send(ctx, request{method: http.MethodGet, path: []string{"v1", "users", "me"}, token: token}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return c.authenticate(ctx, []string{"auth", "login"}, email, password)
}

func (c *Client) AdminLogin(ctx context.Context, email, password string) (string, *domain.User, error) {
	return c.authenticate(ctx, []string{"auth", "admin", "login"}, email, password)
}

// Logout revokes token server side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.send(ctx, request{method: http.MethodPost, path: []string{"auth", "logout"}, token: token}, nil)
}

// ChatAllowed asks whether the token's owner may chat with userID. A server
// that cannot decide yields domain.ErrEligibilityUndetermined.
func (c *Client) ChatAllowed(ctx context.Context, token, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, errors.New("identity: empty user id")
	}
	var resp eligibilityResponse
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   []string{"v1", "chats", "eligibility", userID},
		token:  token,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Allowed, nil
}

func (c *Client) authenticate(ctx context.Context, path []string, email, password string) (string, *domain.User, error) {
	var resp authResponse
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   path,
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, errors.New("identity: login response carries no token")
	}
	return resp.Token, resp.User, nil
}

type request struct {
	method string
	path   []string
	token  string
	body   any
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("identity: encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	endpoint := c.base.JoinPath(r.path...)
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), payload)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(r.token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", r.method, endpoint.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity: decode %s response: %w", endpoint.Path, err)
	}
	return nil
}

// responseError reads the {"error": "..."} envelope and classifies it.
func responseError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	return &Error{Status: resp.StatusCode, Message: msg, kind: classify(resp.StatusCode, msg)}
}

// classify maps a failed response onto the domain error the server raised.
// The messages are the ones api.NewHTTPErrorHandler renders.
func classify(status int, msg string) error {
	switch status {
	case http.StatusUnauthorized:
		switch msg {
		case "invalid credentials":
			return domain.ErrInvalidCredentials
		case "token revoked":
			return domain.ErrTokenRevoked
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		if msg == "account is blocked" {
			return domain.ErrUserBlocked
		}
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrUserNotFound
	case http.StatusConflict:
		return domain.ErrUserExists
	case http.StatusServiceUnavailable:
		if msg == "chat eligibility could not be determined" {
			return domain.ErrEligibilityUndetermined
		}
	}
	return nil
}
