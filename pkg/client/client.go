// Package client is the Go auth client for the CallTrack API. It mirrors the
// web front end's auth service: register, login, logout, getCurrentUser and
// isAuthenticated, with the session persisted in an injected SessionStore.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// User is the sanitized profile the API returns.
type User struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// APIError is a non-2xx response from the auth API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client wraps the auth API. It holds no business logic: credentials go to
// the server, and on success {user, token} is persisted in the session store.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   SessionStore
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its transport is still
// wrapped by the session interceptor).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// New builds a Client against baseURL, persisting the session in store.
// Every request carries the stored bearer token when present, and any 401
// response clears the session: a server-side rejection is an implicit
// logout, the client never trusts local token presence alone.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}

	for _, opt := range opts {
		opt(c)
	}

	base := c.httpc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	// Shallow copy so the interceptor does not leak into a shared client.
	httpc := *c.httpc
	httpc.Transport = &sessionTransport{base: base, store: store}
	c.httpc = &httpc

	return c
}

// sessionTransport attaches the stored bearer token to outgoing requests and
// clears the session whenever the server answers 401.
type sessionTransport struct {
	base  http.RoundTripper
	store SessionStore
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if token, ok := t.store.Get(SessionKeyToken); ok && token != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = t.store.Clear()
	}

	return resp, nil
}

// Register creates an account and persists the resulting session.
func (c *Client) Register(ctx context.Context, firstName, lastName, email, password string) (*User, error) {
	body := map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
		"password":  password,
	}

	var auth authResponse
	if err := c.post(ctx, "/api/auth/register", body, &auth); err != nil {
		return nil, err
	}

	if err := c.saveSession(&auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// Login authenticates and persists the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var auth authResponse
	if err := c.post(ctx, "/api/auth/login", body, &auth); err != nil {
		return nil, err
	}

	if err := c.saveSession(&auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// Logout discards the local session. Tokens are stateless, so there is
// nothing to revoke server-side; both stored keys are cleared together.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// CurrentUser returns the locally stored profile. Missing or corrupt storage
// fails closed to nil, never an error or a panic.
func (c *Client) CurrentUser() *User {
	raw, ok := c.store.Get(SessionKeyUser)
	if !ok || raw == "" {
		return nil
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

// IsAuthenticated reports whether a token is present locally. It performs no
// expiry check: an expired token is detected on the first rejected request,
// which clears the session.
func (c *Client) IsAuthenticated() bool {
	token, ok := c.store.Get(SessionKeyToken)
	return ok && token != ""
}

// FetchProfile asks the server for the authenticated profile, refreshing the
// stored copy. A 401 clears the session before the error is returned.
func (c *Client) FetchProfile(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var payload struct {
		User User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}

	if encoded, err := json.Marshal(payload.User); err == nil {
		_ = c.store.Set(SessionKeyUser, string(encoded))
	}

	return &payload.User, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out *authResponse) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	return nil
}

func (c *Client) saveSession(auth *authResponse) error {
	encoded, err := json.Marshal(auth.User)
	if err != nil {
		return err
	}
	if err := c.store.Set(SessionKeyUser, string(encoded)); err != nil {
		return err
	}
	return c.store.Set(SessionKeyToken, auth.Token)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
		apiErr.Message = resp.Status
	}
	return apiErr
}
