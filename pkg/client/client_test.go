package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthServer emulates the auth API: one registered account, a fixed
// token, and bearer-protected /api/auth/me.
func fakeAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	const token = "fake-token"
	user := User{ID: 1, FirstName: "John", LastName: "Doe", Email: "john@example.com"}
	registered := false

	mux := http.NewServeMux()

	writeError := func(w http.ResponseWriter, status int, code, message string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
	}

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
		if registered && req.Email == user.Email {
			writeError(w, http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered")
			return
		}
		registered = true
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"user": user, "token": token})
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !registered ||
			req.Email != user.Email || req.Password != "Secret123" {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"user": user, "token": token})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"user": user})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRegisterPersistsSession(t *testing.T) {
	srv := fakeAuthServer(t)
	store := NewMemoryStore()
	c := New(srv.URL, store)

	user, err := c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", user.Email)

	token, ok := store.Get(SessionKeyToken)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	current := c.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.Email, current.Email)
	assert.True(t, c.IsAuthenticated())
}

func TestClientRegisterDuplicate(t *testing.T) {
	srv := fakeAuthServer(t)
	c := New(srv.URL, NewMemoryStore())

	_, err := c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.NoError(t, err)

	_, err = c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "DUPLICATE_EMAIL", apiErr.Code)
}

func TestClientLoginAndLogout(t *testing.T) {
	srv := fakeAuthServer(t)
	store := NewMemoryStore()
	c := New(srv.URL, store)

	_, err := c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.NoError(t, err)
	require.NoError(t, c.Logout())

	assert.False(t, c.IsAuthenticated())
	assert.Nil(t, c.CurrentUser())

	user, err := c.Login(context.Background(), "john@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.True(t, c.IsAuthenticated())

	require.NoError(t, c.Logout())
	_, ok := store.Get(SessionKeyUser)
	assert.False(t, ok)
	_, ok = store.Get(SessionKeyToken)
	assert.False(t, ok)
}

func TestClientLoginInvalidCredentials(t *testing.T) {
	srv := fakeAuthServer(t)
	c := New(srv.URL, NewMemoryStore())

	_, err := c.Login(context.Background(), "nobody@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.False(t, c.IsAuthenticated())
}

func TestClientFetchProfileAttachesToken(t *testing.T) {
	srv := fakeAuthServer(t)
	c := New(srv.URL, NewMemoryStore())

	_, err := c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.NoError(t, err)

	user, err := c.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", user.Email)
}

func TestClientRejectedTokenClearsSession(t *testing.T) {
	srv := fakeAuthServer(t)
	store := NewMemoryStore()
	c := New(srv.URL, store)

	_, err := c.Register(context.Background(), "John", "Doe", "john@example.com", "Secret123")
	require.NoError(t, err)

	// Simulate server-side rejection by corrupting the stored token.
	require.NoError(t, store.Set(SessionKeyToken, "stale-token"))

	_, err = c.FetchProfile(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// The 401 acted as an implicit logout.
	assert.False(t, c.IsAuthenticated())
	assert.Nil(t, c.CurrentUser())
}

func TestCurrentUserCorruptStorage(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(SessionKeyUser, "{not json"))

	c := New("http://localhost:0", store)
	assert.Nil(t, c.CurrentUser())
}

func TestClientNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", NewMemoryStore())

	_, err := c.Login(context.Background(), "john@example.com", "Secret123")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
}
