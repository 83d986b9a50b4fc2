package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/calltrack/api/config"
	"github.com/calltrack/api/internal/handler"
	"github.com/calltrack/api/internal/middleware"
	"github.com/calltrack/api/internal/model"
	"github.com/calltrack/api/internal/router"
	"github.com/calltrack/api/internal/service"
	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/calltrack/api/pkg/redis"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeUserRepo is an in-memory store with atomic email uniqueness, standing
// in for the database constraint.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return apperrors.ErrDuplicateEmail
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++

	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	repo := newFakeUserRepo()
	jwtService := service.NewJWTService("test-secret", time.Hour)
	cache := redis.NewClient(redis.Config{Enabled: false}, nil)

	authService, err := service.NewAuthService(repo, jwtService, cache, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Environment = "development"

	return router.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewHealthHandler(nil, cache),
		middleware.NewJWTMiddleware(jwtService),
		cfg,
	).SetupRoutes()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const registerBody = `{"firstName":"John","lastName":"Doe","email":"john@example.com","password":"Secret123"}`

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.User.Email != "john@example.com" {
		t.Errorf("Expected email john@example.com, got %s", resp.User.Email)
	}
	if resp.Token == "" {
		t.Error("Expected non-empty token")
	}

	// Repeating the same registration must conflict
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate email, got %d", w.Code)
	}

	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if errResp.Code != "DUPLICATE_EMAIL" {
		t.Errorf("Expected code DUPLICATE_EMAIL, got %s", errResp.Code)
	}
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"email":"john@example.com"}`},
		{"malformed email", `{"firstName":"John","lastName":"Doe","email":"nope","password":"Secret123"}`},
		{"short password", `{"firstName":"John","lastName":"Doe","email":"john@example.com","password":"short"}`},
		{"broken json", `{"firstName":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)

	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil); w.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"john@example.com","password":"Secret123"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Wrong password and unknown email must be indistinguishable
	wrong := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"john@example.com","password":"wrong"}`, nil)
	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"Secret123"}`, nil)

	if wrong.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", wrong.Code)
	}
	if unknown.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Error("401 bodies must be identical for wrong password and unknown email")
	}
}

func TestMeEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d", w.Code)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	// Valid token
	me := doJSON(t, r, http.MethodGet, "/api/auth/me", "", map[string]string{
		"Authorization": "Bearer " + resp.Token,
	})
	if me.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", me.Code, me.Body.String())
	}

	var meResp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(me.Body.Bytes(), &meResp); err != nil {
		t.Fatalf("Failed to decode /me response: %v", err)
	}
	if meResp.User.Email != "john@example.com" {
		t.Errorf("Expected email john@example.com, got %s", meResp.User.Email)
	}

	// Missing, malformed and tampered tokens are all rejected the same way
	for _, header := range []string{"", "Bearer", "Bearer " + resp.Token + "x", "Token abc"} {
		headers := map[string]string{}
		if header != "" {
			headers["Authorization"] = header
		}
		w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", headers)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestHealthEndpoint_DegradedWithoutDatabase(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 without a database, got %d", w.Code)
	}

	var resp handler.HealthCheckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Expected unhealthy status, got %s", resp.Status)
	}
	if resp.Checks["redis"].Status != "disabled" {
		t.Errorf("Expected redis check disabled, got %s", resp.Checks["redis"].Status)
	}
}

func TestErrorBodiesNeverLeakStoreDetail(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody, nil)

	var errResp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	body := fmt.Sprintf("%v", errResp)
	for _, fragment := range []string{"SQLSTATE", "duplicate key value", "constraint"} {
		if bytes.Contains([]byte(body), []byte(fragment)) {
			t.Errorf("Error body leaks store detail %q: %s", fragment, body)
		}
	}
}
