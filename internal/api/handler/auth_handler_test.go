package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/createsphere/marketplace/internal/api/middleware"
	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

type stubAuthService struct {
	registerFn   func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn      func(ctx context.Context, email, password string) (string, *domain.User, error)
	adminLoginFn func(ctx context.Context, email, password string) (string, *domain.User, error)
	profileFn    func(ctx context.Context, userID string) (*domain.User, error)
	logoutFn     func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) AdminLogin(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.adminLoginFn(ctx, email, password)
}

func (s *stubAuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func (s *stubAuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.logoutFn(ctx, tokenID, expiresAt)
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, userID, role string) {
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
	c.Set(middleware.CtxTokenID, "jti-1")
	c.Set(middleware.CtxExpiresAt, time.Now().Add(time.Hour))
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "carla" || in.Role != domain.RoleCreator {
				t.Fatalf("unexpected args: %+v", in)
			}
			if in.CreatorProfile == nil || in.CreatorProfile.DisplayName != "Carla Crafts" {
				t.Fatalf("creator profile not forwarded: %+v", in.CreatorProfile)
			}
			return &domain.User{ID: "u1", Username: in.Username, Role: in.Role, CreatorProfile: in.CreatorProfile}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/register",
		`{"username":"carla","password":"secret123","email":"c@example.com","role":"creator","creator_profile":{"display_name":"Carla Crafts"}}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "carla" || user["role"] != "creator" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/register",
		`{"username":"bob","password":"secret123","email":"b@example.com","role":"user"}`)

	err := NewAuthHandler(stub).Register(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/register", "not-json")

	if code := httpCode(t, NewAuthHandler(stub).Register(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Register_AdminRoleRejected(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/register",
		`{"username":"mallory","password":"secret123","email":"m@example.com","role":"admin"}`)

	if code := httpCode(t, NewAuthHandler(stub).Register(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{Username: "alice", Role: domain.RoleUser}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"bad"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/login", "{")

	if code := httpCode(t, NewAuthHandler(stub).Login(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_LoginValidationMatchesRegister(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
		adminLoginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	h := NewAuthHandler(stub)

	for name, fn := range map[string]echo.HandlerFunc{"login": h.Login, "admin login": h.AdminLogin} {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/auth/login", `{"email":"not-an-email","password":""}`)
			if code := httpCode(t, fn(c)); code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", code)
			}
		})
	}
}

func TestAuthHandler_AdminLogin_UsesAdminPath(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("regular login must not be used")
			return "", nil, nil
		},
		adminLoginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "admintok", &domain.User{Username: "root", Role: domain.RoleAdmin}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/admin/login", `{"email":"root@example.com","password":"pw"}`)

	if err := NewAuthHandler(stub).AdminLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "admintok") {
		t.Fatalf("expected admin token in body, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		profileFn: func(ctx context.Context, userID string) (*domain.User, error) {
			if userID != "u1" {
				t.Fatalf("unexpected user id %s", userID)
			}
			return &domain.User{ID: "u1", Username: "carla", Role: domain.RoleCreator, IsVerified: true}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/v1/users/me", "")
	authenticate(c, "u1", domain.RoleCreator)

	if err := NewAuthHandler(stub).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user.ID != "u1" || !user.IsVerified {
		t.Fatalf("unexpected profile: %+v", user)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/v1/users/me", "")

	if code := httpCode(t, NewAuthHandler(&stubAuthService{}).Me(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var gotJTI string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, tokenID string, expiresAt time.Time) error {
			gotJTI = tokenID
			return nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/logout", "")
	authenticate(c, "u1", domain.RoleUser)

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotJTI != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", gotJTI)
	}
}
