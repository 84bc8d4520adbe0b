package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/createsphere/marketplace/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestClient_Profile_SendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(domain.User{
			ID:             "u1",
			Role:           domain.RoleCreator,
			CreatorProfile: &domain.CreatorProfile{DisplayName: "Carla"},
		})
	})

	user, err := c.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCreator, user.Role)
	require.NotNil(t, user.CreatorProfile)
	assert.Equal(t, "Carla", user.CreatorProfile.DisplayName)
}

func TestClient_Profile_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	})

	_, err := c.Profile(context.Background(), "expired")

	var idErr *Error
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, http.StatusUnauthorized, idErr.Status)
	assert.Equal(t, "invalid token", idErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_ErrorsCarryDomainKind(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad password", http.StatusUnauthorized, `{"error":"invalid credentials"}`, domain.ErrInvalidCredentials},
		{"revoked", http.StatusUnauthorized, `{"error":"token revoked"}`, domain.ErrTokenRevoked},
		{"blocked", http.StatusForbidden, `{"error":"account is blocked"}`, domain.ErrUserBlocked},
		{"not admin", http.StatusForbidden, `{"error":"access forbidden"}`, domain.ErrForbidden},
		{"gone", http.StatusNotFound, `{"error":"user not found"}`, domain.ErrUserNotFound},
		{"undetermined", http.StatusServiceUnavailable, `{"error":"chat eligibility could not be determined"}`, domain.ErrEligibilityUndetermined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ChatAllowed(context.Background(), "tok", "u2")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	})

	_, err := c.Profile(context.Background(), "tok")

	var idErr *Error
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, "upstream down", idErr.Message)
	assert.Nil(t, errors.Unwrap(err))
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body.Email)
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"u1","role":"user"}}`))
	})

	token, user, err := c.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestClient_AdminLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/admin/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"id":"a1"}}`))
	})

	_, _, err := c.AdminLogin(context.Background(), "a@example.com", "pw")
	assert.Error(t, err)
}

func TestClient_ChatAllowed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chats/eligibility/u2", r.URL.Path)
		_, _ = w.Write([]byte(`{"allowed":true}`))
	})

	ok, err := c.ChatAllowed(context.Background(), "tok", "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Profile(context.Background(), "tok")
	assert.Error(t, err)
}

func TestNew_NormalisesBaseURL(t *testing.T) {
	c, err := New(" localhost:9000/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", c.BaseURL())

	c, err = New("")
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, c.BaseURL())
}

func TestNew_RejectsUnusableURL(t *testing.T) {
	for _, raw := range []string{"ftp://files.example.com", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}

func TestClient_ChatAllowed_EmptyUserID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := c.ChatAllowed(context.Background(), "tok", " ")
	assert.Error(t, err)
}
