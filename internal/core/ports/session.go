package ports

import (
	"context"

	"github.com/createsphere/marketplace/internal/core/domain"
)

// IdentityAPI is the remote identity service as seen by a client.
type IdentityAPI interface {
	// Profile returns the account the bearer token belongs to, or an error
	// when the token is rejected or the service cannot be reached.
	Profile(ctx context.Context, token string) (*domain.User, error)
}

// KeyValueStore is durable, device-scoped storage for session credentials.
// Get reports found=false for a missing key.
type KeyValueStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Authenticator is the explicit login/logout surface of the identity service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	AdminLogin(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	Logout(ctx context.Context, token string) error
}
