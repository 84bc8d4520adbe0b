package ports

import (
	"context"
	"time"

	"github.com/createsphere/marketplace/internal/core/domain"
)

// RegisterInput carries the fields accepted at signup.
type RegisterInput struct {
	Username       string
	Password       string
	Email          string
	Role           string
	CreatorProfile *domain.CreatorProfile
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	AdminLogin(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}
