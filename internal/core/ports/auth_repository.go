package ports

import (
	"context"
	"time"

	"github.com/createsphere/marketplace/internal/core/domain"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// UserDirectory is the read-only role lookup used by chat eligibility.
type UserDirectory interface {
	// RolesByIDs returns the role of every stored user whose id is in ids.
	// Unknown ids are skipped; the result has at most len(ids) entries.
	RolesByIDs(ctx context.Context, ids []string) ([]string, error)
}

// TokenRevoker tracks tokens invalidated by logout until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, remaining time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
