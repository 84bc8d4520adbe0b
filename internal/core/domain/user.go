package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
	RoleUser    = "user"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrForbidden          = errors.New("access forbidden")
	ErrTokenRevoked       = errors.New("token revoked")
)

// CreatorProfile is the public storefront of a creator account.
type CreatorProfile struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// User models an account in the marketplace.
type User struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email,omitempty"`
	PasswordHash   string          `json:"-"`
	Role           string          `json:"role"`
	IsVerified     bool            `json:"is_verified"`
	IsBlocked      bool            `json:"is_blocked"`
	CreatorProfile *CreatorProfile `json:"creator_profile,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsCreator reports whether the user holds the creator role.
func (u *User) IsCreator() bool {
	return u != nil && u.Role == RoleCreator
}

// ValidSignupRole reports whether role may be chosen at registration.
// Admin accounts are provisioned out of band.
func ValidSignupRole(role string) bool {
	return role == RoleCreator || role == RoleUser
}
