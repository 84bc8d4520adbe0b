package handler

import "github.com/createsphere/marketplace/internal/core/domain"

type creatorProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
	Bio         string `json:"bio"          validate:"max=500"`
	AvatarURL   string `json:"avatar_url"   validate:"omitempty,url"`
}

type registerRequest struct {
	Username       string                 `json:"username"        validate:"required,min=3,max=40"`
	Password       string                 `json:"password"        validate:"required,min=8"`
	Email          string                 `json:"email"           validate:"required,email"`
	Role           string                 `json:"role"            validate:"required,oneof=creator user"`
	CreatorProfile *creatorProfileRequest `json:"creator_profile"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}
