package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/createsphere/marketplace/internal/api/metrics"
	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new creator or user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	in := ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	}
	if req.CreatorProfile != nil && req.Role == domain.RoleCreator {
		in.CreatorProfile = &domain.CreatorProfile{
			DisplayName: req.CreatorProfile.DisplayName,
			Bio:         req.CreatorProfile.Bio,
			AvatarURL:   req.CreatorProfile.AvatarURL,
		}
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a creator or user and returns a JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	return h.login(c, "user", h.authService.Login)
}

// AdminLogin authenticates an admin account.
//
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	return h.login(c, "admin", h.authService.AdminLogin)
}

// Logout revokes the presented token.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), who.TokenID, who.ExpiresAt); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the token owner.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.User
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Profile(c.Request().Context(), who.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type loginFunc func(ctx context.Context, email, password string) (string, *domain.User, error)

func (h *AuthHandler) login(c echo.Context, kind string, fn loginFunc) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, user, err := fn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(kind, "failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(kind, "success").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}
