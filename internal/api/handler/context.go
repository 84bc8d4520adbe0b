package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/createsphere/marketplace/internal/api/middleware"
)

// caller is the authenticated principal as injected by the Auth middleware.
type caller struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// ctxCaller extracts the auth claims and fails fast when the middleware did
// not run or the token carries no subject.
func ctxCaller(c echo.Context) (caller, error) {
	role, _ := c.Get(middleware.CtxRole).(string)
	if role == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	tokenID, _ := c.Get(middleware.CtxTokenID).(string)
	exp, _ := c.Get(middleware.CtxExpiresAt).(time.Time)
	return caller{UserID: userID, Role: role, TokenID: tokenID, ExpiresAt: exp}, nil
}
