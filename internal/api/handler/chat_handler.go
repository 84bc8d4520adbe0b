package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/createsphere/marketplace/internal/api/metrics"
	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

// ChatHandler exposes the chat eligibility check.
type ChatHandler struct {
	service ports.ChatService
}

func NewChatHandler(service ports.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type eligibilityResponse struct {
	UserID  string `json:"user_id"`
	Allowed bool   `json:"allowed"`
}

// Eligibility handles GET /v1/chats/eligibility/:user_id.
//
// @Summary      Check whether the caller may chat with a user
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Other participant id"
// @Success      200      {object}  eligibilityResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      503      {object}  errorResponse
// @Router       /v1/chats/eligibility/{user_id} [get]
func (h *ChatHandler) Eligibility(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	other := c.Param("user_id")
	if other == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	allowed, err := h.service.ChatAllowed(c.Request().Context(), who.UserID, other)
	if err != nil {
		if errors.Is(err, domain.ErrEligibilityUndetermined) {
			metrics.ChatEligibilityTotal.WithLabelValues("undetermined").Inc()
		}
		return err
	}

	result := "denied"
	if allowed {
		result = "allowed"
	}
	metrics.ChatEligibilityTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, eligibilityResponse{UserID: other, Allowed: allowed})
}
