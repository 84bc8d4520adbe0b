package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/createsphere/marketplace/docs"
	"github.com/createsphere/marketplace/internal/api/handler"
	"github.com/createsphere/marketplace/internal/api/middleware"
	"github.com/createsphere/marketplace/internal/core/ports"
	"github.com/createsphere/marketplace/internal/core/service"
	mongorepo "github.com/createsphere/marketplace/internal/infrastructure/db/mongo"
	redisstore "github.com/createsphere/marketplace/internal/infrastructure/db/redis"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth      ports.AuthService
	Chat      ports.ChatService
	Revoker   ports.TokenRevoker
	Readiness map[string]handler.Pinger
}

// NewRouter wires repositories and services on top of Mongo and Redis and
// returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *echo.Echo {
	users := mongorepo.NewUserRepository(db)
	revoker := redisstore.NewRevocationStore(rdb)

	return NewEcho(Services{
		Auth:    service.NewAuthService(users, revoker, jwtSecret, tokenTTL),
		Chat:    service.NewChatService(users, log),
		Revoker: revoker,
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
	}, jwtSecret, log)
}

// NewEcho registers routes over already-built services.
func NewEcho(s Services, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	registry := prometheus.NewRegistry()
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "marketplace",
		Subsystem:  "http",
		Registerer: registry,
	}))

	authHandler := handler.NewAuthHandler(s.Auth)
	chatHandler := handler.NewChatHandler(s.Chat)
	authMiddleware := middleware.Auth(jwtSecret, s.Revoker)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/admin/login", authHandler.AdminLogin)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Authenticated API ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/users/me", authHandler.Me)
	v1.GET("/chats/eligibility/:user_id", chatHandler.Eligibility)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(s.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{registry, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
