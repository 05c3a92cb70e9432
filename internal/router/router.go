package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/coaching-payments/internal/config"     // app configuration
    "github.com/iliyamo/coaching-payments/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/coaching-payments/internal/middleware" // middleware for rate limiting and admin JWT auth
)

// RegisterRoutes registers every route of the service on the provided
// Echo instance.
//
// Route map:
//   GET  /healthz                                        liveness probe
//   POST /v1/checkout/:flow                              session initiator (rate limited)
//   GET  /v1/checkout/:flow/status                       status poller (rate limited)
//   POST /v1/payments/webhook                            provider webhook (no rate limit)
//   POST /v1/auth/login                                  admin login
//   POST /v1/admin/transactions/:flow/:id/mark-paid      admin override (JWT, ADMIN role)
//
// The webhook route deliberately sits outside the rate limiter: its
// caller is the payment provider's retry infrastructure, and throttling
// it would only delay reconciliation.  Authenticity is enforced by the
// signature check inside the handler, not by middleware.
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, checkout *handler.CheckoutHandler, status *handler.StatusHandler, hook *handler.WebhookHandler, admin *handler.AdminHandler) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    // Public, browser-facing endpoints share the token bucket limiter.
    limited := e.Group("/v1/checkout")
    limited.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    limited.POST("/:flow", checkout.CreateSession)
    limited.GET("/:flow/status", status.Status)

    // Server-to-server webhook from the payment provider.
    e.POST("/v1/payments/webhook", hook.Receive)

    // Admin login issues the JWT required by the override endpoint.
    e.POST("/v1/auth/login", admin.Login)

    // Administrative overrides live behind JWT auth plus the ADMIN role.
    adm := e.Group("/v1/admin")
    adm.Use(middleware.JWTAuth(cfg.JWTSecret))
    adm.Use(middleware.RequireRole("ADMIN"))
    adm.POST("/transactions/:flow/:id/mark-paid", admin.MarkPaid)
}
