package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/handler"
	"github.com/nyuchitech/harare-metro-sub001/internal/middleware"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// Handlers bundles the resource handlers wired into the router.
type Handlers struct {
	Interactions *handler.InteractionHandler
	Counters     *handler.CounterHandler
	Behavior     *handler.BehaviorHandler
	Analytics    *handler.AnalyticsHandler
}

// RouteOptions carries the cross-cutting route configuration.
type RouteOptions struct {
	// JWTSecret protects the destructive DELETE endpoints when non-empty.
	JWTSecret string

	// RateLimit, when non-nil, throttles write endpoints per client IP.
	RateLimit *RateLimitOptions

	// Telemetry, when non-nil, registers the /metrics endpoint and the
	// HTTP metrics middleware.
	Telemetry *telemetry.Provider
}

// RateLimitOptions configures the per-IP write rate limiter.
type RateLimitOptions struct {
	Store       middleware.LimiterStore
	MaxRequests int
	Window      time.Duration
}

// SetupRoutes configures all API routes under /api/v1.
// Health routes are registered separately by the server assembly.
func SetupRoutes(router *gin.Engine, h Handlers, opts RouteOptions) {
	var onThrottled func()
	if opts.Telemetry != nil {
		router.Use(opts.Telemetry.GinMiddleware())
		router.GET("/metrics", gin.WrapH(opts.Telemetry.Handler()))
		onThrottled = opts.Telemetry.RecordThrottled
	}

	v1 := router.Group("/api/v1")

	// Writes go through the rate limiter; reads are unthrottled.
	writes := v1.Group("")
	if opts.RateLimit != nil {
		writes.Use(middleware.RateLimiter(
			opts.RateLimit.Store, opts.RateLimit.MaxRequests, opts.RateLimit.Window, onThrottled,
		))
	}

	// Destructive endpoints require a token when a secret is configured.
	deletes := v1.Group("")
	if opts.JWTSecret != "" {
		deletes.Use(middleware.RequireJWT(opts.JWTSecret))
	}

	v1.GET("/interactions/:entityId", h.Interactions.Get)
	writes.POST("/interactions/:entityId", h.Interactions.Record)

	v1.GET("/counters/:counterId", h.Counters.Get)
	writes.POST("/counters/:counterId", h.Counters.Update)
	deletes.DELETE("/counters/:counterId", h.Counters.Reset)

	v1.GET("/behavior/:userId", h.Behavior.Get)
	writes.POST("/behavior/:userId", h.Behavior.Record)
	deletes.DELETE("/behavior/:userId", h.Behavior.Clear)

	v1.GET("/analytics", h.Analytics.Query)
	writes.POST("/analytics", h.Analytics.RecordEvent)
	deletes.DELETE("/analytics", h.Analytics.Clear)
}
