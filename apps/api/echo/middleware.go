package echoapi

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/user"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
)

// requireRoles lets through authenticated callers holding one of roles.
// It must run after the authentication gate.
func requireRoles(logger core.Logger, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, ok := auth.IdentityFrom(ctx.Request().Context())
			if !ok {
				logger.Error(fmt.Sprintf("role gate reached without an identity: %s %s", ctx.Request().Method, ctx.Path()))
				return errUnauthorized
			}
			if !id.Role.In(roles...) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// recordRequests counts every request by route and final status.
func recordRequests(metrics metricsvc.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}

// rateLimit throttles the unauthenticated credential endpoints per client IP.
func rateLimit(conf *core.Config) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(conf.Server.LoginRateLimit),
		Burst:     conf.Server.LoginRateBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errTooManyTries
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyTries
		},
	})
}
