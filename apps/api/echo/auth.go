package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/user"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
)

// authenticate is the authentication gate of every protected route.
// It verifies the bearer credential, resolves its subject against the user directory
// and attaches the resulting auth.Identity to the request context.
func authenticate(tokens *auth.TokenManager, users user.ServiceInterface, metrics metricsvc.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()

			claims, err := tokens.Verify(req.Header.Get(echo.HeaderAuthorization))
			switch errors.Cause(err) {
			case nil:
			case auth.ErrNoCredential:
				metrics.RecordAuthRejection("missing")
				return errNoToken
			case auth.ErrExpiredCredential:
				metrics.RecordAuthRejection("expired")
				return errInvalidToken
			default:
				metrics.RecordAuthRejection("invalid")
				return errInvalidToken
			}

			usr, err := users.GetByID(req.Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					metrics.RecordAuthRejection("unknown_user")
					return errUserNotFound
				}
				metrics.RecordAuthRejection("directory_error")
				return errors.Wrap(err, "finding authenticated user")
			}

			id := auth.NewIdentity(claims, usr)
			ctx.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
			return next(ctx)
		}
	}
}

// contextIdentity returns the identity attached by the authentication gate.
func contextIdentity(ctx echo.Context) (auth.Identity, error) {
	if id, ok := auth.IdentityFrom(ctx.Request().Context()); ok {
		return id, nil
	}
	return auth.Identity{}, errUnauthorized
}
