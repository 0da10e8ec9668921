package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/class"
)

var (
	errNoToken       = echo.NewHTTPError(http.StatusForbidden, "No token provided")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	errUserNotFound  = echo.NewHTTPError(http.StatusNotFound, "User not found")
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, core.ErrPermissionDenied.Error())
	errTooManyTries  = echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
	InvalidIDs []string          `json:"invalidIds,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var res errorResponse

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			res.Errors = make(map[string]string, len(origErr))
			for i, vErr := range origErr {
				msg := vErr.Translate(translator)
				if i == 0 {
					res.Message = msg
				}
				if _, ok := res.Errors[vErr.Field()]; !ok {
					res.Errors[vErr.Field()] = msg
				}
			}
			code = http.StatusBadRequest
		case *core.ValidationError:
			if origErr.Fields != nil {
				res.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					res.Errors[fErr.Field] = fErr.Error
				}
			}
			res.Message = origErr.Error()
			code = http.StatusBadRequest
		case *core.NotFoundError:
			res.Message = origErr.Error()
			code = http.StatusNotFound
		case *class.InvalidStudentsError:
			res.Message = origErr.Error()
			res.InvalidIDs = origErr.IDs
			code = http.StatusBadRequest
		default:
			if origErr == core.ErrPermissionDenied {
				res.Message = origErr.Error()
				code = http.StatusForbidden
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			res.Message = origErr.Error()

			msg := http.StatusText(http.StatusInternalServerError)
			if id, ok := auth.IdentityFrom(ctx.Request().Context()); ok {
				logger.Error(msg, errors.Wrap(err, msg), id)
			} else {
				logger.Error(msg, errors.Wrap(err, msg))
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
