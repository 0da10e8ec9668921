package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/user"
	federatedsvc "github.com/hsuniversity/classroom/services/federated"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
)

type authApi struct {
	svc       user.ServiceInterface
	tokens    *auth.TokenManager
	federated federatedsvc.Verifier
	metrics   metricsvc.Recorder
	logger    core.Logger
	validate  *validator.Validate
}

func registerAuthAPI(g *echo.Group, gate, throttle echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		svc:       deps.UserSvc,
		tokens:    deps.Tokens,
		federated: deps.Federated,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		validate:  deps.Validate,
	}

	// un-authed endpoints
	g.POST("/register", api.register)
	g.POST("/login", api.login, throttle)
	g.POST("/google-login", api.googleLogin, throttle)
	g.POST("/reset-password", api.requestPasswordReset, throttle)
	g.POST("/reset-password/confirm", api.confirmPasswordReset, throttle)

	// authed endpoints
	g.GET("/profile", api.profile, gate)
	g.POST("/logout", api.logout, gate)
}

func (api *authApi) respondWithToken(ctx echo.Context, code int, msg string, usr user.User) error {
	token, err := api.tokens.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(code, authResponse{Message: msg, Token: token, User: newAuthUser(usr)})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return api.respondWithToken(ctx, http.StatusCreated, "User registered successfully", usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		api.metrics.RecordLogin(user.ProviderPassword, false)
		switch cause := errors.Cause(err); cause {
		case user.ErrNotFound, user.ErrIncorrectPassword, user.ErrAccountDisabled:
			return echo.NewHTTPError(http.StatusUnauthorized, cause.Error())
		}
		return errors.Wrap(err, "authenticating")
	}
	api.metrics.RecordLogin(user.ProviderPassword, true)
	return api.respondWithToken(ctx, http.StatusOK, "Login successful", usr)
}

func (api *authApi) googleLogin(ctx echo.Context) error {
	var data GoogleLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	fi, err := api.federated.Verify(reqCtx, data.IDToken)
	if err != nil {
		api.metrics.RecordLogin(user.ProviderGoogle, false)
		return core.NewValidationError(errors.Cause(err))
	}

	usr, created, err := api.svc.FederatedLogin(reqCtx, fi)
	if err != nil {
		api.metrics.RecordLogin(user.ProviderGoogle, false)
		if errors.Cause(err) == user.ErrFederatedDisabled {
			return core.NewValidationError(user.ErrFederatedDisabled)
		}
		return errors.Wrap(err, "signing in with google")
	}
	api.metrics.RecordLogin(user.ProviderGoogle, true)

	msg := "Google login successful"
	if created {
		msg = "Account created and logged in successfully"
	}
	return api.respondWithToken(ctx, http.StatusOK, msg, usr)
}

func (api *authApi) profile(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": id.User})
}

func (api *authApi) logout(ctx echo.Context) error {
	// credentials are stateless: the client discards its token
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (api *authApi) requestPasswordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if cause := errors.Cause(err); !(cause == nil || cause == user.ErrNotFound || cause == user.ErrAccountDisabled) {
		// do not return errors to attackers
		api.logger.Error(fmt.Sprintf("requesting password reset: %v", err), errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password reset email sent successfully"})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password has been reset"})
}
