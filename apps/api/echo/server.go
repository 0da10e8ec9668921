package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/grade"
	"github.com/hsuniversity/classroom/core/user"
	federatedsvc "github.com/hsuniversity/classroom/services/federated"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       user.ServiceInterface
		ClassSvc      *class.Service
		AttendanceSvc *attendance.Service
		GradeSvc      *grade.Service
		Tokens        *auth.TokenManager
		Federated     federatedsvc.Verifier
		Metrics       metricsvc.Recorder
		Gatherer      prometheus.Gatherer // exposed on /metrics when set
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metricsvc.NewCollector(prometheus.NewRegistry())
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !deps.Conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	s.app.Use(recordRequests(s.deps.Metrics))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/api-test", apiTest)
	if s.deps.Gatherer != nil {
		s.app.GET("/metrics", echo.WrapHandler(metricsvc.Handler(s.deps.Gatherer)))
	}

	api := s.app.Group("/api")
	gate := authenticate(s.deps.Tokens, s.deps.UserSvc, s.deps.Metrics)
	throttle := rateLimit(conf)

	registerAuthAPI(api.Group("/auth"), gate, throttle, s.deps)
	registerUserAPI(api.Group("/users", gate), s.deps)
	registerClassAPI(api.Group("/classes", gate), s.deps)
	registerAttendanceAPI(api.Group("/attendance", gate), s.deps)
	registerGradeAPI(api.Group("/grades", gate), s.deps)
}

// Start blocks serving requests; a failure to serve is reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signalled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to HSU Classroom API!")
}

func apiTest(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, messageResponse{Message: "API is working"})
}
