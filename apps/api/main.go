package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/hsuniversity/classroom/apps/api/echo"
	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/grade"
	"github.com/hsuniversity/classroom/core/user"
	emailsvc "github.com/hsuniversity/classroom/services/email"
	federatedsvc "github.com/hsuniversity/classroom/services/federated"
	logsvc "github.com/hsuniversity/classroom/services/logger"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
	mongodb "github.com/hsuniversity/classroom/storage/database/mongo"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err = db.Close(ctx); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(mongodb.NewUserRepository(db), mailSvc, conf)
	classSvc := class.NewService(mongodb.NewClassRepository(db), usrSvc)
	attendanceSvc := attendance.NewService(mongodb.NewAttendanceRepository(db), classSvc)
	gradeSvc := grade.NewService(mongodb.NewGradeRepository(db), classSvc)

	googleVerifier, err := federatedsvc.NewGoogleVerifier(conf.Auth.GoogleClientID)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up google sign-in: %v", err), err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			ClassSvc:      classSvc,
			AttendanceSvc: attendanceSvc,
			GradeSvc:      gradeSvc,
			Tokens:        auth.NewTokenManager(conf.SecretKey, conf.Auth.Issuer, conf.Auth.TokenTTL),
			Federated:     googleVerifier,
			Metrics:       metricsvc.NewCollector(registry),
			Gatherer:      registry,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Mongo.ConnectTimeout)
	defer cancel()

	db, err := mongodb.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
