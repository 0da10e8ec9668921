package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	AuthConfig struct {
		TokenTTL             time.Duration
		Issuer               string
		PasswordResetTimeout time.Duration
		GoogleClientID       string
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		LoginRateLimit  float64 // requests per second, per client IP
		LoginRateBurst  int
	}

	MongoConfig struct {
		URI            string
		Database       string
		Transactions   bool
		ConnectTimeout time.Duration
	}

	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		Env              string
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Auth   AuthConfig
		Server ServerConfig
		Mongo  MongoConfig
	}
)

// NewConfig loads the configuration from the environment, after loading `config/.env.<env>` if it exists.
// Environment variables are prefixed with the upper-cased env name (e.g.: DEV_MONGO_URI).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "HSU Classroom")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "hsuuniversity")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "HSU Classroom <noreply@localhost>")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("auth.tokenTTL", 2*time.Hour)
	conf.SetDefault("auth.issuer", "hsu-classroom")
	conf.SetDefault("auth.passwordResetTimeout", 3*24*time.Hour)
	conf.SetDefault("auth.googleClientID", "")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":5000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.loginRateLimit", 1.0)
	conf.SetDefault("server.loginRateBurst", 10)
	conf.SetDefault("mongo.uri", "mongodb://localhost:27017")
	conf.SetDefault("mongo.database", "classroom")
	conf.SetDefault("mongo.transactions", false)
	conf.SetDefault("mongo.connectTimeout", 10*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.mail.ParseAddress(%s): %v", conf.GetString("defaultFromEmail"), err)
	}

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		Env:              env,
		WorkDir:          wd,
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: *fromEmail,
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Auth: AuthConfig{
			TokenTTL:             conf.GetDuration("auth.tokenTTL"),
			Issuer:               conf.GetString("auth.issuer"),
			PasswordResetTimeout: conf.GetDuration("auth.passwordResetTimeout"),
			GoogleClientID:       conf.GetString("auth.googleClientID"),
		},
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			LoginRateLimit:  conf.GetFloat64("server.loginRateLimit"),
			LoginRateBurst:  conf.GetInt("server.loginRateBurst"),
		},
		Mongo: MongoConfig{
			URI:            conf.GetString("mongo.uri"),
			Database:       conf.GetString("mongo.database"),
			Transactions:   conf.GetBool("mongo.transactions"),
			ConnectTimeout: conf.GetDuration("mongo.connectTimeout"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests; it never touches the environment.
func NewTestConfig() *Config {
	return &Config{
		Debug:            false,
		TestMode:         true,
		AppName:          "HSU Classroom",
		Build:            "test",
		Env:              "TEST",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "HSU Classroom", Address: "noreply@localhost"},
		Auth: AuthConfig{
			TokenTTL:             2 * time.Hour,
			Issuer:               "hsu-classroom",
			PasswordResetTimeout: 3 * 24 * time.Hour,
			GoogleClientID:       "test-client-id",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Address:         ":0",
			ShutdownTimeout: time.Second,
			LoginRateLimit:  1000,
			LoginRateBurst:  1000,
		},
		Mongo: MongoConfig{Database: "classroom_test", ConnectTimeout: 10 * time.Second},
	}
}
