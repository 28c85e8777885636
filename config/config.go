// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	_ = pflag.String("promote-admin", "", "Grants the ADMIN role to the account with this email and exits")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs         = []string{"development", "production"}
	validDrivers      = []string{"sqlite", "postgres"}
	validStorageTypes = []string{"db", "s3"}
)

// ErrNoJWTSecret is returned when jwt.secret is unset. The message carries a
// freshly generated secret the operator can paste into the config.
var ErrNoJWTSecret = errors.New("jwt.secret is not set")

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Load runs before the logger exists, so its warnings are kept until the
// caller can log them.
var warnings []string

func warn(msg string) {
	warnings = append(warnings, msg)
}

// Warnings returns what the last Load call warned about.
func Warnings() []string {
	return slices.Clone(warnings)
}

// Setup parses command line flags and then loads the configuration. Function
// will return an error if something is critically wrong and the application
// can't run because of that.
func Setup() error {
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind flags, %w", err)
	}

	return Load()
}

// Load reads config.toml (optional) and the environment, applies defaults
// and validates the result.
func Load() error {
	warnings = nil

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.expose_dev_otp", "APP_EXPOSE_DEV_OTP")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.ssl_enabled", "HOST_SSL_ENABLED")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiry", "JWT_EXPIRY")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.sender", "MAIL_SENDER")
	v.BindEnv("mail.timeout", "MAIL_TIMEOUT")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("reports.max_body_size", "REPORTS_MAX_BODY_SIZE")
	v.BindEnv("reports.cache_seconds", "REPORTS_CACHE_SECONDS")

	v.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")

	v.BindEnv("storage.type", "STORAGE_TYPE")

	v.BindEnv("aws.access_key", "AWS_ACCESS_KEY")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.expose_dev_otp", false)

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:8081"})
	v.SetDefault("host.ssl_enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.expiry", "720h")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", "10s")

	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("reports.max_body_size", 8)
	v.SetDefault("reports.cache_seconds", 15)

	v.SetDefault("storage.type", "db")

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		warn("No config.toml found, using environment and defaults")
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validEnvs, v.GetString("app.env")) {
		return errors.New("app.env must be development or production")
	}

	if v.GetString("app.env") == "production" && v.GetBool("app.expose_dev_otp") {
		return errors.New("app.expose_dev_otp can't be enabled in production")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("database.driver must be sqlite or postgres")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		return fmt.Errorf("%w. You can use this random one, paste it into config.toml or JWT_SECRET:\n\n%s", ErrNoJWTSecret, genSecret())
	}

	if v.GetDuration("jwt.expiry") <= 0 {
		return errors.New("jwt.expiry must be a positive duration")
	}

	if v.GetString("mail.host") == "" {
		warn("No mail.host set, verification emails won't be delivered")
	} else if v.GetInt("mail.port") <= 0 {
		return errors.New("invalid mail port provided")
	}

	if v.GetDuration("mail.timeout") <= 0 {
		return errors.New("mail.timeout must be a positive duration")
	}

	if v.GetFloat64("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt("reports.max_body_size") <= 0 {
		return errors.New("reports.max_body_size must be bigger than 0")
	}

	if v.GetInt("reports.cache_seconds") < 0 {
		return errors.New("reports.cache_seconds can't be negative")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("aws access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("aws region can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "db":
	default:
		return fmt.Errorf("invalid storage type provided, must be one of %v", validStorageTypes)
	}

	if v.GetBool("app.expose_dev_otp") {
		warn("Verification codes are returned in responses when mail delivery fails. Never use this in production")
	}

	return nil
}
