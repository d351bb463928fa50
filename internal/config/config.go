// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	// DatabaseURL is the Postgres connection string. When empty the server
	// runs on the in-memory store and nothing survives a restart.
	DatabaseURL string `env:"DATABASE_URL"`

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// TokenSecret signs access tokens. Required, at least 32 bytes.
	TokenSecret string `env:"TOKEN_SECRET,required" validate:"min=32"`

	// TokenTTL is how long an issued token stays valid. Defaults to 24h.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h" validate:"gt=0"`

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576" validate:"gt=0"`

	// StrictAttributeOwnership rejects attaching another user's tags or items
	// to a coffee. Off by default.
	StrictAttributeOwnership bool `env:"STRICT_ATTRIBUTE_OWNERSHIP" envDefault:"false"`

	// MigrateOnStart applies pending migrations before serving when a
	// database is configured. Defaults to true.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error naming any variable that is missing or invalid.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// validate checks the struct tags and reports failures by env var name.
func validate(cfg Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		return name
	})

	err := v.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid environment: %s", strings.Join(msgs, "; "))
}

// trimAll trims each entry and drops the empty ones.
func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
