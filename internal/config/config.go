// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds all configuration values for the API server and hosctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// LogLevel controls the minimum log level: debug, info, warn or error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins CSV `env:"CORS_ORIGINS" envDefault:"http://localhost:5173"`

	// JWTSecret signs tenant tokens. Only the API server needs it.
	JWTSecret string `env:"JWT_SECRET"`

	// RedisURL enables the drive-time estimate cache when set.
	RedisURL         string        `env:"REDIS_URL"`
	EstimateCacheTTL time.Duration `env:"ESTIMATE_CACHE_TTL" envDefault:"24h" validate:"gt=0"`

	ORS struct {
		// APIKey enables the OpenRouteService estimator when set.
		APIKey  string        `env:"API_KEY"`
		BaseURL string        `env:"BASE_URL" envDefault:"https://api.openrouteservice.org"`
		Profile string        `env:"PROFILE" envDefault:"driving-hgv"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"3s" validate:"gt=0"`
	} `envPrefix:"ORS_"`

	AMQP struct {
		URL            string        `env:"URL"`
		Exchange       string        `env:"EXCHANGE" envDefault:"hos.alerts"`
		PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	} `envPrefix:"AMQP_"`

	HOS struct {
		DefaultDriveMinutes int           `env:"DEFAULT_DRIVE_MINUTES" envDefault:"480" validate:"gt=0"`
		AverageSpeedMPH     float64       `env:"AVERAGE_SPEED_MPH" envDefault:"55" validate:"gt=0"`
		BreakRule           string        `env:"BREAK_RULE" envDefault:"cumulative" validate:"oneof=cumulative consecutive"`
		WorkerLimit         int           `env:"WORKER_LIMIT" envDefault:"8" validate:"gt=0,lte=64"`
		FailurePolicy       string        `env:"FAILURE_POLICY" envDefault:"skip" validate:"oneof=skip abort"`
		Timezone            string        `env:"TIMEZONE" envDefault:"UTC" validate:"timezone"`
		ProximityTimeout    time.Duration `env:"PROXIMITY_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	} `envPrefix:"HOS_"`
}

// CSV is a comma-separated list with entries trimmed and empties dropped.
type CSV []string

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (c *CSV) UnmarshalText(text []byte) error {
	*c = splitCSV(string(text))
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		if missing := missingKeys(err); len(missing) > 0 {
			return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
		}
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Config{}, fmt.Errorf("invalid configuration: %s fails %s", fe.Field(), fe.Tag())
		}
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// Location resolves HOS.Timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.HOS.Timezone)
}

// missingKeys collects the names of unset or empty required variables.
func missingKeys(err error) []string {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil
	}
	var keys []string
	for _, e := range agg.Errors {
		var notSet env.EnvVarIsNotSetError
		var empty env.EmptyEnvVarError
		switch {
		case errors.As(e, &notSet):
			keys = append(keys, notSet.Key)
		case errors.As(e, &empty):
			keys = append(keys, empty.Key)
		}
	}
	return keys
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Name fields by their variable so errors point at what to fix.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("env"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
