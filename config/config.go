package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// HTTP configuration
	HTTPAddr       string        `env:"HTTP_ADDR"       envDefault:":8080"`
	JWTSecret      string        `env:"JWT_SECRET"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Projection and promotion behavior
	TxIsolation        string `env:"TX_ISOLATION"         envDefault:"serializable"`
	AllowRepromotion   bool   `env:"ALLOW_REPROMOTION"    envDefault:"true"`
	MaxProjectionWeeks int    `env:"MAX_PROJECTION_WEEKS" envDefault:"5200"`

	// NATS configuration
	NATSEnabled bool     `env:"NATS_ENABLED"`
	NATSServers []string `env:"NATS_SERVERS" envDefault:"nats://localhost:4222" envSeparator:","`

	// OpenTelemetry configuration
	OTelEnabled              bool   `env:"OTEL_ENABLED"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE"      envDefault:"console"`
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT"      envDefault:"localhost:4317"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME"       envDefault:"projector"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"10000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that env defaults cannot enforce
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.MaxProjectionWeeks < 1 {
		return fmt.Errorf("MAX_PROJECTION_WEEKS must be at least 1, got %d", c.MaxProjectionWeeks)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	switch c.OTelExporterType {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", c.OTelExporterType)
	}
	if c.OTelExportIntervalMillis < 1 {
		return fmt.Errorf("OTEL_EXPORT_INTERVAL_MS must be positive, got %d", c.OTelExportIntervalMillis)
	}
	return nil
}

// RequireJWTSecret reports a missing signing secret. Only the HTTP server needs one.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}
