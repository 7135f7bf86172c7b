package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config is the process-wide configuration, resolved once at startup.
type Config struct {
	HTTPAddr        string
	LogLevel        zapcore.Level
	ShutdownTimeout time.Duration

	// CredentialsFile is the service account JSON used by the vision client.
	CredentialsFile string
	VisionEndpoint  string
	// VisionTimeout bounds one vision call. Zero keeps the client library default.
	VisionTimeout time.Duration

	// Optional backends. Empty disables them.
	DatabaseDSN string
	RedisAddr   string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		VisionEndpoint:  strings.TrimSpace(os.Getenv("VISION_ENDPOINT")),
		DatabaseDSN:     strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		RedisAddr:       strings.TrimSpace(os.Getenv("REDIS_ADDR")),
	}

	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	timeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = timeout

	visionTimeout, err := time.ParseDuration(getEnv("VISION_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("parse VISION_TIMEOUT: %w", err)
	}
	cfg.VisionTimeout = visionTimeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return errors.New("GOOGLE_APPLICATION_CREDENTIALS must point to a service account file")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.VisionTimeout < 0 {
		return fmt.Errorf("VISION_TIMEOUT must not be negative, got %s", c.VisionTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
