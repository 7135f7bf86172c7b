package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_ADDR", "GOOGLE_APPLICATION_CREDENTIALS", "VISION_ENDPOINT",
		"DATABASE_DSN", "REDIS_ADDR", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "VISION_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/vision.json")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.CredentialsFile != "/secrets/vision.json" {
		t.Errorf("unexpected credentials file: %s", cfg.CredentialsFile)
	}
	if cfg.LogLevel != zapcore.InfoLevel {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected 15s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.VisionTimeout != 0 {
		t.Errorf("expected library default vision timeout, got %s", cfg.VisionTimeout)
	}
	if cfg.DatabaseDSN != "" || cfg.RedisAddr != "" {
		t.Errorf("expected optional backends disabled, got %+v", cfg)
	}
}

func TestFromEnvVisionTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/vision.json")
	t.Setenv("VISION_TIMEOUT", "30s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.VisionTimeout != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.VisionTimeout)
	}
}

func TestFromEnvRequiresCredentials(t *testing.T) {
	clearEnv(t)

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "log level", key: "LOG_LEVEL", val: "loud"},
		{name: "shutdown timeout", key: "SHUTDOWN_TIMEOUT", val: "soon"},
		{name: "negative timeout", key: "SHUTDOWN_TIMEOUT", val: "-1s"},
		{name: "vision timeout", key: "VISION_TIMEOUT", val: "forever"},
		{name: "negative vision timeout", key: "VISION_TIMEOUT", val: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/vision.json")
			t.Setenv(tt.key, tt.val)

			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GOOGLE_APPLICATION_CREDENTIALS")
	os.Unsetenv("REDIS_ADDR")

	dir := t.TempDir()
	content := "GOOGLE_APPLICATION_CREDENTIALS=/from/dotenv.json\nREDIS_ADDR=localhost:6379\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(oldWd)
		os.Unsetenv("GOOGLE_APPLICATION_CREDENTIALS")
		os.Unsetenv("REDIS_ADDR")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.CredentialsFile != "/from/dotenv.json" {
		t.Errorf("unexpected credentials file: %s", cfg.CredentialsFile)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected redis addr: %s", cfg.RedisAddr)
	}
}
