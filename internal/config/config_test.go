package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadWritesAndReadsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.ModelBaseURL == "" || cfg.DatabasePath == "" {
		t.Errorf("expected model and database defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}

	// Second load round-trips the file it just wrote.
	again, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if again != cfg {
		t.Errorf("reloaded config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RECIPECHAT_MODEL_NAME", "local-test-model")

	path := filepath.Join(t.TempDir(), "config.yaml")
	logger := zerolog.Nop()

	cfg, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ModelName != "local-test-model" {
		t.Errorf("expected env override to win, got %q", cfg.ModelName)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Addr:         ":9090",
		ModelTimeout: 10 * time.Second,
	})

	if cfg.Addr != ":9090" {
		t.Errorf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.ModelTimeout != 10*time.Second {
		t.Errorf("expected timeout override, got %v", cfg.ModelTimeout)
	}
	if cfg.DatabasePath != "recipes.db" {
		t.Errorf("zero value should not clear database path, got %q", cfg.DatabasePath)
	}
	if cfg.MessagesPerMinute != 30 {
		t.Errorf("zero value should not clear message cap, got %d", cfg.MessagesPerMinute)
	}
}
