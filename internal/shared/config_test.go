package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./listkit.db" {
			t.Errorf("expected database path ./listkit.db, got %s", config.Database.Path)
		}

		if config.Orchestrator.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", config.Orchestrator.MaxAttempts)
		}

		if config.Orchestrator.RetryDelay != time.Second {
			t.Errorf("expected retry delay 1s, got %v", config.Orchestrator.RetryDelay)
		}

		if config.Providers.Spotify.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("unexpected spotify base url %s", config.Providers.Spotify.BaseURL)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		content := `
[orchestrator]
max_attempts = 5
retry_delay = "250ms"
rate_limit = 2.5

[database]
path = "/tmp/journal.db"
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Orchestrator.MaxAttempts != 5 {
			t.Errorf("expected 5 attempts, got %d", config.Orchestrator.MaxAttempts)
		}
		if config.Orchestrator.RetryDelay != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %v", config.Orchestrator.RetryDelay)
		}
		if config.Database.Path != "/tmp/journal.db" {
			t.Errorf("expected /tmp/journal.db, got %s", config.Database.Path)
		}
		if config.Logging.Level != "info" {
			t.Errorf("unset values should keep defaults, got level %q", config.Logging.Level)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		if err := os.WriteFile(configPath, []byte("[orchestrator]\nmax_attempts = 0\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		tmpDir := t.TempDir()
		envPath := filepath.Join(tmpDir, ".env")
		content := EnvSpotifyToken + "=file-spotify\n" + EnvYouTubeToken + "=file-youtube\n"
		if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvSpotifyToken, "")
		t.Setenv(EnvYouTubeToken, "process-youtube")

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath, filepath.Join(tmpDir, "missing.env")); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}

		if config.Providers.Spotify.AccessToken != "file-spotify" {
			t.Errorf("expected token from env file, got %q", config.Providers.Spotify.AccessToken)
		}
		if config.Providers.YouTube.AccessToken != "process-youtube" {
			t.Errorf("process environment should win, got %q", config.Providers.YouTube.AccessToken)
		}
	})
}
