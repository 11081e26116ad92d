package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvSpotifyToken = "LISTKIT_SPOTIFY_TOKEN"
	EnvYouTubeToken = "LISTKIT_YOUTUBE_TOKEN"
	EnvDatabasePath = "LISTKIT_DATABASE_PATH"
	EnvLogLevel     = "LISTKIT_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Providers    ProvidersConfig    `toml:"providers"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Database     DatabaseConfig     `toml:"database"`
	Logging      LoggingConfig      `toml:"logging"`
	Metrics      MetricsConfig      `toml:"metrics"`
}

// ProvidersConfig contains per-provider API settings.
type ProvidersConfig struct {
	Spotify ProviderConfig `toml:"spotify"`
	YouTube ProviderConfig `toml:"youtube"`
}

// ProviderConfig holds the endpoint and bearer token for one provider.
//
// Tokens are obtained out of band; listkit does not run an OAuth flow.
type ProviderConfig struct {
	BaseURL     string `toml:"base_url" validate:"omitempty,url"`
	AccessToken string `toml:"access_token"`
}

// OrchestratorConfig controls retry and throttling of remote calls.
type OrchestratorConfig struct {
	MaxAttempts    int           `toml:"max_attempts" validate:"gte=1,lte=10"`
	RetryDelay     time.Duration `toml:"retry_delay" validate:"gte=0"`
	RateLimit      float64       `toml:"rate_limit" validate:"gt=0"`
	DefaultPrivacy string        `toml:"default_privacy" validate:"omitempty,oneof=public unlisted private"`
}

// DatabaseConfig contains database connection settings for the journal.
type DatabaseConfig struct {
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// MetricsConfig controls metric export. An empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on '%s'", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides tokens, database path and log level from the process environment
// and any of the given dotenv files. Process environment wins over file values; missing
// files are ignored.
func (c *Config) ApplyEnv(files ...string) error {
	fileEnv := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		values, err := godotenv.Read(f)
		if err != nil {
			return fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range values {
			fileEnv[k] = v
		}
	}

	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileEnv[key]
	}

	if v := lookup(EnvSpotifyToken); v != "" {
		c.Providers.Spotify.AccessToken = v
	}
	if v := lookup(EnvYouTubeToken); v != "" {
		c.Providers.YouTube.AccessToken = v
	}
	if v := lookup(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
