package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the screening engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (database password, reasoning API key) must only come from environment
// variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Reasoning service configuration
	Reasoning ReasoningConfig `yaml:"reasoning"`

	// Screening run behavior
	Screening ScreeningConfig `yaml:"screening"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"towardevidence"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"towardevidence"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// URL builds a PostgreSQL connection URL from the configuration.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// ReasoningConfig holds the external reasoning service configuration.
// The API key is injected here explicitly and handed to the reasoning
// client at construction; there is no process-wide credential state. An
// empty APIKey selects the deterministic degraded mode.
type ReasoningConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"REASONING_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"REASONING_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"REASONING_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"REASONING_API_KEY"` // Secret - not in YAML

	// TimeoutSeconds bounds each reasoning call. Expiry degrades the
	// record's decision instead of hanging the run.
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"REASONING_TIMEOUT_SECONDS" env-default:"60"`
	Temperature    float64 `yaml:"temperature" env:"REASONING_TEMPERATURE" env-default:"0.1"`
}

// Available reports whether a credential for the reasoning service is
// configured.
func (c *ReasoningConfig) Available() bool {
	return c.APIKey != ""
}

// ScreeningConfig holds screening run behavior.
type ScreeningConfig struct {
	// CronSchedule, when non-empty, runs title/abstract screening for all
	// projects with an approved protocol on the given cron schedule.
	CronSchedule string `yaml:"cron_schedule" env:"SCREENING_CRON_SCHEDULE" env-default:""`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	switch cfg.Reasoning.Provider {
	case "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Reasoning.Provider)
	}

	return cfg, nil
}
