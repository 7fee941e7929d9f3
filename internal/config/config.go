// Package config provides configuration loading for the PDF reader.
// Sources are applied in order: defaults, YAML file, .env file, environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/pdf-reader/internal/domain"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PDF_READER_"

// Config holds all configuration for the reader.
type Config struct {
	Upload        UploadConfig        `yaml:"upload"`
	Render        RenderConfig        `yaml:"render"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// UploadConfig holds file acceptance rules.
type UploadConfig struct {
	AcceptedType string  `yaml:"accepted_type"`
	MaxSizeMB    float64 `yaml:"max_size_mb"`
}

// RenderConfig holds pipeline settings.
type RenderConfig struct {
	Scale           float64 `yaml:"scale"`
	PageConcurrency int     `yaml:"page_concurrency"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxSessions      int           `yaml:"max_sessions"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from a YAML file (optional) and applies
// environment overrides. A .env file in the working directory is honored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	_ = godotenv.Load() // .env is optional

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, domain.ConfigError("validate config", err)
	}

	return cfg, nil
}

// DefaultConfig returns the observed component defaults: PDF only, 1 MiB, 1.5x.
func DefaultConfig() *Config {
	return &Config{
		Upload: UploadConfig{
			AcceptedType: domain.AcceptedContentType,
			MaxSizeMB:    1,
		},
		Render: RenderConfig{
			Scale:           domain.RenderScale,
			PageConcurrency: 4,
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     2 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxSessions:      256,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Upload.AcceptedType) == "" {
		errs = append(errs, "upload.accepted_type is required")
	}
	if c.Upload.MaxSizeMB <= 0 {
		errs = append(errs, "upload.max_size_mb must be positive")
	}
	if c.Render.Scale <= 0 {
		errs = append(errs, "render.scale must be positive")
	}
	if c.Render.PageConcurrency < 1 {
		errs = append(errs, "render.page_concurrency must be at least 1")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if c.Server.MaxSessions < 1 {
		errs = append(errs, "server.max_sessions must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "ACCEPTED_TYPE"); v != "" {
		cfg.Upload.AcceptedType = v
	}
	if v := os.Getenv(EnvPrefix + "MAX_SIZE_MB"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.ConfigError(EnvPrefix+"MAX_SIZE_MB", err)
		}
		cfg.Upload.MaxSizeMB = f
	}
	if v := os.Getenv(EnvPrefix + "RENDER_SCALE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.ConfigError(EnvPrefix+"RENDER_SCALE", err)
		}
		cfg.Render.Scale = f
	}
	if v := os.Getenv(EnvPrefix + "PAGE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError(EnvPrefix+"PAGE_CONCURRENCY", err)
		}
		cfg.Render.PageConcurrency = n
	}
	if v := os.Getenv(EnvPrefix + "HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError(EnvPrefix+"PORT", err)
		}
		cfg.Server.Port = n
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	return nil
}
