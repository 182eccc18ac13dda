// Package config provides configuration loading for vectord.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then environment variables with the VECTORD_ prefix.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/vectord/internal/telemetry"
)

// Config holds the complete vectord configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Qdrant    QdrantConfig     `koanf:"qdrant"`
	Memory    StoreConfig      `koanf:"memory"`
	Document  DocumentConfig   `koanf:"document"`
	Stats     StatsConfig      `koanf:"stats"`
	Logging   LoggingConfig    `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// APIKey, when set, requires a matching bearer token on every request
	// except health and metrics. Empty means open access.
	APIKey Secret `koanf:"api_key"`
}

// QdrantConfig holds the engine connection settings.
type QdrantConfig struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port"`
	APIKey         Secret   `koanf:"api_key"`
	UseTLS         bool     `koanf:"use_tls"`
	RequestTimeout Duration `koanf:"request_timeout"`
	RetryAttempts  int      `koanf:"retry_attempts"`
}

// StoreConfig holds per-store collection settings.
type StoreConfig struct {
	Collection string `koanf:"collection"`
	Dimension  uint64 `koanf:"dimension"`
}

// DocumentConfig extends StoreConfig with the batch cap.
type DocumentConfig struct {
	Collection   string `koanf:"collection"`
	Dimension    uint64 `koanf:"dimension"`
	MaxBatchSize int    `koanf:"max_batch_size"`
}

// StatsConfig holds the periodic stats reporter settings.
type StatsConfig struct {
	ReportInterval Duration `koanf:"report_interval"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.RequestTimeout == 0 {
		cfg.Qdrant.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.Qdrant.RetryAttempts == 0 {
		cfg.Qdrant.RetryAttempts = 3
	}

	if cfg.Memory.Collection == "" {
		cfg.Memory.Collection = "memories"
	}
	if cfg.Memory.Dimension == 0 {
		cfg.Memory.Dimension = 1024
	}

	if cfg.Document.Collection == "" {
		cfg.Document.Collection = "documents"
	}
	if cfg.Document.Dimension == 0 {
		cfg.Document.Dimension = cfg.Memory.Dimension
	}
	if cfg.Document.MaxBatchSize == 0 {
		cfg.Document.MaxBatchSize = 100
	}

	if cfg.Stats.ReportInterval == 0 {
		cfg.Stats.ReportInterval = Duration(5 * time.Minute)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	cfg.Telemetry.ApplyDefaults()
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Qdrant.Host == "" {
		return errors.New("qdrant host required")
	}
	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d (must be 1-65535)", c.Qdrant.Port)
	}

	if c.Memory.Dimension == 0 {
		return errors.New("memory vector dimension required")
	}
	if c.Document.Dimension == 0 {
		return errors.New("document vector dimension required")
	}
	if c.Document.MaxBatchSize < 1 {
		return fmt.Errorf("invalid max batch size: %d", c.Document.MaxBatchSize)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}
