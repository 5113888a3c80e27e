package config

import (
	"strings"
	"time"

	"github.com/marmos91/cloudnss/pkg/cachefile"
	"github.com/marmos91/cloudnss/pkg/directory"
)

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any unset configuration fields with defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyDirectoryDefaults(&cfg.Directory)
	applyCacheDefaults(&cfg.Cache)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyDirectoryDefaults(cfg *DirectoryConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://metadata.internal/identity/v1/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = directory.DefaultTimeout
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Path == "" {
		cfg.Path = cachefile.DefaultPath
	}
	if cfg.SortKey == "" {
		cfg.SortKey = "uid"
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 6 * time.Hour
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
}

// SortKeyValue converts the configured sort key string to the cachefile
// type.
func (c *CacheConfig) SortKeyValue() cachefile.SortKey {
	switch c.SortKey {
	case "name":
		return cachefile.SortKeyName
	case "none":
		return cachefile.SortKeyNone
	default:
		return cachefile.SortKeyUID
	}
}
