// Package config loads and validates the cloudnss configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (CLOUDNSS_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the resolvers look for configuration when no
// explicit path is given. The file is optional; defaults cover a stock
// deployment.
const DefaultConfigPath = "/etc/cloudnss/config.yaml"

// Config is the static configuration for both resolvers and the refresh
// command.
type Config struct {
	// Directory configures the identity directory endpoint.
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	// Cache configures the local cache file.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics configures the optional Prometheus endpoint served by the
	// refresh daemon.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// DirectoryConfig describes the identity directory endpoint.
type DirectoryConfig struct {
	// BaseURL is the directory base URL, including a trailing slash.
	// Queries are appended directly: <base>users?uid=<n>.
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// Timeout bounds each directory round trip.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0" yaml:"timeout"`
}

// CacheConfig describes the local cache file.
type CacheConfig struct {
	// Path is the cache file location.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// SortKey is the key the producer sorts the file by: "uid", "name",
	// or "none". Lookups on that key may binary-search the file.
	SortKey string `mapstructure:"sort_key" validate:"oneof=uid name none" yaml:"sort_key"`

	// RefreshInterval is how often the refresh daemon re-materializes the
	// file when running with --daemon.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0" yaml:"refresh_interval"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the refresh daemon's metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the Prometheus registry and listener on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the address the /metrics and /healthz endpoints bind to.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Load loads configuration from file, environment, and defaults. An empty
// configPath uses DefaultConfigPath; a missing file is not an error, the
// defaults simply apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if !strings.HasSuffix(cfg.Directory.BaseURL, "/") {
		return fmt.Errorf("directory.base_url must end with a trailing slash, got %q", cfg.Directory.BaseURL)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}
	return nil
}

// Save writes the configuration to path in YAML form.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment overrides and the config file search.
// Environment variables use the CLOUDNSS_ prefix with underscores, e.g.
// CLOUDNSS_DIRECTORY_BASE_URL.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CLOUDNSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = DefaultConfigPath
	}
	v.SetConfigFile(configPath)
}

// readConfigFile reads the config file if present. Returns whether a file
// was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the decode hooks for custom config types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "5s" or "10m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
