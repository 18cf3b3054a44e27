package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"jabi/internal/logging"
)

// Config represents the jabi workspace configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Codec names the class codec used when a command does not pick one
	Codec string `json:"codec" mapstructure:"codec"`

	// Workers caps extraction parallelism; zero means one per CPU
	Workers int `json:"workers" mapstructure:"workers"`

	// CompressionLevel is the archive deflate level: -2 to 9, -1 for the
	// library default, 0 to store entries uncompressed
	CompressionLevel int `json:"compressionLevel" mapstructure:"compressionLevel"`

	Store   StoreConfig   `json:"store" mapstructure:"store"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StoreConfig contains run database configuration
type StoreConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Path is the directory holding the run database, relative to the
	// workspace root unless absolute
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:          1,
		Codec:            "stub",
		Workers:          0,
		CompressionLevel: -1,
		Store: StoreConfig{
			Enabled: true,
			Path:    ".jabi",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .jabi/config.json under workRoot
func LoadConfig(workRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults so sparse config files fill in sensibly
	v.SetDefault("version", 1)
	v.SetDefault("codec", "stub")
	v.SetDefault("workers", 0)
	v.SetDefault("compressionLevel", -1)
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", ".jabi")
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workRoot, ".jabi"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .jabi/config.json under workRoot
func (c *Config) Save(workRoot string) error {
	configPath := filepath.Join(workRoot, ".jabi", "config.json")

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Codec == "" {
		return &ConfigError{Field: "codec", Message: "must not be empty"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must be zero or positive"}
	}
	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return &ConfigError{Field: "compressionLevel", Message: "must be between -2 and 9"}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return &ConfigError{Field: "store.path", Message: "must not be empty when the store is enabled"}
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return &ConfigError{Field: "logging.format", Message: err.Error()}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
