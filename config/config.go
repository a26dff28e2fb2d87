// Package config manages the AFF4 tool configuration using Viper:
// defaults, a TOML config file, and AFF4_-prefixed environment
// variables, in increasing order of precedence.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/forensix/aff4/errors"
)

// Config is the full tool configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Imager ImagerConfig `mapstructure:"imager"`
	Log    LogConfig    `mapstructure:"log"`
}

// StoreConfig selects and tunes the resolver's triple store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Path is the SQLite database path for the sqlite backend.
	Path string `mapstructure:"path"`
	// SuppressedTypes lists object types omitted from Turtle output.
	SuppressedTypes []string `mapstructure:"suppressed_types"`
}

// ImagerConfig tunes acquisition.
type ImagerConfig struct {
	ChunkSize   int64  `mapstructure:"chunk_size"`
	BufferSize  int    `mapstructure:"buffer_size"`
	Compression string `mapstructure:"compression"`
}

// LogConfig tunes diagnostics output.
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads the configuration, caching the result for the process.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing).
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("AFF4")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// An aff4.toml next to the working directory overrides defaults.
	v.SetConfigName("aff4")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // missing config file is fine

	viperInstance = v
	return v
}
