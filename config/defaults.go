package config

import "github.com/spf13/viper"

// Backend names for store.backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.path", "aff4.db")
	// File streams are ephemeral process-local objects; keep them out
	// of metadata shared between volumes.
	v.SetDefault("store.suppressed_types", []string{"aff4:file"})

	// Imager defaults
	v.SetDefault("imager.chunk_size", 32*1024)
	v.SetDefault("imager.buffer_size", 1024*1024)
	v.SetDefault("imager.compression", "zlib")

	// Log defaults
	v.SetDefault("log.json", false)
}
