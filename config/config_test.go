package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "aff4.db", cfg.Store.Path)
	assert.Equal(t, []string{"aff4:file"}, cfg.Store.SuppressedTypes)
	assert.Equal(t, int64(32*1024), cfg.Imager.ChunkSize)
	assert.Equal(t, 1024*1024, cfg.Imager.BufferSize)
	assert.Equal(t, "zlib", cfg.Imager.Compression)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadIsCached(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aff4.toml")
	content := `
[store]
backend = "sqlite"
path = "/var/lib/aff4/meta.db"
suppressed_types = ["aff4:file", "aff4:memory-stream"]

[imager]
chunk_size = 65536
compression = "none"

[log]
json = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/aff4/meta.db", cfg.Store.Path)
	assert.Equal(t, []string{"aff4:file", "aff4:memory-stream"}, cfg.Store.SuppressedTypes)
	assert.Equal(t, int64(65536), cfg.Imager.ChunkSize)
	assert.Equal(t, "none", cfg.Imager.Compression)
	assert.True(t, cfg.Log.JSON)

	// Unset keys keep their defaults.
	assert.Equal(t, 1024*1024, cfg.Imager.BufferSize)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
