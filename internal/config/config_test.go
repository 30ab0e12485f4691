package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fdcopy/internal/config"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "fdcopy")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Strategy)
	assert.Nil(t, cfg.Defaults.Verify)
	assert.Nil(t, cfg.Defaults.BufferSize)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
strategy = "buffered"
facility = "copy_file_range"
buffer_size = "256K"
chunk_size = "4M"
bwlimit = "100M"
atomic = true
verify = false
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Strategy)
	assert.Equal(t, "buffered", *cfg.Defaults.Strategy)

	require.NotNil(t, cfg.Defaults.Facility)
	assert.Equal(t, "copy_file_range", *cfg.Defaults.Facility)

	require.NotNil(t, cfg.Defaults.BufferSize)
	assert.Equal(t, "256K", *cfg.Defaults.BufferSize)

	require.NotNil(t, cfg.Defaults.ChunkSize)
	assert.Equal(t, "4M", *cfg.Defaults.ChunkSize)

	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.Equal(t, "100M", *cfg.Defaults.BWLimit)

	require.NotNil(t, cfg.Defaults.Atomic)
	assert.True(t, *cfg.Defaults.Atomic)

	require.NotNil(t, cfg.Defaults.Verify)
	assert.False(t, *cfg.Defaults.Verify)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
verify = true
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)
	assert.Nil(t, cfg.Defaults.Strategy)
	assert.Nil(t, cfg.Defaults.Atomic)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.ErrorContains(t, err, "parse ")
}

func TestLoad_UnknownKeys(t *testing.T) {
	writeConfig(t, `
[defaults]
workers = 8
verify = true

[theme]
accent = "blue"
`)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaults.workers")
	assert.Contains(t, err.Error(), "theme")
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Strategy)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/fdcopy/config.toml", config.Path())
}
