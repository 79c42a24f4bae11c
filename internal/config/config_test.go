package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.NotEmpty(t, cfg.RepoDir)
}

func TestLoadConfigMergesDefaultsForZeroFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log: trace\n"), 0o644))

	cfg := LoadConfig(path)
	assert.Equal(t, "trace", cfg.LogLevel, "explicit value must survive the merge")
	assert.NotEmpty(t, cfg.CacheDir, "unset field must be filled in from defaults")
}

func TestWriteConfigRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := Config{CacheDir: "/tmp/cache", LogLevel: "debug", RepoDir: "/etc/zypp/repos.d"}

	require.NoError(t, cfg.WriteConfig(path))

	loaded := LoadConfig(path)
	assert.Equal(t, cfg.CacheDir, loaded.CacheDir)
	assert.Equal(t, cfg.LogLevel, loaded.LogLevel)
	assert.Equal(t, cfg.RepoDir, loaded.RepoDir)
}

func TestDefaultConfigPathIsNonEmpty(t *testing.T) {
	t.Parallel()
	assert.NotEmpty(t, DefaultConfigPath())
}
