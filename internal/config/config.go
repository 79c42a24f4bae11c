// Package config loads the YAML configuration for the zypp-media-fetch
// binary, following cmd/common/config.go's load-with-defaults shape.
package config

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v3"
)

// Config holds the settings shared by the media fetch CLI.
type Config struct {
	CacheDir  string `yaml:"cacheDir"`
	LogLevel  string `yaml:"log"`
	UserAgent string `yaml:"userAgent"`
	RepoDir   string `yaml:"repoDir"`
}

// DefaultConfigPath returns the default config file location under the
// user's XDG config directory.
func DefaultConfigPath() string {
	confDir, err := os.UserConfigDir()
	if err != nil {
		log.Error().Err(err).Msg("could not determine configuration directory")
	}
	return filepath.Join(confDir, "zypp-media-fetch/config.yml")
}

func defaults() Config {
	xdgCacheDir, _ := os.UserCacheDir()
	return Config{
		CacheDir:  filepath.Join(xdgCacheDir, "zypp-media-fetch"),
		LogLevel:  "info",
		UserAgent: "zypp-media-fetch/1.0",
		RepoDir:   "/etc/zypp/repos.d",
	}
}

// LoadConfig reads path, falling back to (and logging a warning about)
// defaults when the file is missing, and merging in defaults for any
// field the file leaves zero-valued.
func LoadConfig(path string) *Config {
	def := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("configuration file not found, using defaults")
		return &def
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not parse configuration file, using defaults")
		return &def
	}
	if err := mergo.Merge(cfg, def); err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not merge configuration with defaults")
	}
	return cfg
}

// WriteConfig marshals c as YAML and writes it to path, creating parent
// directories as needed.
func (c Config) WriteConfig(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		log.Error().Err(err).Msg("could not marshal config")
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		log.Error().Err(err).Msg("could not write config to disk")
		return err
	}
	return nil
}
