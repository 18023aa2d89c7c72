// Package config provides unified configuration loading for corewa.
// It supports loading from YAML files, .env files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains all corewa configuration settings.
type Config struct {
	// Database locates the local database mirror and its upstream server.
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Download contains defaults for strain downloads.
	Download DownloadConfig `json:"download" yaml:"download"`

	// Logging contains settings for operational and sync logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// DatabaseConfig locates the database.
type DatabaseConfig struct {
	// Path is the directory where the CoRe database is (or will be) stored.
	Path string `json:"path" yaml:"path"`

	// Server is the upstream host simulations are synchronized from.
	Server string `json:"server" yaml:"server"`
}

// DownloadConfig holds strain download defaults, overridable per command.
type DownloadConfig struct {
	// Protocol is the transfer scheme forwarded to the server: "https"
	// (default) or "http".
	Protocol string `json:"protocol" yaml:"protocol"`

	// LFS requests the LFS-backed archive variant.
	LFS bool `json:"lfs" yaml:"lfs"`

	// KeepH5 keeps the raw HDF5 archives after extracting strains.
	KeepH5 bool `json:"keep_h5" yaml:"keep_h5"`
}

// LoggingConfig configures corewa's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "quiet", "info" (default), or "debug".
	// "debug" enables sync tracing to .corewa/sync.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:   "CoRe_DB",
			Server: "core-gitlfs.tpi.uni-jena.de",
		},
		Download: DownloadConfig{
			Protocol: "https",
			LFS:      false,
			KeepH5:   false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment
// variables. Order: defaults -> ~/.corewa/config.yaml -> .env -> environment
// variables.
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".corewa", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// A .env in the working directory feeds the env overrides below.
	// Missing files are fine.
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}

	validProtocols := map[string]bool{"https": true, "http": true}
	if !validProtocols[c.Download.Protocol] {
		return fmt.Errorf("invalid protocol: %s (valid: https, http)", c.Download.Protocol)
	}

	validLevels := map[string]bool{"quiet": true, "info": true, "debug": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: quiet, info, debug, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COREWA_DB_PATH"); v != "" {
		config.Database.Path = v
	}

	if v := os.Getenv("COREWA_SERVER"); v != "" {
		config.Database.Server = v
	}

	if v := os.Getenv("COREWA_PROTOCOL"); v != "" {
		config.Download.Protocol = v
	}

	if v := os.Getenv("COREWA_LFS"); v != "" {
		config.Download.LFS = v == "true" || v == "1"
	}

	if v := os.Getenv("COREWA_KEEP_H5"); v != "" {
		config.Download.KeepH5 = v == "true" || v == "1"
	}

	if v := os.Getenv("COREWA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
