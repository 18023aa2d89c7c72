package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Database.Path != "CoRe_DB" {
		t.Errorf("default database path = %q", cfg.Database.Path)
	}
	if cfg.Database.Server == "" {
		t.Error("default server should not be empty")
	}
	if cfg.Download.Protocol != "https" {
		t.Errorf("default protocol = %q, want https", cfg.Download.Protocol)
	}
	if cfg.Download.KeepH5 {
		t.Error("KeepH5 should default to false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `database:
  path: /data/core
  server: mirror.example.org
download:
  protocol: http
  lfs: true
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Database.Path != "/data/core" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
	if cfg.Database.Server != "mirror.example.org" {
		t.Errorf("server = %q", cfg.Database.Server)
	}
	if cfg.Download.Protocol != "http" {
		t.Errorf("protocol = %q", cfg.Download.Protocol)
	}
	if !cfg.Download.LFS {
		t.Error("lfs should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  path: /data/core\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Unset fields keep their defaults.
	if cfg.Download.Protocol != "https" {
		t.Errorf("protocol = %q, want default https", cfg.Download.Protocol)
	}
	if cfg.Database.Path != "/data/core" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromFile() on a missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COREWA_DB_PATH", "/env/db")
	t.Setenv("COREWA_SERVER", "env.example.org")
	t.Setenv("COREWA_PROTOCOL", "http")
	t.Setenv("COREWA_LFS", "1")
	t.Setenv("COREWA_KEEP_H5", "true")
	t.Setenv("COREWA_LOG_LEVEL", "quiet")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/env/db" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
	if cfg.Database.Server != "env.example.org" {
		t.Errorf("server = %q", cfg.Database.Server)
	}
	if cfg.Download.Protocol != "http" {
		t.Errorf("protocol = %q", cfg.Download.Protocol)
	}
	if !cfg.Download.LFS || !cfg.Download.KeepH5 {
		t.Error("boolean env overrides not applied")
	}
	if cfg.Logging.Level != "quiet" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty path", func(c *Config) { c.Database.Path = "" }, true},
		{"bad protocol", func(c *Config) { c.Download.Protocol = "ftp" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"empty log level ok", func(c *Config) { c.Logging.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
