package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Test.Duration != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := writeConfig(t, `
db = "/tmp/ttj.db"

[practice]
file = "~/prompts.txt"

[test]
duration = 30

[log]
level = "debug"
format = "json"

[server]
addr = ":9090"
rate = 2.5
burst = 10
allowed-origins = ["https://example.com"]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB == nil || *cfg.DB != "/tmp/ttj.db" {
		t.Fatalf("unexpected db: %v", cfg.DB)
	}
	if cfg.Practice.File == nil || *cfg.Practice.File != "~/prompts.txt" {
		t.Fatalf("unexpected practice file: %v", cfg.Practice.File)
	}
	if cfg.Test.Duration == nil || *cfg.Test.Duration != 30 {
		t.Fatalf("unexpected duration: %v", cfg.Test.Duration)
	}
	if *cfg.Log.Level != "debug" || *cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if *cfg.Server.Addr != ":9090" || *cfg.Server.Rate != 2.5 || *cfg.Server.Burst != 10 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://example.com" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "[test]\nseconds = 30\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "test.seconds") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "[test\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "ttj", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "ttj", "ttj.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}
