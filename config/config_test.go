package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.MaxFileSize() != 100*1024*1024 {
		t.Fatalf("unexpected max size %d", cfg.MaxFileSize())
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layoutpipe.yaml")
	data := []byte(`
server:
  port: 9000
engine:
  url: http://engine:8080/layout-parsing
  timeout: 30s
defaults:
  language: ch
  device: gpu
output_format: json
max_file_size_mb: 5
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("API_PORT", "9100")
	t.Setenv("DEFAULT_OUTPUT_DIR", "/srv/out")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 || cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if cfg.Engine.URL != "http://engine:8080/layout-parsing" || cfg.Engine.Timeout != 30*time.Second {
		t.Fatalf("unexpected engine %+v", cfg.Engine)
	}
	if cfg.Defaults.Language != "ch" || cfg.Defaults.Device != "gpu" {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.OutputFormat != "json" || cfg.MaxFileSizeMB != 5 || cfg.OutputDir != "/srv/out" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		"API_HOST":              "127.0.0.1",
		"DEFAULT_DEVICE":        "gpu",
		"DEFAULT_LANGUAGE":      "en&ch",
		"DEFAULT_OUTPUT_FORMAT": "raw",
		"MAX_FILE_SIZE_MB":      "12",
		"ENGINE_URL":            "http://x",
		"ENGINE_TIMEOUT":        "2m",
		"PAGE_SEPARATOR":        `\n---\n`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Defaults.Device != "gpu" || cfg.Defaults.Language != "en&ch" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.OutputFormat != "raw" || cfg.MaxFileSizeMB != 12 || cfg.Engine.URL != "http://x" || cfg.Engine.Timeout != 2*time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PageSeparator != "\n---\n" {
		t.Fatalf("unexpected separator %q", cfg.PageSeparator)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	for _, vars := range []map[string]string{
		{"API_PORT": "eighty"},
		{"MAX_FILE_SIZE_MB": "lots"},
		{"ENGINE_TIMEOUT": "soon"},
	} {
		if err := DefaultConfig().ApplyEnv(env(vars)); err == nil {
			t.Errorf("ApplyEnv(%v): expected error", vars)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"port":     func(c *Config) { c.Server.Port = 70000 },
		"size":     func(c *Config) { c.MaxFileSizeMB = 0 },
		"format":   func(c *Config) { c.OutputFormat = "docx" },
		"dir":      func(c *Config) { c.OutputDir = "" },
		"device":   func(c *Config) { c.Defaults.Device = "tpu" },
		"language": func(c *Config) { c.Defaults.Language = "fr" },
	}
	for name, mutate := range tests {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestAllows(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.AllowsExtension("scan.PDF") || cfg.AllowsExtension("notes.txt") {
		t.Fatal("unexpected extension check")
	}
	if !cfg.AllowsMIMEType("image/PNG; charset=binary") || cfg.AllowsMIMEType("text/plain") {
		t.Fatal("unexpected MIME check")
	}
}
