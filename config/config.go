// Package config loads LayoutPipe settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// Config holds the full LayoutPipe configuration.
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Engine   EngineConfig       `yaml:"engine"`
	Defaults core.EngineOptions `yaml:"defaults"`

	OutputFormat  string `yaml:"output_format"`
	OutputDir     string `yaml:"output_dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	// PageSeparator joins page markdown when the engine offers no convention.
	PageSeparator string `yaml:"page_separator"`

	AllowedExtensions []string `yaml:"allowed_extensions"`
	AllowedMIMETypes  []string `yaml:"allowed_mime_types"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EngineConfig points at a remote Recognition Engine. An empty URL means
// inputs are recognition dumps read from disk.
type EngineConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Engine: EngineConfig{
			Timeout: 10 * time.Minute,
		},
		Defaults:          core.DefaultEngineOptions(),
		OutputFormat:      string(core.FormatMarkdown),
		OutputDir:         "./api_output",
		MaxFileSizeMB:     100,
		PageSeparator:     "\n\n",
		AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg"},
		AllowedMIMETypes:  []string{"application/pdf", "image/png", "image/jpeg", "image/jpg"},
	}
}

// Load reads the YAML file at path (if path is not empty) over the defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("API_HOST", &c.Server.Host)
	if err := num("API_PORT", &c.Server.Port); err != nil {
		return err
	}
	str("DEFAULT_DEVICE", &c.Defaults.Device)
	str("DEFAULT_LANGUAGE", &c.Defaults.Language)
	str("DEFAULT_OUTPUT_FORMAT", &c.OutputFormat)
	if err := num("MAX_FILE_SIZE_MB", &c.MaxFileSizeMB); err != nil {
		return err
	}
	str("DEFAULT_OUTPUT_DIR", &c.OutputDir)
	str("ENGINE_URL", &c.Engine.URL)
	if v, ok := lookup("ENGINE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ENGINE_TIMEOUT: %w", err)
		}
		c.Engine.Timeout = d
	}
	if v, ok := lookup("PAGE_SEPARATOR"); ok && v != "" {
		c.PageSeparator = strings.ReplaceAll(v, `\n`, "\n")
	}
	return nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be > 0")
	}
	if _, err := core.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("output_format: %w", err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	switch c.Defaults.Device {
	case "cpu", "gpu":
	default:
		return fmt.Errorf("defaults.device must be cpu or gpu, got %q", c.Defaults.Device)
	}
	switch c.Defaults.Language {
	case "en", "ch", "en&ch":
	default:
		return fmt.Errorf("defaults.language must be en, ch or en&ch, got %q", c.Defaults.Language)
	}
	return nil
}

// MaxFileSize returns the upload limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Addr returns the listen address of the HTTP shell.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AllowsExtension reports whether a file name has an accepted extension.
func (c *Config) AllowsExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AllowsMIMEType reports whether a content type is accepted. Parameters
// such as "; charset=" are ignored.
func (c *Config) AllowsMIMEType(contentType string) bool {
	mt := strings.TrimSpace(strings.ToLower(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range c.AllowedMIMETypes {
		if mt == allowed {
			return true
		}
	}
	return false
}
