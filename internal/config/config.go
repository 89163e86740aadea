// Package config loads kgstore settings from an HCL or YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/kgstore/internal/filestore"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the settings shared by every kgstore command.
type Config struct {
	// Backend is "file" or "sqlite".
	Backend      string `hcl:"backend,optional" yaml:"backend"`
	RootPath     string `hcl:"root,optional" yaml:"root"`
	DatabasePath string `hcl:"database,optional" yaml:"database"`

	// ListMode is "canonical" or "all"; see filestore.ListMode.
	ListMode    string `hcl:"list_mode,optional" yaml:"list_mode"`
	PruneMirror bool   `hcl:"prune_mirror,optional" yaml:"prune_mirror"`

	// DefaultDatastore names the target of uploads that do not name one.
	DefaultDatastore string `hcl:"default_datastore,optional" yaml:"default_datastore"`

	LogLevel  string `hcl:"log_level,optional" yaml:"log_level"`
	LogFormat string `hcl:"log_format,optional" yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:          BackendFile,
		RootPath:         "data",
		DatabasePath:     "kgstore.db",
		ListMode:         string(filestore.ListCanonical),
		DefaultDatastore: "default",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads path (skipped when empty) over the defaults, applies KGSTORE_*
// environment overrides, and validates the result. The file format follows
// the extension: .hcl, or .yaml/.yml.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .hcl, .yaml or .yml)", path, ext)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Backend = getEnv("KGSTORE_BACKEND", c.Backend)
	c.RootPath = getEnv("KGSTORE_ROOT", c.RootPath)
	c.DatabasePath = getEnv("KGSTORE_DB", c.DatabasePath)
	c.ListMode = getEnv("KGSTORE_LIST_MODE", c.ListMode)
	c.PruneMirror = getEnvAsBool("KGSTORE_PRUNE_MIRROR", c.PruneMirror)
	c.DefaultDatastore = getEnv("KGSTORE_DEFAULT_DATASTORE", c.DefaultDatastore)
	c.LogLevel = getEnv("KGSTORE_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("KGSTORE_LOG_FORMAT", c.LogFormat)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendFile:
		if strings.TrimSpace(c.RootPath) == "" {
			errs = append(errs, errors.New("root is required for the file backend"))
		}
	case BackendSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			errs = append(errs, errors.New("database is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendFile, BackendSQLite))
	}
	if _, err := filestore.ParseListMode(c.ListMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
