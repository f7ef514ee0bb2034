// Package config loads the hyperdemo configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-hyperdemo/pkg/enhance"
)

// Environment variables that override file values.
const (
	EnvAddr         = "HYPERDEMO_ADDR"
	EnvLogLevel     = "HYPERDEMO_LOG_LEVEL"
	EnvTemplatesDir = "HYPERDEMO_TEMPLATES_DIR"
	EnvBasePath     = "HYPERDEMO_BASE_PATH"
	EnvWatch        = "HYPERDEMO_TEMPLATES_WATCH"
)

// Config holds all hyperdemo configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Templates TemplatesConfig `yaml:"templates"`
	Greeting  GreetingConfig  `yaml:"greeting"`
	Theme     ThemeConfig     `yaml:"theme"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	ReadTimeout   string `yaml:"read_timeout"`
	WriteTimeout  string `yaml:"write_timeout"`
	ShutdownGrace string `yaml:"shutdown_grace"`
}

// TemplatesConfig selects where templates come from. An empty Dir uses the
// embedded templates; Watch only applies to a directory.
type TemplatesConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	Watch     bool   `yaml:"watch"`
	Debounce  string `yaml:"debounce"`
}

type GreetingConfig struct {
	BasePath      string   `yaml:"base_path"`
	Title         string   `yaml:"title"`
	Welcome       string   `yaml:"welcome"`
	DefaultName   string   `yaml:"default_name"`
	SanitizeInput bool     `yaml:"sanitize_input"`
	Markers       []string `yaml:"markers"`
	Scripts       []string `yaml:"scripts"`
}

// ThemeConfig describes an optional theme inline. Name empty means no theme.
type ThemeConfig struct {
	Name      string                  `yaml:"name"`
	Version   string                  `yaml:"version"`
	Variant   string                  `yaml:"variant"`
	Tokens    map[string]string       `yaml:"tokens"`
	Templates map[string]string       `yaml:"templates"`
	Assets    ThemeAssets             `yaml:"assets"`
	Variants  map[string]ThemeVariant `yaml:"variants"`
}

type ThemeAssets struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

type ThemeVariant struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    ThemeAssets       `yaml:"assets"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   "10s",
			WriteTimeout:  "10s",
			ShutdownGrace: "5s",
		},
		Templates: TemplatesConfig{
			Extension: ".tpl",
			Debounce:  "250ms",
		},
		Greeting: GreetingConfig{
			BasePath:    "/",
			Title:       "Hypermedia demo",
			Welcome:     "Welcome to the hypermedia demo",
			DefaultName: "World",
			Scripts: []string{
				"https://unpkg.com/htmx.org@1.9.12",
				"https://unpkg.com/unpoly@3.8.0/unpoly.min.js",
				"https://unpkg.com/@hotwired/turbo@8.0.4/dist/turbo.es2017-umd.js",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over DefaultConfig. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv(EnvTemplatesDir); dir != "" {
		c.Templates.Dir = dir
	}
	if base := os.Getenv(EnvBasePath); base != "" {
		c.Greeting.BasePath = base
	}
	if watch := os.Getenv(EnvWatch); watch != "" {
		if v, err := strconv.ParseBool(watch); err == nil {
			c.Templates.Watch = v
		}
	}
}

// ReadTimeout returns the server read timeout, 10s when unset or invalid.
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

// WriteTimeout returns the server write timeout, 10s when unset or invalid.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 10*time.Second)
}

// ShutdownGrace returns how long shutdown waits for in-flight requests.
func (c *Config) ShutdownGrace() time.Duration {
	return parseDuration(c.Server.ShutdownGrace, 5*time.Second)
}

// ReloadDebounce returns the template watcher's quiet period.
func (c *Config) ReloadDebounce() time.Duration {
	return parseDuration(c.Templates.Debounce, 250*time.Millisecond)
}

// Markers parses the configured enhancement libraries. Unknown names are
// rejected by Validate, so they are skipped here.
func (c *Config) Markers() []enhance.Library {
	if len(c.Greeting.Markers) == 0 {
		return nil
	}
	libs := make([]enhance.Library, 0, len(c.Greeting.Markers))
	for _, name := range c.Greeting.Markers {
		if lib, ok := enhance.ParseLibrary(name); ok {
			libs = append(libs, lib)
		}
	}
	return libs
}

// Manifest converts the inline theme into a go-theme manifest, or nil when
// no theme is configured.
func (c *Config) Manifest() *theme.Manifest {
	t := c.Theme
	if strings.TrimSpace(t.Name) == "" {
		return nil
	}
	manifest := &theme.Manifest{
		Name:      t.Name,
		Version:   t.Version,
		Tokens:    t.Tokens,
		Templates: t.Templates,
		Assets: theme.Assets{
			Prefix: t.Assets.Prefix,
			Files:  t.Assets.Files,
		},
	}
	if len(t.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(t.Variants))
		for name, v := range t.Variants {
			manifest.Variants[name] = theme.Variant{
				Tokens:    v.Tokens,
				Templates: v.Templates,
				Assets: theme.Assets{
					Prefix: v.Assets.Prefix,
					Files:  v.Assets.Files,
				},
			}
		}
	}
	return manifest
}

// ValidLogLevels lists accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	for field, value := range map[string]string{
		"server.read_timeout":   c.Server.ReadTimeout,
		"server.write_timeout":  c.Server.WriteTimeout,
		"server.shutdown_grace": c.Server.ShutdownGrace,
		"templates.debounce":    c.Templates.Debounce,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", field, value))
		}
	}

	if c.Templates.Watch && strings.TrimSpace(c.Templates.Dir) == "" {
		errs = append(errs, errors.New("templates.watch requires templates.dir"))
	}
	if base := strings.TrimSpace(c.Greeting.BasePath); base != "" && !strings.HasPrefix(base, "/") {
		errs = append(errs, fmt.Errorf("greeting.base_path must start with /: %q", base))
	}
	for _, name := range c.Greeting.Markers {
		if _, ok := enhance.ParseLibrary(name); !ok {
			errs = append(errs, fmt.Errorf("greeting.markers: unknown library %q", name))
		}
	}
	if c.Theme.Variant != "" && strings.TrimSpace(c.Theme.Name) == "" {
		errs = append(errs, errors.New("theme.variant requires theme.name"))
	}

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	validLevel := level == ""
	for _, l := range ValidLogLevels {
		if level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
