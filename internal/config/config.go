// Package config loads and validates easearch configuration.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file (with ${VAR} expansion after .env files are loaded), and finally the
// command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory
// when no path is given.
const DefaultFile = "easearch.yaml"

// Config is the complete run configuration.
type Config struct {
	ExportRoot string        `yaml:"export_root"` // Directory receiving the generated artifacts
	HTMLDir    string        `yaml:"html_dir"`    // Page directory, relative to export_root unless absolute
	IndexFile  string        `yaml:"index_file"`  // Index artifact name inside export_root
	GlobalName string        `yaml:"global_name"` // JavaScript variable the index is assigned to
	Encoding   string        `yaml:"encoding"`    // Page encoding (WHATWG label)
	LunrURL    string        `yaml:"lunr_url"`    // Where pages load lunr.js from
	Filter     FilterConfig  `yaml:"filter"`
	Widget     WidgetConfig  `yaml:"widget"`
	Logging    LoggingConfig `yaml:"logging"`
	Metrics    MetricsConfig `yaml:"metrics"`
}

// FilterConfig selects which pages are indexed and which elements carry
// their text.
type FilterConfig struct {
	Extensions          []string `yaml:"extensions"`
	IgnoreFiles         []string `yaml:"ignore_files"`
	TitlePlaceholders   []string `yaml:"title_placeholders"`
	ContentPlaceholders []string `yaml:"content_placeholders"`
	ContentTags         []string `yaml:"content_tags"`
}

// WidgetConfig holds the user-visible strings of the injected widget.
type WidgetConfig struct {
	Heading     string `yaml:"heading"`
	Placeholder string `yaml:"placeholder"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // Empty disables the export
}

// Defaults returns a Config populated with the values for a stock
// Enterprise Architect HTML export.
func Defaults() *Config {
	return &Config{
		ExportRoot: "SparxEA_HTML_Export",
		HTMLDir:    "EARoot",
		IndexFile:  "search-index.js",
		GlobalName: "searchData",
		Encoding:   "utf-8",
		LunrURL:    "https://unpkg.com/lunr/lunr.js",
		Filter: FilterConfig{
			Extensions:          []string{".htm", ".html"},
			IgnoreFiles:         []string{"blank.htm", "toc.htm", "index.htm"},
			TitlePlaceholders:   []string{"#TITLE#"},
			ContentPlaceholders: []string{"#CONTENT#", "#BREAD_CRUMB#"},
			ContentTags:         []string{"div", "td", "th", "p", "li"},
		},
		Widget: WidgetConfig{
			Heading:     "Search Enterprise Architect Model",
			Placeholder: "Search classes, attributes, descriptions...",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path yields the defaults. The result is validated, then normalized.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// decode expands environment variables and unmarshals strictly over cfg,
// so keys missing from the file keep their defaults.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Normalize canonicalizes enumerations in place.
func (c *Config) Normalize() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Init writes an example configuration file populated with the defaults.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# easearch configuration. ${VAR} references are expanded from the\n")
	buf.WriteString("# environment, including .env and .env.local in the working directory.\n")
	buf.Write(data)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
