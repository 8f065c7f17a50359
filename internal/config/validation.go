package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/easearch/internal/codec"
	"git.home.luguber.info/inful/easearch/internal/index"
)

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.ExportRoot) == "" {
		add("export_root must not be empty")
	}
	if strings.TrimSpace(c.HTMLDir) == "" {
		add("html_dir must not be empty")
	}
	switch {
	case c.IndexFile == "":
		add("index_file must not be empty")
	case filepath.Base(c.IndexFile) != c.IndexFile:
		add("index_file must be a file name, got %q", c.IndexFile)
	}
	if !index.ValidGlobalName(c.GlobalName) {
		add("global_name must be a JavaScript identifier, got %q", c.GlobalName)
	}
	if _, err := codec.New(c.Encoding); err != nil {
		add("encoding: %w", err)
	}
	if strings.TrimSpace(c.LunrURL) == "" {
		add("lunr_url must not be empty")
	}

	if len(c.Filter.Extensions) == 0 {
		add("filter.extensions must not be empty")
	}
	for _, ext := range c.Filter.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			add("filter.extensions: %q must start with a dot", ext)
		}
	}
	if len(c.Filter.ContentTags) == 0 {
		add("filter.content_tags must not be empty")
	}
	for _, tag := range c.Filter.ContentTags {
		if !isTagName(tag) {
			add("filter.content_tags: %q is not an element name", tag)
		}
	}
	for _, tok := range append(append([]string{}, c.Filter.TitlePlaceholders...), c.Filter.ContentPlaceholders...) {
		if tok == "" {
			add("filter placeholders must not contain empty tokens")
			break
		}
	}

	if _, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err != nil {
		add("logging.level: %w", err)
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err != nil {
		add("logging.format: %w", err)
	}

	return errors.Join(errs...)
}

func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
