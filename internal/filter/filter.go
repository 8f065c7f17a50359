// Package filter decides which exported pages take part in the search index.
//
// Eligible runs before a page is parsed (extension and denylist); Accept runs
// on the extracted title and content (placeholder tokens left by unrendered
// templates). Pages without a <body>, such as framesets, are excluded by
// the build scan with ReasonNoBody. An exclusion is a normal outcome, never
// an error.
package filter

import (
	"path/filepath"
	"strings"
)

// SkipReason explains why a page was excluded.
type SkipReason string

const (
	ReasonNone               SkipReason = ""
	ReasonNotHTML            SkipReason = "not_html"
	ReasonDenylisted         SkipReason = "denylisted"
	ReasonNoBody             SkipReason = "no_body"
	ReasonPlaceholderTitle   SkipReason = "placeholder_title"
	ReasonPlaceholderContent SkipReason = "placeholder_content"
)

// Decision is the outcome of a filter rule.
type Decision struct {
	Accepted bool
	Reason   SkipReason
	// Token is the placeholder that triggered a placeholder exclusion.
	Token string
}

var accepted = Decision{Accepted: true}

// Rules configures the filter. Zero values fall back to DefaultRules.
type Rules struct {
	Extensions          []string
	IgnoreFiles         []string
	TitlePlaceholders   []string
	ContentPlaceholders []string
}

// DefaultRules matches the scaffold files and template tokens of an
// Enterprise Architect HTML export.
func DefaultRules() Rules {
	return Rules{
		Extensions:          []string{".htm", ".html"},
		IgnoreFiles:         []string{"blank.htm", "toc.htm", "index.htm"},
		TitlePlaceholders:   []string{"#TITLE#"},
		ContentPlaceholders: []string{"#CONTENT#", "#BREAD_CRUMB#"},
	}
}

// Filter applies Rules to discovered pages.
type Filter struct {
	extensions          []string
	ignore              map[string]struct{}
	titlePlaceholders   []string
	contentPlaceholders []string
}

// New builds a Filter; empty rule lists take the defaults.
func New(rules Rules) *Filter {
	def := DefaultRules()
	if len(rules.Extensions) == 0 {
		rules.Extensions = def.Extensions
	}
	if rules.IgnoreFiles == nil {
		rules.IgnoreFiles = def.IgnoreFiles
	}
	if rules.TitlePlaceholders == nil {
		rules.TitlePlaceholders = def.TitlePlaceholders
	}
	if rules.ContentPlaceholders == nil {
		rules.ContentPlaceholders = def.ContentPlaceholders
	}

	ignore := make(map[string]struct{}, len(rules.IgnoreFiles))
	for _, name := range rules.IgnoreFiles {
		ignore[name] = struct{}{}
	}
	return &Filter{
		extensions:          rules.Extensions,
		ignore:              ignore,
		titlePlaceholders:   rules.TitlePlaceholders,
		contentPlaceholders: rules.ContentPlaceholders,
	}
}

// IsHTML reports whether name ends in a recognized HTML extension.
func (f *Filter) IsHTML(name string) bool {
	for _, ext := range f.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Eligible applies the pre-parse rules to a file's basename.
func (f *Filter) Eligible(name string) Decision {
	name = filepath.Base(name)
	if !f.IsHTML(name) {
		return Decision{Reason: ReasonNotHTML}
	}
	if _, ok := f.ignore[name]; ok {
		return Decision{Reason: ReasonDenylisted}
	}
	return accepted
}

// Accept applies the placeholder rules to an extracted title and content.
func (f *Filter) Accept(title, content string) Decision {
	if tok, ok := containsAny(title, f.titlePlaceholders); ok {
		return Decision{Reason: ReasonPlaceholderTitle, Token: tok}
	}
	if tok, ok := containsAny(content, f.contentPlaceholders); ok {
		return Decision{Reason: ReasonPlaceholderContent, Token: tok}
	}
	return accepted
}

func containsAny(s string, tokens []string) (string, bool) {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(s, tok) {
			return tok, true
		}
	}
	return "", false
}
