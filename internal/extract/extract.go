// Package extract turns a parsed page into the title and content strings
// stored in the search index.
package extract

import "strings"

// DefaultContentTags are the content-bearing elements of an exported page:
// block containers, table cells and headers, paragraphs and list items.
var DefaultContentTags = []string{"div", "td", "th", "p", "li"}

// Source is the view of a parsed page the extractor needs.
type Source interface {
	Title() (string, bool)
	ContentBlocks(tags []string) []string
}

// Result holds the normalized searchable text of one page.
type Result struct {
	Title   string
	Content string
}

// Extractor extracts Results using a fixed set of content tags.
type Extractor struct {
	tags []string
}

// New returns an Extractor for tags, or DefaultContentTags when tags is empty.
func New(tags []string) *Extractor {
	if len(tags) == 0 {
		tags = DefaultContentTags
	}
	return &Extractor{tags: tags}
}

// Extract returns the page title and content. A missing or empty title falls
// back to filename verbatim. Content is the space-joined text of every
// content-bearing element with whitespace runs collapsed; it is empty when the
// page has none.
func (e *Extractor) Extract(src Source, filename string) Result {
	title, ok := src.Title()
	if !ok || title == "" {
		title = filename
	}
	return Result{
		Title:   title,
		Content: Collapse(strings.Join(src.ContentBlocks(e.tags), " ")),
	}
}

// Collapse replaces every run of whitespace with a single ASCII space and
// trims both ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
