// Package index accumulates search records for one run and serializes them
// into the script file loaded by the search widget.
package index

import (
	"strconv"

	"git.home.luguber.info/inful/easearch/internal/document"
	ferrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
)

// Builder owns the record sequence and the id counter of a single run.
// Ids are assigned only to accepted pages, so they stay dense.
type Builder struct {
	nextID  int
	records []document.Record
	urls    map[string]struct{}
}

// NewBuilder returns an empty Builder whose first id is "1".
func NewBuilder() *Builder {
	return &Builder{
		nextID:  1,
		records: []document.Record{},
		urls:    make(map[string]struct{}),
	}
}

// Add appends a record for an accepted page and returns it. A second record
// for the same url is rejected.
func (b *Builder) Add(title, content, url string, typ document.Type) (document.Record, error) {
	if _, dup := b.urls[url]; dup {
		return document.Record{}, ferrors.InternalError("duplicate url in search index").
			WithContext("url", url).
			Build()
	}
	rec := document.Record{
		ID:      strconv.Itoa(b.nextID),
		Title:   title,
		Content: content,
		URL:     url,
		Type:    typ,
	}
	b.nextID++
	b.urls[url] = struct{}{}
	b.records = append(b.records, rec)
	return rec, nil
}

// Records returns a copy of the accumulated records in insertion order.
func (b *Builder) Records() []document.Record {
	out := make([]document.Record, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of accepted records.
func (b *Builder) Len() int {
	return len(b.records)
}
