// Package query searches a built index offline with the same field boosts
// and fuzziness the in-page search script uses, so results can be checked
// without a browser.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bq "github.com/blevesearch/bleve/v2/search/query"

	"git.home.luguber.info/inful/easearch/internal/document"
	"git.home.luguber.info/inful/easearch/internal/widget"
)

// DefaultLimit caps the number of hits when the caller passes 0.
const DefaultLimit = 20

// ErrQueryTooShort is returned for queries below the minimum length the
// search script accepts.
var ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", widget.MinQueryLength)

// Hit is a matching record and its relevance score.
type Hit struct {
	Record document.Record
	Score  float64
}

// Index is an in-memory full-text index over search records.
type Index struct {
	idx     bleve.Index
	records map[string]document.Record
}

// bleveDoc is the indexed view of a record.
type bleveDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

func newMapping() *mapping.IndexMappingImpl {
	text := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = false
		return f
	}
	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text())
	doc.AddFieldMappingsAt("content", text())
	doc.AddFieldMappingsAt("type", keyword)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

// New indexes records in memory.
func New(records []document.Record) (*Index, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	byID := make(map[string]document.Record, len(records))
	batch := idx.NewBatch()
	for _, rec := range records {
		if _, dup := byID[rec.ID]; dup {
			_ = idx.Close()
			return nil, fmt.Errorf("duplicate record id %q", rec.ID)
		}
		byID[rec.ID] = rec
		if err := batch.Index(rec.ID, bleveDoc{Title: rec.Title, Content: rec.Content, Type: string(rec.Type)}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index record %s: %w", rec.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("execute batch: %w", err)
	}
	return &Index{idx: idx, records: byID}, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.idx.Close()
}

// Search returns records matching any query term, best first. Each term
// matches within one edit, and title matches weigh more than content.
func (i *Index) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	if len([]rune(strings.TrimSpace(text))) < widget.MinQueryLength {
		return nil, ErrQueryTooShort
	}
	// Operators alone leave nothing to match.
	text = Clean(text)
	if text == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetFuzziness(widget.Fuzziness)
	title.SetBoost(widget.TitleBoost)

	content := bleve.NewMatchQuery(text)
	content.SetField("content")
	content.SetFuzziness(widget.Fuzziness)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery([]bq.Query{title, content}...))
	req.Size = limit

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		rec, ok := i.records[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Record: rec, Score: h.Score})
	}
	return hits, nil
}

// Clean removes the query operators the search script strips and collapses
// whitespace.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case ':', '^', '~', '+', '-', '*':
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}
