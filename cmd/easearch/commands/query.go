package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
	"git.home.luguber.info/inful/easearch/internal/index"
	"git.home.luguber.info/inful/easearch/internal/query"
	"git.home.luguber.info/inful/easearch/internal/widget"
)

// QueryCmd implements the 'query' command.
type QueryCmd struct {
	Terms []string `arg:"" help:"Search terms"`
	Index string   `short:"i" help:"Index file (default: <export_root>/<index_file>)" type:"path"`
	Limit int      `short:"l" help:"Maximum number of results" default:"20"`
	JSON  bool     `help:"Print results as JSON"`
}

func (q *QueryCmd) Run(g *Global, root *CLI) error {
	path := q.Index
	if path == "" {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		path = filepath.Join(cfg.ExportRoot, cfg.IndexFile)
	}
	return RunQuery(context.Background(), g.out(), path, strings.Join(q.Terms, " "), q.Limit, q.JSON)
}

type jsonHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// RunQuery loads the index at path and prints the hits for text.
func RunQuery(ctx context.Context, w io.Writer, path, text string, limit int, asJSON bool) error {
	art, err := index.LoadFile(path)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to load search index").
			WithContext("file", path).
			Build()
	}

	idx, err := query.New(art.Records)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryParse, "search index is inconsistent").
			WithContext("file", path).
			Build()
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search(ctx, text, limit)
	if err != nil {
		if errors.Is(err, query.ErrQueryTooShort) {
			return dberrors.ValidationError("query too short").
				WithCause(err).
				WithContext("min_length", widget.MinQueryLength).
				Build()
		}
		return dberrors.WrapError(err, dberrors.CategoryRuntime, "search failed").Build()
	}

	if asJSON {
		out := make([]jsonHit, 0, len(hits))
		for _, h := range hits {
			out = append(out, jsonHit{ID: h.Record.ID, Title: h.Record.Title, URL: h.Record.URL, Type: string(h.Record.Type), Score: h.Score})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(hits) == 0 {
		_, _ = fmt.Fprintln(w, "No results found.")
		return nil
	}
	for i, h := range hits {
		_, _ = fmt.Fprintf(w, "%2d. %s (%s)\n    %s\n", i+1, h.Record.Title, h.Record.Type, h.Record.URL)
	}
	return nil
}
