package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/easearch/internal/config"
	"git.home.luguber.info/inful/easearch/internal/discovery"
	"git.home.luguber.info/inful/easearch/internal/document"
	"git.home.luguber.info/inful/easearch/internal/filter"
	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
	"git.home.luguber.info/inful/easearch/internal/index"
	"git.home.luguber.info/inful/easearch/internal/metrics"
	"git.home.luguber.info/inful/easearch/internal/testutil/exporttest"
	"git.home.luguber.info/inful/easearch/internal/widget"
)

func htmlPage(title, body string) string {
	return exporttest.Page(title, body)
}

// newExport lays out files below <tmp>/SparxEA_HTML_Export and returns a
// config pointing at it.
func newExport(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.ExportRoot = exporttest.NewExport(t, files)
	return cfg
}

func read(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.ExportRoot, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func loadIndex(t *testing.T, cfg *config.Config) []document.Record {
	t.Helper()
	art, err := index.LoadFile(filepath.Join(cfg.ExportRoot, cfg.IndexFile))
	require.NoError(t, err)
	require.Equal(t, cfg.GlobalName, art.GlobalName)
	return art.Records
}

func runBuild(t *testing.T, svc *DefaultService, cfg *config.Config, opts Options) (*Result, error) {
	t.Helper()
	return svc.Run(context.Background(), Request{Config: cfg, Options: opts})
}

func TestStatusIsSuccess(t *testing.T) {
	require.True(t, StatusSuccess.IsSuccess())
	require.False(t, StatusFailed.IsSuccess())
	require.False(t, StatusCancelled.IsSuccess())
}

func TestRunNilConfig(t *testing.T) {
	result, err := NewService().Run(context.Background(), Request{})
	require.Error(t, err)
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryConfig))
	require.Equal(t, StatusFailed, result.Status)
}

func TestRunIndexesSinglePage(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/pkg/ClassA.htm": htmlPage("Class A", "<div><p>Hello   world</p></div>"),
	})

	result, err := runBuild(t, NewService().WithRunIDFunc(func() string { return "run-1" }), cfg, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "run-1", result.RunID)

	want := []document.Record{{
		ID:      "1",
		Title:   "Class A",
		Content: "Hello world Hello world",
		URL:     "EARoot/pkg/ClassA.htm",
		Type:    document.TypeClass,
	}}
	require.Equal(t, want, result.Records)
	require.Equal(t, want, loadIndex(t, cfg))
	require.Equal(t, []string{"EARoot/pkg/ClassA.htm"}, result.Rewritten)

	out := read(t, cfg, "EARoot/pkg/ClassA.htm")
	require.Equal(t, 1, strings.Count(out, `id="search-container"`))
	require.Contains(t, out, `data-depth="2"`)
	require.Contains(t, out, `href="../../index.htm"`)

	require.FileExists(t, filepath.Join(cfg.ExportRoot, widget.ScriptFile))
	require.FileExists(t, filepath.Join(cfg.ExportRoot, widget.StylesheetFile))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, LockFile))
}

func TestRunSkipsFramesetPage(t *testing.T) {
	frames := `<html><head><title>Model</title></head><frameset cols="20%,80%"><frame src="toc.htm"><frame src="blank.htm"></frameset></html>`
	cfg := newExport(t, map[string]string{
		"EARoot/a.htm":      htmlPage("A", "<p>alpha</p>"),
		"EARoot/frames.htm": frames,
		"EARoot/z.htm":      htmlPage("Z", "<p>zulu</p>"),
	})

	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 1, result.Skipped[filter.ReasonNoBody])
	require.Equal(t, []string{"EARoot/a.htm", "EARoot/z.htm"}, result.Rewritten)

	records := loadIndex(t, cfg)
	require.Len(t, records, 2)
	require.Equal(t, "EARoot/z.htm", records[1].URL)
	require.Equal(t, "2", records[1].ID)

	require.Equal(t, frames, read(t, cfg, "EARoot/frames.htm"))
	exporttest.New(t, cfg.ExportRoot).
		WidgetCount("EARoot/a.htm", 1).
		WidgetCount("EARoot/z.htm", 1)
}

func TestPartialKeepsCategory(t *testing.T) {
	svc := NewService()
	f := discovery.File{URL: "EARoot/b.htm"}
	result := &Result{Rewritten: []string{"EARoot/a.htm"}}

	err := svc.partial(result, errors.New("bad node"), dberrors.CategoryInternal, f, "failed to render page")
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryInternal))

	reload := dberrors.EncodingError("page is not valid utf-8").WithFile(f.URL).Build()
	err = svc.partial(result, reload, dberrors.CategoryOf(reload), f, "failed to reload page")
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryEncoding))

	ce, ok := dberrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, 1, ce.Context()["rewritten_count"])
	require.Equal(t, "EARoot/a.htm", ce.Context()["rewritten"])
}

func TestLockReleaseRemovesFile(t *testing.T) {
	root := t.TempDir()
	lk, err := acquireLock(root)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, LockFile))

	_, err = acquireLock(root)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lk.Release())
	require.NoFileExists(t, filepath.Join(root, LockFile))

	again, err := acquireLock(root)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestRunContentFromParagraphOnly(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/ClassA.htm": htmlPage("Class A", "<p>Hello world</p>"),
	})
	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, "Hello world", result.Records[0].Content)
	require.Equal(t, "EARoot/ClassA.htm", result.Records[0].URL)
}

func TestRunSkipsPlaceholdersAndDenylist(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/a_template.htm":   htmlPage("Template", "<div>#CONTENT#</div>"),
		"EARoot/b_crumb.htm":      htmlPage("Crumb", "<p>#BREAD_CRUMB#</p>"),
		"EARoot/c_title.htm":      htmlPage("#TITLE#", "<p>text</p>"),
		"EARoot/d_Diagram.htm":    htmlPage("Overview", "<p>diagram text</p>"),
		"EARoot/toc.htm":          htmlPage("Contents", "<li>toc entry</li>"),
		"EARoot/sub/index.htm":    htmlPage("Index", "<li>index entry</li>"),
		"EARoot/images/logo.png":  "not html",
		"EARoot/css/style.css":    "p{}",
		"EARoot/e_Attribute.html": htmlPage("", "<table><tr><td>Name</td></tr></table>"),
	})

	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)

	require.Equal(t, map[filter.SkipReason]int{
		filter.ReasonPlaceholderContent: 2,
		filter.ReasonPlaceholderTitle:   1,
		filter.ReasonDenylisted:         2,
	}, result.Skipped)
	require.Equal(t, 2, result.Ignored)

	require.Len(t, result.Records, 2)
	require.Equal(t, document.Record{ID: "1", Title: "Overview", Content: "diagram text", URL: "EARoot/d_Diagram.htm", Type: document.TypeDiagram}, result.Records[0])
	require.Equal(t, document.Record{ID: "2", Title: "e_Attribute.html", Content: "Name", URL: "EARoot/e_Attribute.html", Type: document.TypeAttribute}, result.Records[1])

	// Excluded pages are not rewritten.
	require.Equal(t, htmlPage("Template", "<div>#CONTENT#</div>"), read(t, cfg, "EARoot/a_template.htm"))
	require.Equal(t, htmlPage("Contents", "<li>toc entry</li>"), read(t, cfg, "EARoot/toc.htm"))
}

func TestRunEmptyExport(t *testing.T) {
	cfg := newExport(t, nil)
	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Records)
	require.Equal(t, "var searchData = [];\n", read(t, cfg, "search-index.js"))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/ClassA.htm":      htmlPage("Class A", "<p>alpha</p>"),
		"EARoot/pkg/ClassB.htm":  htmlPage("Class B", "<p>beta</p>"),
		"EARoot/pkg/Diagram.htm": htmlPage("Diagram", "<p>gamma</p>"),
	})

	first, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	firstIndex := read(t, cfg, "search-index.js")
	firstPage := read(t, cfg, "EARoot/pkg/ClassB.htm")

	second, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)

	require.Equal(t, first.Records, second.Records)
	require.Equal(t, firstIndex, read(t, cfg, "search-index.js"))
	require.Equal(t, firstPage, read(t, cfg, "EARoot/pkg/ClassB.htm"))
	for _, name := range []string{"EARoot/ClassA.htm", "EARoot/pkg/ClassB.htm", "EARoot/pkg/Diagram.htm"} {
		require.Equal(t, 1, strings.Count(read(t, cfg, name), `id="search-container"`), name)
	}
}

func TestRunLexicalOrder(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/b/Zeta.htm": htmlPage("Zeta", ""),
		"EARoot/a.htm":      htmlPage("A", ""),
		"EARoot/b.htm":      htmlPage("B", ""),
		"EARoot/a/Beta.htm": htmlPage("Beta", ""),
	})
	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)

	var urls []string
	for i, rec := range result.Records {
		require.Equal(t, []string{"1", "2", "3", "4"}[i], rec.ID)
		urls = append(urls, rec.URL)
	}
	require.Equal(t, []string{"EARoot/a/Beta.htm", "EARoot/a.htm", "EARoot/b/Zeta.htm", "EARoot/b.htm"}, urls)
}

func TestRunMissingExportRoot(t *testing.T) {
	cfg := config.Defaults()
	cfg.ExportRoot = filepath.Join(t.TempDir(), "missing")

	result, err := runBuild(t, NewService(), cfg, Options{})
	require.Error(t, err)
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryConfig))
	require.Equal(t, StatusFailed, result.Status)
	require.NoDirExists(t, cfg.ExportRoot)
}

func TestRunMissingHTMLDir(t *testing.T) {
	cfg := newExport(t, nil)
	cfg.HTMLDir = "Missing"

	_, err := runBuild(t, NewService(), cfg, Options{})
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryConfig))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, cfg.IndexFile))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, LockFile))
}

func TestRunInvalidUTF8Aborts(t *testing.T) {
	good := htmlPage("Good", "<p>fine</p>")
	cfg := newExport(t, map[string]string{
		"EARoot/a.htm": good,
		"EARoot/b.htm": "<html><head><title>Bad</title></head><body><p>caf\xe9</p></body></html>",
	})

	_, err := runBuild(t, NewService(), cfg, Options{})
	require.Error(t, err)
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryEncoding))
	ce, ok := dberrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "EARoot/b.htm", ce.Context()["file"])

	require.Equal(t, good, read(t, cfg, "EARoot/a.htm"))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, cfg.IndexFile))
}

func TestRunLegacyEncodingRoundTrip(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/ClassA.htm": "<html><head><title>Caf\xe9</title></head><body><p>na\xefve</p></body></html>",
	})
	cfg.Encoding = "windows-1252"

	result, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	require.Equal(t, "Café", result.Records[0].Title)
	require.Equal(t, "naïve", result.Records[0].Content)

	out := read(t, cfg, "EARoot/ClassA.htm")
	require.Contains(t, out, "Caf\xe9")
	require.Contains(t, out, "na\xefve")
}

func TestRunPreservesBOM(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/ClassA.htm": "\xef\xbb\xbf" + htmlPage("Class A", "<p>x</p>"),
	})
	_, err := runBuild(t, NewService(), cfg, Options{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(read(t, cfg, "EARoot/ClassA.htm"), "\xef\xbb\xbf<html>"))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	src := htmlPage("Class A", "<p>x</p>")
	cfg := newExport(t, map[string]string{"EARoot/ClassA.htm": src})

	result, err := runBuild(t, NewService(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.Len(t, result.Records, 1)
	require.Empty(t, result.Rewritten)
	require.Equal(t, src, read(t, cfg, "EARoot/ClassA.htm"))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, cfg.IndexFile))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, widget.ScriptFile))
	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, LockFile))
}

func TestRunWriteBackFailureSkipsIndex(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/a.htm": htmlPage("A", "<p>a</p>"),
		"EARoot/b.htm": htmlPage("B", "<p>b</p>"),
		"EARoot/c.htm": htmlPage("C", "<p>c</p>"),
	})

	writes := 0
	svc := NewService().WithPageWriter(func(path string, data []byte, perm os.FileMode) error {
		writes++
		if writes == 2 {
			return errors.New("disk full")
		}
		return os.WriteFile(path, data, perm)
	})

	result, err := runBuild(t, svc, cfg, Options{})
	require.Error(t, err)
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryFileSystem))
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, []string{"EARoot/a.htm"}, result.Rewritten)

	ce, ok := dberrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "EARoot/b.htm", ce.Context()["file"])
	require.Equal(t, "EARoot/a.htm", ce.Context()["rewritten"])

	require.NoFileExists(t, filepath.Join(cfg.ExportRoot, cfg.IndexFile))
}

func TestRunLockedExport(t *testing.T) {
	cfg := newExport(t, map[string]string{"EARoot/a.htm": htmlPage("A", "")})

	held := flock.New(filepath.Join(cfg.ExportRoot, LockFile))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	_, err = runBuild(t, NewService(), cfg, Options{})
	require.Error(t, err)
	require.True(t, dberrors.HasCategory(err, dberrors.CategoryRuntime))
	require.ErrorIs(t, err, ErrLocked)
}

func TestRunCancelled(t *testing.T) {
	cfg := newExport(t, map[string]string{"EARoot/a.htm": htmlPage("A", "")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewService().Run(ctx, Request{Config: cfg})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, result.Status)
}

func TestRunRecordsMetrics(t *testing.T) {
	cfg := newExport(t, map[string]string{
		"EARoot/ClassA.htm": htmlPage("Class A", "<p>x</p>"),
		"EARoot/toc.htm":    htmlPage("TOC", ""),
	})
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	_, err := runBuild(t, NewService().WithRecorder(rec), cfg, Options{})
	require.NoError(t, err)

	expected := `
# HELP easearch_index_records Number of records in the last written search index
# TYPE easearch_index_records gauge
easearch_index_records 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "easearch_index_records"))
	require.Equal(t, 1, testutil.CollectAndCount(reg, "easearch_pages_skipped_total"))
}
