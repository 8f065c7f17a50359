package build

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/easearch/internal/codec"
	"git.home.luguber.info/inful/easearch/internal/config"
	"git.home.luguber.info/inful/easearch/internal/discovery"
	"git.home.luguber.info/inful/easearch/internal/document"
	"git.home.luguber.info/inful/easearch/internal/extract"
	"git.home.luguber.info/inful/easearch/internal/filter"
	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
	"git.home.luguber.info/inful/easearch/internal/fsutil"
	"git.home.luguber.info/inful/easearch/internal/htmldoc"
	"git.home.luguber.info/inful/easearch/internal/index"
	"git.home.luguber.info/inful/easearch/internal/logfields"
	"git.home.luguber.info/inful/easearch/internal/metrics"
	"git.home.luguber.info/inful/easearch/internal/observability"
	"git.home.luguber.info/inful/easearch/internal/widget"
)

const (
	stageScan    = "scan"
	stageInject  = "inject"
	stagePublish = "publish"
)

// WriteFileFunc writes a file in place of fsutil.WriteFileAtomic.
type WriteFileFunc func(path string, data []byte, perm os.FileMode) error

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	recorder  metrics.Recorder
	newRunID  func() string
	writePage WriteFileFunc
}

var _ Service = (*DefaultService)(nil)

// NewService creates a DefaultService with a no-op recorder.
func NewService() *DefaultService {
	return &DefaultService{
		recorder:  metrics.NoopRecorder{},
		newRunID:  func() string { return uuid.NewString() },
		writePage: fsutil.WriteFileAtomic,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithRunIDFunc overrides run ID generation (for testing).
func (s *DefaultService) WithRunIDFunc(f func() string) *DefaultService {
	s.newRunID = f
	return s
}

// WithPageWriter overrides how rewritten pages are stored (for testing).
func (s *DefaultService) WithPageWriter(f WriteFileFunc) *DefaultService {
	s.writePage = f
	return s
}

// run holds the collaborators of one Run.
type run struct {
	cfg       *config.Config
	layout    discovery.Layout
	codec     *codec.Codec
	filter    *filter.Filter
	extractor *extract.Extractor
	injector  *widget.Injector
	builder   *index.Builder
	result    *Result
	log       *slog.Logger
}

// page is an accepted page carried from scan to inject.
type page struct {
	file   discovery.File
	record document.Record
}

// Run executes the complete indexing pass.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	result := &Result{
		StartTime: startTime,
		RunID:     s.newRunID(),
		Skipped:   make(map[filter.SkipReason]int),
		DryRun:    req.Options.DryRun,
	}
	ctx = observability.WithRunID(ctx, result.RunID)

	if req.Config == nil {
		return s.fail(result, dberrors.ConfigError("config required").Build())
	}

	r, err := s.prepare(req.Config, result)
	if err != nil {
		return s.fail(result, err)
	}
	ctx = observability.WithExportRoot(ctx, r.layout.Root)

	// Startup checks are fatal and happen before anything is written.
	if err := r.layout.Check(); err != nil {
		return s.fail(result, dberrors.WrapError(err, dberrors.CategoryConfig, "export directory not usable").
			WithContext("export_root", r.layout.Root).
			WithContext("html_dir", r.layout.HTMLDir).
			Build())
	}

	if !req.Options.DryRun {
		lk, err := acquireLock(r.layout.Root)
		if err != nil {
			return s.fail(result, dberrors.RuntimeError("cannot lock export root").
				WithCause(err).
				WithContext("export_root", r.layout.Root).
				Build())
		}
		defer func() {
			if err := lk.Release(); err != nil {
				r.log.WarnContext(ctx, "Failed to release lock", logfields.Error(err))
			}
		}()
	}

	r.log.InfoContext(ctx, "Starting search index build",
		logfields.Path(r.layout.HTMLDir),
		logfields.Encoding(r.codec.Name()),
		logfields.DryRun(req.Options.DryRun))

	// Stage 1: scan
	stageStart := time.Now()
	scanCtx := observability.WithStage(ctx, stageScan)
	pages, err := s.scan(scanCtx, r)
	s.recorder.ObserveStageDuration(stageScan, time.Since(stageStart))
	if err != nil {
		return s.fail(result, err)
	}
	result.Records = r.builder.Records()

	if req.Options.DryRun {
		r.log.InfoContext(scanCtx, "Dry run: nothing written",
			slog.Int("would_rewrite", len(pages)),
			logfields.Path(filepath.Join(r.layout.Root, r.cfg.IndexFile)))
		return s.finish(ctx, r, metrics.OutcomeDryRun), nil
	}

	// Stage 2: inject
	stageStart = time.Now()
	injectCtx := observability.WithStage(ctx, stageInject)
	err = s.inject(injectCtx, r, pages)
	s.recorder.ObserveStageDuration(stageInject, time.Since(stageStart))
	if err != nil {
		return s.fail(result, err)
	}

	// Stage 3: publish
	stageStart = time.Now()
	publishCtx := observability.WithStage(ctx, stagePublish)
	err = s.publish(publishCtx, r)
	s.recorder.ObserveStageDuration(stagePublish, time.Since(stageStart))
	if err != nil {
		return s.fail(result, err)
	}

	return s.finish(ctx, r, metrics.OutcomeSuccess), nil
}

// prepare builds the per-run collaborators from cfg.
func (s *DefaultService) prepare(cfg *config.Config, result *Result) (*run, error) {
	cdc, err := codec.New(cfg.Encoding)
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryConfig, "unsupported encoding").
			WithContext("encoding", cfg.Encoding).
			Build()
	}

	layout := discovery.NewLayout(cfg.ExportRoot, cfg.HTMLDir)
	rootName := filepath.Base(layout.Root)
	if abs, err := filepath.Abs(layout.Root); err == nil {
		rootName = filepath.Base(abs)
	}

	injector, err := widget.New(widget.Options{
		ExportRoot:  rootName,
		LunrURL:     cfg.LunrURL,
		IndexFile:   cfg.IndexFile,
		GlobalName:  cfg.GlobalName,
		Heading:     cfg.Widget.Heading,
		Placeholder: cfg.Widget.Placeholder,
	})
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryInternal, "widget templates").Build()
	}

	return &run{
		cfg:    cfg,
		layout: layout,
		codec:  cdc,
		filter: filter.New(filter.Rules{
			Extensions:          cfg.Filter.Extensions,
			IgnoreFiles:         cfg.Filter.IgnoreFiles,
			TitlePlaceholders:   cfg.Filter.TitlePlaceholders,
			ContentPlaceholders: cfg.Filter.ContentPlaceholders,
		}),
		extractor: extract.New(cfg.Filter.ContentTags),
		injector:  injector,
		builder:   index.NewBuilder(),
		result:    result,
		log:       observability.Logger(slog.Default()),
	}, nil
}

// scan turns discovered files into index records. Pages are visited in
// lexical path order, which fixes the id assignment.
func (s *DefaultService) scan(ctx context.Context, r *run) ([]page, error) {
	files, err := r.layout.Walk()
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to walk page directory").
			WithContext("html_dir", r.layout.HTMLDir).
			Build()
	}
	r.log.DebugContext(ctx, "Discovered files", logfields.Count(len(files)))

	var pages []page
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if d := r.filter.Eligible(f.Name); !d.Accepted {
			if d.Reason == filter.ReasonNotHTML {
				r.result.Ignored++
				continue
			}
			s.skip(ctx, r, f, d)
			continue
		}

		doc, _, err := s.load(r, f)
		if err != nil {
			return nil, err
		}
		// A frameset page has nowhere to carry the widget, so it gets no record.
		if doc.Body().Length() == 0 {
			s.skip(ctx, r, f, filter.Decision{Reason: filter.ReasonNoBody})
			continue
		}
		// A widget from an earlier run is not page content.
		widget.Strip(doc.Body())

		text := r.extractor.Extract(doc, f.Name)
		if d := r.filter.Accept(text.Title, text.Content); !d.Accepted {
			s.skip(ctx, r, f, d)
			continue
		}

		typ := document.Classify(f.Name)
		rec, err := r.builder.Add(text.Title, text.Content, f.URL, typ)
		if err != nil {
			return nil, err
		}
		s.recorder.IncPageIndexed(string(typ))
		r.log.DebugContext(ctx, "Indexed page",
			logfields.DocID(rec.ID),
			logfields.URL(rec.URL),
			logfields.DocType(string(rec.Type)))

		pages = append(pages, page{file: f, record: rec})
	}

	r.log.InfoContext(ctx, "Scan complete",
		logfields.Count(len(pages)),
		slog.Int("skipped", r.result.SkippedTotal()),
		slog.Int("ignored", r.result.Ignored))
	return pages, nil
}

func (s *DefaultService) skip(ctx context.Context, r *run, f discovery.File, d filter.Decision) {
	r.result.Skipped[d.Reason]++
	s.recorder.IncPageSkipped(string(d.Reason))

	attrs := []slog.Attr{logfields.File(f.Name), logfields.Reason(string(d.Reason)), logfields.URL(f.URL)}
	if d.Token != "" {
		attrs = append(attrs, slog.String("token", d.Token))
	}
	r.log.LogAttrs(ctx, slog.LevelWarn, "Skipping page", attrs...)
}

// load reads, decodes and parses a page.
func (s *DefaultService) load(r *run, f discovery.File) (*htmldoc.Document, codec.Text, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, codec.Text{}, dberrors.FileSystemError("failed to read page").
			WithCause(err).
			WithFile(f.URL).
			Build()
	}
	text, err := r.codec.Decode(raw)
	if err != nil {
		return nil, codec.Text{}, dberrors.EncodingError("page is not valid "+r.codec.Name()).
			WithCause(err).
			WithFile(f.URL).
			WithContext("encoding", r.codec.Name()).
			Build()
	}
	doc, err := htmldoc.Parse(bytes.NewReader(text.Data))
	if err != nil {
		return nil, codec.Text{}, dberrors.WrapError(err, dberrors.CategoryParse, "failed to parse page").
			WithFile(f.URL).
			Build()
	}
	return doc, text, nil
}

// inject rewrites every accepted page with a fresh widget. Each page is
// reloaded from disk so parsed trees are not held for the whole export.
func (s *DefaultService) inject(ctx context.Context, r *run, pages []page) error {
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return s.partial(r.result, err, dberrors.CategoryRuntime, p.file, "run cancelled during page rewrite")
		}

		doc, text, err := s.load(r, p.file)
		if err != nil {
			return s.partial(r.result, err, dberrors.CategoryOf(err), p.file, "failed to reload page")
		}
		if err := r.injector.Inject(doc, discovery.Depth(p.file.URL)); err != nil {
			return s.partial(r.result, err, dberrors.CategoryInternal, p.file, "failed to inject widget")
		}

		var buf bytes.Buffer
		if err := doc.Render(&buf); err != nil {
			return s.partial(r.result, err, dberrors.CategoryInternal, p.file, "failed to render page")
		}
		out, err := r.codec.Encode(codec.Text{Data: buf.Bytes(), BOM: text.BOM})
		if err != nil {
			return s.partial(r.result, err, dberrors.CategoryEncoding, p.file, "failed to encode page")
		}
		if err := s.writePage(p.file.Path, out, fsutil.FileMode(p.file.Path, 0o644)); err != nil {
			return s.partial(r.result, err, dberrors.CategoryFileSystem, p.file, "failed to write page")
		}

		r.result.Rewritten = append(r.result.Rewritten, p.file.URL)
		r.log.DebugContext(ctx, "Injected widget", logfields.URL(p.file.URL))
	}

	r.log.InfoContext(ctx, "Widget injected", logfields.Count(len(r.result.Rewritten)))
	return nil
}

// partial reports a failure after some pages may already have been
// rewritten. The index is not published, so the caller must rerun.
func (s *DefaultService) partial(result *Result, err error, category dberrors.ErrorCategory, f discovery.File, msg string) error {
	b := dberrors.WrapError(err, category, msg).
		WithFile(f.URL).
		WithContext("rewritten_count", len(result.Rewritten))
	if len(result.Rewritten) > 0 {
		b = b.WithContext("rewritten", strings.Join(result.Rewritten, ", "))
	}
	return b.Build()
}

// publish writes the index artifact and the query assets.
func (s *DefaultService) publish(ctx context.Context, r *run) error {
	records := r.builder.Records()
	indexPath := filepath.Join(r.layout.Root, r.cfg.IndexFile)
	if err := index.WriteFile(indexPath, records, r.cfg.GlobalName); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to write search index").
			WithContext("file", indexPath).
			Build()
	}
	r.result.IndexPath = indexPath
	s.recorder.SetIndexSize(len(records))
	r.log.InfoContext(ctx, "Search index written", logfields.Path(indexPath), logfields.Count(len(records)))

	assets, err := r.injector.WriteAssets(r.layout.Root)
	r.result.Assets = assets
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to write query assets").
			WithContext("export_root", r.layout.Root).
			Build()
	}
	return nil
}

func (s *DefaultService) finish(ctx context.Context, r *run, outcome metrics.Outcome) *Result {
	result := r.result
	result.Status = StatusSuccess
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.IncRunOutcome(outcome)
	s.recorder.ObserveRunDuration(result.Duration)

	attrs := []slog.Attr{
		slog.Int("indexed", len(result.Records)),
		slog.Int("ignored", result.Ignored),
		logfields.DurationMS(float64(result.Duration.Microseconds()) / 1000),
	}
	for _, reason := range []filter.SkipReason{filter.ReasonDenylisted, filter.ReasonNoBody, filter.ReasonPlaceholderTitle, filter.ReasonPlaceholderContent} {
		attrs = append(attrs, slog.Int("skipped_"+string(reason), result.Skipped[reason]))
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "Build complete", attrs...)
	return result
}

func (s *DefaultService) fail(result *Result, err error) (*Result, error) {
	result.Status = StatusFailed
	outcome := metrics.OutcomeFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result.Status = StatusCancelled
		outcome = metrics.OutcomeCanceled
	}
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.IncRunOutcome(outcome)
	s.recorder.ObserveRunDuration(result.Duration)
	return result, err
}
