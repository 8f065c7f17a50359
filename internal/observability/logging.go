// Package observability carries run-scoped logging context (run id, stage,
// export root) through context.Context and adds it to every record logged
// with that context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/easearch/internal/logfields"
)

// RunContext holds the correlation fields of one run.
type RunContext struct {
	RunID      string
	Stage      string
	ExportRoot string
}

type runContextKey struct{}

func with(ctx context.Context, update func(*RunContext)) context.Context {
	rc := FromContext(ctx)
	update(&rc)
	return context.WithValue(ctx, runContextKey{}, rc)
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return with(ctx, func(rc *RunContext) { rc.RunID = runID })
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(rc *RunContext) { rc.Stage = stage })
}

// WithExportRoot adds the export root directory to the context.
func WithExportRoot(ctx context.Context, root string) context.Context {
	return with(ctx, func(rc *RunContext) { rc.ExportRoot = root })
}

// FromContext returns the run context stored in ctx, or the zero value.
func FromContext(ctx context.Context) RunContext {
	if ctx == nil {
		return RunContext{}
	}
	rc, _ := ctx.Value(runContextKey{}).(RunContext)
	return rc
}

// Attrs returns the non-empty run context fields as log attributes.
func Attrs(ctx context.Context) []slog.Attr {
	rc := FromContext(ctx)
	var attrs []slog.Attr
	if rc.RunID != "" {
		attrs = append(attrs, logfields.RunID(rc.RunID))
	}
	if rc.Stage != "" {
		attrs = append(attrs, logfields.Stage(rc.Stage))
	}
	if rc.ExportRoot != "" {
		attrs = append(attrs, logfields.ExportRoot(rc.ExportRoot))
	}
	return attrs
}

// Handler decorates records with the run context of the context they are
// logged with.
type Handler struct {
	next slog.Handler
}

// NewHandler wraps next. Wrapping a Handler again returns it unchanged.
func NewHandler(next slog.Handler) slog.Handler {
	if h, ok := next.(*Handler); ok {
		return h
	}
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}

// Logger returns l with its handler wrapped by NewHandler.
func Logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if _, ok := l.Handler().(*Handler); ok {
		return l
	}
	return slog.New(NewHandler(l.Handler()))
}
