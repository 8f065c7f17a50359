package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/easearch/internal/build"
	"git.home.luguber.info/inful/easearch/internal/config"
	"git.home.luguber.info/inful/easearch/internal/filter"
	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
	"git.home.luguber.info/inful/easearch/internal/logfields"
	"git.home.luguber.info/inful/easearch/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ExportRoot      string `arg:"" optional:"" name:"export-root" help:"Export root directory (overrides export_root)" type:"path"`
	HTMLDir         string `name:"html-dir" help:"Page directory below the export root (overrides html_dir)"`
	Encoding        string `short:"e" help:"Page encoding, e.g. utf-8 or windows-1252 (overrides encoding)"`
	DryRun          bool   `name:"dry-run" short:"n" help:"Scan and report without writing anything"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write Prometheus metrics to this file after the run (overrides metrics.textfile)" type:"path"`
}

// apply overlays command-line values on cfg.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.ExportRoot != "" {
		cfg.ExportRoot = b.ExportRoot
	}
	if b.HTMLDir != "" {
		cfg.HTMLDir = b.HTMLDir
	}
	if b.Encoding != "" {
		cfg.Encoding = b.Encoding
	}
	if b.MetricsTextfile != "" {
		cfg.Metrics.Textfile = b.MetricsTextfile
	}
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	b.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryValidation, "invalid command-line options").Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, g.out(), cfg, build.Options{DryRun: b.DryRun})
}

// RunBuild runs one indexing pass and prints a summary to w.
func RunBuild(ctx context.Context, w io.Writer, cfg *config.Config, opts build.Options) error {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	result, err := build.NewService().WithRecorder(rec).Run(ctx, build.Request{Config: cfg, Options: opts})

	if cfg.Metrics.Textfile != "" {
		if werr := rec.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	printSummary(w, result)
	return nil
}

func printSummary(w io.Writer, r *build.Result) {
	if r.DryRun {
		_, _ = fmt.Fprintln(w, "Dry run: no files written")
	}
	_, _ = fmt.Fprintf(w, "Indexed %d pages\n", len(r.Records))

	reasons := make([]filter.SkipReason, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, reason := range reasons {
		_, _ = fmt.Fprintf(w, "Skipped %d pages (%s)\n", r.Skipped[reason], reason)
	}
	if r.Ignored > 0 {
		_, _ = fmt.Fprintf(w, "Ignored %d non-HTML files\n", r.Ignored)
	}
	if r.IndexPath != "" {
		_, _ = fmt.Fprintf(w, "Search index written to %s\n", r.IndexPath)
	}
}
