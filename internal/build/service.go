package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/easearch/internal/config"
	"git.home.luguber.info/inful/easearch/internal/document"
	"git.home.luguber.info/inful/easearch/internal/filter"
)

// Service is the interface for running an indexing pass.
type Service interface {
	// Run executes scan, inject and publish for one export.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required for a run.
type Request struct {
	// Config is the loaded and validated configuration.
	Config *config.Config

	// Options modify run behavior.
	Options Options
}

// Options provides optional run behavior.
type Options struct {
	// DryRun scans and reports without writing anything.
	DryRun bool
}

// Result contains the outcome of a run.
type Result struct {
	// Status indicates the overall outcome.
	Status Status

	// RunID identifies the run in logs.
	RunID string

	// Records is the index in id order.
	Records []document.Record

	// Skipped counts excluded pages per reason.
	Skipped map[filter.SkipReason]int

	// Ignored counts files below the page directory that are not HTML.
	Ignored int

	// Rewritten lists the urls of pages that received the widget, in
	// write order. On a write-back failure it names the pages already
	// changed.
	Rewritten []string

	// IndexPath is the written index artifact, empty unless published.
	IndexPath string

	// Assets are the written query script and stylesheet.
	Assets []string

	// DryRun is set when nothing was written by request.
	DryRun bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// SkippedTotal returns the number of excluded pages over all reasons.
func (r *Result) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Status represents the outcome of a run.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the run completed.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
