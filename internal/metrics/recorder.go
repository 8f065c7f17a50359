package metrics

import "time"

// Outcome enumerates final run states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeDryRun   Outcome = "dry_run"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder defines observability hooks for a run and its stages.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncPageIndexed(docType string)
	IncPageSkipped(reason string)
	IncRunOutcome(outcome Outcome)
	SetIndexSize(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncPageIndexed(string)                      {}
func (NoopRecorder) IncPageSkipped(string)                      {}
func (NoopRecorder) IncRunOutcome(Outcome)                      {}
func (NoopRecorder) SetIndexSize(int)                           {}
