// Package metrics provides observability hooks for sync runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so one-shot CLI runs carry no metrics overhead. Daemon mode
// injects the Prometheus implementation and serves /metrics.
package metrics

import "time"

// RunOutcome enumerates final run states for counters.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomePartial RunOutcome = "partial"
	OutcomeFailed  RunOutcome = "failed"
)

// Recorder defines observability hooks for sync runs. Implementations must be
// safe for concurrent use; asset downloads run in a worker pool.
type Recorder interface {
	IncAPIRequest(method string)
	IncRetry(op string)
	IncPageSynced()
	IncPageSkipped(reason string)
	IncAssetDownloaded()
	IncAssetDedupHit()
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncAPIRequest(string)             {}
func (NoopRecorder) IncRetry(string)                  {}
func (NoopRecorder) IncPageSynced()                   {}
func (NoopRecorder) IncPageSkipped(string)            {}
func (NoopRecorder) IncAssetDownloaded()              {}
func (NoopRecorder) IncAssetDedupHit()                {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(RunOutcome)         {}
