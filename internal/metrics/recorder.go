// Package metrics defines observability hooks for submissions, the offline
// queue and connectivity. Implementations may forward to Prometheus.
package metrics

import "time"

// Recorder receives submission lifecycle events. kind is the record kind
// (harvest, settings).
type Recorder interface {
	ObserveSubmission(kind, outcome string, d time.Duration)
	SetQueueDepth(kind string, depth int)
	IncFlush(kind, result string)
	IncFlushedItems(kind string, delivered, failed int)
	SetOnline(online bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSubmission(string, string, time.Duration) {}
func (NoopRecorder) SetQueueDepth(string, int)                       {}
func (NoopRecorder) IncFlush(string, string)                         {}
func (NoopRecorder) IncFlushedItems(string, int, int)                {}
func (NoopRecorder) SetOnline(bool)                                  {}
