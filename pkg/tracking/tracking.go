// Package tracking records pipeline runs: parameters, metrics, learning
// curves and artifacts. Sinks implement Tracker; the pipeline writes to one
// tracker and does not care whether it lands on disk, in postgres or both.
package tracking

import (
	"context"
)

// Tracker is a run-scoped sink for experiment records. Implementations must
// tolerate repeated keys; later writes win for params, metrics accumulate.
type Tracker interface {
	// RunID returns the identifier of the tracked run.
	RunID() string
	// LogParam records one configuration value.
	LogParam(ctx context.Context, key, value string) error
	// LogMetric records a single scalar result.
	LogMetric(ctx context.Context, key string, value float64) error
	// LogMetricStep records one point of a learning curve.
	LogMetricStep(ctx context.Context, key string, value float64, step int) error
	// LogText stores a free-form text artifact under the given name.
	LogText(ctx context.Context, name, text string) error
	// LogDict stores a JSON-serializable object under the given name.
	LogDict(ctx context.Context, name string, v interface{}) error
	// LogArtifact copies a local file into the run's artifact store.
	LogArtifact(ctx context.Context, localPath string) error
	// Close finalizes the run with a terminal status.
	Close(ctx context.Context, status string) error
}

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// MultiTracker fans every record out to all member trackers, returning the
// first error encountered.
type MultiTracker struct {
	trackers []Tracker
}

func NewMultiTracker(trackers ...Tracker) *MultiTracker {
	return &MultiTracker{trackers: trackers}
}

func (m *MultiTracker) RunID() string {
	if len(m.trackers) == 0 {
		return ""
	}
	return m.trackers[0].RunID()
}

func (m *MultiTracker) each(fn func(t Tracker) error) error {
	var firstErr error
	for _, t := range m.trackers {
		if err := fn(t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiTracker) LogParam(ctx context.Context, key, value string) error {
	return m.each(func(t Tracker) error { return t.LogParam(ctx, key, value) })
}

func (m *MultiTracker) LogMetric(ctx context.Context, key string, value float64) error {
	return m.each(func(t Tracker) error { return t.LogMetric(ctx, key, value) })
}

func (m *MultiTracker) LogMetricStep(ctx context.Context, key string, value float64, step int) error {
	return m.each(func(t Tracker) error { return t.LogMetricStep(ctx, key, value, step) })
}

func (m *MultiTracker) LogText(ctx context.Context, name, text string) error {
	return m.each(func(t Tracker) error { return t.LogText(ctx, name, text) })
}

func (m *MultiTracker) LogDict(ctx context.Context, name string, v interface{}) error {
	return m.each(func(t Tracker) error { return t.LogDict(ctx, name, v) })
}

func (m *MultiTracker) LogArtifact(ctx context.Context, localPath string) error {
	return m.each(func(t Tracker) error { return t.LogArtifact(ctx, localPath) })
}

func (m *MultiTracker) Close(ctx context.Context, status string) error {
	return m.each(func(t Tracker) error { return t.Close(ctx, status) })
}
