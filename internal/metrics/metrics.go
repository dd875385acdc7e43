// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the XML ETL pipeline.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It lets the rest of the codebase depend only on this interface while
//     keeping concrete metric systems isolated in subpackages.
//
// The primary use case is instrumentation of the pipeline's stages
// (extract, resolve, infer, sink) without coupling core logic to a specific
// metrics system such as Prometheus or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. It is intentionally
// generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep is a convenience for the common pattern: measure latency +
// success/failure per pipeline step (extract, resolve, infer, sink).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("xmletl_step_total", 1, lbls)
	backend.ObserveHistogram("xmletl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job, sink kind
// and row kind.
//
// Typical kinds mirror the run summary fields, e.g.:
//   - "extracted"
//   - "written"
//   - "skipped"
func RecordRow(job, sinkKind, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("xmletl_records_total", float64(delta), Labels{
		"job":  job,
		"sink": sinkKind,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job and sink.
func RecordBatches(job, sinkKind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("xmletl_batches_total", float64(delta), Labels{
		"job":  job,
		"sink": sinkKind,
	})
}

// RecordCoercionError increments the per-cell coercion-error aggregate for
// job. Coercion errors are logged individually and also aggregated into a
// single count reported at run end; this counter is that aggregate.
func RecordCoercionError(job, field string) {
	backend.IncCounter("xmletl_coercion_errors_total", 1, Labels{
		"job":   job,
		"field": field,
	})
}
