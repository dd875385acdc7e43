// Package batch accumulates sink records into fixed-size batches and reports
// flush progress. It is pull-mode rather than channel-draining, since the
// module is single-threaded throughout.
package batch

import (
	"time"

	"xmletl/internal/sink"
	"xmletl/internal/xlog"
)

// Buffer accumulates sink.Records up to Size. Callers call Add for every
// extracted record; when it returns ok=true, flush the returned batch
// through the sink and call ReportFlush with the result.
type Buffer struct {
	size int
	buf  []sink.Record

	start       time.Time
	batches     int64
	total       int64
	lastFlushTS time.Time
	lastTotal   int64
}

// NewBuffer constructs a Buffer holding up to size records per batch.
func NewBuffer(size int) *Buffer {
	now := time.Now()
	return &Buffer{size: size, start: now, lastFlushTS: now}
}

// Add appends v to the buffer. When the buffer reaches its configured size,
// Add returns the full batch and ok=true; the caller must flush it and then
// call ReportFlush. Otherwise ok is false and the caller should keep
// reading.
func (b *Buffer) Add(r sink.Record) (batch []sink.Record, ok bool) {
	b.buf = append(b.buf, r)
	if len(b.buf) < b.size {
		return nil, false
	}
	out := b.buf
	b.buf = nil
	return out, true
}

// Drain returns whatever partial batch remains after the input is
// exhausted, or nil if the buffer is empty.
func (b *Buffer) Drain() []sink.Record {
	if len(b.buf) == 0 {
		return nil
	}
	out := b.buf
	b.buf = nil
	return out
}

// ReportFlush records a successful flush of n rows and logs a
// "batch #N rps=... inserted=... total_inserted=..." progress line.
func (b *Buffer) ReportFlush(n int64) {
	b.batches++
	b.total += n
	now := time.Now()
	sinceLast := now.Sub(b.lastFlushTS)
	insertedSinceLast := b.total - b.lastTotal
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(insertedSinceLast) / sinceLast.Seconds()
	}
	xlog.Infof(
		"sink: batch #%d rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
		b.batches, rps, n, b.total,
		now.Sub(b.start).Truncate(time.Millisecond),
		sinceLast.Truncate(time.Millisecond),
	)
	b.lastFlushTS = now
	b.lastTotal = b.total
}

// Total returns the running count of rows reported via ReportFlush.
func (b *Buffer) Total() int64 { return b.total }
