// Package sink defines the common destination contract every target-aware
// writer (text-file, columnar-file, warehouse, relational) implements.
// Concrete sinks live in sibling packages; this package only holds the
// shared shape.
package sink

import (
	"context"

	"xmletl/internal/value"
)

// Mode controls table/file lifecycle at the start of a run.
type Mode int

const (
	// Append writes into an existing destination, creating it first if
	// absent, without touching existing rows.
	Append Mode = iota
	// Overwrite truncates (or equivalent DELETE) an existing destination
	// before writing, creating it first if absent.
	Overwrite
)

func (m Mode) String() string {
	if m == Overwrite {
		return "overwrite"
	}
	return "append"
}

// Shape selects between two materialization layouts: Columnar is
// one column/field per top-level schema field; Flattened is a single
// repeated {name, value} structure, robust to unbounded or heterogeneous
// field sets.
type Shape int

const (
	Columnar Shape = iota
	Flattened
)

func (s Shape) String() string {
	if s == Flattened {
		return "flattened"
	}
	return "columnar"
}

// Record pairs one extracted top-level record with the schema field name it
// was emitted under, mirroring schemainfer.Sample — the materializer's unit
// of work.
type Record struct {
	Name  string
	Value value.Value
}

// Sink is the common destination contract: establish the destination for
// schema under mode, accept batches of records in schema order, and release
// resources on Close. Per-cell and per-row failures are the sink's own
// concern, reported as coercion errors; only connection/authentication
// and per-batch errors propagate from WriteBatch.
type Sink interface {
	// EnsureDestination establishes the table/file per schema, applying the
	// create/truncate/append lifecycle for mode.
	EnsureDestination(ctx context.Context, schema *value.Schema, mode Mode) error
	// WriteBatch writes one batch of records, returning the number of rows
	// actually written and the count of cells/rows dropped to a
	// CoercionError, plus a fatal error if the batch itself failed.
	WriteBatch(ctx context.Context, records []Record) (written int64, coercionErrors int64, err error)
	// Close flushes and releases any held resources.
	Close(ctx context.Context) error
}
