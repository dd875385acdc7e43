// Package textfile implements structured-text sinks: a pretty-or-compact
// JSON document (single top-level array of records) and line-delimited JSON
// (one record per line). Both write straight to an io.Writer using plain
// stdlib encoding/json rather than a templating or streaming-JSON library.
package textfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"xmletl/internal/sink"
	"xmletl/internal/value"
)

// recordJSON converts one sink.Record into a JSON object of the shape
// {"<name>": [<value-tree-as-JSON>, ...]} — a record is
// always wrapped in its element name's one-element list, mirroring the
// value-tree's own "child keys are always lists" invariant.
func recordJSON(r sink.Record) map[string]any {
	return map[string]any{r.Name: []any{toPlain(r.Value)}}
}

func toPlain(v value.Value) any {
	switch {
	case v.IsString():
		return v.AsString()
	case v.IsList():
		out := make([]any, 0, len(v.AsList()))
		for _, item := range v.AsList() {
			out = append(out, toPlain(item))
		}
		return out
	case v.IsRecord():
		out := make(map[string]any, len(v.AsRecord()))
		for _, p := range v.AsRecord() {
			out[p.Key] = toPlain(p.Val)
		}
		return out
	default:
		return nil
	}
}

// DocWriter implements sink.Sink by writing a single top-level JSON array
// document. Columnar vs. Flattened only
// affects how the relational/columnar/warehouse sinks shape their columns;
// a JSON document sink always emits the full value tree, so NewDocWriter
// takes no Shape.
type DocWriter struct {
	w       io.Writer
	pretty  bool
	wrote   bool
	started bool
}

// NewDocWriter builds a DocWriter over w. pretty selects indented vs.
// compact encoding.
func NewDocWriter(w io.Writer, pretty bool) *DocWriter {
	return &DocWriter{w: w, pretty: pretty}
}

func (d *DocWriter) EnsureDestination(ctx context.Context, schema *value.Schema, mode sink.Mode) error {
	if _, err := io.WriteString(d.w, "["); err != nil {
		return err
	}
	d.started = true
	return nil
}

func (d *DocWriter) WriteBatch(ctx context.Context, records []sink.Record) (int64, int64, error) {
	if !d.started {
		return 0, 0, fmt.Errorf("textfile: EnsureDestination was not called")
	}
	var written int64
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return written, 0, err
		}
		obj := recordJSON(r)
		var b []byte
		var err error
		if d.pretty {
			b, err = json.MarshalIndent(obj, "", "  ")
		} else {
			b, err = json.Marshal(obj)
		}
		if err != nil {
			return written, 0, fmt.Errorf("textfile: marshal record: %w", err)
		}
		if d.wrote {
			if _, err := io.WriteString(d.w, ","); err != nil {
				return written, 0, err
			}
		}
		if d.pretty {
			if _, err := io.WriteString(d.w, "\n  "); err != nil {
				return written, 0, err
			}
			b = bytes.ReplaceAll(b, []byte("\n"), []byte("\n  "))
		}
		if _, err := d.w.Write(b); err != nil {
			return written, 0, err
		}
		d.wrote = true
		written++
	}
	return written, 0, nil
}

func (d *DocWriter) Close(ctx context.Context) error {
	if d.pretty && d.wrote {
		if _, err := io.WriteString(d.w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(d.w, "]")
	return err
}

// LDJSONWriter implements sink.Sink by writing compact line-delimited JSON,
// one record per line.
type LDJSONWriter struct {
	w io.Writer
	n int64
}

// NewLDJSONWriter builds an LDJSONWriter over w.
func NewLDJSONWriter(w io.Writer) *LDJSONWriter { return &LDJSONWriter{w: w} }

func (l *LDJSONWriter) EnsureDestination(ctx context.Context, schema *value.Schema, mode sink.Mode) error {
	return nil
}

func (l *LDJSONWriter) WriteBatch(ctx context.Context, records []sink.Record) (int64, int64, error) {
	var written int64
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return written, 0, err
		}
		b, err := json.Marshal(recordJSON(r))
		if err != nil {
			return written, 0, fmt.Errorf("textfile: marshal record: %w", err)
		}
		if _, err := l.w.Write(append(b, '\n')); err != nil {
			return written, 0, err
		}
		written++
	}
	l.n += written
	return written, 0, nil
}

func (l *LDJSONWriter) Close(ctx context.Context) error { return nil }

var _ sink.Sink = (*DocWriter)(nil)
var _ sink.Sink = (*LDJSONWriter)(nil)
