// Package warehouse implements an analytic-warehouse sink: batches of
// records are POSTed as newline-delimited JSON to a warehouse's batch
// load endpoint, using the shared internal/httpfetch client rather than any
// warehouse-specific SDK.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/zeebo/xxh3"

	"xmletl/internal/httpfetch"
	"xmletl/internal/sink"
	"xmletl/internal/sink/coerce"
	"xmletl/internal/value"
	"xmletl/internal/xlog"
)

// Config points at a warehouse table's batch-insert endpoint.
type Config struct {
	// Endpoint is the full URL the sink POSTs newline-delimited JSON
	// batches to.
	Endpoint string
	// Project, Dataset, Table identify the destination; sent as headers
	// so a single endpoint can serve multiple tables.
	Project string
	Dataset string
	Table   string
	Shape   sink.Shape
	Headers http.Header
}

// Writer implements sink.Sink by POSTing each batch to cfg.Endpoint. A
// schema-creation call is made first and is expected to be idempotent; a
// response status of 300 or above from it makes EnsureDestination return an
// error.
type Writer struct {
	client *httpfetch.Client
	cfg    Config
	schema *value.Schema
}

// NewWriter builds a Writer using client for all requests.
func NewWriter(client *httpfetch.Client, cfg Config) *Writer {
	return &Writer{client: client, cfg: cfg}
}

func (w *Writer) EnsureDestination(ctx context.Context, schema *value.Schema, mode sink.Mode) error {
	w.schema = schema
	if mode == sink.Overwrite {
		xlog.Infof("warehouse: overwrite mode requested for %s.%s.%s; the warehouse endpoint is expected to apply a truncate-equivalent on schema creation", w.cfg.Project, w.cfg.Dataset, w.cfg.Table)
	}
	resp, err := w.client.Post(ctx, w.cfg.Endpoint+"/schema", mustJSON(schemaPayload(schema)), w.headers())
	if err != nil {
		return fmt.Errorf("warehouse: ensure schema: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("warehouse: ensure schema: unexpected status %s", resp.Status)
	}
	return nil
}

func (w *Writer) WriteBatch(ctx context.Context, records []sink.Record) (int64, int64, error) {
	var buf bytes.Buffer
	var written, coercionErrors int64
	for _, r := range records {
		row, n := rowFor(r, w.schema, w.cfg.Shape)
		coercionErrors += n
		b, err := json.Marshal(row)
		if err != nil {
			return written, coercionErrors, fmt.Errorf("warehouse: marshal row: %w", err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
		written++
	}

	// A content checksum lets the endpoint recognize a byte-identical retry
	// of the same batch (e.g. after a response was lost) as a duplicate
	// rather than a new insert.
	headers := w.headers()
	headers.Set("X-Batch-Checksum", strconv.FormatUint(xxh3.Hash(buf.Bytes()), 16))

	resp, err := w.client.Post(ctx, w.cfg.Endpoint+"/insert", buf.Bytes(), headers)
	if err != nil {
		return 0, coercionErrors, fmt.Errorf("warehouse: insert batch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, coercionErrors, fmt.Errorf("warehouse: insert batch: unexpected status %s", resp.Status)
	}
	return written, coercionErrors, nil
}

func (w *Writer) Close(ctx context.Context) error { return nil }

func (w *Writer) headers() http.Header {
	h := w.cfg.Headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/x-ndjson")
	return h
}

// rowFor builds one JSON-ready row: a columnar table gets one key
// per top-level field, a flattened table gets the repeated {name, value}
// shape.
func rowFor(r sink.Record, schema *value.Schema, shape sink.Shape) (map[string]any, int64) {
	if shape == sink.Flattened {
		b, _ := coerce.JSON(r.Value)
		return map[string]any{"name": r.Name, "value": string(b)}, 0
	}
	var coercionErrors int64
	f, ok := schema.Get(r.Name)
	if !ok {
		return map[string]any{}, 0
	}
	if f.Type.Kind == value.Struct || f.IsRepeatingCol() {
		b, err := coerce.JSON(r.Value)
		if err != nil {
			coercionErrors++
			return map[string]any{r.Name: nil}, coercionErrors
		}
		return map[string]any{r.Name: json.RawMessage(b)}, coercionErrors
	}
	cell, ok := coerce.Cell(r.Value, f.Type)
	if !ok {
		coercionErrors++
		return map[string]any{r.Name: nil}, coercionErrors
	}
	return map[string]any{r.Name: cell}, coercionErrors
}

func schemaPayload(schema *value.Schema) map[string]any {
	fields := make([]map[string]any, 0, len(schema.Order))
	for _, name := range schema.Order {
		f := schema.Fields[name]
		fields = append(fields, map[string]any{
			"name":      name,
			"type":      f.Type.Kind.String(),
			"nullable":  f.Nullable,
			"repeating": f.IsRepeatingCol(),
		})
	}
	return map[string]any{"root": schema.RootElement, "fields": fields}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		xlog.Errorf("warehouse: marshal schema payload: %v", err)
		return nil
	}
	return b
}

var _ sink.Sink = (*Writer)(nil)
