// Package columnar implements a columnar-file sink backed by
// github.com/parquet-go/parquet-go. Top-level fields become top-level
// columns; as a deliberate simplification, repeating fields become
// repeated-primitive columns rather than the library's list-group
// construction; Structs become nested group fields; snappy compression is
// the default.
package columnar

import (
	"context"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"xmletl/internal/sink"
	"xmletl/internal/sink/coerce"
	"xmletl/internal/value"
)

// Writer implements sink.Sink over a single Parquet file.
type Writer struct {
	w      io.Writer
	shape  sink.Shape
	schema *value.Schema
	pw     *parquet.Writer
}

// NewWriter builds a Writer over w. shape selects Columnar (one
// column per top-level field) or Flattened (a single repeated
// {name, value} column).
func NewWriter(w io.Writer, shape sink.Shape) *Writer {
	return &Writer{w: w, shape: shape}
}

func (c *Writer) EnsureDestination(ctx context.Context, schema *value.Schema, mode sink.Mode) error {
	c.schema = schema
	node := schemaToNode(schema, c.shape)
	pqSchema := parquet.NewSchema(schema.RootElement, node)
	c.pw = parquet.NewWriter(c.w, pqSchema, parquet.Compression(&parquet.Snappy))
	return nil
}

func (c *Writer) WriteBatch(ctx context.Context, records []sink.Record) (int64, int64, error) {
	if c.pw == nil {
		return 0, 0, fmt.Errorf("columnar: EnsureDestination was not called")
	}
	var written, coercionErrors int64
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return written, coercionErrors, err
		}
		var row map[string]any
		if c.shape == sink.Flattened {
			row = flattenedRow(r)
		} else {
			row, coercionErrors = columnarRow(r, c.schema, coercionErrors)
		}
		if err := c.pw.Write(row); err != nil {
			return written, coercionErrors, fmt.Errorf("columnar: write row: %w", err)
		}
		written++
	}
	return written, coercionErrors, nil
}

func (c *Writer) Close(ctx context.Context) error {
	if c.pw == nil {
		return nil
	}
	return c.pw.Close()
}

// columnarRow builds one row keyed by the sanitized-at-schema-time field
// names; the extractor's record itself is always keyed by the field's
// source name, so this uses it directly (column-name sanitization for
// collisions is the caller's concern when rendering the physical schema,
// not the row values).
func columnarRow(r sink.Record, schema *value.Schema, coercionErrors int64) (map[string]any, int64) {
	f, ok := schema.Get(r.Name)
	if !ok {
		return map[string]any{}, coercionErrors
	}
	row := map[string]any{r.Name: cellForField(r.Value, f, &coercionErrors)}
	return row, coercionErrors
}

func flattenedRow(r sink.Record) map[string]any {
	b, _ := coerce.JSON(r.Value)
	return map[string]any{"name": r.Name, "value": string(b)}
}

// cellForField converts v per f.Type for Parquet storage: Struct values
// pass through as nested maps; everything else goes through coerce.Cell,
// falling back to the raw string (and counting a CoercionError) on failure.
func cellForField(v value.Value, f *value.Field, coercionErrors *int64) any {
	if f.Type.Kind == value.Struct {
		return structToMap(v, f.Type)
	}
	if cell, ok := coerce.Cell(v, f.Type); ok {
		return cell
	}
	*coercionErrors++
	text, _ := v.Text()
	return text
}

func structToMap(v value.Value, t value.Type) map[string]any {
	out := map[string]any{}
	for _, name := range t.Order {
		cf := t.Fields[name]
		child, ok := v.Get(name)
		if !ok {
			continue
		}
		if cf.IsRepeatingCol() {
			var items []any
			for _, occ := range child.AsList() {
				items = append(items, cellForField(occ, cf, new(int64)))
			}
			out[name] = items
			continue
		}
		var leaf value.Value
		if child.IsList() && len(child.AsList()) > 0 {
			leaf = child.AsList()[0]
		} else {
			leaf = child
		}
		out[name] = cellForField(leaf, cf, new(int64))
	}
	return out
}

// schemaToNode builds the Parquet schema tree for schema under shape.
func schemaToNode(schema *value.Schema, shape sink.Shape) parquet.Node {
	if shape == sink.Flattened {
		return parquet.Group{
			"name":  parquet.String(),
			"value": parquet.String(),
		}
	}
	group := parquet.Group{}
	for _, name := range schema.Order {
		f := schema.Fields[name]
		group[name] = fieldNode(f)
	}
	return group
}

func fieldNode(f *value.Field) parquet.Node {
	var node parquet.Node
	if f.Type.Kind == value.Struct {
		g := parquet.Group{}
		for _, name := range f.Type.Order {
			g[name] = fieldNode(f.Type.Fields[name])
		}
		node = g
	} else {
		node = leafNode(f.Type)
	}
	if f.IsRepeatingCol() {
		return parquet.Repeated(node)
	}
	if f.Nullable {
		return parquet.Optional(node)
	}
	return node
}

func leafNode(t value.Type) parquet.Node {
	switch t.Kind {
	case value.I32:
		return parquet.Leaf(parquet.Int32Type)
	case value.I64:
		return parquet.Leaf(parquet.Int64Type)
	case value.F64:
		return parquet.Leaf(parquet.DoubleType)
	case value.Bool:
		return parquet.Leaf(parquet.BooleanType)
	case value.Timestamp:
		return parquet.Timestamp(parquet.Millisecond)
	case value.Date:
		return parquet.Date()
	case value.Decimal:
		return parquet.Decimal(t.Scale, t.Precision, parquet.Int64Type)
	default:
		return parquet.String()
	}
}

var _ sink.Sink = (*Writer)(nil)
