package relational

import (
	"testing"

	"xmletl/internal/ddl"
	"xmletl/internal/sanitize"
	"xmletl/internal/sink"
	"xmletl/internal/value"
)

func newTestSink(shape sink.Shape) *Sink {
	schema := value.NewSchema("catalog")
	schema.Set(&value.Field{Name: "title", Type: value.Type{Kind: value.Str}})
	schema.Set(&value.Field{Name: "year", Type: value.Type{Kind: value.I32}})
	schema.Set(&value.Field{Name: "tag", Type: value.Type{Kind: value.Str}, Repeating: true})

	s := &Sink{cfg: Config{Dialect: ddl.Postgres, Shape: shape}, schema: schema}
	s.columns = []string{"title", "year", "tag"}
	if shape == sink.Flattened {
		s.columns = []string{"data"}
	} else {
		s.dedupe = sanitize.NewDeduper(sanitize.Rules{Lowercase: true, MaxLength: 63})
		for _, name := range schema.Order {
			s.dedupe.Assign(name)
		}
	}
	return s
}

func TestBuildRow_ColumnarCoercesTypedLeaf(t *testing.T) {
	s := newTestSink(sink.Columnar)
	var coercionErrors int64
	row, ok := s.buildRow(sink.Record{Name: "year", Value: value.String("2001")}, &coercionErrors)
	if !ok {
		t.Fatalf("expected ok")
	}
	if coercionErrors != 0 {
		t.Fatalf("unexpected coercion error")
	}
	if row[1] != int32(2001) {
		t.Fatalf("got %#v", row)
	}
	if row[0] != nil || row[2] != nil {
		t.Fatalf("expected only the year column populated, got %#v", row)
	}
}

func TestBuildRow_RepeatingFieldSerializesToJSON(t *testing.T) {
	s := newTestSink(sink.Columnar)
	var coercionErrors int64
	rec := sink.Record{Name: "tag", Value: value.List(value.String("a"), value.String("b"))}
	row, ok := s.buildRow(rec, &coercionErrors)
	if !ok {
		t.Fatalf("expected ok")
	}
	if row[2] == nil {
		t.Fatalf("expected the tag column to be populated")
	}
	if _, isString := row[2].(string); !isString {
		t.Fatalf("expected JSON-serialized string, got %T", row[2])
	}
}

func TestBuildRow_UnknownFieldNameFails(t *testing.T) {
	s := newTestSink(sink.Columnar)
	var coercionErrors int64
	_, ok := s.buildRow(sink.Record{Name: "ghost", Value: value.String("x")}, &coercionErrors)
	if ok {
		t.Fatalf("expected unknown field to fail")
	}
}

func TestBuildRow_FlattenedAlwaysProducesSingleJSONColumn(t *testing.T) {
	s := newTestSink(sink.Flattened)
	var coercionErrors int64
	row, ok := s.buildRow(sink.Record{Name: "title", Value: value.String("Moby Dick")}, &coercionErrors)
	if !ok {
		t.Fatalf("expected ok")
	}
	if len(row) != 1 {
		t.Fatalf("expected a single data column, got %#v", row)
	}
}

func TestPostgresQuoteIdentAndPlaceholder(t *testing.T) {
	s := &Sink{cfg: Config{Dialect: ddl.Postgres, Table: "public.books"}, columns: []string{"title", "year"}}

	quotedCols := make([]string, len(s.columns))
	for i, c := range s.columns {
		quotedCols[i] = ddl.QuoteIdent(s.cfg.Dialect, c)
	}
	if quotedCols[0] != `"title"` {
		t.Fatalf("got %q", quotedCols[0])
	}
	if got := ddl.Placeholder(ddl.Postgres, 1); got != "$1" {
		t.Fatalf("got %q", got)
	}
}
