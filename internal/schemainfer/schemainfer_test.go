package schemainfer

import (
	"context"
	"io"
	"strings"
	"testing"

	"xmletl/internal/value"
)

type memSource struct{ data string }

func (m memSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.data)), nil
}

const catalogXML = `<?xml version="1.0"?>
<catalog>
  <book id="bk101">
    <title>XML Developer's Guide</title>
    <year>2000</year>
    <price>44.95</price>
  </book>
  <book id="bk102">
    <title>Midnight Rain</title>
    <year>2000</year>
    <price>5.95</price>
    <bonus>yes</bonus>
  </book>
</catalog>`

func TestInferFromSource_AutoModeFoldsAcrossSamples(t *testing.T) {
	src := memSource{data: catalogXML}
	schema, err := InferFromSource(context.Background(), src, nil, Config{Mode: Auto})
	if err != nil {
		t.Fatalf("InferFromSource: %v", err)
	}
	if schema.RootElement != "catalog" {
		t.Fatalf("expected root element catalog, got %q", schema.RootElement)
	}
	book, ok := schema.Get("book")
	if !ok {
		t.Fatalf("expected a top-level 'book' field")
	}
	if !book.Repeating {
		t.Fatalf("expected book field to be repeating")
	}
	if book.Type.Kind != value.Struct {
		t.Fatalf("expected book field to be a Struct, got %v", book.Type.Kind)
	}
	price, ok := book.Type.Fields["price"]
	if !ok || price.Type.Kind != value.F64 {
		t.Fatalf("expected price field of kind F64, got %+v ok=%v", price, ok)
	}
	year, ok := book.Type.Fields["year"]
	if !ok || year.Type.Kind != value.I32 {
		t.Fatalf("expected year field of kind I32, got %+v ok=%v", year, ok)
	}
	// bonus only appears on the second book: present in one sample only
	// must be folded as nullable.
	bonus, ok := book.Type.Fields["bonus"]
	if !ok || !bonus.Nullable {
		t.Fatalf("expected bonus field present and nullable, got %+v ok=%v", bonus, ok)
	}
	id, ok := book.Type.Fields["@id"]
	if !ok || id.Type.Kind != value.Str {
		t.Fatalf("expected @id attribute field of kind Str, got %+v ok=%v", id, ok)
	}
}

func TestInfer_ManualModeAppliesOnlyOverrides(t *testing.T) {
	cfg := Config{
		Mode:      Manual,
		TypeHints: map[string]string{"count": "int"},
	}
	schema, err := Infer("catalog", nil, nil, cfg)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if schema.Len() != 1 {
		t.Fatalf("expected exactly one field created by TypeHints, got %d", schema.Len())
	}
	count, ok := schema.Get("count")
	if !ok || count.Type.Kind != value.I32 || !count.Nullable {
		t.Fatalf("expected created nullable I32 'count' field, got %+v ok=%v", count, ok)
	}
}

func TestInfer_ExternalModeWithoutSchemaFails(t *testing.T) {
	_, err := Infer("catalog", nil, nil, Config{Mode: External})
	if err == nil {
		t.Fatalf("expected an error when mode=External has no external schema")
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
}

func TestInfer_HybridMergesExternalFirstThenSamples(t *testing.T) {
	ext := value.NewExternalSchema("")
	ext.Set(value.ExternalDecl{Name: "book", Type: value.Type{Kind: value.Str}, MinOccurs: 1, MaxOccurs: -1})

	samples := []Sample{
		{Name: "book", Value: value.Record(value.Pair{Key: "title", Val: value.List(value.Record(value.Pair{Key: "#text", Val: value.String("x")}))})},
		{Name: "employee", Value: value.Record(value.Pair{Key: "#text", Val: value.String("e1")})},
	}

	schema, err := Infer("catalog", ext, samples, Config{Mode: Hybrid})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	// "book" came from the external schema and must NOT be overwritten by
	// the sampled Struct shape.
	book, ok := schema.Get("book")
	if !ok || book.Type.Kind != value.Str {
		t.Fatalf("expected external 'book' declaration to win, got %+v ok=%v", book, ok)
	}
	// "employee" had no external declaration, so the sampled fold fills it in.
	employee, ok := schema.Get("employee")
	if !ok || employee.Type.Kind != value.Str {
		t.Fatalf("expected sampled 'employee' field to be added, got %+v ok=%v", employee, ok)
	}
}

func TestInfer_ForceArraysOnlyAffectsExistingField(t *testing.T) {
	ext := value.NewExternalSchema("")
	ext.Set(value.ExternalDecl{Name: "tag", Type: value.Type{Kind: value.Str}, MinOccurs: 0, MaxOccurs: 1})

	schema, err := Infer("catalog", ext, nil, Config{Mode: External, ForceArrays: []string{"tag", "ghost"}})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	tag, _ := schema.Get("tag")
	if !tag.Repeating {
		t.Fatalf("expected forceArrays to mark 'tag' repeating")
	}
	if _, ok := schema.Get("ghost"); ok {
		t.Fatalf("forceArrays must not create a field that doesn't already exist")
	}
}

func TestProbeLeafType_OrderHandlesTimestampBeforeDate(t *testing.T) {
	cases := map[string]value.Kind{
		"true":                     value.Bool,
		"42":                       value.I32,
		"12345678901":              value.I64,
		"3.14":                     value.F64,
		"2024-01-02T03:04:05Z":     value.Timestamp,
		"2024-01-02":               value.Date,
		"not a recognized pattern": value.Str,
	}
	for s, want := range cases {
		got := probeLeafType(s)
		if got.Kind != want {
			t.Errorf("probeLeafType(%q) = %v, want %v", s, got.Kind, want)
		}
	}
}
