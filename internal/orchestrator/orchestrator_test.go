package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xmletl/internal/config"
)

const catalogXML = `<?xml version="1.0"?>
<catalog>
  <book id="1"><title>Moby Dick</title><year>1851</year></book>
  <book id="2"><title>Dune</title><year>1965</year></book>
</catalog>`

func writeTempXML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.xml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_AutoModeToLDJSON(t *testing.T) {
	inputPath := writeTempXML(t, catalogXML)
	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "out.ldjson")

	spec := config.Pipeline{
		Job:    "test-job",
		Source: config.Source{Kind: "file", File: config.SourceFile{Path: inputPath}},
		Parser: config.Parser{Kind: "xml", Options: config.Options{"record_tag": "book"}},
		Schema: config.SchemaConfig{Mode: "auto"},
		Sink: config.Sink{
			Kind:  "textfile_ldjson",
			Shape: "columnar",
			Mode:  "append",
			Options: config.Options{
				"path": outPath,
			},
		},
		Runtime: config.RuntimeConfig{BatchSize: 1},
	}

	report, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Written != 2 {
		t.Fatalf("report.Written = %d, want 2", report.Written)
	}
	if report.RunID == "" {
		t.Fatalf("expected a non-empty RunID")
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), string(b))
	}
	var row map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &row); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
}

func TestOpenSource_DefaultsToFile(t *testing.T) {
	src, err := openSource(config.Source{Kind: "", File: config.SourceFile{Path: "x.xml"}})
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}
	if src == nil {
		t.Fatalf("expected a non-nil source")
	}
}

func TestDialectFromString_RejectsUnknown(t *testing.T) {
	if _, err := dialectFromString("oracle"); err == nil {
		t.Fatalf("expected an error for an unknown dialect")
	}
}

func TestOpenSink_UnknownKindFails(t *testing.T) {
	if _, err := openSink(context.Background(), nil, config.Sink{Kind: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected an error for an unknown sink kind")
	}
}
