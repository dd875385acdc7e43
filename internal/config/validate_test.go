package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	p := Pipeline{
		Job:    "",
		Source: Source{Kind: "file", File: SourceFile{Path: "input.xml"}},
		Parser: Parser{Kind: "xml", Options: Options{"record_tag": "book"}},
		Schema: SchemaConfig{Mode: "auto"},
		Sink: Sink{
			Kind:  "relational",
			Mode:  "append",
			Shape: "columnar",
			Options: Options{
				"dialect": "postgres",
				"dsn":     "postgres://user@localhost/db",
				"table":   "public.t",
			},
		},
	}

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

func TestValidatePipeline_ValidMinimal(t *testing.T) {
	p := Pipeline{
		Job:    "test-job",
		Source: Source{Kind: "file", File: SourceFile{Path: "input.xml"}},
		Parser: Parser{Kind: "xml", Options: Options{"record_tag": "book"}},
		Schema: SchemaConfig{Mode: "auto", SamplingSize: 100},
		Sink: Sink{
			Kind:  "relational",
			Mode:  "append",
			Shape: "columnar",
			Options: Options{
				"dialect": "postgres",
				"dsn":     "postgres://user@localhost/db",
				"table":   "public.t",
			},
		},
		Runtime: RuntimeConfig{BatchSize: 100},
	}

	issues := ValidatePipeline(p)
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
}

func TestValidateSource_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateSource(Source{})
		if !hasIssue(t, issues, SeverityError, "source.kind", "must not be empty") {
			t.Fatalf("expected error for empty source.kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateSource(Source{Kind: "weird"})
		if !hasIssue(t, issues, SeverityWarning, "source.kind", "unknown source kind") {
			t.Fatalf("expected warning for unknown source.kind; got %+v", issues)
		}
	})

	t.Run("file_missing_path", func(t *testing.T) {
		issues := validateSource(Source{Kind: "file", File: SourceFile{Path: "  "}})
		if !hasIssue(t, issues, SeverityError, "source.file.path", "non-empty path") {
			t.Fatalf("expected error for empty file.path; got %+v", issues)
		}
	})

	t.Run("file_ok", func(t *testing.T) {
		issues := validateSource(Source{Kind: "file", File: SourceFile{Path: "data.xml"}})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})

	t.Run("http_missing_url", func(t *testing.T) {
		issues := validateSource(Source{Kind: "http"})
		if !hasIssue(t, issues, SeverityError, "source.http.url", "non-empty url") {
			t.Fatalf("expected error for empty http.url; got %+v", issues)
		}
	})
}

func TestValidateParser_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateParser(Parser{})
		if !hasIssue(t, issues, SeverityError, "parser.kind", "must not be empty") {
			t.Fatalf("expected error for empty parser.kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateParser(Parser{Kind: "weird", Options: Options{"record_tag": "x"}})
		if !hasIssue(t, issues, SeverityWarning, "parser.kind", "unknown parser kind") {
			t.Fatalf("expected warning for unknown parser.kind; got %+v", issues)
		}
	})

	t.Run("missing_record_tag_warns", func(t *testing.T) {
		issues := validateParser(Parser{Kind: "xml", Options: Options{}})
		if !hasIssue(t, issues, SeverityWarning, "parser.options.record_tag", "no record_tag") {
			t.Fatalf("expected warning for missing record_tag; got %+v", issues)
		}
	})

	t.Run("xml_with_record_tag_ok", func(t *testing.T) {
		issues := validateParser(Parser{Kind: "xml", Options: Options{"record_tag": "book"}})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

func TestValidateSchema_Cases(t *testing.T) {
	t.Run("unknown_mode", func(t *testing.T) {
		issues := validateSchema(SchemaConfig{Mode: "bogus"})
		if !hasIssue(t, issues, SeverityError, "schema.mode", "unknown schema mode") {
			t.Fatalf("expected error for unknown mode; got %+v", issues)
		}
	})

	t.Run("external_requires_url", func(t *testing.T) {
		issues := validateSchema(SchemaConfig{Mode: "external"})
		if !hasIssue(t, issues, SeverityError, "schema.external_schema_url", "requires a non-empty external_schema_url") {
			t.Fatalf("expected error for missing external_schema_url; got %+v", issues)
		}
	})

	t.Run("manual_no_hints_warns", func(t *testing.T) {
		issues := validateSchema(SchemaConfig{Mode: "manual"})
		if !hasIssue(t, issues, SeverityWarning, "schema.type_hints", "empty schema") {
			t.Fatalf("expected warning for manual mode without type_hints; got %+v", issues)
		}
	})

	t.Run("negative_sampling_size", func(t *testing.T) {
		issues := validateSchema(SchemaConfig{Mode: "auto", SamplingSize: -1})
		if !hasIssue(t, issues, SeverityError, "schema.sampling_size", "must not be negative") {
			t.Fatalf("expected error for negative sampling_size; got %+v", issues)
		}
	})

	t.Run("default_mode_is_auto", func(t *testing.T) {
		issues := validateSchema(SchemaConfig{})
		if len(issues) != 0 {
			t.Fatalf("expected empty mode to default to auto with no issues; got %+v", issues)
		}
	})
}

func TestValidateSink_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateSink(Sink{})
		if !hasIssue(t, issues, SeverityError, "sink.kind", "must not be empty") {
			t.Fatalf("expected error for empty sink.kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateSink(Sink{Kind: "weird"})
		if !hasIssue(t, issues, SeverityWarning, "sink.kind", "unknown sink kind") {
			t.Fatalf("expected warning for unknown sink.kind; got %+v", issues)
		}
	})

	t.Run("bad_shape", func(t *testing.T) {
		issues := validateSink(Sink{Kind: "textfile_doc", Shape: "weird", Options: Options{"path": "x"}})
		if !hasIssue(t, issues, SeverityError, "sink.shape", "must be") {
			t.Fatalf("expected error for bad shape; got %+v", issues)
		}
	})

	t.Run("relational_missing_fields", func(t *testing.T) {
		issues := validateSink(Sink{Kind: "relational"})
		if !hasIssue(t, issues, SeverityError, "sink.options.dsn", "non-empty dsn") {
			t.Fatalf("expected error for missing dsn; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "sink.options.table", "non-empty table") {
			t.Fatalf("expected error for missing table; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "sink.options.dialect", "must be one of") {
			t.Fatalf("expected error for missing dialect; got %+v", issues)
		}
	})

	t.Run("relational_valid", func(t *testing.T) {
		issues := validateSink(Sink{
			Kind: "relational",
			Options: Options{
				"dialect": "mysql",
				"dsn":     "user:pass@/db",
				"table":   "books",
			},
		})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})

	t.Run("warehouse_missing_fields", func(t *testing.T) {
		issues := validateSink(Sink{Kind: "warehouse"})
		if !hasIssue(t, issues, SeverityError, "sink.options.endpoint", "non-empty endpoint") {
			t.Fatalf("expected error for missing endpoint; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "sink.options.table", "non-empty table") {
			t.Fatalf("expected error for missing table; got %+v", issues)
		}
	})

	t.Run("textfile_missing_path", func(t *testing.T) {
		issues := validateSink(Sink{Kind: "textfile_ldjson"})
		if !hasIssue(t, issues, SeverityError, "sink.options.path", "non-empty path") {
			t.Fatalf("expected error for missing path; got %+v", issues)
		}
	})
}

func TestValidateRuntime_Cases(t *testing.T) {
	t.Run("non_positive_batch_size_warns", func(t *testing.T) {
		issues := validateRuntime(RuntimeConfig{BatchSize: -10})
		if !hasIssue(t, issues, SeverityWarning, "runtime.batch_size", "batch_size") {
			t.Fatalf("expected warning for negative batch_size; got %+v", issues)
		}
	})

	t.Run("zero_batch_size_warns", func(t *testing.T) {
		issues := validateRuntime(RuntimeConfig{BatchSize: 0})
		if !hasIssue(t, issues, SeverityWarning, "runtime.batch_size", "batch_size") {
			t.Fatalf("expected warning for batch_size=0; got %+v", issues)
		}
	})

	t.Run("valid_runtime", func(t *testing.T) {
		issues := validateRuntime(RuntimeConfig{BatchSize: 1000})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}
