// Package config provides configuration models and helpers for the XML ETL
// pipeline.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sink.kind",
// "schema.type_hints"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for logging and metrics labeling",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateSchema(p.Schema)...)
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{"file": {}, "http": {}}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		}
	}

	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}

	if p.Kind != "xml" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; only \"xml\" is implemented", p.Kind),
		})
	}

	if strings.TrimSpace(p.Options.String("record_tag", "")) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options.record_tag",
			Message:  "no record_tag configured; the root element's immediate children will be treated as records",
		})
	}

	return issues
}

func validateSchema(s SchemaConfig) []Issue {
	var issues []Issue

	known := map[string]struct{}{"auto": {}, "external": {}, "manual": {}, "hybrid": {}}
	mode := strings.ToLower(strings.TrimSpace(s.Mode))
	if mode == "" {
		mode = "auto"
	}
	if _, ok := known[mode]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.mode",
			Message:  fmt.Sprintf("unknown schema mode %q; must be one of auto, external, manual, hybrid", s.Mode),
		})
	}

	if (mode == "external" || mode == "hybrid") && strings.TrimSpace(s.ExternalSchemaURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.external_schema_url",
			Message:  fmt.Sprintf("schema.mode=%q requires a non-empty external_schema_url", mode),
		})
	}

	if mode == "manual" && len(s.TypeHints) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "schema.type_hints",
			Message:  "schema.mode=manual with no type_hints will produce an empty schema",
		})
	}

	if s.SamplingSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.sampling_size",
			Message:  "schema.sampling_size must not be negative",
		})
	}

	return issues
}

func validateSink(s Sink) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  "sink.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"textfile_doc": {}, "textfile_ldjson": {}, "columnar": {}, "warehouse": {}, "relational": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if s.Shape != "" && s.Shape != "columnar" && s.Shape != "flattened" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.shape",
			Message:  fmt.Sprintf("sink.shape must be \"columnar\" or \"flattened\", got %q", s.Shape),
		})
	}

	if s.Mode != "" && s.Mode != "append" && s.Mode != "overwrite" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.mode",
			Message:  fmt.Sprintf("sink.mode must be \"append\" or \"overwrite\", got %q", s.Mode),
		})
	}

	switch s.Kind {
	case "textfile_doc", "textfile_ldjson":
		if strings.TrimSpace(s.Options.String("path", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.path",
				Message:  "textfile sinks require a non-empty path",
			})
		}
	case "columnar":
		if strings.TrimSpace(s.Options.String("path", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.path",
				Message:  "columnar sink requires a non-empty path",
			})
		}
	case "warehouse":
		if strings.TrimSpace(s.Options.String("endpoint", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.endpoint",
				Message:  "warehouse sink requires a non-empty endpoint",
			})
		}
		if strings.TrimSpace(s.Options.String("table", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.table",
				Message:  "warehouse sink requires a non-empty table",
			})
		}
	case "relational":
		if strings.TrimSpace(s.Options.String("dsn", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.dsn",
				Message:  "relational sink requires a non-empty dsn",
			})
		}
		if strings.TrimSpace(s.Options.String("table", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.table",
				Message:  "relational sink requires a non-empty table",
			})
		}
		dialect := s.Options.String("dialect", "")
		known := map[string]struct{}{"postgres": {}, "mysql": {}, "mssql": {}, "sqlite": {}}
		if _, ok := known[dialect]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.options.dialect",
				Message:  fmt.Sprintf("relational sink dialect must be one of postgres, mysql, mssql, sqlite, got %q", dialect),
			})
		}
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes may hurt throughput", r.BatchSize),
		})
	}

	return issues
}
