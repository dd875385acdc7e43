// Package config defines the canonical, JSON-serializable configuration model
// for the XML ETL pipeline. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":    "catalog-to-warehouse",
//	  "source": { "kind": "file", "file": { "path": "path/to.xml" } },
//	  "parser": { "kind": "xml", "options": { "record_tag": "book" } },
//	  "schema": { "mode": "auto", "sampling_size": 500 },
//	  "sink":   { "kind": "relational", "shape": "columnar", "mode": "append",
//	              "options": { "dialect": "postgres", "dsn": "...", "table": "public.books" } }
//	}
package config

import "encoding/json"

// Pipeline describes the full ETL pipeline in JSON. It is the top-level object
// decoded from a pipeline file (e.g., configs/pipelines/*.json).
type Pipeline struct {
	// Job names the run for logging and metrics labeling.
	Job string `json:"job"`

	// Source describes where input data comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into element/attribute
	// values (currently always the streaming XML extractor).
	Parser Parser `json:"parser"`

	// Schema configures how the destination schema is determined: folded
	// from sampled records, resolved from an external declaration, built
	// from manual overrides, or some combination (see internal/schemainfer).
	Schema SchemaConfig `json:"schema"`

	// Sink describes where inferred-schema records are written.
	Sink Sink `json:"sink"`

	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Parser selects how to parse the raw source into element/attribute values.
type Parser struct {
	// Kind selects the parser implementation. Current value: "xml".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For xml, typical keys include:
	//   record_tag (string), namespace_aware (bool)
	Options Options `json:"options"`
}

// SchemaConfig selects the schema.ModeKind (by name) and its parameters, per
// internal/schemainfer.Config.
type SchemaConfig struct {
	// Mode names a schemainfer.ModeKind: "auto", "external", "manual", or
	// "hybrid".
	Mode string `json:"mode"`

	// SamplingSize bounds how many source records are folded under Auto or
	// Hybrid mode. Zero means "read the whole source".
	SamplingSize int `json:"sampling_size"`

	// ExternalSchemaURL points at an XSD (or other declared schema) to
	// resolve via internal/schemasource, used under External or Hybrid mode.
	ExternalSchemaURL string `json:"external_schema_url"`

	// ForceArrays names top-level fields to mark Repeating regardless of
	// what was observed in sampling.
	ForceArrays []string `json:"force_arrays"`

	// TypeHints maps a top-level field name to an override type name (e.g.
	// "int", "string", "dateTime"), replacing or adding that field's type.
	TypeHints map[string]string `json:"type_hints"`
}

// Sink selects the destination writer and its parameters.
type Sink struct {
	// Kind selects the sink implementation: "textfile_doc", "textfile_ldjson",
	// "columnar", "warehouse", or "relational".
	Kind string `json:"kind"`

	// Shape selects "columnar" (one column/field per top-level schema field)
	// or "flattened" (a single JSON document per record).
	Shape string `json:"shape"`

	// Mode selects "append" or "overwrite".
	Mode string `json:"mode"`

	// Options is a free-form map interpreted by the selected sink. Typical
	// keys:
	//   textfile:   path, pretty
	//   columnar:   path
	//   warehouse:  endpoint, project, dataset, table, headers
	//   relational: dialect, dsn, table
	Options Options `json:"options"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that an explicit null "options"
// value in JSON decodes to a non-nil, empty Options map. When the key is absent,
// encoding/json does not call this method and the field stays nil; the
// accessor methods return their defaults on a nil map, so call sites need no
// nil-check either way.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
