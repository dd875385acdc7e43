// Package schemainfer derives a value.Schema for a document, either by
// folding a sample of extracted records (Auto), by projecting a resolved
// external schema description (External), by applying only user-supplied
// overrides (Manual), or by merging the two (Hybrid).
package schemainfer

import (
	"context"
	"strings"

	"xmletl/internal/datasource"
	"xmletl/internal/schemasource"
	"xmletl/internal/value"
	"xmletl/internal/xlog"
	"xmletl/internal/xmlrecord"
)

// ModeKind selects which sources of type information Infer consults.
type ModeKind int

const (
	// Auto folds a sample of extracted records; the common case.
	Auto ModeKind = iota
	// External projects a resolved external schema description only,
	// failing with a SchemaError if none resolved.
	External
	// Manual consults neither samples nor an external schema: the schema
	// is built entirely from Config's overrides.
	Manual
	// Hybrid starts from an external schema, then fills in any top-level
	// name the external schema didn't declare from folded samples.
	Hybrid
)

func (m ModeKind) String() string {
	switch m {
	case Auto:
		return "Auto"
	case External:
		return "External"
	case Manual:
		return "Manual"
	case Hybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Config tunes inference.
type Config struct {
	Mode ModeKind
	// SamplingSize bounds how many records InferFromSource pulls from the
	// extractor before folding; 0 means "read the whole document".
	SamplingSize int
	// ForceArrays names top-level fields (by name, or "name/sub" of which
	// only the first path segment is honored — see DESIGN.md) that must be
	// marked repeating=true regardless of what was observed or declared.
	// A name with no matching existing top-level field is a no-op.
	ForceArrays []string
	// TypeHints names top-level fields (same path convention as
	// ForceArrays) whose type is replaced — or, if absent, created — using
	// the fixed type-name table of value.KindFromName.
	TypeHints map[string]string
}

// Sample pairs one extracted record with the element name it was emitted
// under — the name that becomes its top-level Schema field.
type Sample struct {
	Name  string
	Value value.Value
}

// Infer is the pure core: no IO, no clock, just folding and merging.
func Infer(rootName string, ext *value.ExternalSchema, samples []Sample, cfg Config) (*value.Schema, error) {
	if rootName == "" {
		return nil, &SchemaError{Reason: "no root element"}
	}

	var schema *value.Schema

	switch cfg.Mode {
	case External:
		if ext == nil {
			return nil, &SchemaError{Reason: "mode=External requested but no external schema resolved"}
		}
		schema = ext.ToSchema(rootName)

	case Manual:
		schema = value.NewSchema(rootName)

	case Hybrid:
		if ext != nil {
			schema = ext.ToSchema(rootName)
		} else {
			schema = value.NewSchema(rootName)
		}
		for _, f := range foldSamples(samples) {
			if _, exists := schema.Get(f.Name); !exists {
				schema.Set(f)
			}
		}

	default: // Auto
		schema = value.NewSchema(rootName)
		for _, f := range foldSamples(samples) {
			schema.Set(f)
		}
	}

	applyOverrides(schema, cfg)
	return schema, nil
}

// foldSamples groups samples by element name, preserving first-seen order,
// and folds each group into one top-level Field.
func foldSamples(samples []Sample) []*value.Field {
	groups := map[string][]value.Value{}
	var order []string
	for _, s := range samples {
		if _, seen := groups[s.Name]; !seen {
			order = append(order, s.Name)
		}
		groups[s.Name] = append(groups[s.Name], s.Value)
	}
	fields := make([]*value.Field, 0, len(order))
	for _, name := range order {
		fields = append(fields, foldField(name, groups[name]))
	}
	return fields
}

// applyOverrides applies ForceArrays and TypeHints on top of an inferred
// schema: ForceArrays only ever flips an existing top-level field's
// Repeating bit, never creates one; TypeHints replaces an existing
// top-level field's type or creates a new nullable one. Both accept a
// "name/sub" path syntactically but only the top-level segment is honored —
// a deliberate simplification, not a bug; see DESIGN.md's open-question
// decision.
func applyOverrides(schema *value.Schema, cfg Config) {
	for _, path := range cfg.ForceArrays {
		top := topSegment(path)
		if f, ok := schema.Get(top); ok {
			f.Repeating = true
		}
	}
	for path, typeName := range cfg.TypeHints {
		top := topSegment(path)
		t := value.KindFromName(typeName)
		if f, ok := schema.Get(top); ok {
			f.Type = t
			continue
		}
		schema.Set(&value.Field{Name: top, Type: t, Nullable: true})
	}
}

func topSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// InferFromSource is the IO-performing wrapper C6 calls: it probes the
// document root and schema-location, resolves an external schema when the
// mode calls for one, pulls up to cfg.SamplingSize records from the
// extractor (0 means read to the end), and folds the result via Infer.
func InferFromSource(ctx context.Context, src datasource.Source, resolver *schemasource.Resolver, cfg Config) (*value.Schema, error) {
	rootName, schemaLocation, err := xmlrecord.ProbeRoot(ctx, src)
	if err != nil {
		return nil, err
	}
	if rootName == "" {
		return nil, &SchemaError{Reason: "document has no root element"}
	}

	var ext *value.ExternalSchema
	if cfg.Mode == External || cfg.Mode == Hybrid {
		if resolver != nil && schemaLocation != "" {
			if es, ok := resolver.Resolve(ctx, schemaLocation); ok {
				ext = es
			} else {
				xlog.Warnf("schemainfer: could not resolve external schema at %s, proceeding without it", schemaLocation)
			}
		}
	}

	var samples []Sample
	if cfg.Mode == Auto || cfg.Mode == Hybrid {
		samples, err = collectSamples(ctx, src, cfg.SamplingSize)
		if err != nil {
			return nil, err
		}
	}

	return Infer(rootName, ext, samples, cfg)
}

// collectSamples opens a fresh extractor handle and pulls up to limit
// records (0 means unbounded).
func collectSamples(ctx context.Context, src datasource.Source, limit int) ([]Sample, error) {
	ex, err := xmlrecord.Open(ctx, src, xmlrecord.Options{})
	if err != nil {
		return nil, err
	}
	defer ex.Close()

	var samples []Sample
	for limit <= 0 || len(samples) < limit {
		name, v, ok, err := ex.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		samples = append(samples, Sample{Name: name, Value: v})
	}
	return samples, nil
}
