// Package coerce converts value.Value leaves against a declared value.Type
// into sink-ready Go values, using a kind-to-parser table built on
// strconv/time.Parse, and reports failure instead of silently leaving the
// original string so callers can log and drop the cell for columnar sinks,
// or stringify it for flattened ones.
package coerce

import (
	"encoding/json"
	"strconv"
	"time"

	"xmletl/internal/value"
	"xmletl/internal/xlog"
)

// dateLayouts are tried in order for a Timestamp or Date field; if none
// match, Cell reports not-ok (CellOrString then falls back to the raw text).
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Cell extracts the leaf text of v — its "#text" entry if v is a struct,
// its bare string form otherwise — and attempts the typed parse declared by
// t. ok is false when v carries no leaf text at all (a struct/array value,
// or an empty leaf) or when the typed parse fails; in both cases the
// caller is responsible for logging and either dropping the cell (columnar)
// or falling back to the raw string (flattened).
func Cell(v value.Value, t value.Type) (any, bool) {
	text, hasText := v.Text()
	if !hasText {
		return nil, false
	}
	return parseLeaf(text, t)
}

// CellOrString behaves like Cell, but on a failed or absent typed parse
// falls back to the raw string form, the policy flattened-mode sinks use.
func CellOrString(v value.Value, t value.Type) any {
	if cell, ok := Cell(v, t); ok {
		return cell
	}
	if text, ok := v.Text(); ok {
		return text
	}
	return ""
}

func parseLeaf(s string, t value.Type) (any, bool) {
	switch t.Kind {
	case value.Str:
		return s, true
	case value.I32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			xlog.Warnf("coerce: %q is not a valid I32: %v", s, err)
			return nil, false
		}
		return int32(n), true
	case value.I64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			xlog.Warnf("coerce: %q is not a valid I64: %v", s, err)
			return nil, false
		}
		return n, true
	case value.F64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			xlog.Warnf("coerce: %q is not a valid F64: %v", s, err)
			return nil, false
		}
		return f, true
	case value.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			xlog.Warnf("coerce: %q is not a valid Bool: %v", s, err)
			return nil, false
		}
		return b, true
	case value.Date, value.Timestamp:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		xlog.Warnf("coerce: %q matched no known date/timestamp layout", s)
		return nil, false
	case value.Decimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			xlog.Warnf("coerce: %q is not a valid Decimal: %v", s, err)
			return nil, false
		}
		return f, true
	default:
		return s, true
	}
}

// JSON serializes a Struct or Array value-tree to compact JSON text, for a
// JSON-capable column or the flattened single-document row.
func JSON(v value.Value) ([]byte, error) {
	return json.Marshal(toPlain(v))
}

// toPlain converts a value.Value tree into plain Go data (map/slice/string)
// suitable for encoding/json.
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
