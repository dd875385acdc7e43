package schemainfer

import (
	"regexp"
	"strings"

	"xmletl/internal/value"
)

// Leaf-type probe patterns, tried in this exact order. The boolean probe is
// case-sensitive. dateRe is anchored at both ends, so a timestamp never
// matches it.
var (
	boolRe      = regexp.MustCompile(`^(?:true|false)$`)
	intRe       = regexp.MustCompile(`^-?[0-9]+$`)
	floatRe     = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
	timestampRe = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}`)
	dateRe      = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
)

// probeLeafType classifies a leaf string against the fixed probe order:
// Bool, Int (I32 if the digit run is at most 10 characters else I64), Float,
// Timestamp, Date, else Str.
func probeLeafType(s string) value.Type {
	switch {
	case boolRe.MatchString(s):
		return value.Type{Kind: value.Bool}
	case intRe.MatchString(s):
		digits := strings.TrimPrefix(s, "-")
		if len(digits) <= 10 {
			return value.Type{Kind: value.I32}
		}
		return value.Type{Kind: value.I64}
	case floatRe.MatchString(s):
		return value.Type{Kind: value.F64}
	case timestampRe.MatchString(s):
		return value.Type{Kind: value.Timestamp}
	case dateRe.MatchString(s):
		return value.Type{Kind: value.Date}
	default:
		return value.Type{Kind: value.Str}
	}
}
