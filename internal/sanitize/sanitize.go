// Package sanitize turns XML element/attribute names into identifiers safe
// for a given sink, and de-duplicates the resulting names within one run.
// Sanitization is parameterized by Rules so the same pure function serves
// every sink; de-duplication is a separate, stateful concern owned by the
// caller (one Deduper per sink construction), per the shared-contract design
// note.
package sanitize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rules parameterizes Name for one target sink.
type Rules struct {
	// Lowercase folds the result through golang.org/x/text/cases.
	Lowercase bool
	// MaxLength truncates the result to at most this many bytes; 0 means
	// unbounded.
	MaxLength int
	// Replacement is substituted for any forbidden character. Defaults to
	// '_' when zero.
	Replacement rune
}

var lowerCaser = cases.Lower(language.Und)

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}

// Name sanitizes name for rules.Rules. It is pure and idempotent:
// Name(Name(x, r), r) == Name(x, r) for any x and r.
func Name(name string, rules Rules) string {
	replacement := rules.Replacement
	if replacement == 0 {
		replacement = '_'
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '#':
			// dropped entirely, not replaced
			continue
		case r == '@':
			b.WriteString("attr_")
		case isAllowed(r):
			b.WriteRune(r)
		default:
			b.WriteRune(replacement)
		}
	}

	out := strings.Trim(b.String(), string(replacement))

	if rules.Lowercase {
		out = lowerCaser.String(out)
	}

	if rules.MaxLength > 0 && len(out) > rules.MaxLength {
		out = out[:rules.MaxLength]
		// re-trim in case truncation exposed a trailing replacement char
		out = strings.TrimRight(out, string(replacement))
	}

	if out == "" {
		out = "col"
	}

	return out
}
