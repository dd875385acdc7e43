package sanitize

import (
	"fmt"
)

// Deduper assigns stable, collision-free sanitized names within one sink's
// lifetime. Call Assign once per source field name, in schema order; the
// mapping it builds is stable for the life of the Deduper.
type Deduper struct {
	rules   Rules
	taken   map[string]bool // every column name handed out so far
	nextSeq map[string]int  // base name -> next suffix to try
	final   map[string]string
}

// NewDeduper constructs a Deduper for rules.
func NewDeduper(rules Rules) *Deduper {
	return &Deduper{
		rules:   rules,
		taken:   make(map[string]bool),
		nextSeq: make(map[string]int),
		final:   make(map[string]string),
	}
}

// Assign sanitizes sourceName and, if it collides with a previously assigned
// name, appends the first unused numeric suffix (_1, _2, ...). The result is
// memoized: calling Assign twice with the same sourceName returns the same
// column name.
func (d *Deduper) Assign(sourceName string) string {
	if existing, ok := d.final[sourceName]; ok {
		return existing
	}

	base := Name(sourceName, d.rules)
	candidate := base
	if d.taken[candidate] {
		for {
			n := d.nextSeq[base] + 1
			d.nextSeq[base] = n
			candidate = fmt.Sprintf("%s_%d", base, n)
			if !d.taken[candidate] {
				break
			}
		}
	}
	d.taken[candidate] = true
	d.final[sourceName] = candidate
	return candidate
}

// ColumnOf returns the previously assigned column name for sourceName, if
// any.
func (d *Deduper) ColumnOf(sourceName string) (string, bool) {
	c, ok := d.final[sourceName]
	return c, ok
}
