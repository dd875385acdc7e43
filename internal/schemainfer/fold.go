package schemainfer

import (
	"strings"

	"xmletl/internal/value"
)

// foldField folds every observed occurrence of one child/record name into a
// single Field. occurrences holds one value-tree per time the name was seen
// as a child of its parent — always a list per the data model, even when
// len(occurrences) == 1 — so the Field it produces is always repeating=true;
// a parent marks it nullable only when merging against a sibling sample that
// lacked the name entirely.
func foldField(name string, occurrences []value.Value) *value.Field {
	return &value.Field{
		Name:      name,
		Type:      foldElementType(occurrences),
		Repeating: true,
	}
}

// foldElementType merges the inferred type of every occurrence in a list of
// value-trees into one type, via the same merge rules used to reconcile two
// whole samples.
func foldElementType(occurrences []value.Value) value.Type {
	if len(occurrences) == 0 {
		return value.Type{Kind: value.Str}
	}
	acc := inferNodeType(occurrences[0])
	for _, v := range occurrences[1:] {
		acc = mergeType(acc, inferNodeType(v))
	}
	return acc
}

// inferNodeType classifies one value-tree node into one of three shapes: a
// bare string, a leaf record (only #text and/or attributes), or a Struct.
func inferNodeType(v value.Value) value.Type {
	switch {
	case v.IsString():
		return probeLeafType(v.AsString())
	case v.IsList():
		// A nested list with no element-name wrapper; fold its elements as
		// if they were repeated occurrences of the same position.
		return foldElementType(v.AsList())
	case v.HasElementChildren():
		return inferStructType(v)
	default:
		if text, ok := v.Text(); ok && strings.TrimSpace(text) != "" {
			return probeLeafType(text)
		}
		// Only attributes, or a genuinely empty element: still a leaf, and
		// with no text to probe there is nothing to call but Str.
		return value.Type{Kind: value.Str}
	}
}

// inferStructType folds a record's pairs into a Struct type: each "@"
// attribute becomes a non-repeating leaf field, "#text" is dropped (it only
// ever matters for the leaf case, already handled by the caller), and every
// remaining key — always a VList per the data model — becomes a field via
// foldField.
func inferStructType(v value.Value) value.Type {
	var fields []*value.Field
	for _, p := range v.AsRecord() {
		switch {
		case p.Key == "#text":
			continue
		case strings.HasPrefix(p.Key, "@"):
			fields = append(fields, &value.Field{
				Name: p.Key,
				Type: probeLeafType(p.Val.AsString()),
			})
		default:
			fields = append(fields, foldField(p.Key, p.Val.AsList()))
		}
	}
	return value.NewStruct(fields...)
}

// mergeType reconciles two types observed at the same position across
// different samples: same-Kind leaves merge to themselves, Structs merge
// keywise (a field present on only one side
// survives, marked nullable), Arrays merge their element types recursively,
// and any other disagreement — including a Decimal precision/scale mismatch
// — widens to Str.
func mergeType(a, b value.Type) value.Type {
	if a.Kind != b.Kind {
		return value.Type{Kind: value.Str}
	}
	switch a.Kind {
	case value.Struct:
		return mergeStructType(a, b)
	case value.Array:
		if a.Elem == nil || b.Elem == nil {
			return value.Type{Kind: value.Str}
		}
		merged := mergeType(*a.Elem, *b.Elem)
		return value.NewArray(merged)
	case value.Decimal:
		if a.Precision != b.Precision || a.Scale != b.Scale {
			return value.Type{Kind: value.Str}
		}
		return a
	default:
		return a
	}
}

func mergeStructType(a, b value.Type) value.Type {
	seen := map[string]bool{}
	var order []string
	addOrder := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, name := range a.Order {
		addOrder(name)
	}
	for _, name := range b.Order {
		addOrder(name)
	}

	t := value.Type{Kind: value.Struct, Fields: make(map[string]*value.Field, len(order)), Order: order}
	for _, name := range order {
		fa, inA := a.Fields[name]
		fb, inB := b.Fields[name]
		switch {
		case inA && inB:
			t.Fields[name] = mergeField(fa, fb)
		case inA:
			only := *fa
			only.Nullable = true
			t.Fields[name] = &only
		default:
			only := *fb
			only.Nullable = true
			t.Fields[name] = &only
		}
	}
	return t
}

// mergeField reconciles two Fields of the same name seen on both sides of a
// Struct merge: nullable and repeating both OR together, and the type
// merges recursively.
func mergeField(a, b *value.Field) *value.Field {
	return &value.Field{
		Name:      a.Name,
		Type:      mergeType(a.Type, b.Type),
		Nullable:  a.Nullable || b.Nullable,
		Repeating: a.Repeating || b.Repeating,
	}
}
