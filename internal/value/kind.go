// Package value implements the type lattice and the recursive value tree
// shared by every component of the pipeline: the record extractor produces
// Values, the inference engine folds Values into a Schema of Fields, and the
// sinks coerce Values against that Schema on write.
package value

import "fmt"

// Kind tags a position in the type lattice. Only Array and Struct are
// recursive; every other Kind is a leaf.
type Kind int

const (
	Str Kind = iota
	I32
	I64
	F64
	Bool
	Date
	Time
	Timestamp
	Decimal
	Array
	Struct
)

func (k Kind) String() string {
	switch k {
	case Str:
		return "Str"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case F64:
		return "F64"
	case Bool:
		return "Bool"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case Timestamp:
		return "Timestamp"
	case Decimal:
		return "Decimal"
	case Array:
		return "Array"
	case Struct:
		return "Struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a node in the type lattice. Precision/Scale are only meaningful
// when Kind == Decimal; Elem only when Kind == Array; Fields/Order only when
// Kind == Struct.
type Type struct {
	Kind      Kind
	Precision int
	Scale     int
	Elem      *Type
	Fields    map[string]*Field
	Order     []string // first-seen order of Fields' keys
}

// IsLeaf reports whether t has no recursive structure.
func (t Type) IsLeaf() bool {
	return t.Kind != Array && t.Kind != Struct
}

// Equal reports structural equality between two types.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Decimal:
		return t.Precision == o.Precision && t.Scale == o.Scale
	case Array:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case Struct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for name, f := range t.Fields {
			of, ok := o.Fields[name]
			if !ok || !f.Type.Equal(of.Type) || f.Nullable != of.Nullable || f.Repeating != of.Repeating {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// KindFromName maps a type-name string — as used both by external-schema
// type references (after namespace-prefix stripping) and by user-supplied
// typeHints overrides — to a lattice Type, via a fixed name-to-kind table.
// Anything unrecognized defaults to Str.
func KindFromName(name string) Type {
	switch name {
	case "string":
		return Type{Kind: Str}
	case "int", "integer":
		return Type{Kind: I32}
	case "long":
		return Type{Kind: I64}
	case "float", "double":
		return Type{Kind: F64}
	case "boolean":
		return Type{Kind: Bool}
	case "date":
		return Type{Kind: Date}
	case "time":
		return Type{Kind: Time}
	case "dateTime":
		return Type{Kind: Timestamp}
	case "decimal":
		return DefaultDecimal()
	default:
		return Type{Kind: Str}
	}
}

// NewDecimal builds a Decimal type with the given precision and scale.
func NewDecimal(precision, scale int) Type {
	return Type{Kind: Decimal, Precision: precision, Scale: scale}
}

// DefaultDecimal is the default Decimal(10,2) used when an external schema
// declares a decimal type without further refinement.
func DefaultDecimal() Type { return NewDecimal(10, 2) }

// NewArray builds an Array type over elem.
func NewArray(elem Type) Type {
	e := elem
	return Type{Kind: Array, Elem: &e}
}

// NewStruct builds a Struct type from an ordered list of fields.
func NewStruct(fields ...*Field) Type {
	t := Type{Kind: Struct, Fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		if _, seen := t.Fields[f.Name]; !seen {
			t.Order = append(t.Order, f.Name)
		}
		t.Fields[f.Name] = f
	}
	return t
}

// Field is (name, type, nullable, repeating) per the data model.
type Field struct {
	Name      string
	Type      Type
	Nullable  bool
	Repeating bool
}

// IsRepeatingCol reports whether a Field materializes as a repeated column:
// Repeating or an Array-kinded type (the two are orthogonal per the spec).
func (f Field) IsRepeatingCol() bool {
	return f.Repeating || f.Type.Kind == Array
}
