package schemasource

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"xmletl/internal/value"
)

// typeRefTable maps an XSD built-in type local name (namespace prefix
// already stripped) to the type lattice. Anything not listed here maps to
// Str.
var typeRefTable = map[string]value.Kind{
	"string":   value.Str,
	"int":      value.I32,
	"integer":  value.I32,
	"long":     value.I64,
	"float":    value.F64,
	"double":   value.F64,
	"boolean":  value.Bool,
	"date":     value.Date,
	"time":     value.Time,
	"dateTime": value.Timestamp,
	"decimal":  value.Decimal,
}

// mapTypeRef resolves an XSD type reference (e.g. "xs:decimal" or "decimal")
// to a lattice Type, defaulting to Str for anything unrecognized.
func mapTypeRef(ref string) value.Type {
	local := ref
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		local = ref[i+1:]
	}
	kind, ok := typeRefTable[local]
	if !ok {
		return value.Type{Kind: value.Str}
	}
	if kind == value.Decimal {
		return value.DefaultDecimal()
	}
	return value.Type{Kind: kind}
}

// ParseXSD walks an XML Schema Definition document's declaration tree,
// looking for top-level and inline-complexType "element" declarations. No
// structural or content validation of the schema itself is performed; this
// is a pull-mode reader of the subset of XSD constructs the module cares
// about: element / complexType / sequence / choice / all.
func ParseXSD(r io.Reader) (*value.ExternalSchema, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	es := value.NewExternalSchema("")
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		start, isStart := tok.(xml.StartElement)
		if !isStart {
			continue
		}

		if !sawRoot {
			sawRoot = true
			if ns, ok := attrVal(start.Attr, "targetNamespace"); ok {
				es.TargetNamespace = ns
			}
			continue
		}

		switch localName(start.Name.Local) {
		case "element":
			decl, err := parseElementDecl(dec, start)
			if err != nil {
				return nil, err
			}
			es.Set(decl)
		default:
			if err := skipElement(dec); err != nil {
				return nil, err
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("schemasource: no root element found")
	}
	return es, nil
}

// parseElementDecl parses one <element> declaration, already past its
// StartElement token, consuming through its matching EndElement. An inline
// complexType child, if present, wins over a "type" attribute.
func parseElementDecl(dec *xml.Decoder, start xml.StartElement) (value.ExternalDecl, error) {
	name, _ := attrVal(start.Attr, "name")
	minOccurs := parseIntAttrDefault(start.Attr, "minOccurs", 1)
	maxOccurs := 1
	if raw, ok := attrVal(start.Attr, "maxOccurs"); ok {
		if raw == "unbounded" {
			maxOccurs = -1
		} else if n, err := strconv.Atoi(raw); err == nil {
			maxOccurs = n
		}
	}
	nillable := parseBoolAttrDefault(start.Attr, "nillable", false)

	t := value.Type{Kind: value.Str}
	if typeRef, ok := attrVal(start.Attr, "type"); ok {
		t = mapTypeRef(typeRef)
	}

	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return value.ExternalDecl{}, err
		}
		switch tt := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 && localName(tt.Name.Local) == "complexType" {
				fields, err := parseFields(dec)
				if err != nil {
					return value.ExternalDecl{}, err
				}
				t = value.NewStruct(fields...)
				depth--
				continue
			}
			if depth == 1 {
				if err := skipElement(dec); err != nil {
					return value.ExternalDecl{}, err
				}
				depth--
			}
		case xml.EndElement:
			if depth == 0 {
				return value.ExternalDecl{
					Name:      name,
					Type:      t,
					MinOccurs: minOccurs,
					MaxOccurs: maxOccurs,
					Nillable:  nillable,
				}, nil
			}
			depth--
		}
	}
}

// parseFields consumes a container body (complexType / sequence / choice /
// all), already past its StartElement, through its matching EndElement,
// collecting every "element" declaration found — recursing into nested
// sequence/choice/all containers.
func parseFields(dec *xml.Decoder) ([]*value.Field, error) {
	var fields []*value.Field
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch localName(t.Name.Local) {
			case "sequence", "choice", "all":
				nested, err := parseFields(dec)
				if err != nil {
					return nil, err
				}
				fields = append(fields, nested...)
				depth--
			case "element":
				decl, err := parseElementDecl(dec, t)
				if err != nil {
					return nil, err
				}
				fields = append(fields, &value.Field{
					Name:      decl.Name,
					Type:      decl.Type,
					Nullable:  !decl.IsRequired() || decl.Nillable,
					Repeating: decl.IsArray(),
				})
				depth--
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				depth--
			}
		case xml.EndElement:
			if depth == 0 {
				return fields, nil
			}
			depth--
		}
	}
}

// skipElement discards tokens through the matching EndElement of a
// StartElement the caller has already consumed.
func skipElement(dec *xml.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func attrVal(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseIntAttrDefault(attrs []xml.Attr, name string, def int) int {
	raw, ok := attrVal(attrs, name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func parseBoolAttrDefault(attrs []xml.Attr, name string, def bool) bool {
	raw, ok := attrVal(attrs, name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// localName strips an XSD namespace prefix (e.g. "xs:element" -> "element").
func localName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
