package value

// Schema is the shape of one record: the top-level fields of a depth-2
// child of the document root. Order preserves first-seen insertion order
// since a Go map alone cannot.
type Schema struct {
	RootElement string
	Fields      map[string]*Field
	Order       []string
}

// NewSchema builds an empty schema rooted at rootElement.
func NewSchema(rootElement string) *Schema {
	return &Schema{RootElement: rootElement, Fields: map[string]*Field{}}
}

// Set inserts or replaces a top-level field, recording first-seen order.
func (s *Schema) Set(f *Field) {
	if _, exists := s.Fields[f.Name]; !exists {
		s.Order = append(s.Order, f.Name)
	}
	s.Fields[f.Name] = f
}

// Get returns the top-level field named name, if any.
func (s *Schema) Get(name string) (*Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Len is the number of top-level fields.
func (s *Schema) Len() int { return len(s.Fields) }

// ExternalDecl is one parsed <element> declaration from an external schema
// description: name, declared type, occurrence bounds, nillability.
type ExternalDecl struct {
	Name       string
	Type       Type
	MinOccurs  int
	MaxOccurs  int  // -1 means "unbounded"
	Nillable   bool
}

// IsArray reports whether the declaration allows more than one occurrence.
func (d ExternalDecl) IsArray() bool { return d.MaxOccurs < 0 || d.MaxOccurs > 1 }

// IsRequired reports whether the declaration requires at least one occurrence.
func (d ExternalDecl) IsRequired() bool { return d.MinOccurs > 0 }

// ExternalSchema is the result of resolving and parsing an external
// schema-description document. Order records declaration order since Decls
// is a map and Go maps have no stable iteration order.
type ExternalSchema struct {
	SourceURL       string
	Decls           map[string]ExternalDecl
	Order           []string
	TargetNamespace string
}

// NewExternalSchema builds an empty ExternalSchema for sourceURL.
func NewExternalSchema(sourceURL string) *ExternalSchema {
	return &ExternalSchema{SourceURL: sourceURL, Decls: map[string]ExternalDecl{}}
}

// Set inserts or replaces a top-level element declaration, recording
// first-seen order.
func (es *ExternalSchema) Set(d ExternalDecl) {
	if _, exists := es.Decls[d.Name]; !exists {
		es.Order = append(es.Order, d.Name)
	}
	es.Decls[d.Name] = d
}

// ToSchema projects an ExternalSchema's top-level declarations into a
// Schema, deriving each field's nullable/repeating flags from the
// declaration's minOccurs/maxOccurs.
func (es *ExternalSchema) ToSchema(rootElement string) *Schema {
	s := NewSchema(rootElement)
	order := es.Order
	if len(order) == 0 {
		for name := range es.Decls {
			order = append(order, name)
		}
	}
	for _, name := range order {
		d := es.Decls[name]
		s.Set(&Field{
			Name:      name,
			Type:      d.Type,
			Nullable:  !d.IsRequired() || d.Nillable,
			Repeating: d.IsArray(),
		})
	}
	return s
}
