package jtd

// Schema is a minimal JSON Type Definition (RFC 8927) representation. It is
// the shape annotation a generator attaches to each wrapper type; the runtime
// projects it back out for documentation and tooling.
type Schema struct {
	Definitions map[string]*Schema `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Nullable    bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	// Exactly one form below is set; none means the empty form.
	Ref      string   `json:"ref,omitempty" yaml:"ref,omitempty"`
	Type     Type     `json:"type,omitempty" yaml:"type,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Elements *Schema  `json:"elements,omitempty" yaml:"elements,omitempty"`
	Values   *Schema  `json:"values,omitempty" yaml:"values,omitempty"`
}

// Type names the primitive JTD types.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeString    Type = "string"
	TypeTimestamp Type = "timestamp"
	TypeFloat32   Type = "float32"
	TypeFloat64   Type = "float64"
	TypeInt8      Type = "int8"
	TypeUint8     Type = "uint8"
	TypeInt16     Type = "int16"
	TypeUint16    Type = "uint16"
	TypeInt32     Type = "int32"
	TypeUint32    Type = "uint32"
)

// Form is the JTD schema form.
type Form string

const (
	FormEmpty    Form = "empty"
	FormRef      Form = "ref"
	FormType     Form = "type"
	FormEnum     Form = "enum"
	FormElements Form = "elements"
	FormValues   Form = "values"
)

// Form reports which form s uses.
func (s *Schema) Form() Form {
	switch {
	case s == nil:
		return FormEmpty
	case s.Ref != "":
		return FormRef
	case s.Type != "":
		return FormType
	case len(s.Enum) > 0:
		return FormEnum
	case s.Elements != nil:
		return FormElements
	case s.Values != nil:
		return FormValues
	}
	return FormEmpty
}

// WithDescription returns a shallow copy of s carrying metadata.description.
func (s *Schema) WithDescription(desc string) *Schema {
	out := &Schema{}
	if s != nil {
		*out = *s
	}
	md := make(map[string]any, len(out.Metadata)+1)
	for k, v := range out.Metadata {
		md[k] = v
	}
	md["description"] = desc
	out.Metadata = md
	return out
}

// Description returns metadata.description, or "" when absent.
func (s *Schema) Description() string {
	if s == nil {
		return ""
	}
	d, _ := s.Metadata["description"].(string)
	return d
}
