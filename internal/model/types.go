package model

// FieldKind is the enumeration of widget kinds a field descriptor can carry.
// The engine only branches on the structural kinds (tables, breaks); the rest
// exist so loaders can round-trip metadata without loss.
type FieldKind string

const (
	FieldKindData     FieldKind = "data"
	FieldKindInt      FieldKind = "int"
	FieldKindFloat    FieldKind = "float"
	FieldKindCheck    FieldKind = "check"
	FieldKindSelect   FieldKind = "select"
	FieldKindDate     FieldKind = "date"
	FieldKindDatetime FieldKind = "datetime"
	FieldKindLink     FieldKind = "link"
	FieldKindTable    FieldKind = "table"
	FieldKindText     FieldKind = "text"
)

// Reserved document keys. Every document carries its own type and name;
// child-table rows additionally carry the field on the parent that owns them.
const (
	KeyDoctype     = "doctype"
	KeyName        = "name"
	KeyParentfield = "parentfield"
)

// Document is the loosely-typed field→value mapping the engine evaluates
// against. Values keep whatever dynamic type the transport handed over
// (string, float64, bool, []any, nested maps); coercion happens at read time.
type Document map[string]any

// Get returns the raw value for a field, or nil when absent.
func (d Document) Get(field string) any {
	if d == nil {
		return nil
	}
	return d[field]
}

// Doctype returns the document's type, or "" when unset.
func (d Document) Doctype() string {
	s, _ := d[KeyDoctype].(string)
	return s
}

// Name returns the document's name, or "" when unset.
func (d Document) Name() string {
	s, _ := d[KeyName].(string)
	return s
}

// IsChildRow reports whether the document is a row inside a parent's child
// table, signalled by a non-empty parentfield marker.
func (d Document) IsChildRow() bool {
	s, _ := d[KeyParentfield].(string)
	return s != ""
}

// DependsFunc is the callable form of a dependency expression: invoked with
// the current document, its return value is used as-is.
type DependsFunc func(doc Document) any

// DocField is one field's static metadata within a document type. The three
// DependsOn slots accept a bool, a string (`eval:`, `fn:`, or a plain field
// name), or a DependsFunc; loaders only ever produce the serialisable forms.
type DocField struct {
	Fieldname   string    `json:"fieldname" yaml:"fieldname"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        FieldKind `json:"fieldtype,omitempty" yaml:"fieldtype,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Options     string    `json:"options,omitempty" yaml:"options,omitempty"`
	Permlevel   int       `json:"permlevel,omitempty" yaml:"permlevel,omitempty"`

	Hidden   bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Reqd     bool `json:"reqd,omitempty" yaml:"reqd,omitempty"`
	ReadOnly bool `json:"read_only,omitempty" yaml:"read_only,omitempty"`

	DependsOn          any `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	MandatoryDependsOn any `json:"mandatory_depends_on,omitempty" yaml:"mandatory_depends_on,omitempty"`
	ReadOnlyDependsOn  any `json:"read_only_depends_on,omitempty" yaml:"read_only_depends_on,omitempty"`
}

// HasDependsOn reports whether any of the three dependency slots is set.
func (f DocField) HasDependsOn() bool {
	return f.DependsOn != nil || f.MandatoryDependsOn != nil || f.ReadOnlyDependsOn != nil
}

// DocPerm grants read/write at one permission tier to one role.
type DocPerm struct {
	Role      string `json:"role" yaml:"role"`
	Permlevel int    `json:"permlevel,omitempty" yaml:"permlevel,omitempty"`
	Read      bool   `json:"read,omitempty" yaml:"read,omitempty"`
	Write     bool   `json:"write,omitempty" yaml:"write,omitempty"`
}

// DocType is the schema for a class of documents: its field list plus the
// role permission rules scoped per tier. Descriptors are immutable for the
// lifetime of a loaded schema.
type DocType struct {
	Name        string     `json:"name" yaml:"name"`
	IsTable     bool       `json:"istable,omitempty" yaml:"istable,omitempty"`
	IsSingle    bool       `json:"issingle,omitempty" yaml:"issingle,omitempty"`
	Fields      []DocField `json:"fields" yaml:"fields"`
	Permissions []DocPerm  `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// Field returns the descriptor for fieldname, or nil when the doctype does
// not declare it.
func (dt *DocType) Field(fieldname string) *DocField {
	if dt == nil {
		return nil
	}
	for i := range dt.Fields {
		if dt.Fields[i].Fieldname == fieldname {
			return &dt.Fields[i]
		}
	}
	return nil
}
