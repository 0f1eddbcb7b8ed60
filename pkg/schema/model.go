package schema

// Position locates a point in schema source text, used to annotate
// validation errors and (via pkg/expr) expression evaluation errors.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// Endian is a type's or field's default byte order.
type Endian int

const (
	// EndianInherit means "use whatever the enclosing scope resolves to";
	// the root type may leave it unset too, and the default is then
	// little-endian when nothing in scope says otherwise.
	EndianInherit Endian = iota
	LittleEndian
	BigEndian
)

func (e Endian) String() string {
	switch e {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	default:
		return "inherit"
	}
}

// Meta carries a type's identifier and its defaults for fields that don't
// override them.
type Meta struct {
	ID string

	// Endian is the literal default, when EndianSwitch is nil.
	Endian Endian

	// EndianSwitch, when non-nil, is an expression selecting "le" or "be"
	// per instance instead of a fixed literal default.
	EndianSwitch *SwitchEndian

	Encoding string
}

// SwitchEndian is a discriminant expression whose value resolves to "le"
// or "be".
type SwitchEndian struct {
	DiscriminantExpr string
	Cases            map[string]Endian // case key (stringified) -> endian
}

// Param is one named, typed parameter of a parametric type.
type Param struct {
	Name     string
	TypeName string
	Pos      Position
}

// RepeatKind selects one of the three mutually exclusive repetition modes
// a field can declare. Modeling them as a sum type (instead of
// independent booleans) makes "count and until both set" unrepresentable
// rather than merely forbidden by a check.
type RepeatKind int

const (
	RepeatNone RepeatKind = iota
	RepeatCount
	RepeatUntil
	RepeatEOS
)

// Repetition describes a field's repeat clause.
type Repetition struct {
	Kind       RepeatKind
	CountExpr  string // required when Kind == RepeatCount
	UntilExpr  string // required when Kind == RepeatUntil
}

// TermParams mirrors bitio.TermParams at the schema level (kept distinct
// so pkg/schema has no import on pkg/bitio).
type TermParams struct {
	Set      bool
	Term     byte
	Include  bool
	Consume  bool
	EOSError bool
}

// TypeRef names what a field or instance reads: a built-in type, a
// user-defined type resolved by scope-chain lookup, or a switch type.
type TypeRef struct {
	Name   string // built-in or user type name; "" when Switch != nil
	Switch *SwitchType
}

func (t TypeRef) IsSwitch() bool { return t.Switch != nil }
func (t TypeRef) IsSet() bool    { return t.Name != "" || t.Switch != nil }

// SwitchType is a per-instance type choice: evaluate Discriminant,
// stringify it, and look the result up in Cases (falling back to
// Default).
type SwitchType struct {
	DiscriminantExpr string
	Cases            map[string]TypeRef
	CaseOrder        []string // preserves declaration order for diagnostics
	Default          *TypeRef
	Pos              Position
}

// FieldSpec is one entry in a type's sequence.
type FieldSpec struct {
	ID   string // empty => anonymous; value is not stored on the object
	Type TypeRef

	HasSize  bool
	SizeExpr string
	SizeEOS  bool // "read to end of stream"

	Repeat Repetition

	HasIf bool
	IfExpr string

	Contents []byte // nil when no expected-contents check

	Encoding string

	Terminator TermParams

	Enum string // enum name, resolved against the enclosing scope

	HasPos bool
	PosExpr string

	HasIO bool
	IOExpr string

	HasProcess bool
	Process    string

	Pos Position
}

// InstanceSpec is a lazily-evaluated named field: either a computed
// Value expression, or a FieldSpec-shaped read (optionally pos-anchored).
type InstanceSpec struct {
	FieldSpec

	HasValue bool
	ValueExpr string
}

// EnumDef maps an enum's integer values to their symbolic names.
type EnumDef struct {
	Values map[int64]string
	Pos    Position
}

// TypeDef is one node of the schema tree. The root TypeDef is the schema
// itself: it must carry a non-empty Meta.ID and has Parent == nil.
type TypeDef struct {
	Name string // local name within Parent.Types; "" for the root
	Meta Meta
	HasMeta bool

	Seq []*FieldSpec

	Instances     map[string]*InstanceSpec
	InstanceOrder []string

	Types map[string]*TypeDef

	Enums map[string]*EnumDef

	Params []Param

	Parent *TypeDef

	Pos Position
}

// NewTypeDef returns an empty TypeDef ready to be populated by a loader.
func NewTypeDef(name string, parent *TypeDef) *TypeDef {
	return &TypeDef{
		Name:      name,
		Instances: make(map[string]*InstanceSpec),
		Types:     make(map[string]*TypeDef),
		Enums:     make(map[string]*EnumDef),
		Parent:    parent,
	}
}

// IsRoot reports whether t is the schema root.
func (t *TypeDef) IsRoot() bool { return t.Parent == nil }

// ResolveType walks the scope chain (this type -> enclosing types -> root)
// looking up a nested type by name: a reference resolves against the
// nearest enclosing scope that declares it.
func (t *TypeDef) ResolveType(name string) (*TypeDef, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if nt, ok := cur.Types[name]; ok {
			return nt, true
		}
	}
	return nil, false
}

// ResolveEnum walks the same scope chain looking up an enum by name.
func (t *TypeDef) ResolveEnum(name string) (*EnumDef, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if e, ok := cur.Enums[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// EffectiveEndian resolves the literal default endianness for t by walking
// outward until a type states one explicitly: an unsuffixed builtin name
// inherits endianness from the nearest enclosing meta, defaulting to
// little-endian when nothing in scope says otherwise.
//
// It does not evaluate a Meta.EndianSwitch; callers that need the dynamic
// form must do so through the expression engine against a live context
// (pkg/interp resolves this — schema alone cannot evaluate expressions).
func (t *TypeDef) EffectiveEndian() Endian {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Meta.Endian != EndianInherit {
			return cur.Meta.Endian
		}
		if cur.Meta.EndianSwitch != nil {
			// A dynamic default is in scope but can't be resolved
			// without a context; report "inherit" so the caller knows
			// to consult the switch itself.
			return EndianInherit
		}
	}
	return LittleEndian
}

// EffectiveEncoding resolves the default text encoding for t, walking
// outward the same way.
func (t *TypeDef) EffectiveEncoding() string {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Meta.Encoding != "" {
			return cur.Meta.Encoding
		}
	}
	return ""
}

// EndianForCase resolves m.EndianSwitch's matching Endian for a
// given stringified discriminant value, used by pkg/interp once it has
// evaluated the discriminant expression.
func (m *Meta) EndianForCase(key string) (Endian, bool) {
	if m.EndianSwitch == nil {
		return EndianInherit, false
	}
	if e, ok := m.EndianSwitch.Cases[key]; ok {
		return e, true
	}
	return EndianInherit, false
}
