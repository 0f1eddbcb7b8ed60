package expr

// Resolver supplies the context-dependent parts of evaluation: identifier
// lookup (special names and current-object fields), member/index access on
// object and sequence values, and enum-scope lookup. pkg/interp implements
// this over its parse context; the evaluator itself knows nothing about
// schema semantics.
type Resolver interface {
	// ResolveIdent looks up name. found is false for a genuine miss, which
	// the evaluator turns into Undefined rather than an error — callers
	// that require a value (e.g. a size expression) reject Undefined
	// themselves.
	ResolveIdent(name string) (v Value, found bool, err error)

	// Member looks up name on obj, an object-kind Value.
	Member(obj Value, name string) (Value, error)

	// Index looks up idx on obj, a sequence- or bytes-kind Value.
	Index(obj Value, idx Value) (Value, error)

	// EnumLookup finds the integer value in enum whose symbolic name is
	// member.
	EnumLookup(enum, member string) (Value, error)
}
