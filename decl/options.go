package decl

import "github.com/skdltmxn/typemeta/raw"

// options collects every setting a declaration can take. Each declaration
// reads the fields that apply to it and ignores the rest.
type options struct {
	access     raw.Access
	accessSet  bool
	getAccess  *raw.Access
	setAccess  *raw.Access
	readOnly   bool
	writeOnly  bool
	abstract   bool
	sealed     bool
	static     bool
	special    bool
	out        bool
	optional   bool
	attrs      []any
	doc        string
	base       *Type
	baseSet    bool
	ifaces     []*Type
	nestedIn   *Type
	typeParams []string
}

// Option configures a declaration.
type Option func(*options)

func apply(opts []Option) options {
	o := options{access: raw.AccessPublic}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Access sets the accessibility. Declarations are public by default.
func Access(a raw.Access) Option {
	return func(o *options) { o.access, o.accessSet = a, true }
}

// Private is Access(raw.AccessPrivate).
func Private() Option { return Access(raw.AccessPrivate) }

// Internal is Access(raw.AccessAssembly).
func Internal() Option { return Access(raw.AccessAssembly) }

// Protected is Access(raw.AccessFamily).
func Protected() Option { return Access(raw.AccessFamily) }

// ProtectedInternal is Access(raw.AccessFamilyOrAssembly).
func ProtectedInternal() Option { return Access(raw.AccessFamilyOrAssembly) }

// Abstract marks a type or method abstract.
func Abstract() Option { return func(o *options) { o.abstract = true } }

// Sealed marks a type sealed.
func Sealed() Option { return func(o *options) { o.sealed = true } }

// Static marks a member static, or a type as a static container (abstract
// and sealed).
func Static() Option { return func(o *options) { o.static = true } }

// Special marks a member as compiler-generated.
func Special() Option { return func(o *options) { o.special = true } }

// Out marks a parameter as an output parameter.
func Out() Option { return func(o *options) { o.out = true } }

// Optional marks a parameter as optional.
func Optional() Option { return func(o *options) { o.optional = true } }

// Attributes attaches attribute instances.
func Attributes(attrs ...any) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// Doc attaches a documentation summary.
func Doc(s string) Option { return func(o *options) { o.doc = s } }

// Extends sets the base type. A nil base makes the type a hierarchy root.
func Extends(base *Type) Option {
	return func(o *options) { o.base, o.baseSet = base, true }
}

// Implements adds interfaces.
func Implements(ifaces ...*Type) Option {
	return func(o *options) { o.ifaces = append(o.ifaces, ifaces...) }
}

// NestedIn declares the type inside outer.
func NestedIn(outer *Type) Option { return func(o *options) { o.nestedIn = outer } }

// TypeParams declares generic parameters.
func TypeParams(names ...string) Option {
	return func(o *options) { o.typeParams = append(o.typeParams, names...) }
}

// ReadOnly declares a property without setter.
func ReadOnly() Option { return func(o *options) { o.readOnly = true } }

// WriteOnly declares a property without getter.
func WriteOnly() Option { return func(o *options) { o.writeOnly = true } }

// GetterAccess overrides the accessibility of a property getter.
func GetterAccess(a raw.Access) Option { return func(o *options) { o.getAccess = &a } }

// SetterAccess overrides the accessibility of a property setter.
func SetterAccess(a raw.Access) Option { return func(o *options) { o.setAccess = &a } }
