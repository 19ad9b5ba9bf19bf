// Package raw defines the descriptor contract that metadata sources implement.
//
// A source describes an immutable type system: assemblies, the types they
// declare and the members those types declare. Descriptors are compared with
// ==, so a source must hand out comparable values that are equal whenever they
// describe the same underlying entity.
package raw

import "errors"

// Errors shared by sources.
var (
	// ErrNotGeneric indicates a generic operation on a non-generic descriptor.
	ErrNotGeneric = errors.New("raw: not a generic definition")

	// ErrNotInvocable indicates the source cannot execute the member.
	ErrNotInvocable = errors.New("raw: member cannot be invoked")

	// ErrTargetMismatch indicates the supplied instance is not of the
	// member's declaring type.
	ErrTargetMismatch = errors.New("raw: target instance type mismatch")

	// ErrValueMismatch indicates a value is not assignable to the member.
	ErrValueMismatch = errors.New("raw: value type mismatch")

	// ErrNoConstructor indicates a type cannot be default-constructed.
	ErrNoConstructor = errors.New("raw: type has no default construction")
)

// Access is the accessibility of a type or member as the source reports it.
type Access uint8

const (
	AccessPrivate Access = iota
	AccessFamilyAndAssembly
	AccessAssembly
	AccessFamily
	AccessFamilyOrAssembly
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessFamilyAndAssembly:
		return "private protected"
	case AccessAssembly:
		return "internal"
	case AccessFamily:
		return "protected"
	case AccessFamilyOrAssembly:
		return "protected internal"
	case AccessPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Kind is the top-level category of a type.
type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
	KindStruct
	KindPrimitive
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Assembly describes a unit of deployment that declares types.
type Assembly interface {
	// Name returns the simple assembly name.
	Name() string

	// FullName returns the full identity (name, version, culture, key).
	FullName() string

	// Types returns every type declared directly in the assembly.
	Types() ([]Type, error)

	// Attributes returns the assembly-level attribute instances.
	Attributes() ([]any, error)
}

// Type describes a single type.
type Type interface {
	Name() string

	// FullName returns the namespace-qualified name, or "" when the source
	// has none (generic parameters, for instance).
	FullName() string

	Kind() Kind
	Access() Access
	Abstract() bool
	Sealed() bool
	Nullable() bool

	Assembly() Assembly

	// Base returns the base type, or nil at the root of a hierarchy.
	Base() Type

	// DeclaringType returns the enclosing type of a nested type, or nil.
	DeclaringType() Type

	Interfaces() []Type

	// Fields, Properties, Methods and Constructors return declared members
	// only. Inherited members are never reported here.
	Fields() ([]Field, error)
	Properties() ([]Property, error)
	Methods() ([]Method, error)
	Constructors() ([]Method, error)

	Attributes() ([]any, error)

	// IsGenericParameter reports whether the type is a placeholder such as T.
	IsGenericParameter() bool

	// IsGenericDefinition reports whether the type is an open generic type.
	IsGenericDefinition() bool

	// GenericArguments returns the type parameters of an open generic type or
	// the type arguments of a constructed one.
	GenericArguments() []Type

	// GenericDefinition returns the open generic type a constructed type was
	// made from, or nil.
	GenericDefinition() Type

	// Constraints returns the constraints of a generic parameter.
	Constraints() []Type

	// MakeGeneric constructs the type from an open generic definition.
	MakeGeneric(args ...Type) (Type, error)

	// New default-constructs an instance.
	New() (any, error)
}

// Member is the part shared by fields and methods.
type Member interface {
	Name() string
	Access() Access
	Static() bool

	// Special reports compiler-generated or accessor members that are not
	// listed on their own.
	Special() bool

	DeclaringType() Type
	Attributes() ([]any, error)
}

// Field describes a data member.
type Field interface {
	Member
	Type() Type
	Get(instance any) (any, error)
	Set(instance, value any) error
}

// Property describes a named pair of accessor methods.
type Property interface {
	Name() string
	Type() Type
	DeclaringType() Type

	// Getter and Setter return nil when the accessor is absent.
	Getter() Method
	Setter() Method

	Attributes() ([]any, error)
}

// Method describes a method or a constructor.
type Method interface {
	Member
	Abstract() bool
	Constructor() bool
	Parameters() []Parameter

	// ReturnType returns nil for constructors and methods returning nothing.
	ReturnType() Type

	// Invoke calls the method. target is nil for constructors and statics.
	Invoke(target any, args []any) (any, error)

	IsGeneric() bool
	GenericArguments() []Type
	GenericDefinition() Method
	MakeGeneric(args ...Type) (Method, error)
}

// Parameter describes one formal parameter of a method.
type Parameter interface {
	Name() string
	Type() Type
	Position() int
	Out() bool
	Optional() bool
	Attributes() ([]any, error)
}

// Documented is implemented by descriptors that carry documentation.
type Documented interface {
	Doc() string
}

// Body is implemented by methods whose implementation is available as
// bytecode.
type Body interface {
	Body() ([]byte, Module, error)
}

// Module resolves metadata tokens found in method bodies.
type Module interface {
	ResolveMethod(token uint32) (Method, error)
	ResolveField(token uint32) (Field, error)
	ResolveType(token uint32) (Type, error)
	ResolveString(token uint32) (string, error)
	ResolveSignature(token uint32) ([]byte, error)
}

// Typed is implemented by values that know the descriptor of their own
// type, such as instances created by a source.
type Typed interface {
	RawType() Type
}

// Tag is a key/value attribute, the form struct tags take.
type Tag struct {
	Key   string
	Value string
}
