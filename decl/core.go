package decl

import "github.com/skdltmxn/typemeta/raw"

// Core is the assembly holding the universal base class and the primitive
// types every other assembly refers to.
var Core = NewAssembly("System.Private.CoreLib", "8.0.0.0", PublicKeyToken("7cec85d7bea7798e"))

// Core types, populated by init.
var (
	Object    *Type
	ValueType *Type
	String    *Type
	Boolean   *Type
	Char      *Type
	Int32     *Type
	Int64     *Type
	Double    *Type
	Void      *Type
)

func init() {
	Object = Core.Class("System.Object", Extends(nil))
	ValueType = Core.Class("System.ValueType", Abstract())
	String = Core.Class("System.String", Sealed())
	Boolean = Core.Primitive("System.Boolean")
	Char = Core.Primitive("System.Char")
	Int32 = Core.Primitive("System.Int32")
	Int64 = Core.Primitive("System.Int64")
	Double = Core.Primitive("System.Double")
	Void = Core.Struct("System.Void")

	Object.Constructor()
	Object.Method("ToString", String).
		Impl(func(target any, _ []any) (any, error) {
			if s, ok := target.(interface{ String() string }); ok {
				return s.String(), nil
			}
			return "System.Object", nil
		})
	Object.Method("Equals", Boolean).Param("obj", Object).
		Impl(func(target any, args []any) (any, error) { return target == args[0], nil })
	Object.Method("GetHashCode", Int32).
		Impl(func(any, []any) (any, error) { return int32(0), nil })
}

// CoreType returns the core type with the given full name.
func CoreType(fullName string) (*Type, bool) {
	return Core.Lookup(fullName)
}

var _ raw.Module = (*Assembly)(nil)
