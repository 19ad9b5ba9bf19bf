package reflectsrc

import (
	"fmt"
	"go/token"
	"reflect"
	"runtime"

	"github.com/skdltmxn/typemeta/internal/accessor"
	"github.com/skdltmxn/typemeta/raw"
)

// Type describes one reflect type.
type Type struct {
	src *Source
	t   reflect.Type
}

// Reflect returns the underlying reflect type.
func (t Type) Reflect() reflect.Type { return t.t }

func (t Type) Name() string {
	if t.t.Name() == "" {
		return t.t.String()
	}
	return t.t.Name()
}

func (t Type) FullName() string {
	if t.t.PkgPath() == "" {
		return t.t.String()
	}
	return t.t.PkgPath() + "." + t.t.Name()
}

// Kind maps Go kinds: named structs are classes, anonymous structs and
// arrays are structs, reference kinds are classes, named integers with a
// String method are enums and the remaining scalars are primitives.
func (t Type) Kind() raw.Kind {
	switch k := t.t.Kind(); {
	case k == reflect.Interface:
		return raw.KindInterface
	case k == reflect.Struct:
		if t.t.Name() == "" {
			return raw.KindStruct
		}
		return raw.KindClass
	case isEnum(t.t):
		return raw.KindEnum
	case k == reflect.Array:
		return raw.KindStruct
	case isScalar(k):
		return raw.KindPrimitive
	default:
		return raw.KindClass
	}
}

func (t Type) Access() raw.Access {
	if t.t.PkgPath() == "" || token.IsExported(t.t.Name()) {
		return raw.AccessPublic
	}
	return raw.AccessAssembly
}

func (t Type) Abstract() bool { return t.t.Kind() == reflect.Interface }

// Sealed reports whether nothing can embed the type as a base.
func (t Type) Sealed() bool {
	return t.t.Kind() != reflect.Struct && t.t.Kind() != reflect.Interface
}

func (t Type) Nullable() bool {
	switch t.t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func (t Type) Assembly() raw.Assembly {
	return Assembly{src: t.src, path: t.t.PkgPath()}
}

func (t Type) Base() raw.Type {
	i := baseIndex(t.t)
	if i < 0 {
		return nil
	}
	return t.src.Type(t.t.Field(i).Type)
}

func (t Type) DeclaringType() raw.Type { return nil }

func (t Type) Interfaces() []raw.Type {
	var out []raw.Type
	for _, i := range t.src.interfaces() {
		if i == t.t {
			continue
		}
		if t.t.Implements(i) || (t.t.Kind() != reflect.Interface && reflect.PointerTo(t.t).Implements(i)) {
			out = append(out, t.src.Type(i))
		}
	}
	return out
}

func (t Type) Fields() ([]raw.Field, error) {
	if t.t.Kind() != reflect.Struct {
		return nil, nil
	}
	base := baseIndex(t.t)
	var out []raw.Field
	for i := range t.t.NumField() {
		if i == base {
			continue
		}
		out = append(out, Field{src: t.src, owner: t.t, index: i})
	}
	return out, nil
}

func (t Type) Properties() ([]raw.Property, error) {
	l := t.src.layout(t.t)
	out := make([]raw.Property, len(l.props))
	for i, p := range l.props {
		out[i] = Property{src: t.src, owner: t.t, name: p.name, getter: p.getter, setter: p.setter}
	}
	return out, nil
}

func (t Type) Methods() ([]raw.Method, error) {
	l := t.src.layout(t.t)
	out := make([]raw.Method, len(l.methods))
	for i, name := range l.methods {
		out[i] = Method{src: t.src, owner: t.t, name: name}
	}
	return out, nil
}

func (t Type) Constructors() ([]raw.Method, error) {
	ctors := t.src.constructors(t.t)
	out := make([]raw.Method, len(ctors))
	for i := range ctors {
		out[i] = Method{src: t.src, owner: t.t, name: ".ctor", ctor: i + 1}
	}
	return out, nil
}

func (t Type) Attributes() ([]any, error) {
	return t.src.annotations(t.t, ""), nil
}

// Go instantiates generics at compile time; reflect only sees the results.
func (t Type) IsGenericParameter() bool     { return false }
func (t Type) IsGenericDefinition() bool    { return false }
func (t Type) GenericArguments() []raw.Type { return nil }
func (t Type) GenericDefinition() raw.Type  { return nil }
func (t Type) Constraints() []raw.Type      { return nil }

func (t Type) MakeGeneric(args ...raw.Type) (raw.Type, error) {
	return nil, fmt.Errorf("%w: %s", raw.ErrNotGeneric, t.FullName())
}

// New returns a pointer to a zeroed struct, or the zero value of any other
// non-interface type.
func (t Type) New() (any, error) {
	switch t.t.Kind() {
	case reflect.Interface:
		return nil, fmt.Errorf("%w: %s", raw.ErrNoConstructor, t.FullName())
	case reflect.Struct:
		return reflect.New(t.t).Interface(), nil
	}
	return reflect.Zero(t.t).Interface(), nil
}

func (t Type) String() string { return t.FullName() }

type propLayout struct {
	name, getter, setter string
}

// layout is the member shape of a type, computed once per source.
type layout struct {
	methods []string
	special map[string]bool
	props   []propLayout
}

func (s *Source) layout(t reflect.Type) *layout {
	if l, ok := s.layouts.Load(t); ok {
		return l.(*layout)
	}
	l, _ := s.layouts.LoadOrStore(t, computeLayout(t))
	return l.(*layout)
}

func computeLayout(t reflect.Type) *layout {
	l := &layout{special: make(map[string]bool)}
	set := methodSet(t)
	if set == nil {
		return l
	}

	var inherited reflect.Type
	if i := baseIndex(t); i >= 0 {
		inherited = methodSet(normalize(t.Field(i).Type))
	}

	var sigs []accessor.Sig
	for i := range set.NumMethod() {
		m := set.Method(i)
		if inherited != nil && t.Kind() != reflect.Interface && !declaredOn(t, m.Name, inherited) {
			continue
		}
		l.methods = append(l.methods, m.Name)
		sigs = append(sigs, signature(m.Type, t.Kind() != reflect.Interface, m.Name))
	}

	pairs := accessor.Find(sigs, false)
	for _, p := range pairs {
		l.props = append(l.props, propLayout{
			name:   p.Name,
			getter: sigs[p.Getter].Name,
			setter: sigs[p.Setter].Name,
		})
	}
	for i := range accessor.Members(pairs) {
		l.special[sigs[i].Name] = true
	}
	return l
}

// declaredOn reports whether t declares name itself rather than promoting it
// from its embedded base. Promotion wrappers are compiler generated.
func declaredOn(t reflect.Type, name string, inherited reflect.Type) bool {
	if _, ok := inherited.MethodByName(name); !ok {
		return true
	}
	for _, set := range []reflect.Type{t, reflect.PointerTo(t)} {
		if m, ok := set.MethodByName(name); ok && !generated(m.Func) {
			return true
		}
	}
	return false
}

func generated(fn reflect.Value) bool {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return true
	}
	file, _ := f.FileLine(f.Entry())
	return file == "<autogenerated>"
}

func signature(ft reflect.Type, receiver bool, name string) accessor.Sig {
	start := 0
	if receiver {
		start = 1
	}
	sig := accessor.Sig{Name: name}
	for i := start; i < ft.NumIn(); i++ {
		sig.Params = append(sig.Params, ft.In(i).String())
	}
	for i := range ft.NumOut() {
		sig.Results = append(sig.Results, ft.Out(i).String())
	}
	return sig
}

// methodSet returns the type whose method set holds t's methods: the
// interface itself, or the pointer type so pointer receivers are included.
func methodSet(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		return t
	}
	if t.Name() == "" {
		return nil
	}
	return reflect.PointerTo(t)
}

// baseIndex returns the index of the first embedded named struct field that
// does not embed t again, or -1.
func baseIndex(t reflect.Type) int {
	if t.Kind() != reflect.Struct {
		return -1
	}
	for i := range t.NumField() {
		if ft, ok := embeddedStruct(t.Field(i)); ok && !embeds(ft, t) {
			return i
		}
	}
	return -1
}

func embeddedStruct(f reflect.StructField) (reflect.Type, bool) {
	if !f.Anonymous {
		return nil, false
	}
	ft := normalize(f.Type)
	return ft, ft.Kind() == reflect.Struct && ft.Name() != ""
}

// embeds reports whether target is from or reachable from it through
// embedded named structs.
func embeds(from, target reflect.Type) bool {
	seen := make(map[reflect.Type]bool)
	stack := []reflect.Type{from}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t == target {
			return true
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		for i := range t.NumField() {
			if ft, ok := embeddedStruct(t.Field(i)); ok {
				stack = append(stack, ft)
			}
		}
	}
	return false
}

func isEnum(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.PkgPath() != "" && t.Implements(stringerType)
	}
	return false
}

func isScalar(k reflect.Kind) bool {
	return (k >= reflect.Bool && k <= reflect.Complex128) || k == reflect.String
}

