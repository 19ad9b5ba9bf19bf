package gosrc

import (
	"fmt"
	"go/types"
	"slices"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/internal/accessor"
	"github.com/skdltmxn/typemeta/raw"
)

// Type describes one go/types type. Each distinct type has exactly one
// *Type per Source.
type Type struct {
	src *Source
	t   types.Type

	layoutOnce sync.Once
	layout     *layout
}

// GoType returns the underlying go/types type.
func (t *Type) GoType() types.Type { return t.t }

func (t *Type) obj() *types.TypeName {
	switch x := t.t.(type) {
	case *types.Named:
		return x.Obj()
	case *types.TypeParam:
		return x.Obj()
	}
	return nil
}

func (t *Type) named() (*types.Named, bool) {
	n, ok := t.t.(*types.Named)
	return n, ok
}

func (t *Type) param() bool {
	_, ok := t.t.(*types.TypeParam)
	return ok
}

func (t *Type) Name() string {
	switch x := t.t.(type) {
	case *types.Named:
		return x.Obj().Name()
	case *types.TypeParam:
		return x.Obj().Name()
	case *types.Basic:
		return x.Name()
	}
	return types.TypeString(t.t, func(p *types.Package) string { return p.Name() })
}

func (t *Type) FullName() string {
	if t.param() {
		return ""
	}
	return types.TypeString(t.t, nil)
}

// Kind follows reflectsrc: named structs are classes, anonymous structs and
// arrays are structs, named integers with constants are enums and basic
// types are primitives.
func (t *Type) Kind() raw.Kind {
	if t.param() {
		return raw.KindClass
	}
	switch u := t.t.Underlying().(type) {
	case *types.Interface:
		return raw.KindInterface
	case *types.Struct:
		if _, ok := t.named(); ok {
			return raw.KindClass
		}
		return raw.KindStruct
	case *types.Array:
		return raw.KindStruct
	case *types.Basic:
		if n, ok := t.named(); ok && u.Info()&types.IsInteger != 0 && len(t.src.constants(n.Obj())) > 0 {
			return raw.KindEnum
		}
		return raw.KindPrimitive
	}
	return raw.KindClass
}

func (t *Type) Access() raw.Access {
	if o := t.obj(); o != nil && o.Pkg() != nil && !o.Exported() {
		return raw.AccessAssembly
	}
	return raw.AccessPublic
}

func (t *Type) Abstract() bool {
	_, ok := t.t.Underlying().(*types.Interface)
	return ok && !t.param()
}

// Sealed reports whether nothing can embed the type as a base.
func (t *Type) Sealed() bool {
	if t.param() {
		return false
	}
	switch t.t.Underlying().(type) {
	case *types.Struct, *types.Interface:
		return false
	}
	return true
}

func (t *Type) Nullable() bool {
	switch u := t.t.Underlying().(type) {
	case *types.Pointer, *types.Map, *types.Slice, *types.Chan, *types.Signature:
		return true
	case *types.Interface:
		return !t.param()
	case *types.Basic:
		return u.Kind() == types.UnsafePointer
	}
	return false
}

func (t *Type) Assembly() raw.Assembly {
	if o := t.obj(); o != nil && o.Pkg() != nil {
		return t.src.Assembly(o.Pkg().Path())
	}
	return t.src.Assembly("")
}

func (t *Type) Base() raw.Type {
	s, i := t.baseField()
	if i < 0 {
		return nil
	}
	return t.src.Type(s.Field(i).Type())
}

// baseField returns the struct of a named struct type and the index of its
// first embedded named struct that does not embed the type again, or -1.
func (t *Type) baseField() (*types.Struct, int) {
	if _, ok := t.named(); !ok {
		return nil, -1
	}
	s, ok := t.t.Underlying().(*types.Struct)
	if !ok {
		return nil, -1
	}
	for i := range s.NumFields() {
		if n, ok := embeddedStruct(s.Field(i)); ok && !embeds(n, t.t) {
			return s, i
		}
	}
	return s, -1
}

func embeddedStruct(f *types.Var) (*types.Named, bool) {
	if !f.Embedded() {
		return nil, false
	}
	n, ok := normalize(types.Unalias(f.Type())).(*types.Named)
	if !ok {
		return nil, false
	}
	_, ok = n.Underlying().(*types.Struct)
	return n, ok
}

// embeds reports whether target is from or reachable from it through
// embedded named structs.
func embeds(from *types.Named, target types.Type) bool {
	var seen []*types.Named
	stack := []*types.Named{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if types.Identical(n, target) {
			return true
		}
		if slices.ContainsFunc(seen, func(s *types.Named) bool { return types.Identical(s, n) }) {
			continue
		}
		seen = append(seen, n)
		s := n.Underlying().(*types.Struct)
		for i := range s.NumFields() {
			if e, ok := embeddedStruct(s.Field(i)); ok {
				stack = append(stack, e)
			}
		}
	}
	return false
}

func (t *Type) DeclaringType() raw.Type { return nil }

// Interfaces returns the interfaces an interface embeds, or the loaded
// interfaces a concrete type satisfies through its value or pointer method
// set.
func (t *Type) Interfaces() []raw.Type {
	if t.param() || t.IsGenericDefinition() {
		return nil
	}
	var out []raw.Type
	if iface, ok := t.t.Underlying().(*types.Interface); ok {
		for i := range iface.NumEmbeddeds() {
			if n, ok := types.Unalias(iface.EmbeddedType(i)).(*types.Named); ok {
				out = append(out, t.src.Type(n))
			}
		}
		return out
	}
	ptr := types.NewPointer(t.t)
	for _, it := range t.src.interfaces() {
		iface := it.Underlying().(*types.Interface)
		if types.Implements(t.t, iface) || types.Implements(ptr, iface) {
			out = append(out, t.src.Type(it))
		}
	}
	return out
}

func (t *Type) Fields() ([]raw.Field, error) {
	if n, ok := t.named(); ok && t.Kind() == raw.KindEnum {
		consts := t.src.constants(n.Obj())
		out := make([]raw.Field, len(consts))
		for i, c := range consts {
			out[i] = &Field{src: t.src, owner: t, konst: c}
		}
		return out, nil
	}

	s, base := t.baseField()
	if s == nil {
		var ok bool
		if s, ok = t.t.(*types.Struct); !ok {
			return nil, nil
		}
	}
	var out []raw.Field
	for i := range s.NumFields() {
		if i == base {
			continue
		}
		out = append(out, &Field{src: t.src, owner: t, v: s.Field(i), tag: s.Tag(i)})
	}
	return out, nil
}

func (t *Type) Properties() ([]raw.Property, error) {
	l := t.members()
	out := make([]raw.Property, len(l.props))
	for i, p := range l.props {
		out[i] = p
	}
	return out, nil
}

func (t *Type) Methods() ([]raw.Method, error) {
	l := t.members()
	out := make([]raw.Method, len(l.methods))
	for i, m := range l.methods {
		out[i] = m
	}
	return out, nil
}

// Constructors returns the NewX factory functions go/doc associates with
// the type.
func (t *Type) Constructors() ([]raw.Method, error) {
	n, ok := t.named()
	if !ok || n.Origin() != n {
		return nil, nil
	}
	dt := t.src.typeDoc(n.Obj())
	if dt == nil {
		return nil, nil
	}
	var out []raw.Method
	for _, f := range dt.Funcs {
		if !strings.HasPrefix(f.Name, "New") {
			continue
		}
		fn, ok := n.Obj().Pkg().Scope().Lookup(f.Name).(*types.Func)
		if !ok {
			continue
		}
		out = append(out, &Method{src: t.src, owner: t, fn: fn, ctor: true, doc: f.Doc})
	}
	return out, nil
}

// Attributes reports a "Deprecated" tag when the type's doc comment has a
// deprecation paragraph.
func (t *Type) Attributes() ([]any, error) {
	return deprecation(t.Doc()), nil
}

// Doc returns the type's doc comment.
func (t *Type) Doc() string {
	n, ok := t.named()
	if !ok {
		return ""
	}
	if dt := t.src.typeDoc(n.Origin().Obj()); dt != nil {
		return dt.Doc
	}
	return ""
}

func (t *Type) IsGenericParameter() bool { return t.param() }

func (t *Type) IsGenericDefinition() bool {
	n, ok := t.named()
	return ok && n.TypeParams().Len() > 0 && n.TypeArgs().Len() == 0
}

func (t *Type) GenericArguments() []raw.Type {
	n, ok := t.named()
	if !ok {
		return nil
	}
	var out []raw.Type
	if args := n.TypeArgs(); args.Len() > 0 {
		for i := range args.Len() {
			out = append(out, t.src.Type(args.At(i)))
		}
		return out
	}
	params := n.TypeParams()
	for i := range params.Len() {
		out = append(out, t.src.Type(params.At(i)))
	}
	return out
}

func (t *Type) GenericDefinition() raw.Type {
	n, ok := t.named()
	if !ok || n.Origin() == n {
		return nil
	}
	return t.src.Type(n.Origin())
}

// Constraints returns the constraint interface of a type parameter, or
// nothing for the unconstrained any.
func (t *Type) Constraints() []raw.Type {
	tp, ok := t.t.(*types.TypeParam)
	if !ok {
		return nil
	}
	c := types.Unalias(tp.Constraint())
	if iface, ok := c.Underlying().(*types.Interface); ok && iface.Empty() {
		return nil
	}
	return []raw.Type{t.src.Type(c)}
}

// MakeGeneric instantiates a generic definition with types from the same
// source, verifying the constraints.
func (t *Type) MakeGeneric(args ...raw.Type) (raw.Type, error) {
	if !t.IsGenericDefinition() {
		return nil, fmt.Errorf("%w: %s", raw.ErrNotGeneric, t.FullName())
	}
	targs := make([]types.Type, len(args))
	for i, a := range args {
		at, ok := a.(*Type)
		if !ok || at.src != t.src {
			return nil, fmt.Errorf("gosrc: %s: argument %d is not a type of this source", t.FullName(), i)
		}
		targs[i] = at.t
	}
	inst, err := types.Instantiate(t.src.ctxt, t.t, targs, true)
	if err != nil {
		return nil, fmt.Errorf("gosrc: instantiate %s: %w", t.FullName(), err)
	}
	return t.src.Type(inst), nil
}

func (t *Type) New() (any, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrStatic, t.FullName(), raw.ErrNoConstructor)
}

func (t *Type) String() string {
	if t.param() {
		return t.Name()
	}
	return t.FullName()
}

// layout is the member shape of a type.
type layout struct {
	methods []*Method
	props   []*Property
}

func (t *Type) members() *layout {
	t.layoutOnce.Do(func() { t.layout = t.computeLayout() })
	return t.layout
}

func (t *Type) computeLayout() *layout {
	l := &layout{}
	var fns []*types.Func
	switch u := t.t.Underlying().(type) {
	case *types.Interface:
		if t.param() {
			return l
		}
		for i := range u.NumExplicitMethods() {
			fns = append(fns, u.ExplicitMethod(i))
		}
	default:
		n, ok := t.named()
		if !ok {
			return l
		}
		for i := range n.NumMethods() {
			fns = append(fns, n.Method(i))
		}
	}
	slices.SortFunc(fns, func(a, b *types.Func) int { return strings.Compare(a.Name(), b.Name()) })

	sigs := make([]accessor.Sig, len(fns))
	for i, fn := range fns {
		sigs[i] = signature(fn)
	}
	pairs := accessor.Find(sigs, false)
	special := accessor.Members(pairs)

	docs := t.methodDocs()
	for i, fn := range fns {
		l.methods = append(l.methods, &Method{src: t.src, owner: t, fn: fn, special: special[i], doc: docs[fn.Name()]})
	}
	for _, p := range pairs {
		l.props = append(l.props, &Property{
			src:    t.src,
			owner:  t,
			name:   p.Name,
			getter: l.methods[p.Getter],
			setter: l.methods[p.Setter],
		})
	}
	return l
}

func (t *Type) methodDocs() map[string]string {
	n, ok := t.named()
	if !ok {
		return nil
	}
	dt := t.src.typeDoc(n.Origin().Obj())
	if dt == nil {
		return nil
	}
	docs := make(map[string]string, len(dt.Methods))
	for _, m := range dt.Methods {
		if m.Level == 0 {
			docs[m.Name] = m.Doc
		}
	}
	return docs
}

func signature(fn *types.Func) accessor.Sig {
	sig := fn.Type().(*types.Signature)
	s := accessor.Sig{Name: fn.Name()}
	for v := range sig.Params().Variables() {
		s.Params = append(s.Params, types.TypeString(v.Type(), nil))
	}
	for v := range sig.Results().Variables() {
		s.Results = append(s.Results, types.TypeString(v.Type(), nil))
	}
	return s
}
