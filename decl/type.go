package decl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// Type is a declared type. It implements raw.Type.
type Type struct {
	asm       *Assembly
	namespace string
	name      string
	kind      raw.Kind
	access    raw.Access
	abstract  bool
	sealed    bool
	base      *Type
	declaring *Type
	ifaces    []*Type
	attrs     []any
	doc       string
	fail      error

	mu      sync.RWMutex
	fields  []*Field
	props   []*Property
	methods []*Method
	ctors   []*Method
	statics map[string]any

	// Generic shape. A definition has params; a constructed type has
	// definition and args; a parameter has a position and constraints.
	params      []*Type
	definition  *Type
	args        []*Type
	isParam     bool
	position    int
	constraints []*Type

	instMu      sync.Mutex
	instances   map[string]*Type
	membersOnce sync.Once
}

func newType(a *Assembly, fullName string, kind raw.Kind, o options) *Type {
	ns, name := splitName(fullName)
	t := &Type{
		asm:       a,
		namespace: ns,
		name:      name,
		kind:      kind,
		access:    o.access,
		abstract:  o.abstract || o.static,
		sealed:    o.sealed || o.static,
		declaring: o.nestedIn,
		ifaces:    o.ifaces,
		attrs:     o.attrs,
		doc:       o.doc,
		statics:   make(map[string]any),
	}
	if o.nestedIn != nil {
		t.namespace = ""
	}
	switch {
	case o.baseSet:
		t.base = o.base
	case kind == raw.KindClass && fullName != "System.Object":
		t.base = Object
	}
	if len(o.typeParams) > 0 {
		t.name = fmt.Sprintf("%s`%d", t.name, len(o.typeParams))
		for i, p := range o.typeParams {
			t.params = append(t.params, newParam(a, p, i))
		}
	}
	return t
}

func newParam(a *Assembly, name string, position int) *Type {
	return &Type{
		asm:      a,
		name:     name,
		kind:     raw.KindClass,
		access:   raw.AccessPublic,
		isParam:  true,
		position: position,
		statics:  make(map[string]any),
	}
}

// TypeParam returns the i-th generic parameter of a definition.
func (t *Type) TypeParam(i int) *Type { return t.params[i] }

// Constrain adds constraints to a generic parameter.
func (t *Type) Constrain(constraints ...*Type) *Type {
	t.constraints = append(t.constraints, constraints...)
	return t
}

// Fail makes every member listing of t return err.
func (t *Type) Fail(err error) *Type {
	t.fail = err
	return t
}

// SetBase replaces the base type after declaration. Manifests use it to
// resolve forward references.
func (t *Type) SetBase(base *Type) *Type {
	t.base = base
	return t
}

// AddInterfaces appends implemented interfaces after declaration.
func (t *Type) AddInterfaces(ifaces ...*Type) *Type {
	t.ifaces = append(t.ifaces, ifaces...)
	return t
}

func (t *Type) Name() string {
	if t.definition != nil {
		return t.definition.Name()
	}
	return t.name
}

func (t *Type) FullName() string {
	switch {
	case t.isParam:
		return ""
	case t.definition != nil:
		names := make([]string, len(t.args))
		for i, a := range t.args {
			names[i] = typeRef(a)
		}
		return t.definition.FullName() + "[" + strings.Join(names, ",") + "]"
	case t.declaring != nil:
		return t.declaring.FullName() + "+" + t.name
	case t.namespace == "":
		return t.name
	default:
		return t.namespace + "." + t.name
	}
}

// typeRef names a type inside another type's name.
func typeRef(t *Type) string {
	if t.isParam {
		return t.name
	}
	return t.FullName()
}

func (t *Type) Kind() raw.Kind     { return t.kind }
func (t *Type) Access() raw.Access { return t.access }
func (t *Type) Abstract() bool     { return t.abstract }
func (t *Type) Sealed() bool       { return t.sealed }
func (t *Type) Doc() string        { return t.doc }

func (t *Type) Nullable() bool {
	return t.kind == raw.KindClass || t.kind == raw.KindInterface
}

func (t *Type) Assembly() raw.Assembly { return t.asm }

func (t *Type) Base() raw.Type {
	if t.base == nil {
		return nil
	}
	return t.base
}

func (t *Type) DeclaringType() raw.Type {
	if t.declaring == nil {
		return nil
	}
	return t.declaring
}

// Interfaces returns every interface t implements, including those inherited
// from base types and other interfaces, in first-seen order.
func (t *Type) Interfaces() []raw.Type {
	var out []*Type
	seen := make(map[*Type]bool)
	var walk func(ifaces []*Type)
	walk = func(ifaces []*Type) {
		for _, i := range ifaces {
			if seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, i)
			walk(i.ifaces)
		}
	}
	for c := t; c != nil; c = c.base {
		walk(c.ifaces)
	}
	return rawTypes(out)
}

func (t *Type) Attributes() ([]any, error) { return t.attrs, nil }

func (t *Type) Fields() ([]raw.Field, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	t.materialize()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]raw.Field, len(t.fields))
	for i, f := range t.fields {
		out[i] = f
	}
	return out, nil
}

func (t *Type) Properties() ([]raw.Property, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	t.materialize()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]raw.Property, len(t.props))
	for i, p := range t.props {
		out[i] = p
	}
	return out, nil
}

func (t *Type) Methods() ([]raw.Method, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	t.materialize()
	t.mu.RLock()
	defer t.mu.RUnlock()
	return rawMethods(t.methods), nil
}

func (t *Type) Constructors() ([]raw.Method, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	t.materialize()
	t.mu.RLock()
	defer t.mu.RUnlock()
	return rawMethods(t.ctors), nil
}

func (t *Type) IsGenericParameter() bool  { return t.isParam }
func (t *Type) IsGenericDefinition() bool { return len(t.params) > 0 }

func (t *Type) GenericArguments() []raw.Type {
	if t.definition != nil {
		return rawTypes(t.args)
	}
	return rawTypes(t.params)
}

func (t *Type) GenericDefinition() raw.Type {
	if t.definition == nil {
		return nil
	}
	return t.definition
}

func (t *Type) Constraints() []raw.Type { return rawTypes(t.constraints) }

// New default-constructs an instance: an *Instance for classes and structs,
// the zero value for primitives and enums.
func (t *Type) New() (any, error) {
	switch {
	case t.abstract, t.isParam, len(t.params) > 0:
		return nil, fmt.Errorf("%w: %s", raw.ErrNoConstructor, t.FullName())
	case t.kind == raw.KindPrimitive, t.kind == raw.KindEnum:
		return zeroOf(t), nil
	}
	return NewInstance(t), nil
}

// IsSubclassOf reports whether base appears on t's base chain.
func (t *Type) IsSubclassOf(base *Type) bool {
	for b := t.base; b != nil; b = b.base {
		if b == base {
			return true
		}
	}
	return false
}

// AssignableTo reports whether a value of type t can be stored in a location
// of type to.
func (t *Type) AssignableTo(to *Type) bool {
	if t == to || to == Object || t.IsSubclassOf(to) {
		return true
	}
	for c := t; c != nil; c = c.base {
		for _, i := range c.ifaces {
			if i == to || i.AssignableTo(to) {
				return true
			}
		}
	}
	return false
}

func rawTypes(ts []*Type) []raw.Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]raw.Type, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func rawMethods(ms []*Method) []raw.Method {
	out := make([]raw.Method, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func (t *Type) String() string {
	if t.isParam {
		return t.name
	}
	return t.FullName()
}
