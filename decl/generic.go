package decl

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/typemeta/raw"
)

func argKey(args []*Type) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = typeRef(a)
	}
	return strings.Join(names, ",")
}

func declTypes(args []raw.Type) ([]*Type, error) {
	out := make([]*Type, len(args))
	for i, a := range args {
		t, ok := a.(*Type)
		if !ok {
			return nil, fmt.Errorf("decl: generic argument %d is %T, not *decl.Type", i, a)
		}
		out[i] = t
	}
	return out, nil
}

// MakeGeneric constructs t from its definition. The same arguments always
// yield the same *Type.
func (t *Type) MakeGeneric(args ...raw.Type) (raw.Type, error) {
	targs, err := declTypes(args)
	if err != nil {
		return nil, err
	}
	ct, err := t.Construct(targs...)
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// Construct is MakeGeneric over declared types.
func (t *Type) Construct(args ...*Type) (*Type, error) {
	if len(t.params) == 0 {
		return nil, fmt.Errorf("%w: %s", raw.ErrNotGeneric, t.FullName())
	}
	if len(args) != len(t.params) {
		return nil, fmt.Errorf("%w: %s takes %d type arguments, got %d", ErrArgumentCount, t.FullName(), len(t.params), len(args))
	}

	key := argKey(args)
	t.instMu.Lock()
	defer t.instMu.Unlock()
	if ct, ok := t.instances[key]; ok {
		return ct, nil
	}
	ct := &Type{
		asm:        t.asm,
		namespace:  t.namespace,
		name:       t.name,
		kind:       t.kind,
		access:     t.access,
		abstract:   t.abstract,
		sealed:     t.sealed,
		declaring:  t.declaring,
		attrs:      t.attrs,
		doc:        t.doc,
		definition: t,
		args:       args,
		statics:    make(map[string]any),
	}
	s := substitution{from: t.params, to: args}
	ct.base = s.apply(t.base)
	for _, i := range t.ifaces {
		ct.ifaces = append(ct.ifaces, s.apply(i))
	}
	if t.instances == nil {
		t.instances = make(map[string]*Type)
	}
	t.instances[key] = ct
	return ct, nil
}

// materialize copies the definition's members onto a constructed type the
// first time they are listed.
func (t *Type) materialize() {
	if t.definition == nil {
		return
	}
	t.membersOnce.Do(func() {
		def := t.definition
		s := substitution{from: def.params, to: t.args}

		def.mu.RLock()
		defer def.mu.RUnlock()
		t.mu.Lock()
		defer t.mu.Unlock()

		for _, f := range def.fields {
			nf := &Field{member: f.member, typ: s.apply(f.typ)}
			nf.declaring = t
			t.fields = append(t.fields, nf)
		}
		copied := make(map[*Method]*Method)
		copyMethods := func(ms []*Method) []*Method {
			out := make([]*Method, len(ms))
			for i, m := range ms {
				out[i] = s.method(m, t)
				copied[m] = out[i]
			}
			return out
		}
		t.methods = copyMethods(def.methods)
		t.ctors = copyMethods(def.ctors)
		for _, p := range def.props {
			t.props = append(t.props, &Property{
				name:      p.name,
				typ:       s.apply(p.typ),
				declaring: t,
				getter:    copied[p.getter],
				setter:    copied[p.setter],
				attrs:     p.attrs,
			})
		}
	})
}

// substitution replaces generic parameters by arguments.
type substitution struct {
	from []*Type
	to   []*Type
}

func (s substitution) apply(t *Type) *Type {
	if t == nil {
		return nil
	}
	for i, p := range s.from {
		if p == t {
			return s.to[i]
		}
	}
	if t.definition != nil {
		args := make([]*Type, len(t.args))
		changed := false
		for i, a := range t.args {
			args[i] = s.apply(a)
			changed = changed || args[i] != a
		}
		if changed {
			if ct, err := t.definition.Construct(args...); err == nil {
				return ct
			}
		}
	}
	return t
}

// method copies m onto declaring with parameters substituted.
func (s substitution) method(m *Method, declaring *Type) *Method {
	nm := &Method{
		member:     m.member,
		abstract:   m.abstract,
		ctor:       m.ctor,
		ret:        s.apply(m.ret),
		impl:       m.impl,
		body:       m.body,
		typeParams: m.typeParams,
	}
	nm.declaring = declaring
	for _, p := range m.params {
		np := *p
		np.typ = s.apply(p.typ)
		np.method = nm
		nm.params = append(nm.params, &np)
	}
	return nm
}

// MakeGeneric constructs a generic method. The same arguments always yield
// the same *Method.
func (m *Method) MakeGeneric(args ...raw.Type) (raw.Method, error) {
	targs, err := declTypes(args)
	if err != nil {
		return nil, err
	}
	cm, err := m.Construct(targs...)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// Construct is MakeGeneric over declared types.
func (m *Method) Construct(args ...*Type) (*Method, error) {
	if len(m.typeParams) == 0 {
		return nil, fmt.Errorf("%w: %s", raw.ErrNotGeneric, m.name)
	}
	if len(args) != len(m.typeParams) {
		return nil, fmt.Errorf("%w: %s takes %d type arguments, got %d", ErrArgumentCount, m.name, len(m.typeParams), len(args))
	}
	for i, a := range args {
		for _, c := range m.typeParams[i].constraints {
			if !a.AssignableTo(c) {
				return nil, fmt.Errorf("decl: %s does not satisfy constraint %s of %s", typeRef(a), typeRef(c), m.typeParams[i].name)
			}
		}
	}

	key := argKey(args)
	m.instMu.Lock()
	defer m.instMu.Unlock()
	if cm, ok := m.instances[key]; ok {
		return cm, nil
	}
	s := substitution{from: m.typeParams, to: args}
	cm := s.method(m, m.declaring)
	cm.typeParams = nil
	cm.definition = m
	cm.args = args
	if m.instances == nil {
		m.instances = make(map[string]*Method)
	}
	m.instances[key] = cm
	return cm, nil
}
