package meta

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/skdltmxn/typemeta/raw"
)

// memberSet describes one member kind to the merge engine. R is the source
// descriptor, M the node.
type memberSet[R any, M Member] struct {
	kind string

	// declared lists the members the source reports on t itself.
	declared func(t raw.Type) ([]R, error)

	// skip drops compiler-generated members.
	skip func(r R) bool

	// inherited is the base type's already merged list.
	inherited func(base *TypeData) []M

	// build creates a node for r found through reflected and attributed to
	// declaring.
	build func(r R, declaring, reflected *TypeData) M

	key       func(m M) string
	modifier  func(m M) Modifier
	declaring func(m M) *TypeData
}

// merge combines t's declared members with the members of its base type
// that stay visible to t. A declared member whose signature matches an
// inherited one replaces it in place and keeps the inherited slot's
// declaring type; other declared members are appended in declaration order.
// Any failure of the source degrades the list to empty.
func merge[R any, M Member](t *TypeData, s memberSet[R, M]) (out []M) {
	defer func() {
		if r := recover(); r != nil {
			t.degraded(s.kind, fmt.Errorf("panic: %v", r))
			out = nil
		}
	}()

	declared, err := s.declared(t.raw)
	if err != nil {
		t.degraded(s.kind, err)
		return nil
	}
	var (
		own    []M
		ownRaw []R
	)
	for _, r := range declared {
		if s.skip != nil && s.skip(r) {
			continue
		}
		own = append(own, s.build(r, t, t))
		ownRaw = append(ownRaw, r)
	}

	base := t.BaseType()
	if base == nil {
		return own
	}

	mask := Family
	if sameAssembly(t, base) {
		mask |= Internal
	}

	inherited := s.inherited(base)
	out = make([]M, 0, len(inherited)+len(own))
	slots := make(map[string]int, len(inherited))
	for _, m := range inherited {
		if !s.modifier(m).Any(mask) {
			continue
		}
		if k := s.key(m); k != "" {
			if _, dup := slots[k]; !dup {
				slots[k] = len(out)
			}
		}
		out = append(out, m)
	}
	for i, m := range own {
		if slot, ok := slots[s.key(m)]; ok {
			out[slot] = s.build(ownRaw[i], s.declaring(out[slot]), t)
			continue
		}
		out = append(out, m)
	}
	return out
}

func sameAssembly(a, b *TypeData) bool {
	aa, ba := a.Assembly(), b.Assembly()
	return aa != nil && ba != nil && aa.path == ba.path
}

func (t *TypeData) degraded(kind string, err error) {
	t.reg.log.Debug("member list degraded to empty",
		zap.String("type", t.path), zap.String("kind", kind), zap.Error(err))
}

func fieldSet() memberSet[raw.Field, *FieldData] {
	return memberSet[raw.Field, *FieldData]{
		kind:     "fields",
		declared: func(t raw.Type) ([]raw.Field, error) { return t.Fields() },
		skip:     func(f raw.Field) bool { return f.Special() },
		inherited: func(base *TypeData) []*FieldData {
			return base.Fields()
		},
		build:     newFieldData,
		key:       func(f *FieldData) string { return f.name },
		modifier:  func(f *FieldData) Modifier { return f.modifier },
		declaring: func(f *FieldData) *TypeData { return f.declaring },
	}
}

func propertySet() memberSet[raw.Property, *PropertyData] {
	return memberSet[raw.Property, *PropertyData]{
		kind:     "properties",
		declared: func(t raw.Type) ([]raw.Property, error) { return t.Properties() },
		inherited: func(base *TypeData) []*PropertyData {
			return base.Properties()
		},
		build:     newPropertyData,
		key:       func(p *PropertyData) string { return p.name },
		modifier:  func(p *PropertyData) Modifier { return p.modifier },
		declaring: func(p *PropertyData) *TypeData { return p.declaring },
	}
}

func methodSet() memberSet[raw.Method, *MethodData] {
	return memberSet[raw.Method, *MethodData]{
		kind:     "methods",
		declared: func(t raw.Type) ([]raw.Method, error) { return t.Methods() },
		skip:     func(m raw.Method) bool { return m.Special() || m.Constructor() },
		inherited: func(base *TypeData) []*MethodData {
			return base.Methods()
		},
		build: func(m raw.Method, declaring, reflected *TypeData) *MethodData {
			return newMethodData(declaring.reg, m, declaring, reflected)
		},
		key:       func(m *MethodData) string { return m.key },
		modifier:  func(m *MethodData) Modifier { return m.modifier },
		declaring: func(m *MethodData) *TypeData { return m.declaring },
	}
}

// declaredConstructors lists t's own constructors. They are never merged.
func declaredConstructors(t *TypeData) (out []*ConstructorData) {
	defer func() {
		if r := recover(); r != nil {
			t.degraded("constructors", fmt.Errorf("panic: %v", r))
			out = nil
		}
	}()

	ctors, err := t.raw.Constructors()
	if err != nil {
		t.degraded("constructors", err)
		return nil
	}
	for _, c := range ctors {
		if !c.Special() {
			out = append(out, newConstructorData(t.reg, c, t))
		}
	}
	return out
}
