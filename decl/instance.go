package decl

import (
	"fmt"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// Instance is an object of a declared class or struct. Fields are stored by
// name.
type Instance struct {
	typ    *Type
	mu     sync.RWMutex
	values map[string]any
}

// NewInstance allocates an instance of t with every field unset.
func NewInstance(t *Type) *Instance {
	return &Instance{typ: t, values: make(map[string]any)}
}

// Type returns the runtime type of the instance.
func (i *Instance) Type() *Type { return i.typ }

// RawType implements raw.Typed.
func (i *Instance) RawType() raw.Type { return i.typ }

// Get returns the stored value of a field, or nil when unset.
func (i *Instance) Get(name string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.values[name]
}

// Set stores a field value without any type check.
func (i *Instance) Set(name string, v any) {
	i.mu.Lock()
	i.values[name] = v
	i.mu.Unlock()
}

func (i *Instance) get(name string, typ *Type) any {
	i.mu.RLock()
	v, ok := i.values[name]
	i.mu.RUnlock()
	if !ok {
		return zeroOf(typ)
	}
	return v
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s@%p", i.typ.FullName(), i)
}

func (t *Type) static(name string, typ *Type) any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.statics[name]; ok {
		return v
	}
	return zeroOf(typ)
}

func (t *Type) setStatic(name string, v any) {
	t.mu.Lock()
	t.statics[name] = v
	t.mu.Unlock()
}

// targetOf checks that instance is an object of declaring or of a type
// derived from it.
func targetOf(instance any, declaring *Type) (*Instance, error) {
	inst, ok := instance.(*Instance)
	if !ok || inst == nil {
		return nil, fmt.Errorf("%w: %T is not an instance of %s", raw.ErrTargetMismatch, instance, declaring.FullName())
	}
	if !inst.typ.AssignableTo(declaring) {
		return nil, fmt.Errorf("%w: %s is not %s", raw.ErrTargetMismatch, inst.typ.FullName(), declaring.FullName())
	}
	return inst, nil
}

// TypeOfValue maps a Go value onto the declared type it represents: Go
// scalars map to the core primitives and *Instance to its own type. It
// returns nil for anything else.
func TypeOfValue(v any) *Type {
	switch x := v.(type) {
	case *Instance:
		return x.typ
	case bool:
		return Boolean
	case int32:
		return Int32
	case int64:
		return Int64
	case float64:
		return Double
	case string:
		return String
	case uint16:
		return Char
	}
	return nil
}

func assignable(v any, to *Type) bool {
	if to == nil || to == Object || to.isParam {
		return true
	}
	if v == nil {
		return to.Nullable()
	}
	vt := TypeOfValue(v)
	if vt == nil {
		return false
	}
	return vt.AssignableTo(to)
}

func zeroOf(t *Type) any {
	switch t {
	case Boolean:
		return false
	case Int32:
		return int32(0)
	case Int64:
		return int64(0)
	case Double:
		return float64(0)
	case Char:
		return uint16(0)
	}
	if t != nil && t.kind == raw.KindEnum {
		return int32(0)
	}
	return nil
}
