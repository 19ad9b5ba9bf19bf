package meta

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/skdltmxn/typemeta/il"
	"github.com/skdltmxn/typemeta/raw"
)

// Instructions decodes the method body in program order. Operands that are
// methods, constructors, fields or types are registry nodes; tokens the
// source cannot resolve leave a nil operand. Decoded bodies are kept in a
// bounded cache shared by the registry; callers must not modify the slice.
func (m *MethodBaseData) Instructions() ([]il.Instruction, error) {
	body, ok := m.raw.(raw.Body)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, m.path)
	}

	key := m.path + "|" + pathOf(m.reflected)
	if insts, ok := m.reg.bodies.Get(key); ok {
		return insts, nil
	}

	code, mod, err := body.Body()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoBody, m.path, err)
	}
	insts, err := il.Decode(code, &resolver{reg: m.reg, mod: mod},
		il.OnResolveError(func(offset int, token uint32, err error) {
			m.reg.log.Debug("operand unresolved",
				zap.String("method", m.path),
				zap.Int("offset", offset),
				zap.Uint32("token", token),
				zap.Error(err))
		}))
	if err != nil {
		return insts, fmt.Errorf("meta: %s: %w", m.path, err)
	}
	m.reg.bodies.Add(key, insts)
	return insts, nil
}

// Calls returns the methods and constructors the body calls, in program
// order. A body that cannot be decoded yields what was decoded before the
// failure.
func (m *MethodBaseData) Calls() []Invocable {
	insts, err := m.Instructions()
	if err != nil {
		m.reg.log.Debug("calls incomplete", zap.String("method", m.path), zap.Error(err))
	}
	var out []Invocable
	for _, inst := range insts {
		if c, ok := inst.Operand.(Invocable); ok {
			out = append(out, c)
		}
	}
	return out
}

// resolver maps the tokens of a source module onto registry nodes.
type resolver struct {
	reg *Registry
	mod raw.Module
}

func (r *resolver) ResolveMethod(token uint32) (any, error) {
	if r.mod == nil {
		return nil, errNoModule
	}
	rm, err := r.mod.ResolveMethod(token)
	if err != nil {
		return nil, err
	}
	return r.reg.invocable(rm), nil
}

func (r *resolver) ResolveField(token uint32) (any, error) {
	if r.mod == nil {
		return nil, errNoModule
	}
	rf, err := r.mod.ResolveField(token)
	if err != nil {
		return nil, err
	}
	if f := r.reg.field(rf); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("meta: field %s has no declaring type", rf.Name())
}

func (r *resolver) ResolveType(token uint32) (any, error) {
	if r.mod == nil {
		return nil, errNoModule
	}
	rt, err := r.mod.ResolveType(token)
	if err != nil {
		return nil, err
	}
	return r.reg.Type(rt), nil
}

func (r *resolver) ResolveString(token uint32) (string, error) {
	if r.mod == nil {
		return "", errNoModule
	}
	return r.mod.ResolveString(token)
}

func (r *resolver) ResolveSignature(token uint32) ([]byte, error) {
	if r.mod == nil {
		return nil, errNoModule
	}
	return r.mod.ResolveSignature(token)
}

var errNoModule = errors.New("meta: body has no module")

// invocable finds the node of a method or constructor in its declaring
// type's lists. Methods those lists do not hold, such as accessors, get a
// standalone node.
func (r *Registry) invocable(rm raw.Method) Invocable {
	if rm.Constructor() {
		declaring := r.Type(rm.DeclaringType())
		if declaring != nil {
			for _, c := range declaring.Constructors() {
				if c.raw == rm {
					return c
				}
			}
		}
		return newConstructorData(r, rm, declaring)
	}
	return r.method(rm)
}

func (r *Registry) method(rm raw.Method) *MethodData {
	declaring := r.Type(rm.DeclaringType())
	if declaring != nil {
		for _, m := range declaring.Methods() {
			if m.raw == rm {
				return m
			}
		}
	}
	return newMethodData(r, rm, declaring, declaring)
}

func (r *Registry) field(rf raw.Field) *FieldData {
	declaring := r.Type(rf.DeclaringType())
	if declaring == nil {
		return nil
	}
	for _, f := range declaring.Fields() {
		if f.raw == rf {
			return f
		}
	}
	return newFieldData(rf, declaring, declaring)
}
