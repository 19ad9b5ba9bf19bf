// Package decl is an in-memory metadata source. Types and members are
// declared with a small builder API or loaded from a YAML manifest, and then
// served through the raw descriptor interfaces.
package decl

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// Sentinel errors.
var (
	// ErrUnknownToken indicates a token that was never issued.
	ErrUnknownToken = errors.New("decl: unknown token")

	// ErrArgumentCount indicates an invocation with the wrong arity.
	ErrArgumentCount = errors.New("decl: wrong number of arguments")

	// ErrTypeNotFound indicates an unresolvable type reference.
	ErrTypeNotFound = errors.New("decl: type not found")

	// ErrMemberNotFound indicates an unresolvable member reference.
	ErrMemberNotFound = errors.New("decl: member not found")
)

// Token table prefixes.
const (
	tokenType   uint32 = 0x02000000
	tokenField  uint32 = 0x04000000
	tokenMethod uint32 = 0x06000000
	tokenString uint32 = 0x70000000
)

// Assembly declares types and resolves the tokens used in method bodies.
type Assembly struct {
	name    string
	version string
	culture string
	keyTok  string
	attrs   []any

	mu      sync.RWMutex
	types   []*Type
	byName  map[string]*Type
	tokens  map[uint32]any
	next    map[uint32]uint32
	issued  map[any]uint32
	strings map[string]uint32
}

// AssemblyOption configures an Assembly.
type AssemblyOption func(*Assembly)

// Culture sets the assembly culture. The default is "neutral".
func Culture(c string) AssemblyOption { return func(a *Assembly) { a.culture = c } }

// PublicKeyToken sets the public key token. The default is "null".
func PublicKeyToken(t string) AssemblyOption { return func(a *Assembly) { a.keyTok = t } }

// AssemblyAttributes attaches assembly-level attributes.
func AssemblyAttributes(attrs ...any) AssemblyOption {
	return func(a *Assembly) { a.attrs = append(a.attrs, attrs...) }
}

// NewAssembly creates an empty assembly.
func NewAssembly(name, version string, opts ...AssemblyOption) *Assembly {
	a := &Assembly{
		name:    name,
		version: version,
		culture: "neutral",
		keyTok:  "null",
		byName:  make(map[string]*Type),
		tokens:  make(map[uint32]any),
		next:    make(map[uint32]uint32),
		issued:  make(map[any]uint32),
		strings: make(map[string]uint32),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembly) Name() string { return a.name }

func (a *Assembly) FullName() string {
	return fmt.Sprintf("%s, Version=%s, Culture=%s, PublicKeyToken=%s", a.name, a.version, a.culture, a.keyTok)
}

func (a *Assembly) Attributes() ([]any, error) { return a.attrs, nil }

// Types returns the declared types in declaration order. Constructed generic
// types are not listed.
func (a *Assembly) Types() ([]raw.Type, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]raw.Type, len(a.types))
	for i, t := range a.types {
		out[i] = t
	}
	return out, nil
}

// Lookup returns the type with the given full name.
func (a *Assembly) Lookup(fullName string) (*Type, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.byName[fullName]
	return t, ok
}

// Class declares a class. Classes extend System.Object unless Extends says
// otherwise.
func (a *Assembly) Class(fullName string, opts ...Option) *Type {
	return a.declare(fullName, raw.KindClass, opts)
}

// Interface declares an interface. Interfaces are abstract roots.
func (a *Assembly) Interface(fullName string, opts ...Option) *Type {
	return a.declare(fullName, raw.KindInterface, append([]Option{Abstract()}, opts...))
}

// Struct declares a value type.
func (a *Assembly) Struct(fullName string, opts ...Option) *Type {
	return a.declare(fullName, raw.KindStruct, append([]Option{Sealed()}, opts...))
}

// Enum declares an enumeration.
func (a *Assembly) Enum(fullName string, opts ...Option) *Type {
	return a.declare(fullName, raw.KindEnum, append([]Option{Sealed()}, opts...))
}

// Primitive declares a primitive value type.
func (a *Assembly) Primitive(fullName string, opts ...Option) *Type {
	return a.declare(fullName, raw.KindPrimitive, append([]Option{Sealed()}, opts...))
}

func (a *Assembly) declare(fullName string, kind raw.Kind, opts []Option) *Type {
	o := apply(opts)
	t := newType(a, fullName, kind, o)

	a.mu.Lock()
	a.types = append(a.types, t)
	a.byName[t.FullName()] = t
	a.mu.Unlock()
	return t
}

// Token returns the metadata token of a *Type, *Field or *Method declared in
// any assembly, or of a string literal. Tokens are issued on first request.
func (a *Assembly) Token(v any) uint32 {
	var key any = v
	var table uint32
	switch x := v.(type) {
	case *Type:
		table = tokenType
	case *Field:
		table = tokenField
	case *Method:
		table = tokenMethod
	case string:
		table = tokenString
		key = "str:" + x
	default:
		panic(fmt.Sprintf("decl: cannot issue a token for %T", v))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if tok, ok := a.issued[key]; ok {
		return tok
	}
	a.next[table]++
	tok := table | a.next[table]
	a.issued[key] = tok
	a.tokens[tok] = v
	return tok
}

func (a *Assembly) resolve(token uint32) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w 0x%08x", ErrUnknownToken, token)
	}
	return v, nil
}

func (a *Assembly) ResolveMethod(token uint32) (raw.Method, error) {
	v, err := a.resolve(token)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Method)
	if !ok {
		return nil, fmt.Errorf("%w 0x%08x: not a method", ErrUnknownToken, token)
	}
	return m, nil
}

func (a *Assembly) ResolveField(token uint32) (raw.Field, error) {
	v, err := a.resolve(token)
	if err != nil {
		return nil, err
	}
	f, ok := v.(*Field)
	if !ok {
		return nil, fmt.Errorf("%w 0x%08x: not a field", ErrUnknownToken, token)
	}
	return f, nil
}

func (a *Assembly) ResolveType(token uint32) (raw.Type, error) {
	v, err := a.resolve(token)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Type)
	if !ok {
		return nil, fmt.Errorf("%w 0x%08x: not a type", ErrUnknownToken, token)
	}
	return t, nil
}

func (a *Assembly) ResolveString(token uint32) (string, error) {
	v, err := a.resolve(token)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w 0x%08x: not a string", ErrUnknownToken, token)
	}
	return s, nil
}

// ResolveSignature always fails; standalone signatures are not modelled.
func (a *Assembly) ResolveSignature(token uint32) ([]byte, error) {
	return nil, fmt.Errorf("%w 0x%08x: signatures are not supported", ErrUnknownToken, token)
}

func splitName(fullName string) (namespace, name string) {
	i := strings.LastIndexByte(fullName, '.')
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}
