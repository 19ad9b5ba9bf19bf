package decl

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/typemeta/il"
	"github.com/skdltmxn/typemeta/raw"
)

// Manifest is the YAML form of an assembly.
type Manifest struct {
	Assembly AssemblySpec `yaml:"assembly"`
	Types    []TypeSpec   `yaml:"types"`
}

// AssemblySpec identifies the assembly.
type AssemblySpec struct {
	Name           string            `yaml:"name"`
	Version        string            `yaml:"version"`
	Culture        string            `yaml:"culture"`
	PublicKeyToken string            `yaml:"publicKeyToken"`
	Attributes     map[string]string `yaml:"attributes"`
}

// TypeSpec declares a type. Kind is one of class (default), interface,
// struct, enum.
type TypeSpec struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`
	Access       string            `yaml:"access"`
	Abstract     bool              `yaml:"abstract"`
	Sealed       bool              `yaml:"sealed"`
	Static       bool              `yaml:"static"`
	Base         string            `yaml:"base"`
	Interfaces   []string          `yaml:"interfaces"`
	NestedIn     string            `yaml:"nestedIn"`
	TypeParams   []string          `yaml:"typeParams"`
	Doc          string            `yaml:"doc"`
	Attributes   map[string]string `yaml:"attributes"`
	Fields       []FieldSpec       `yaml:"fields"`
	Properties   []PropertySpec    `yaml:"properties"`
	Methods      []MethodSpec      `yaml:"methods"`
	Constructors []MethodSpec      `yaml:"constructors"`
}

// FieldSpec declares a field.
type FieldSpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Access     string            `yaml:"access"`
	Static     bool              `yaml:"static"`
	Doc        string            `yaml:"doc"`
	Attributes map[string]string `yaml:"attributes"`
}

// PropertySpec declares a property. Get and Set take an access level or
// "none" to omit the accessor.
type PropertySpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Access     string            `yaml:"access"`
	Get        string            `yaml:"get"`
	Set        string            `yaml:"set"`
	Static     bool              `yaml:"static"`
	Abstract   bool              `yaml:"abstract"`
	Attributes map[string]string `yaml:"attributes"`
}

// MethodSpec declares a method or constructor. Body lists instructions as
// "opcode operand" lines.
type MethodSpec struct {
	Name       string            `yaml:"name"`
	Returns    string            `yaml:"returns"`
	Access     string            `yaml:"access"`
	Static     bool              `yaml:"static"`
	Abstract   bool              `yaml:"abstract"`
	TypeParams []string          `yaml:"typeParams"`
	Params     []ParamSpec       `yaml:"params"`
	Body       []string          `yaml:"body"`
	Doc        string            `yaml:"doc"`
	Attributes map[string]string `yaml:"attributes"`
}

// ParamSpec declares a parameter.
type ParamSpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Out        bool              `yaml:"out"`
	Optional   bool              `yaml:"optional"`
	Attributes map[string]string `yaml:"attributes"`
}

// LoadManifestFile reads a manifest from path.
func LoadManifestFile(path string, refs ...*Assembly) (*Assembly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decl: failed to open manifest: %w", err)
	}
	defer f.Close()
	return LoadManifest(f, refs...)
}

// LoadManifest decodes a manifest and declares its assembly. Type references
// resolve against the manifest itself, then refs, then Core.
func LoadManifest(r io.Reader, refs ...*Assembly) (*Assembly, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decl: failed to decode manifest: %w", err)
	}
	return m.Build(refs...)
}

// Build declares the manifest's assembly.
func (m *Manifest) Build(refs ...*Assembly) (*Assembly, error) {
	if m.Assembly.Name == "" {
		return nil, fmt.Errorf("decl: manifest has no assembly name")
	}
	version := m.Assembly.Version
	if version == "" {
		version = "0.0.0.0"
	}
	opts := []AssemblyOption{AssemblyAttributes(tags(m.Assembly.Attributes)...)}
	if m.Assembly.Culture != "" {
		opts = append(opts, Culture(m.Assembly.Culture))
	}
	if m.Assembly.PublicKeyToken != "" {
		opts = append(opts, PublicKeyToken(m.Assembly.PublicKeyToken))
	}
	b := &builder{asm: NewAssembly(m.Assembly.Name, version, opts...), refs: refs}

	declared := make([]*Type, len(m.Types))
	for i, ts := range m.Types {
		t, err := b.declareType(ts)
		if err != nil {
			return nil, err
		}
		declared[i] = t
	}
	for i, ts := range m.Types {
		if err := b.linkType(declared[i], ts); err != nil {
			return nil, err
		}
	}
	bodies := make(map[*Method][]string)
	for i, ts := range m.Types {
		if err := b.declareMembers(declared[i], ts, bodies); err != nil {
			return nil, err
		}
	}
	for i, ts := range m.Types {
		if err := b.assembleBodies(declared[i], ts, bodies); err != nil {
			return nil, err
		}
	}
	return b.asm, nil
}

type builder struct {
	asm  *Assembly
	refs []*Assembly
}

func (b *builder) declareType(ts TypeSpec) (*Type, error) {
	access, err := ParseAccess(ts.Access)
	if err != nil {
		return nil, fmt.Errorf("decl: type %s: %w", ts.Name, err)
	}
	opts := []Option{
		Access(access),
		Attributes(tags(ts.Attributes)...),
		Doc(ts.Doc),
		TypeParams(ts.TypeParams...),
	}
	if ts.Abstract {
		opts = append(opts, Abstract())
	}
	if ts.Sealed {
		opts = append(opts, Sealed())
	}
	if ts.Static {
		opts = append(opts, Static())
	}
	if ts.NestedIn != "" {
		outer, ok := b.asm.Lookup(ts.NestedIn)
		if !ok {
			return nil, fmt.Errorf("%w: %s (outer type of %s must be declared first)", ErrTypeNotFound, ts.NestedIn, ts.Name)
		}
		opts = append(opts, NestedIn(outer))
	}

	switch strings.ToLower(ts.Kind) {
	case "", "class":
		return b.asm.Class(ts.Name, opts...), nil
	case "interface":
		return b.asm.Interface(ts.Name, opts...), nil
	case "struct":
		return b.asm.Struct(ts.Name, opts...), nil
	case "enum":
		return b.asm.Enum(ts.Name, opts...), nil
	default:
		return nil, fmt.Errorf("decl: type %s: unknown kind %q", ts.Name, ts.Kind)
	}
}

func (b *builder) linkType(t *Type, ts TypeSpec) error {
	if ts.Base != "" {
		base, err := b.lookup(ts.Base, t, nil)
		if err != nil {
			return err
		}
		t.SetBase(base)
	}
	for _, name := range ts.Interfaces {
		iface, err := b.lookup(name, t, nil)
		if err != nil {
			return err
		}
		t.AddInterfaces(iface)
	}
	return nil
}

func (b *builder) declareMembers(t *Type, ts TypeSpec, bodies map[*Method][]string) error {
	for _, fs := range ts.Fields {
		typ, err := b.lookup(fs.Type, t, nil)
		if err != nil {
			return err
		}
		access, err := ParseAccess(fs.Access)
		if err != nil {
			return fmt.Errorf("decl: field %s.%s: %w", ts.Name, fs.Name, err)
		}
		opts := []Option{Access(access), Doc(fs.Doc), Attributes(tags(fs.Attributes)...)}
		if fs.Static {
			opts = append(opts, Static())
		}
		t.Field(fs.Name, typ, opts...)
	}

	for _, ps := range ts.Properties {
		if err := b.declareProperty(t, ts.Name, ps); err != nil {
			return err
		}
	}

	for _, ms := range ts.Methods {
		m, err := b.declareMethod(t, ms, false)
		if err != nil {
			return err
		}
		bodies[m] = ms.Body
	}
	for _, ms := range ts.Constructors {
		m, err := b.declareMethod(t, ms, true)
		if err != nil {
			return err
		}
		bodies[m] = ms.Body
	}
	return nil
}

func (b *builder) declareProperty(t *Type, owner string, ps PropertySpec) error {
	typ, err := b.lookup(ps.Type, t, nil)
	if err != nil {
		return err
	}
	access, err := ParseAccess(ps.Access)
	if err != nil {
		return fmt.Errorf("decl: property %s.%s: %w", owner, ps.Name, err)
	}
	opts := []Option{Access(access), Attributes(tags(ps.Attributes)...)}
	if ps.Static {
		opts = append(opts, Static())
	}
	if ps.Abstract {
		opts = append(opts, Abstract())
	}
	for _, acc := range []struct {
		spec string
		omit Option
		set  func(raw.Access) Option
	}{
		{ps.Get, WriteOnly(), GetterAccess},
		{ps.Set, ReadOnly(), SetterAccess},
	} {
		switch acc.spec {
		case "":
		case "none":
			opts = append(opts, acc.omit)
		default:
			a, err := ParseAccess(acc.spec)
			if err != nil {
				return fmt.Errorf("decl: property %s.%s: %w", owner, ps.Name, err)
			}
			opts = append(opts, acc.set(a))
		}
	}
	t.Property(ps.Name, typ, opts...)
	return nil
}

func (b *builder) declareMethod(t *Type, ms MethodSpec, ctor bool) (*Method, error) {
	access, err := ParseAccess(ms.Access)
	if err != nil {
		return nil, fmt.Errorf("decl: method %s.%s: %w", t.FullName(), ms.Name, err)
	}
	opts := []Option{Access(access), Doc(ms.Doc), Attributes(tags(ms.Attributes)...), TypeParams(ms.TypeParams...)}
	if ms.Static {
		opts = append(opts, Static())
	}
	if ms.Abstract {
		opts = append(opts, Abstract())
	}

	var m *Method
	if ctor {
		m = t.Constructor(opts...)
	} else {
		m = t.Method(ms.Name, nil, opts...)
		if ms.Returns != "" && ms.Returns != "void" {
			ret, err := b.lookup(ms.Returns, t, m)
			if err != nil {
				return nil, err
			}
			m.ret = ret
		}
	}
	for _, ps := range ms.Params {
		typ, err := b.lookup(ps.Type, t, m)
		if err != nil {
			return nil, err
		}
		popts := []Option{Attributes(tags(ps.Attributes)...)}
		if ps.Out {
			popts = append(popts, Out())
		}
		if ps.Optional {
			popts = append(popts, Optional())
		}
		m.Param(ps.Name, typ, popts...)
	}
	return m, nil
}

// lookup resolves a type reference: generic parameters of m and t first,
// then the manifest's assembly, refs and Core.
func (b *builder) lookup(name string, t *Type, m *Method) (*Type, error) {
	if m != nil {
		for _, p := range m.typeParams {
			if p.name == name {
				return p, nil
			}
		}
	}
	if t != nil {
		for _, p := range t.params {
			if p.name == name {
				return p, nil
			}
		}
	}
	for _, a := range slices.Concat([]*Assembly{b.asm}, b.refs, []*Assembly{Core}) {
		if typ, ok := a.Lookup(name); ok {
			return typ, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
}

func (b *builder) assembleBodies(t *Type, ts TypeSpec, bodies map[*Method][]string) error {
	t.mu.RLock()
	methods := append(slices.Clone(t.methods), t.ctors...)
	t.mu.RUnlock()
	for _, m := range methods {
		lines := bodies[m]
		if len(lines) == 0 {
			continue
		}
		code, err := b.assemble(lines)
		if err != nil {
			return fmt.Errorf("decl: body of %s.%s: %w", ts.Name, m.name, err)
		}
		m.body = code
	}
	return nil
}

// assemble encodes "opcode operand" lines. Member operands are written as
// Namespace.Type.Member or Namespace.Type.Method(ParamType,...), with ctor
// naming constructors.
func (b *builder) assemble(lines []string) ([]byte, error) {
	ib := il.NewBuilder(nil)
	for _, line := range lines {
		name, operand, _ := strings.Cut(strings.TrimSpace(line), " ")
		operand = strings.TrimSpace(operand)
		op, ok := ib.Table().ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w %q", il.ErrUnknownOpcode, name)
		}
		if err := b.emit(ib, op, operand); err != nil {
			return nil, fmt.Errorf("%s: %w", line, err)
		}
	}
	return ib.Bytes(), nil
}

func (b *builder) emit(ib *il.Builder, op il.OpCode, operand string) error {
	switch op.Operand {
	case il.InlineNone:
		ib.Op(op.Name)
	case il.ShortInlineVar, il.ShortInlineI, il.ShortInlineBrTarget:
		v, err := strconv.ParseInt(operand, 0, 16)
		if err != nil {
			return err
		}
		ib.S1(op.Name, int8(v))
	case il.InlineVar:
		v, err := strconv.ParseUint(operand, 0, 16)
		if err != nil {
			return err
		}
		ib.Var(op.Name, uint16(v))
	case il.InlineI, il.InlineBrTarget:
		v, err := strconv.ParseInt(operand, 0, 32)
		if err != nil {
			return err
		}
		ib.I4(op.Name, int32(v))
	case il.InlineI8:
		v, err := strconv.ParseInt(operand, 0, 64)
		if err != nil {
			return err
		}
		ib.I8(op.Name, v)
	case il.ShortInlineR:
		v, err := strconv.ParseFloat(operand, 32)
		if err != nil {
			return err
		}
		ib.R4(op.Name, float32(v))
	case il.InlineR:
		v, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return err
		}
		ib.R8(op.Name, v)
	case il.InlineSwitch:
		var rel []int32
		for _, part := range strings.Split(operand, ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(part), 0, 32)
			if err != nil {
				return err
			}
			rel = append(rel, int32(v))
		}
		ib.Switch(rel...)
	case il.InlineString:
		s, err := strconv.Unquote(operand)
		if err != nil {
			s = operand
		}
		ib.Token(op.Name, b.asm.Token(s))
	case il.InlineType:
		t, err := b.lookup(operand, nil, nil)
		if err != nil {
			return err
		}
		ib.Token(op.Name, b.asm.Token(t))
	case il.InlineMethod:
		m, err := b.method(operand)
		if err != nil {
			return err
		}
		ib.Token(op.Name, b.asm.Token(m))
	case il.InlineField:
		f, err := b.field(operand)
		if err != nil {
			return err
		}
		ib.Token(op.Name, b.asm.Token(f))
	case il.InlineTok:
		if t, err := b.lookup(operand, nil, nil); err == nil {
			ib.Token(op.Name, b.asm.Token(t))
		} else if m, err := b.method(operand); err == nil {
			ib.Token(op.Name, b.asm.Token(m))
		} else if f, err := b.field(operand); err == nil {
			ib.Token(op.Name, b.asm.Token(f))
		} else {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, operand)
		}
	default:
		return fmt.Errorf("decl: operand kind %s is not supported in manifests", op.Operand)
	}
	return nil
}

func (b *builder) splitMember(ref string) (*Type, string, []string, bool, error) {
	head, params, hasParams := strings.Cut(ref, "(")
	i := strings.LastIndexByte(head, '.')
	if i < 0 {
		return nil, "", nil, false, fmt.Errorf("%w: %s", ErrMemberNotFound, ref)
	}
	t, err := b.lookup(head[:i], nil, nil)
	if err != nil {
		return nil, "", nil, false, err
	}
	var ps []string
	if hasParams {
		params = strings.TrimSuffix(params, ")")
		for _, p := range strings.Split(params, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ps = append(ps, p)
			}
		}
	}
	return t, head[i+1:], ps, hasParams, nil
}

func (b *builder) method(ref string) (*Method, error) {
	t, name, params, exact, err := b.splitMember(ref)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	candidates := t.methods
	if name == "ctor" {
		candidates = t.ctors
	}
	for _, m := range candidates {
		if name != "ctor" && m.name != name {
			continue
		}
		if !exact || sameParams(m, params) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, ref)
}

func sameParams(m *Method, names []string) bool {
	if len(m.params) != len(names) {
		return false
	}
	for i, p := range m.params {
		if typeRef(p.typ) != names[i] {
			return false
		}
	}
	return true
}

func (b *builder) field(ref string) (*Field, error) {
	t, name, _, _, err := b.splitMember(ref)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range t.fields {
		if f.name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, ref)
}

// ParseAccess parses a C#-style accessibility keyword. The empty string is
// public.
func ParseAccess(s string) (raw.Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return raw.AccessPublic, nil
	case "internal":
		return raw.AccessAssembly, nil
	case "protected":
		return raw.AccessFamily, nil
	case "private":
		return raw.AccessPrivate, nil
	case "protected internal":
		return raw.AccessFamilyOrAssembly, nil
	case "private protected":
		return raw.AccessFamilyAndAssembly, nil
	default:
		return 0, fmt.Errorf("decl: unknown access %q", s)
	}
}

// tags converts an attribute map to raw.Tag values sorted by key.
func tags(m map[string]string) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = raw.Tag{Key: k, Value: m[k]}
	}
	return out
}
