package meta

import (
	"fmt"

	"github.com/skdltmxn/typemeta/bitfield"
	"github.com/skdltmxn/typemeta/raw"
)

// ModifierFlags are the accessibility and declaration flags of a type or
// member.
type ModifierFlags uint8

const (
	Public ModifierFlags = 1 << iota
	Internal
	Protected
	Private
	Abstract
	Instance
	Static

	// Family is what a derived type in another assembly can see.
	Family = Public | Protected
	// AssemblyScope is what code in the same assembly can see.
	AssemblyScope = Public | Internal
	// NotPublic matches every accessibility except Public.
	NotPublic = Internal | Protected | Private
	// Declaration matches the declaration kind bits.
	Declaration = Abstract | Instance | Static
)

func (f ModifierFlags) String() string {
	switch f {
	case Public:
		return "public"
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Private:
		return "private"
	case Abstract:
		return "abstract"
	case Instance:
		return "instance"
	case Static:
		return "static"
	default:
		if f&(f-1) == 0 {
			return fmt.Sprintf("modifier(0x%x)", uint8(f))
		}
		return bitfield.Of(f).String()
	}
}

// Modifier is a set of ModifierFlags.
type Modifier = bitfield.BitField[ModifierFlags]

// DefinitionFlags are the definition kind and generic shape of a type.
type DefinitionFlags uint8

const (
	Class DefinitionFlags = 1 << iota
	Interface
	Value
	primitiveBit
	enumBit
	ConstructedGeneric
	GenericDefinition
	GenericParameter

	// Primitive and Enum are refinements of Value.
	Primitive = primitiveBit | Value
	Enum      = enumBit | Value

	// Generic matches open and constructed generic types.
	Generic = ConstructedGeneric | GenericDefinition
)

func (f DefinitionFlags) String() string {
	switch f {
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Value:
		return "value"
	case primitiveBit:
		return "primitive"
	case enumBit:
		return "enum"
	case ConstructedGeneric:
		return "constructed"
	case GenericDefinition:
		return "definition"
	case GenericParameter:
		return "parameter"
	default:
		if f&(f-1) == 0 {
			return fmt.Sprintf("definition(0x%x)", uint8(f))
		}
		return bitfield.Of(f).String()
	}
}

// Definition is a set of DefinitionFlags.
type Definition = bitfield.BitField[DefinitionFlags]

// accessFlags maps a source accessibility onto modifier flags. Only
// protected internal sets two bits; private protected is only visible inside
// its assembly and so counts as Internal.
func accessFlags(a raw.Access) ModifierFlags {
	switch a {
	case raw.AccessPublic:
		return Public
	case raw.AccessFamilyOrAssembly:
		return Protected | Internal
	case raw.AccessFamily:
		return Protected
	case raw.AccessAssembly, raw.AccessFamilyAndAssembly:
		return Internal
	default:
		return Private
	}
}

func typeModifier(t raw.Type) Modifier {
	decl := Instance
	switch {
	case t.Abstract() && t.Sealed():
		decl = Static
	case t.Abstract():
		decl = Abstract
	}
	return bitfield.Of(accessFlags(t.Access()), decl)
}

func fieldModifier(f raw.Field) Modifier {
	decl := Instance
	if f.Static() {
		decl = Static
	}
	return bitfield.Of(accessFlags(f.Access()), decl)
}

func methodModifier(m raw.Method) Modifier {
	decl := Instance
	switch {
	case m.Abstract():
		decl = Abstract
	case m.Static():
		decl = Static
	}
	return bitfield.Of(accessFlags(m.Access()), decl)
}

// propertyModifier is the modifier of the most accessible accessor. A
// property with no accessors is private.
func propertyModifier(p raw.Property) Modifier {
	var best raw.Method
	for _, acc := range []raw.Method{p.Getter(), p.Setter()} {
		if acc != nil && (best == nil || acc.Access() > best.Access()) {
			best = acc
		}
	}
	if best == nil {
		return bitfield.Of(Private, Instance)
	}
	return methodModifier(best)
}

func definitionOf(t raw.Type) Definition {
	var d DefinitionFlags
	switch t.Kind() {
	case raw.KindInterface:
		d = Interface
	case raw.KindStruct:
		d = Value
	case raw.KindPrimitive:
		d = Primitive
	case raw.KindEnum:
		d = Enum
	default:
		d = Class
	}
	switch {
	case t.IsGenericParameter():
		d |= GenericParameter
	case t.IsGenericDefinition():
		d |= GenericDefinition
	case t.GenericDefinition() != nil:
		d |= ConstructedGeneric
	}
	return bitfield.Of(d)
}
