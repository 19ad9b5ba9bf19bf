// Package il decodes method bodies into instruction sequences.
package il

import "fmt"

// OperandKind describes how an opcode's operand is encoded.
type OperandKind uint8

const (
	InlineNone OperandKind = iota
	ShortInlineVar
	InlineVar
	ShortInlineI
	InlineI
	InlineI8
	ShortInlineR
	InlineR
	ShortInlineBrTarget
	InlineBrTarget
	InlineSwitch
	InlineMethod
	InlineField
	InlineType
	InlineTok
	InlineString
	InlineSig
)

func (k OperandKind) String() string {
	switch k {
	case InlineNone:
		return "none"
	case ShortInlineVar:
		return "short_var"
	case InlineVar:
		return "var"
	case ShortInlineI:
		return "short_i"
	case InlineI:
		return "i"
	case InlineI8:
		return "i8"
	case ShortInlineR:
		return "short_r"
	case InlineR:
		return "r"
	case ShortInlineBrTarget:
		return "short_br"
	case InlineBrTarget:
		return "br"
	case InlineSwitch:
		return "switch"
	case InlineMethod:
		return "method"
	case InlineField:
		return "field"
	case InlineType:
		return "type"
	case InlineTok:
		return "tok"
	case InlineString:
		return "string"
	case InlineSig:
		return "sig"
	default:
		return "unknown"
	}
}

// IsToken reports whether the operand is a metadata token.
func (k OperandKind) IsToken() bool {
	switch k {
	case InlineMethod, InlineField, InlineType, InlineTok, InlineString, InlineSig:
		return true
	}
	return false
}

// prefix introduces a two-byte opcode.
const prefix = 0xFE

// OpCode identifies one operation.
type OpCode struct {
	Name    string
	Value   uint16
	Operand OperandKind
}

func (o OpCode) String() string { return o.Name }

// Size returns the encoded size of the opcode itself.
func (o OpCode) Size() int {
	if o.Value>>8 == prefix {
		return 2
	}
	return 1
}

// Table maps encoded opcode values to OpCodes.
type Table struct {
	single [256]*OpCode
	double [256]*OpCode
}

// NewTable builds a table from the given opcodes. Values of the form 0xFExx
// are two-byte opcodes.
func NewTable(codes ...OpCode) *Table {
	t := &Table{}
	for i := range codes {
		op := codes[i]
		if op.Value>>8 == prefix {
			t.double[op.Value&0xFF] = &op
		} else {
			t.single[op.Value&0xFF] = &op
		}
	}
	return t
}

// Lookup returns the opcode registered for value.
func (t *Table) Lookup(value uint16) (OpCode, bool) {
	var op *OpCode
	if value>>8 == prefix {
		op = t.double[value&0xFF]
	} else if value <= 0xFF {
		op = t.single[value]
	}
	if op == nil {
		return OpCode{}, false
	}
	return *op, true
}

// ByName returns the opcode with the given mnemonic.
func (t *Table) ByName(name string) (OpCode, bool) {
	for _, set := range [][256]*OpCode{t.single, t.double} {
		for _, op := range set {
			if op != nil && op.Name == name {
				return *op, true
			}
		}
	}
	return OpCode{}, false
}

// MustOp is ByName for opcodes known to exist.
func (t *Table) MustOp(name string) OpCode {
	op, ok := t.ByName(name)
	if !ok {
		panic(fmt.Sprintf("il: unknown opcode %q", name))
	}
	return op
}

func ops(kind OperandKind, first uint16, names ...string) []OpCode {
	out := make([]OpCode, len(names))
	for i, n := range names {
		out[i] = OpCode{Name: n, Value: first + uint16(i), Operand: kind}
	}
	return out
}

func concat(groups ...[]OpCode) []OpCode {
	var out []OpCode
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultTable holds the CIL instruction set.
var DefaultTable = NewTable(concat(
	ops(InlineNone, 0x00, "nop", "break",
		"ldarg.0", "ldarg.1", "ldarg.2", "ldarg.3",
		"ldloc.0", "ldloc.1", "ldloc.2", "ldloc.3",
		"stloc.0", "stloc.1", "stloc.2", "stloc.3"),
	ops(ShortInlineVar, 0x0E, "ldarg.s", "ldarga.s", "starg.s", "ldloc.s", "ldloca.s", "stloc.s"),
	ops(InlineNone, 0x14, "ldnull", "ldc.i4.m1",
		"ldc.i4.0", "ldc.i4.1", "ldc.i4.2", "ldc.i4.3", "ldc.i4.4",
		"ldc.i4.5", "ldc.i4.6", "ldc.i4.7", "ldc.i4.8"),
	ops(ShortInlineI, 0x1F, "ldc.i4.s"),
	ops(InlineI, 0x20, "ldc.i4"),
	ops(InlineI8, 0x21, "ldc.i8"),
	ops(ShortInlineR, 0x22, "ldc.r4"),
	ops(InlineR, 0x23, "ldc.r8"),
	ops(InlineNone, 0x25, "dup", "pop"),
	ops(InlineMethod, 0x27, "jmp", "call"),
	ops(InlineSig, 0x29, "calli"),
	ops(InlineNone, 0x2A, "ret"),
	ops(ShortInlineBrTarget, 0x2B, "br.s", "brfalse.s", "brtrue.s",
		"beq.s", "bge.s", "bgt.s", "ble.s", "blt.s",
		"bne.un.s", "bge.un.s", "bgt.un.s", "ble.un.s", "blt.un.s"),
	ops(InlineBrTarget, 0x38, "br", "brfalse", "brtrue",
		"beq", "bge", "bgt", "ble", "blt",
		"bne.un", "bge.un", "bgt.un", "ble.un", "blt.un"),
	ops(InlineSwitch, 0x45, "switch"),
	ops(InlineNone, 0x46, "ldind.i1", "ldind.u1", "ldind.i2", "ldind.u2",
		"ldind.i4", "ldind.u4", "ldind.i8", "ldind.i", "ldind.r4", "ldind.r8",
		"ldind.ref", "stind.ref", "stind.i1", "stind.i2", "stind.i4",
		"stind.i8", "stind.r4", "stind.r8",
		"add", "sub", "mul", "div", "div.un", "rem", "rem.un",
		"and", "or", "xor", "shl", "shr", "shr.un", "neg", "not",
		"conv.i1", "conv.i2", "conv.i4", "conv.i8", "conv.r4", "conv.r8",
		"conv.u4", "conv.u8"),
	ops(InlineMethod, 0x6F, "callvirt"),
	ops(InlineType, 0x70, "cpobj", "ldobj"),
	ops(InlineString, 0x72, "ldstr"),
	ops(InlineMethod, 0x73, "newobj"),
	ops(InlineType, 0x74, "castclass", "isinst"),
	ops(InlineNone, 0x76, "conv.r.un"),
	ops(InlineType, 0x79, "unbox"),
	ops(InlineNone, 0x7A, "throw"),
	ops(InlineField, 0x7B, "ldfld", "ldflda", "stfld", "ldsfld", "ldsflda", "stsfld"),
	ops(InlineType, 0x81, "stobj"),
	ops(InlineType, 0x8C, "box", "newarr"),
	ops(InlineNone, 0x8E, "ldlen"),
	ops(InlineType, 0x8F, "ldelema"),
	ops(InlineNone, 0x90, "ldelem.i1", "ldelem.u1", "ldelem.i2", "ldelem.u2",
		"ldelem.i4", "ldelem.u4", "ldelem.i8", "ldelem.i", "ldelem.r4",
		"ldelem.r8", "ldelem.ref", "stelem.i", "stelem.i1", "stelem.i2",
		"stelem.i4", "stelem.i8", "stelem.r4", "stelem.r8", "stelem.ref"),
	ops(InlineType, 0xA3, "ldelem", "stelem", "unbox.any"),
	ops(InlineType, 0xC2, "refanyval"),
	ops(InlineNone, 0xC3, "ckfinite"),
	ops(InlineType, 0xC6, "mkrefany"),
	ops(InlineTok, 0xD0, "ldtoken"),
	ops(InlineNone, 0xD1, "conv.u2", "conv.u1", "conv.i", "conv.ovf.i"),
	ops(InlineNone, 0xDC, "endfinally"),
	ops(InlineBrTarget, 0xDD, "leave"),
	ops(ShortInlineBrTarget, 0xDE, "leave.s"),
	ops(InlineNone, 0xDF, "stind.i", "conv.u"),
	ops(InlineNone, 0xFE00, "arglist", "ceq", "cgt", "cgt.un", "clt", "clt.un"),
	ops(InlineMethod, 0xFE06, "ldftn", "ldvirtftn"),
	ops(InlineVar, 0xFE09, "ldarg", "ldarga", "starg", "ldloc", "ldloca", "stloc"),
	ops(InlineNone, 0xFE0F, "localloc"),
	ops(InlineNone, 0xFE11, "endfilter"),
	ops(ShortInlineI, 0xFE12, "unaligned."),
	ops(InlineNone, 0xFE13, "volatile.", "tail."),
	ops(InlineType, 0xFE15, "initobj", "constrained."),
	ops(InlineNone, 0xFE17, "cpblk", "initblk"),
	ops(InlineNone, 0xFE1A, "rethrow"),
	ops(InlineType, 0xFE1C, "sizeof"),
	ops(InlineNone, 0xFE1D, "refanytype", "readonly."),
)...)
