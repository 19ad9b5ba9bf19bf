package il

import (
	"encoding/binary"
	"math"
)

// Builder assembles a method body. It is the inverse of Reader for the
// operand encodings the table knows about.
type Builder struct {
	table *Table
	code  []byte
}

// NewBuilder creates a Builder that encodes against t, or DefaultTable when t
// is nil.
func NewBuilder(t *Table) *Builder {
	if t == nil {
		t = DefaultTable
	}
	return &Builder{table: t}
}

// Bytes returns the assembled body.
func (b *Builder) Bytes() []byte { return b.code }

// Offset returns the offset the next instruction will start at.
func (b *Builder) Offset() int { return len(b.code) }

// Table returns the opcode table the builder encodes against.
func (b *Builder) Table() *Table { return b.table }

func (b *Builder) op(name string) *Builder {
	op := b.table.MustOp(name)
	if op.Size() == 2 {
		b.code = append(b.code, prefix, byte(op.Value))
	} else {
		b.code = append(b.code, byte(op.Value))
	}
	return b
}

// Op emits an instruction without operand.
func (b *Builder) Op(name string) *Builder { return b.op(name) }

// Token emits an instruction with a metadata token operand.
func (b *Builder) Token(name string, token uint32) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint32(b.code, token)
	return b
}

// I4 emits an instruction with a 32-bit integer operand.
func (b *Builder) I4(name string, v int32) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint32(b.code, uint32(v))
	return b
}

// I8 emits an instruction with a 64-bit integer operand.
func (b *Builder) I8(name string, v int64) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint64(b.code, uint64(v))
	return b
}

// R4 emits an instruction with a 32-bit float operand.
func (b *Builder) R4(name string, v float32) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint32(b.code, math.Float32bits(v))
	return b
}

// R8 emits an instruction with a 64-bit float operand.
func (b *Builder) R8(name string, v float64) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint64(b.code, math.Float64bits(v))
	return b
}

// S1 emits an instruction with a one-byte operand.
func (b *Builder) S1(name string, v int8) *Builder {
	b.op(name)
	b.code = append(b.code, byte(v))
	return b
}

// Var emits an instruction with a two-byte variable index.
func (b *Builder) Var(name string, v uint16) *Builder {
	b.op(name)
	b.code = binary.LittleEndian.AppendUint16(b.code, v)
	return b
}

// Switch emits a switch with targets relative to the end of the instruction.
func (b *Builder) Switch(rel ...int32) *Builder {
	b.op("switch")
	b.code = binary.LittleEndian.AppendUint32(b.code, uint32(len(rel)))
	for _, r := range rel {
		b.code = binary.LittleEndian.AppendUint32(b.code, uint32(r))
	}
	return b
}
