package il

import (
	"errors"
	"fmt"
	"iter"

	"github.com/skdltmxn/typemeta/internal/stream"
)

// Sentinel errors for decoding.
var (
	// ErrUnknownOpcode indicates a byte sequence with no table entry.
	ErrUnknownOpcode = errors.New("il: unknown opcode")

	// ErrTruncated indicates the body ends inside an instruction.
	ErrTruncated = errors.New("il: truncated instruction")

	// ErrConsumed indicates the instruction sequence was already iterated.
	ErrConsumed = errors.New("il: instruction sequence already consumed")
)

// DecodeError reports where decoding stopped.
type DecodeError struct {
	Offset int   // Byte offset of the failing instruction
	Err    error // Underlying error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("il: decode error at offset 0x%x: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Resolver turns metadata tokens into operands. Any method may fail; the
// instruction is then reported with a nil operand.
type Resolver interface {
	ResolveMethod(token uint32) (any, error)
	ResolveField(token uint32) (any, error)
	ResolveType(token uint32) (any, error)
	ResolveString(token uint32) (string, error)
	ResolveSignature(token uint32) ([]byte, error)
}

// Instruction is one decoded operation.
//
// Operand holds, by operand kind: int for variables and absolute branch
// targets, []int for switch targets, int8/int32/int64/float32/float64 for
// literals, string for InlineString, []byte for InlineSig and the resolver's
// result for member and type tokens.
type Instruction struct {
	OpCode  OpCode
	Offset  int
	Token   uint32
	Operand any
}

func (i Instruction) String() string {
	if i.Operand == nil {
		return fmt.Sprintf("IL_%04x: %s", i.Offset, i.OpCode.Name)
	}
	return fmt.Sprintf("IL_%04x: %s %v", i.Offset, i.OpCode.Name, i.Operand)
}

// Option configures a Reader.
type Option func(*Reader)

// WithTable decodes against a custom opcode table.
func WithTable(t *Table) Option {
	return func(r *Reader) { r.table = t }
}

// OnResolveError registers a callback for tokens the resolver rejects.
func OnResolveError(fn func(offset int, token uint32, err error)) Option {
	return func(r *Reader) { r.onResolveErr = fn }
}

// Reader decodes a method body once, in program order.
type Reader struct {
	s            *stream.Reader
	table        *Table
	res          Resolver
	onResolveErr func(offset int, token uint32, err error)
	consumed     bool
	err          error
}

// NewReader creates a Reader over code. res may be nil, in which case token
// operands stay nil.
func NewReader(code []byte, res Resolver, opts ...Option) *Reader {
	r := &Reader{
		s:     stream.NewReader(code),
		table: DefaultTable,
		res:   res,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Err returns the error that stopped decoding, if any.
func (r *Reader) Err() error { return r.err }

// Instructions yields the decoded instructions. The sequence can be iterated
// only once; later iterations yield nothing and set Err to ErrConsumed.
func (r *Reader) Instructions() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		if r.consumed {
			r.err = ErrConsumed
			return
		}
		r.consumed = true
		for !r.s.Done() {
			inst, err := r.next()
			if err != nil {
				r.err = err
				return
			}
			if !yield(inst) {
				return
			}
		}
	}
}

func (r *Reader) next() (Instruction, error) {
	start := r.s.Offset()
	fail := func(err error) (Instruction, error) {
		return Instruction{}, &DecodeError{Offset: start, Err: err}
	}

	b, err := r.s.ReadU8()
	if err != nil {
		return fail(ErrTruncated)
	}
	value := uint16(b)
	if b == prefix {
		second, err := r.s.ReadU8()
		if err != nil {
			return fail(ErrTruncated)
		}
		value = prefix<<8 | uint16(second)
	}
	op, ok := r.table.Lookup(value)
	if !ok {
		return fail(fmt.Errorf("%w 0x%x", ErrUnknownOpcode, value))
	}

	inst := Instruction{OpCode: op, Offset: start}
	if err := r.operand(&inst); err != nil {
		return fail(ErrTruncated)
	}
	return inst, nil
}

func (r *Reader) operand(inst *Instruction) error {
	switch inst.OpCode.Operand {
	case InlineNone:
		return nil
	case ShortInlineVar:
		v, err := r.s.ReadU8()
		inst.Operand = int(v)
		return err
	case InlineVar:
		v, err := r.s.ReadU16()
		inst.Operand = int(v)
		return err
	case ShortInlineI:
		v, err := r.s.ReadI8()
		inst.Operand = v
		return err
	case InlineI:
		v, err := r.s.ReadI32()
		inst.Operand = v
		return err
	case InlineI8:
		v, err := r.s.ReadI64()
		inst.Operand = v
		return err
	case ShortInlineR:
		v, err := r.s.ReadFloat32()
		inst.Operand = v
		return err
	case InlineR:
		v, err := r.s.ReadFloat64()
		inst.Operand = v
		return err
	case ShortInlineBrTarget:
		v, err := r.s.ReadI8()
		inst.Operand = r.s.Offset() + int(v)
		return err
	case InlineBrTarget:
		v, err := r.s.ReadI32()
		inst.Operand = r.s.Offset() + int(v)
		return err
	case InlineSwitch:
		return r.switchTargets(inst)
	default:
		token, err := r.s.ReadU32()
		if err != nil {
			return err
		}
		inst.Token = token
		inst.Operand = r.resolve(inst.OpCode.Operand, inst.Offset, token)
		return nil
	}
}

func (r *Reader) switchTargets(inst *Instruction) error {
	n, err := r.s.ReadU32()
	if err != nil {
		return err
	}
	if int(n) > r.s.Remaining()/4 {
		return stream.ErrUnexpectedEOF
	}
	rel := make([]int32, n)
	for i := range rel {
		if rel[i], err = r.s.ReadI32(); err != nil {
			return err
		}
	}
	// Targets are relative to the end of the whole instruction.
	end := r.s.Offset()
	targets := make([]int, n)
	for i, d := range rel {
		targets[i] = end + int(d)
	}
	inst.Operand = targets
	return nil
}

func (r *Reader) resolve(kind OperandKind, offset int, token uint32) any {
	if r.res == nil {
		return nil
	}
	var (
		v   any
		err error
	)
	switch kind {
	case InlineMethod:
		v, err = r.res.ResolveMethod(token)
	case InlineField:
		v, err = r.res.ResolveField(token)
	case InlineType:
		v, err = r.res.ResolveType(token)
	case InlineString:
		v, err = r.res.ResolveString(token)
	case InlineSig:
		v, err = r.res.ResolveSignature(token)
	case InlineTok:
		v, err = r.resolveAny(token)
	}
	if err != nil {
		if r.onResolveErr != nil {
			r.onResolveErr(offset, token, err)
		}
		return nil
	}
	return v
}

// resolveAny handles ldtoken, whose token may name a type, method or field.
func (r *Reader) resolveAny(token uint32) (any, error) {
	v, err := r.res.ResolveType(token)
	if err == nil {
		return v, nil
	}
	if v, err2 := r.res.ResolveMethod(token); err2 == nil {
		return v, nil
	}
	if v, err2 := r.res.ResolveField(token); err2 == nil {
		return v, nil
	}
	return nil, err
}

// Decode reads every instruction of code. On a decode error it returns the
// instructions read so far together with the error.
func Decode(code []byte, res Resolver, opts ...Option) ([]Instruction, error) {
	r := NewReader(code, res, opts...)
	var out []Instruction
	for inst := range r.Instructions() {
		out = append(out, inst)
	}
	return out, r.Err()
}
