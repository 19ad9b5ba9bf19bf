// Package bitfield provides an immutable bit-flag value over a closed flag
// enumeration.
package bitfield

import (
	"fmt"
	"strings"
)

// Flag is the constraint satisfied by flag enumerations. Every named flag is
// a distinct bit or a bitwise-OR of other named flags.
type Flag interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// BitField holds a set of flags of type F. The zero value is the empty set.
type BitField[F Flag] struct {
	bits uint64
}

// Of returns the field holding every bit of the given flags.
func Of[F Flag](flags ...F) BitField[F] {
	var b uint64
	for _, f := range flags {
		b |= uint64(f)
	}
	return BitField[F]{bits: b}
}

// Any reports whether the field contains at least one set bit of other.
func (b BitField[F]) Any(other F) bool {
	return b.bits&uint64(other) != 0
}

// All reports whether the field contains every set bit of other.
func (b BitField[F]) All(other F) bool {
	return b.bits&uint64(other) == uint64(other)
}

// Equal reports exact bit-pattern equality.
func (b BitField[F]) Equal(other BitField[F]) bool {
	return b.bits == other.bits
}

// Is reports whether the field's bits are exactly f.
func (b BitField[F]) Is(f F) bool {
	return b.bits == uint64(f)
}

// With returns a copy of the field with the bits of f set.
func (b BitField[F]) With(f F) BitField[F] {
	return BitField[F]{bits: b.bits | uint64(f)}
}

// Without returns a copy of the field with the bits of f cleared.
func (b BitField[F]) Without(f F) BitField[F] {
	return BitField[F]{bits: b.bits &^ uint64(f)}
}

// Union returns the bitwise OR of both fields.
func (b BitField[F]) Union(other BitField[F]) BitField[F] {
	return BitField[F]{bits: b.bits | other.bits}
}

// IsZero reports whether no bit is set.
func (b BitField[F]) IsZero() bool {
	return b.bits == 0
}

// Flags returns the field as its flag type.
func (b BitField[F]) Flags() F {
	return F(b.bits)
}

// Raw returns the underlying bit pattern.
func (b BitField[F]) Raw() uint64 {
	return b.bits
}

// String formats the set bits using F's own String method when it has one.
func (b BitField[F]) String() string {
	if b.bits == 0 {
		return "0"
	}
	var parts []string
	for i := 0; i < 64; i++ {
		bit := uint64(1) << i
		if b.bits&bit == 0 {
			continue
		}
		var f any = F(bit)
		if s, ok := f.(fmt.Stringer); ok {
			parts = append(parts, s.String())
		} else {
			parts = append(parts, fmt.Sprintf("0x%x", bit))
		}
	}
	return strings.Join(parts, "|")
}
