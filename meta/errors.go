// Package meta builds and memoizes a navigable graph of type metadata.
//
// A Registry wraps a descriptor source (see package raw) and hands out one
// node per type, assembly and member. Member lists include inherited members
// that remain visible to the derived type, with overrides resolved by
// signature. Every derived collection is computed once, on first access.
package meta

import (
	"errors"
	"fmt"
)

// Sentinel errors for member operations.
var (
	// ErrArgumentCount indicates an invocation with the wrong number of
	// arguments.
	ErrArgumentCount = errors.New("meta: wrong number of arguments")

	// ErrNoGetter indicates a read through a property without a getter.
	ErrNoGetter = errors.New("meta: property has no getter")

	// ErrNoSetter indicates a write through a property without a setter.
	ErrNoSetter = errors.New("meta: property has no setter")

	// ErrResultType indicates a result that does not have the requested type.
	ErrResultType = errors.New("meta: result has unexpected type")

	// ErrNotGeneric indicates a generic construction on a non-generic node.
	ErrNotGeneric = errors.New("meta: not a generic definition")

	// ErrNoBody indicates a method whose body is unavailable.
	ErrNoBody = errors.New("meta: method body unavailable")
)

// InvokeError reports a failed get, set or invocation of a member.
type InvokeError struct {
	Member string // Path of the member
	Err    error  // Underlying error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("meta: %s: %v", e.Member, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }
