// Package collections holds small concurrent containers.
package collections

import (
	"iter"
	"sync"
)

// Element is one slot of a Buffer. Its Value is allocated once and reused
// across activations.
type Element[T any] struct {
	Value T

	buf    *Buffer[T]
	active bool
}

// Deactivate returns the element to its buffer. Deactivating an inactive
// element does nothing.
func (e *Element[T]) Deactivate() { e.buf.deactivate(e) }

// Buffer is a growable pool of reusable elements. Active elements are kept
// at the front of the backing slice; deactivated ones are swapped to the
// back lazily, when the buffer runs out of fresh slots or is enumerated.
// A Buffer is safe for concurrent use.
type Buffer[T any] struct {
	mu       sync.Mutex
	elems    []*Element[T]
	prefix   int // elems[prefix:] are all inactive
	count    int // active elements
	newValue func() T
	release  func(T)
}

// BufferOption configures a Buffer.
type BufferOption[T any] func(*Buffer[T])

// WithRelease sets a function run on an element's value when it is
// deactivated.
func WithRelease[T any](fn func(T)) BufferOption[T] {
	return func(b *Buffer[T]) { b.release = fn }
}

// NewBuffer creates a buffer of capacity preallocated elements whose values
// are made by newValue. A nil newValue leaves values zeroed.
func NewBuffer[T any](capacity int, newValue func() T, opts ...BufferOption[T]) *Buffer[T] {
	b := &Buffer[T]{newValue: newValue}
	for _, opt := range opts {
		opt(b)
	}
	b.grow(max(capacity, 1))
	return b
}

// Len returns the number of active elements.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the number of allocated elements.
func (b *Buffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.elems)
}

// Activate hands out an inactive element, growing the buffer when every
// element is active.
func (b *Buffer[T]) Activate() *Element[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.prefix == len(b.elems) {
		if b.count == b.prefix {
			b.grow(len(b.elems))
		} else {
			b.compact()
		}
	}
	e := b.elems[b.prefix]
	b.prefix++
	e.active = true
	b.count++
	return e
}

// All yields the active elements. It iterates over a snapshot, so elements
// may be deactivated while ranging.
func (b *Buffer[T]) All() iter.Seq[*Element[T]] {
	return func(yield func(*Element[T]) bool) {
		b.mu.Lock()
		b.compact()
		active := make([]*Element[T], b.prefix)
		copy(active, b.elems[:b.prefix])
		b.mu.Unlock()

		for i := len(active) - 1; i >= 0; i-- {
			if !yield(active[i]) {
				return
			}
		}
	}
}

// Clear deactivates every element.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.elems[:b.prefix] {
		b.deactivateLocked(e)
	}
	b.prefix = 0
}

func (b *Buffer[T]) deactivate(e *Element[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deactivateLocked(e)
}

func (b *Buffer[T]) deactivateLocked(e *Element[T]) {
	if !e.active {
		return
	}
	e.active = false
	b.count--
	if b.release != nil {
		b.release(e.Value)
	}
}

// compact moves inactive elements out of the active prefix.
func (b *Buffer[T]) compact() {
	for i := b.prefix - 1; i >= 0; i-- {
		if !b.elems[i].active {
			b.prefix--
			b.elems[i], b.elems[b.prefix] = b.elems[b.prefix], b.elems[i]
		}
	}
}

func (b *Buffer[T]) grow(n int) {
	for range n {
		e := &Element[T]{buf: b}
		if b.newValue != nil {
			e.Value = b.newValue()
		}
		b.elems = append(b.elems, e)
	}
}
