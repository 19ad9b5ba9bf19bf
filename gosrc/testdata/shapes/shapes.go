// Package shapes is loaded by the gosrc tests.
package shapes

import "fmt"

// Shape is anything with an area.
type Shape interface {
	Area() float64
}

// Namer has a name that can change.
type Namer interface {
	Name() string
	SetName(name string)
}

// Color is a paint color.
type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string { return [...]string{"red", "green", "blue"}[c] }

// Base holds what every shape shares.
type Base struct {
	ID    int `json:"id"`
	name  string
	Color Color
}

// NewBase creates a named Base.
func NewBase(name string) *Base { return &Base{name: name} }

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name }

// Describe renders the shape.
func (b *Base) Describe() string { return fmt.Sprintf("%s#%d", b.name, b.ID) }

// Circle is a round shape.
type Circle struct {
	Base
	Radius float64 `json:"radius" unit:"cm"`
}

// NewCircle creates a circle of radius r.
func NewCircle(r float64) *Circle { return &Circle{Radius: r} }

// Area implements Shape.
func (c *Circle) Area() float64 { return 3.14159 * c.Radius * c.Radius }

// Describe renders the circle.
//
// Deprecated: use String.
func (c *Circle) Describe() string { return fmt.Sprintf("circle %g", c.Radius) }

func (c *Circle) scale(f float64) { c.Radius *= f }

// Box holds one item.
type Box[T any] struct {
	Item T
}

func (b *Box[T]) Get() T  { return b.Item }
func (b *Box[T]) Put(v T) { b.Item = v }

// Pair is a keyed value.
type Pair[K comparable, V fmt.Stringer] struct {
	Key   K
	Value V
}

// Sum adds its arguments.
func Sum(xs ...int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// Link is a list cell that embeds its successor.
type Link struct {
	*Link
	Val int
}

// Ping and Pong embed each other.
type Ping struct{ *Pong }

type Pong struct{ *Ping }
