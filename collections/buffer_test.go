package collections

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conn struct {
	id     int
	closed int
}

func newConnBuffer(capacity int) (*Buffer[*conn], *int) {
	next := 0
	b := NewBuffer(capacity, func() *conn {
		next++
		return &conn{id: next}
	}, WithRelease(func(c *conn) { c.closed++ }))
	return b, &next
}

func values(b *Buffer[*conn]) []int {
	var ids []int
	for e := range b.All() {
		ids = append(ids, e.Value.id)
	}
	slices.Sort(ids)
	return ids
}

func TestBuffer_ActivateReusesValues(t *testing.T) {
	b, made := newConnBuffer(2)
	assert.Equal(t, 2, *made)
	assert.Equal(t, 2, b.Cap())

	e1 := b.Activate()
	e2 := b.Activate()
	assert.Equal(t, 2, b.Len())
	assert.NotSame(t, e1, e2)

	e1.Deactivate()
	e1.Deactivate()
	assert.Equal(t, 1, e1.Value.closed, "release runs once")
	assert.Equal(t, 1, b.Len())

	// The freed slot is reused instead of growing.
	e3 := b.Activate()
	assert.Same(t, e1, e3)
	assert.Equal(t, 2, b.Cap())
	assert.Equal(t, 2, *made)
}

func TestBuffer_Grows(t *testing.T) {
	b, made := newConnBuffer(1)
	for range 5 {
		b.Activate()
	}
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, 8, *made)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, values(b))
}

func TestBuffer_AllSkipsInactive(t *testing.T) {
	b, _ := newConnBuffer(4)
	var es []*Element[*conn]
	for range 4 {
		es = append(es, b.Activate())
	}
	es[1].Deactivate()
	es[3].Deactivate()
	assert.Equal(t, []int{1, 3}, values(b))

	// Deactivating while ranging is allowed.
	for e := range b.All() {
		e.Deactivate()
	}
	assert.Zero(t, b.Len())
	assert.Empty(t, values(b))
}

func TestBuffer_Clear(t *testing.T) {
	b, _ := newConnBuffer(3)
	e := b.Activate()
	b.Activate()
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Equal(t, 1, e.Value.closed)
	require.NotNil(t, b.Activate())
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_Concurrent(t *testing.T) {
	b := NewBuffer[int](1, nil)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b.Activate().Deactivate()
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, b.Len())
	assert.LessOrEqual(t, b.Cap(), 16)
}
