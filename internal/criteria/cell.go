package criteria

import "sync/atomic"

// cell is a compute-once slot. Concurrent first reads may each compute a
// value; the first CompareAndSwap wins and every caller returns the winner.
type cell[T any] struct {
	p atomic.Pointer[T]
}

func (c *cell[T]) get(compute func() *T) *T {
	if v := c.p.Load(); v != nil {
		return v
	}
	v := compute()
	if c.p.CompareAndSwap(nil, v) {
		return v
	}
	return c.p.Load()
}

// peek returns the cached value without computing it.
func (c *cell[T]) peek() *T {
	return c.p.Load()
}
