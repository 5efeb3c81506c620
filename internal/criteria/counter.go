package criteria

import (
	"strconv"
	"sync/atomic"
)

// Counter is the per-session sequence that names anonymous parameters,
// subquery variables, and generated aliases. Safe for concurrent use.
type Counter struct {
	seq atomic.Int64
}

// NewCounter creates a counter starting at 0.
func NewCounter() *Counter {
	return &Counter{}
}

// NewCounterAt creates a counter starting at start. The first Next returns
// start+1.
func NewCounterAt(start int64) *Counter {
	c := &Counter{}
	c.seq.Store(start)
	return c
}

// Next increments the counter and returns the new value.
func (c *Counter) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the counter without incrementing.
func (c *Counter) Current() int64 {
	return c.seq.Load()
}

// Name returns prefix followed by the next value.
func (c *Counter) Name(prefix string) string {
	return prefix + strconv.FormatInt(c.Next(), 10)
}
