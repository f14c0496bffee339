// The package counter defines a minimalistic Float counter, safe to share
// between the walk and the goroutines that display its progress.
package counter

import (
	"math"
	"sync/atomic"
)

// Float is a floating point value that can be loaded and updated atomically.
// The zero value is ready to use and holds 0.
type Float struct {
	bits atomic.Uint64
}

// NewFloatCounter() returns a new Float counter.
func NewFloatCounter() *Float {
	return &Float{}
}

// Add() increases the counter by delta and returns the new value.
func (c *Float) Add(delta float64) float64 {
	if c == nil {
		return 0
	}

	for {
		old := c.bits.Load()
		new := math.Float64frombits(old) + delta
		if c.bits.CompareAndSwap(old, math.Float64bits(new)) {
			return new
		}
	}
}

// Load() returns the current value.
func (c *Float) Load() float64 {
	if c == nil {
		return 0
	}
	return math.Float64frombits(c.bits.Load())
}

// Store() overwrites the current value to val.
func (c *Float) Store(val float64) {
	if c == nil {
		return
	}
	c.bits.Store(math.Float64bits(val))
}
