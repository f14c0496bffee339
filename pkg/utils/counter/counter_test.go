package counter

import (
	"sync"
	"testing"
)

func TestFloat(t *testing.T) {
	c := NewFloatCounter()
	if c.Load() != 0 {
		t.Fatalf("Load(): expected 0, got %v", c.Load())
	}

	c.Store(0.25)
	if got := c.Add(0.5); got != 0.75 {
		t.Errorf("Add(): expected 0.75, got %v", got)
	}

	if c.Load() != 0.75 {
		t.Errorf("Load(): expected 0.75, got %v", c.Load())
	}
}

func TestFloatConcurrent(t *testing.T) {
	c := NewFloatCounter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()

	if c.Load() != 8000 {
		t.Errorf("Load(): expected 8000, got %v", c.Load())
	}
}

func TestNilFloat(t *testing.T) {
	var c *Float
	c.Store(1)

	if c.Add(1) != 0 || c.Load() != 0 {
		t.Errorf("nil Float: expected 0, got %v", c.Load())
	}
}
