// Package backendtest provides Backend doubles for exercising arena code:
// Counting records every call and checks that each region is released
// exactly once with the size it was handed out with, and Limited injects
// exhaustion failures.
package backendtest

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/regionarena/backend"
)

// Op names a backend operation.
type Op int

const (
	OpAllocate Op = iota
	OpDeallocate
	OpResize
)

func (op Op) String() string {
	switch op {
	case OpAllocate:
		return "allocate"
	case OpDeallocate:
		return "deallocate"
	case OpResize:
		return "resize"
	}
	return "unknown"
}

// Call is one recorded backend call.
type Call struct {
	Op      Op
	Size    int // requested size for allocate, region size for deallocate, old size for resize
	NewSize int // resize only
}

// Counting wraps a Backend and records its traffic. It is safe for
// concurrent use.
type Counting struct {
	inner backend.Backend

	mu     sync.Mutex
	calls  []Call
	live   map[uintptr]int
	faults []error
}

// NewCounting wraps inner, or backend.Heap when inner is nil.
func NewCounting(inner backend.Backend) *Counting {
	if inner == nil {
		inner = backend.Heap{}
	}
	return &Counting{inner: inner, live: make(map[uintptr]int)}
}

// Allocate implements backend.Allocator.
func (c *Counting) Allocate(size int) ([]byte, error) {
	region, err := c.inner.Allocate(size)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: OpAllocate, Size: size})
	if err == nil {
		c.live[base(region)] = len(region)
	}
	return region, err
}

// Deallocate implements backend.Allocator.
func (c *Counting) Deallocate(region []byte) error {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: OpDeallocate, Size: len(region)})
	c.forget(region, "deallocate")
	c.mu.Unlock()
	return c.inner.Deallocate(region)
}

// Resize implements backend.Backend.
func (c *Counting) Resize(region []byte, newSize int) ([]byte, error) {
	fresh, err := c.inner.Resize(region, newSize)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: OpResize, Size: len(region), NewSize: newSize})
	if err == nil {
		c.forget(region, "resize")
		c.live[base(fresh)] = len(fresh)
	}
	return fresh, err
}

func (c *Counting) forget(region []byte, op string) {
	b := base(region)
	size, ok := c.live[b]
	switch {
	case !ok:
		c.faults = append(c.faults, errors.Errorf("%s of unknown or released region %#x", op, b))
	case size != len(region):
		c.faults = append(c.faults, errors.Errorf("%s of region %#x with size %d, allocated as %d", op, b, len(region), size))
	}
	delete(c.live, b)
}

// Calls returns a copy of every recorded call in order.
func (c *Counting) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many calls of op were made.
func (c *Counting) Count(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// Live returns the number of regions handed out and not yet released.
func (c *Counting) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Faults returns releases that did not match an outstanding region.
func (c *Counting) Faults() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.faults...)
}

// Reset forgets recorded calls, keeping track of live regions.
func (c *Counting) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

func base(region []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(region)))
}
