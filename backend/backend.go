// Package backend supplies the raw memory an arena carves chunks from.
//
// A Backend hands out contiguous byte regions, takes them back, and resizes
// them. The arena never touches memory any other way, so swapping the
// backend (Go heap, virtual memory, a test double) changes where chunk
// memory lives without changing allocation behaviour.
//
// Regions returned by Allocate and Resize must start on a MinAlignment
// boundary. The length of the returned slice is the requested size; its
// capacity may be larger and belongs to the backend.
package backend

import (
	"github.com/pkg/errors"
)

// MinAlignment is the alignment every region start must satisfy.
const MinAlignment = 64

var (
	// ErrExhausted is returned when a backend cannot satisfy an Allocate or
	// Resize request.
	ErrExhausted = errors.New("backend: memory exhausted")

	// ErrUnsupported is returned when a backend is not available on the
	// running platform.
	ErrUnsupported = errors.New("backend: not supported on this platform")
)

// Allocator acquires and releases raw regions.
type Allocator interface {
	// Allocate returns a region of exactly size bytes.
	Allocate(size int) ([]byte, error)

	// Deallocate releases a region previously returned by Allocate or
	// Resize. The region must be passed with the length it was last
	// returned with.
	Deallocate(region []byte) error
}

// Backend is an Allocator that can also resize regions.
type Backend interface {
	Allocator

	// Resize grows or shrinks region to newSize bytes, in place when
	// possible, otherwise by relocating it. The first min(len(region),
	// newSize) bytes are preserved. On error the original region is left
	// intact and still owned by the caller.
	Resize(region []byte, newSize int) ([]byte, error)
}

// ResizeByCopy resizes region by allocating a new one, copying the common
// prefix and releasing the old region. It is the fallback for allocators
// without a native resize primitive.
func ResizeByCopy(a Allocator, region []byte, newSize int) ([]byte, error) {
	fresh, err := a.Allocate(newSize)
	if err != nil {
		return nil, err
	}
	copy(fresh, region)
	if err := a.Deallocate(region); err != nil {
		// keep the caller's view consistent: old region stays, new one goes
		if derr := a.Deallocate(fresh); derr != nil {
			return nil, errors.Wrapf(derr, "release relocated region after %v", err)
		}
		return nil, err
	}
	return fresh, nil
}

// WithCopyResize turns an Allocator into a Backend whose Resize relocates
// through ResizeByCopy.
func WithCopyResize(a Allocator) Backend {
	return copyResizer{a}
}

type copyResizer struct {
	Allocator
}

func (c copyResizer) Resize(region []byte, newSize int) ([]byte, error) {
	return ResizeByCopy(c.Allocator, region, newSize)
}

// ByName selects a backend by its configuration name: "heap" (also the
// empty string) or "vm".
func ByName(name string) (Backend, error) {
	switch name {
	case "", "heap":
		return Heap{}, nil
	case "vm":
		if !vmSupported {
			return nil, errors.WithMessagef(ErrUnsupported, "vm backend")
		}
		return VM{}, nil
	}
	return nil, errors.Errorf("backend: unknown backend %q", name)
}

func exhausted(kind string, size int, cause error) error {
	if cause == nil {
		return errors.WithMessagef(ErrExhausted, "%s: %d bytes", kind, size)
	}
	return errors.WithMessagef(ErrExhausted, "%s: %d bytes: %v", kind, size, cause)
}
