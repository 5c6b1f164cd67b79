//go:build unix

package backend

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const vmSupported = true

// Allocate implements Allocator.
func (VM) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, exhausted("mmap", size, nil)
	}
	n := roundPage(size)
	m, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, exhausted("mmap", n, err)
	}
	return m[:size], nil
}

// Deallocate implements Allocator. The whole mapping behind region is
// released.
func (VM) Deallocate(region []byte) error {
	if cap(region) == 0 {
		return nil
	}
	if err := unix.Munmap(region[:cap(region)]); err != nil {
		return errors.Wrapf(err, "munmap %d bytes", cap(region))
	}
	return nil
}

// Resize implements Backend.
func (v VM) Resize(region []byte, newSize int) ([]byte, error) {
	if newSize <= 0 {
		return nil, exhausted("mremap", newSize, nil)
	}
	if n := roundPage(newSize); n == cap(region) {
		return region[:newSize], nil
	}
	return v.remap(region, newSize)
}
