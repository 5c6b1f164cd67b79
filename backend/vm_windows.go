//go:build windows

package backend

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const vmSupported = true

// Allocate implements Allocator.
func (VM) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, exhausted("VirtualAlloc", size, nil)
	}
	n := roundPage(size)
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, exhausted("VirtualAlloc", n, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)[:size], nil
}

// Deallocate implements Allocator.
func (VM) Deallocate(region []byte) error {
	if cap(region) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return errors.Wrapf(err, "VirtualFree %d bytes", cap(region))
	}
	return nil
}

// Resize implements Backend. Windows has no in-place remap for committed
// regions, so growth past the committed pages relocates.
func (v VM) Resize(region []byte, newSize int) ([]byte, error) {
	if newSize <= 0 {
		return nil, exhausted("VirtualAlloc", newSize, nil)
	}
	if roundPage(newSize) == cap(region) {
		return region[:newSize], nil
	}
	return ResizeByCopy(v, region, newSize)
}
