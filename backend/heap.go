package backend

import "unsafe"

// MaxHeapRegion caps a single Heap region: 1 TiB on 64-bit platforms,
// 1 GiB on 32-bit ones.
const MaxHeapRegion = 1 << (30 + 10*(^uint(0)>>63))

// Heap is the portable Backend. Regions live on the Go heap and are
// reclaimed by the garbage collector once the arena drops them, so
// Deallocate only forgets the region.
type Heap struct{}

// Allocate implements Allocator.
func (Heap) Allocate(size int) ([]byte, error) {
	if size < 0 || size > MaxHeapRegion {
		return nil, exhausted("heap", size, nil)
	}
	buf := make([]byte, size+MinAlignment-1)
	off := int(-uintptr(unsafe.Pointer(unsafe.SliceData(buf))) & (MinAlignment - 1))
	return buf[off : off+size : off+size], nil
}

// Deallocate implements Allocator.
func (Heap) Deallocate([]byte) error {
	return nil
}

// Resize implements Backend. Shrinking and growth within capacity reslice
// the region in place, anything else relocates it.
func (h Heap) Resize(region []byte, newSize int) ([]byte, error) {
	if newSize < 0 {
		return nil, exhausted("heap", newSize, nil)
	}
	if newSize <= cap(region) {
		return region[:newSize], nil
	}
	return ResizeByCopy(h, region, newSize)
}
