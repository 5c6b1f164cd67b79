package backend

import "os"

// VM is the virtual-memory Backend. Regions are whole pages obtained
// straight from the operating system (mmap on Unix, VirtualAlloc on
// Windows), outside the Go heap, and are returned to it on Deallocate.
//
// Memory held in VM regions is not scanned by the garbage collector:
// values stored there must not hold the only reference to Go heap objects.
type VM struct{}

var pageSize = os.Getpagesize()

// PageSize reports the granularity VM regions are rounded to.
func PageSize() int {
	return pageSize
}

func roundPage(n int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}
