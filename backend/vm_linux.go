//go:build linux

package backend

import "golang.org/x/sys/unix"

// remap moves or grows the mapping with mremap, letting the kernel relocate
// it when the neighbouring pages are taken.
func (VM) remap(region []byte, newSize int) ([]byte, error) {
	n := roundPage(newSize)
	m, err := unix.Mremap(region[:cap(region)], n, unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, exhausted("mremap", n, err)
	}
	return m[:newSize], nil
}
