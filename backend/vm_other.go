//go:build !unix && !windows

package backend

const vmSupported = false

// Allocate implements Allocator.
func (VM) Allocate(size int) ([]byte, error) {
	return nil, ErrUnsupported
}

// Deallocate implements Allocator.
func (VM) Deallocate([]byte) error {
	return ErrUnsupported
}

// Resize implements Backend.
func (VM) Resize([]byte, int) ([]byte, error) {
	return nil, ErrUnsupported
}
