package arena

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Alloc returns a pointer to a zeroed T stored inside the arena. The pointer
// is valid until the arena is reset or destroyed.
//
// Arena memory is not scanned by the garbage collector when it comes from
// the vm backend; T must not hold the only reference to heap objects.
func Alloc[T any](a *Arena) (*T, error) {
	var zero T
	if err := checkAlign(a, unsafe.Alignof(zero)); err != nil {
		return nil, err
	}
	b, err := a.Alloc(int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	clear(b)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// AllocSlice allocates a zeroed slice of n elements of type T inside the
// arena. Returns nil for n <= 0.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var zero T
	if err := checkAlign(a, unsafe.Alignof(zero)); err != nil {
		return nil, err
	}
	b, err := a.Alloc(int(unsafe.Sizeof(zero)) * n)
	if err != nil {
		return nil, err
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// GrowSlice resizes s, a slice obtained from AllocSlice or GrowSlice on the
// same arena, to n elements. Existing elements are kept and new ones are
// zeroed. When s is the arena's most recent allocation and the chunk has
// room, s grows in place.
func GrowSlice[T any](a *Arena, s []T, n int) ([]T, error) {
	if n < 0 {
		return nil, errors.WithMessagef(ErrInvalidSize, "grow slice to %d elements", n)
	}
	var zero T
	if err := checkAlign(a, unsafe.Alignof(zero)); err != nil {
		return nil, err
	}
	elem := int(unsafe.Sizeof(zero))
	old := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*elem)
	b, err := a.Resize(old, n*elem)
	if err != nil {
		return nil, err
	}
	if len(b) > len(old) {
		clear(b[len(old):])
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// Dup copies data into the arena.
func Dup(a *Arena, data []byte) ([]byte, error) {
	b, err := a.Alloc(len(data))
	if err != nil {
		return nil, err
	}
	copy(b, data)
	return b, nil
}

// DupString copies s into the arena and returns a string backed by arena
// memory.
func DupString(a *Arena, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	b, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

func checkAlign(a *Arena, align uintptr) error {
	if int(align) > a.align {
		return errors.WithMessagef(ErrAlignment, "need %d, have %d", align, a.align)
	}
	return nil
}
