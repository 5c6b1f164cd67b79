package arena

import (
	"sync"
)

// SafeArena is a mutex-protected wrapper around Arena for callers that
// share one arena between goroutines. Every call takes the lock, so one
// arena per goroutine is cheaper when it is an option.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafe creates a new thread-safe arena.
func NewSafe(opts ...Option) (*SafeArena, error) {
	a, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &SafeArena{a: a}, nil
}

// Alloc thread-safely allocates size bytes.
func (s *SafeArena) Alloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size)
}

// Resize thread-safely resizes buf to newSize bytes. The in-place path only
// applies when no other goroutine allocated in between.
func (s *SafeArena) Resize(buf []byte, newSize int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Resize(buf, newSize)
}

// EnsureCapacity thread-safely ensures the current chunk has n free bytes.
func (s *SafeArena) EnsureCapacity(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.EnsureCapacity(n)
}

// Reset thread-safely releases every allocation.
func (s *SafeArena) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Reset()
}

// Destroy thread-safely returns all memory to the backend.
func (s *SafeArena) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Destroy()
}

// Generic allocation functions for SafeArena

// SafeAlloc thread-safely returns a pointer to a zeroed T inside the arena.
func SafeAlloc[T any](s *SafeArena) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Alloc[T](s.a)
}

// SafeAllocSlice thread-safely allocates a zeroed slice of n elements.
func SafeAllocSlice[T any](s *SafeArena, n int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocSlice[T](s.a, n)
}

// SafeDup thread-safely copies data into the arena.
func SafeDup(s *SafeArena, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Dup(s.a, data)
}
