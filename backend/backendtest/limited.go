package backendtest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/regionarena/backend"
)

// Limited wraps a Backend with a byte budget on outstanding regions. Once
// armed with FailAfter it also fails every allocate and resize after the
// given number of successful ones.
type Limited struct {
	inner  backend.Backend
	budget int

	mu          sync.Mutex
	outstanding int
	remaining   int
	armed       bool
}

// NewLimited wraps inner (backend.Heap when nil). A budget <= 0 means no
// byte limit.
func NewLimited(inner backend.Backend, budget int) *Limited {
	if inner == nil {
		inner = backend.Heap{}
	}
	return &Limited{inner: inner, budget: budget}
}

// FailAfter lets n more allocate or resize calls through, then fails all
// of them with backend.ErrExhausted.
func (l *Limited) FailAfter(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining, l.armed = n, true
}

// Outstanding reports the bytes currently handed out.
func (l *Limited) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outstanding
}

func (l *Limited) admit(grow, size int) error {
	if l.armed {
		if l.remaining <= 0 {
			return errors.WithMessagef(backend.ErrExhausted, "injected failure for %d bytes", size)
		}
		l.remaining--
	}
	if l.budget > 0 && l.outstanding+grow > l.budget {
		return errors.WithMessagef(backend.ErrExhausted, "budget %d exceeded by %d bytes", l.budget, l.outstanding+grow-l.budget)
	}
	return nil
}

// Allocate implements backend.Allocator.
func (l *Limited) Allocate(size int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.admit(size, size); err != nil {
		return nil, err
	}
	region, err := l.inner.Allocate(size)
	if err == nil {
		l.outstanding += len(region)
	}
	return region, err
}

// Deallocate implements backend.Allocator.
func (l *Limited) Deallocate(region []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outstanding -= len(region)
	return l.inner.Deallocate(region)
}

// Resize implements backend.Backend.
func (l *Limited) Resize(region []byte, newSize int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.admit(newSize-len(region), newSize); err != nil {
		return nil, err
	}
	fresh, err := l.inner.Resize(region, newSize)
	if err == nil {
		l.outstanding += len(fresh) - len(region)
	}
	return fresh, err
}
