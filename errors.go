package arena

import (
	"github.com/pkg/errors"

	"github.com/pavanmanishd/regionarena/backend"
)

var (
	// ErrBackendExhausted is wrapped by every error caused by the backend
	// failing to supply memory. The arena has no other memory source, so
	// the operation that hit it did not happen.
	ErrBackendExhausted = backend.ErrExhausted

	// ErrInvalidSize is returned for negative allocation or resize sizes.
	ErrInvalidSize = errors.New("arena: invalid size")

	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("arena: invalid config")

	// ErrAlignment is returned by the typed helpers when a type needs
	// stricter alignment than the arena provides.
	ErrAlignment = errors.New("arena: type alignment exceeds arena alignment")

	// ErrForeignAllocation is returned when a large resize is asked for a
	// slice that no chunk of this arena handed out.
	ErrForeignAllocation = errors.New("arena: slice not allocated by this arena")
)

const useAfterDestroy = "arena: use after Destroy()"
