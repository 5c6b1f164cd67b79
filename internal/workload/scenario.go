package workload

import (
	"bytes"
	"unsafe"

	"github.com/pkg/errors"

	arena "github.com/pavanmanishd/regionarena"
)

// ScenarioChunkSize is the max chunk size the reference scenario is meant
// to run with.
const ScenarioChunkSize = 4096

// Trace records what the reference scenario observed.
type Trace struct {
	Gap          uintptr // distance from the first allocation to the second
	Moved        bool    // growing the first allocation relocated it
	PrefixKept   bool    // the relocated copy kept the original bytes
	ChunkAllocs  uint64  // backend allocations made by the full-chunk request after Reset
	InUseAtReset int     // SizeInUse right before Reset
	Metrics      arena.Metrics
}

// Scenario allocates 100 then 50 bytes, resizes the first allocation to 60
// bytes (it is no longer the most recent one, so it moves), resets, and
// then asks for a whole chunk, which the rewound current chunk serves
// without going back to the backend.
func Scenario(a *arena.Arena) (Trace, error) {
	var tr Trace
	first, err := a.Alloc(100)
	if err != nil {
		return tr, errors.WithMessage(err, "scenario: first alloc")
	}
	second, err := a.Alloc(50)
	if err != nil {
		return tr, errors.WithMessage(err, "scenario: second alloc")
	}
	tr.Gap = addr(second) - addr(first)

	for i := range first {
		first[i] = byte(i)
	}
	want := bytes.Clone(first[:60])
	moved, err := a.Resize(first, 60)
	if err != nil {
		return tr, errors.WithMessage(err, "scenario: resize")
	}
	tr.Moved = addr(moved) != addr(first)
	tr.PrefixKept = bytes.Equal(moved, want)

	tr.InUseAtReset = a.SizeInUse()
	if err := a.Reset(); err != nil {
		return tr, errors.WithMessage(err, "scenario: reset")
	}

	before := a.Metrics().BackendAllocs
	if _, err := a.Alloc(a.MaxChunkSize()); err != nil {
		return tr, errors.WithMessage(err, "scenario: full chunk alloc")
	}
	tr.Metrics = a.Metrics()
	tr.ChunkAllocs = tr.Metrics.BackendAllocs - before
	return tr, nil
}

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
