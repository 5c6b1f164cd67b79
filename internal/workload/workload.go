// Package workload replays synthetic allocation patterns on an arena.
package workload

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	arena "github.com/pavanmanishd/regionarena"
)

// Workload describes an allocation pattern. Every step allocates the next
// size from Sizes; the Every fields add periodic large allocations, grows
// of the step's allocation and resets. Zero disables a periodic action.
type Workload struct {
	Name       string `toml:"name"`
	Iterations int    `toml:"iterations"`
	Sizes      []int  `toml:"sizes"`
	LargeEvery int    `toml:"large_every"`
	LargeSize  int    `toml:"large_size"`
	GrowEvery  int    `toml:"grow_every"`
	GrowBy     int    `toml:"grow_by"`
	ResetEvery int    `toml:"reset_every"`
	Verify     bool   `toml:"verify"` // check arena invariants after every step

	Arena arena.Config `toml:"arena"`
}

// Default is a request-handler-like mix of small objects, occasional
// buffers bigger than a chunk and a reset per request.
func Default() Workload {
	return Workload{
		Name:       "default",
		Iterations: 10000,
		Sizes:      []int{16, 24, 64, 100, 256, 8},
		LargeEvery: 250,
		LargeSize:  64 << 10,
		GrowEvery:  10,
		GrowBy:     48,
		ResetEvery: 500,
	}
}

// Load reads a workload from a TOML file. Fields the file leaves out keep
// their Default values.
func Load(path string) (Workload, error) {
	w := Default()
	md, err := toml.DecodeFile(path, &w)
	if err != nil {
		return Workload{}, errors.Wrapf(err, "load workload %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Workload{}, errors.Errorf("load workload %s: unknown keys %v", path, undecoded)
	}
	return w, w.Validate()
}

// Validate reports the first unusable setting.
func (w Workload) Validate() error {
	switch {
	case w.Iterations <= 0:
		return errors.Errorf("workload %q: iterations must be positive, got %d", w.Name, w.Iterations)
	case len(w.Sizes) == 0:
		return errors.Errorf("workload %q: no sizes", w.Name)
	case w.LargeEvery < 0 || w.GrowEvery < 0 || w.ResetEvery < 0:
		return errors.Errorf("workload %q: negative period", w.Name)
	case w.LargeSize < 0 || w.GrowBy < 0:
		return errors.Errorf("workload %q: negative size", w.Name)
	}
	for _, s := range w.Sizes {
		if s < 0 {
			return errors.Errorf("workload %q: negative size %d", w.Name, s)
		}
	}
	return nil
}

// Result summarizes one Run.
type Result struct {
	Allocs       int
	LargeAllocs  int
	Grows        int
	InPlaceGrows int
	Resets       int
	Bytes        int // bytes requested, grows included
	PeakInUse    int
	PeakCapacity int
	Elapsed      time.Duration
	Metrics      arena.Metrics // snapshot taken before the arena is handed back
}

// Run replays w on a. The arena is left as the last step left it; the
// caller still owns and destroys it.
func Run(a *arena.Arena, w Workload) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, err
	}
	log := logrus.WithFields(logrus.Fields{"component": "workload", "workload": w.Name})
	var res Result
	start := time.Now()
	for i := 0; i < w.Iterations; i++ {
		size := w.Sizes[i%len(w.Sizes)]
		buf, err := a.Alloc(size)
		if err != nil {
			return res, errors.WithMessagef(err, "step %d: alloc %d", i, size)
		}
		touch(buf)
		res.Allocs++
		res.Bytes += size

		if every(i, w.GrowEvery) {
			grown, err := a.Resize(buf, size+w.GrowBy)
			if err != nil {
				return res, errors.WithMessagef(err, "step %d: grow %d by %d", i, size, w.GrowBy)
			}
			if len(buf) > 0 && len(grown) > 0 && &grown[0] == &buf[0] {
				res.InPlaceGrows++
			}
			touch(grown)
			res.Grows++
			res.Bytes += w.GrowBy
		}

		if every(i, w.LargeEvery) {
			big, err := a.Alloc(w.LargeSize)
			if err != nil {
				return res, errors.WithMessagef(err, "step %d: large alloc %d", i, w.LargeSize)
			}
			touch(big)
			res.LargeAllocs++
			res.Bytes += w.LargeSize
		}

		res.PeakInUse = max(res.PeakInUse, a.SizeInUse())
		res.PeakCapacity = max(res.PeakCapacity, a.Capacity())

		if every(i, w.ResetEvery) {
			if err := a.Reset(); err != nil {
				return res, errors.WithMessagef(err, "step %d: reset", i)
			}
			res.Resets++
			log.WithField("step", i).Debug("Reset arena")
		}
		if w.Verify {
			if err := a.Verify(); err != nil {
				return res, errors.WithMessagef(err, "step %d", i)
			}
		}
	}
	res.Elapsed = time.Since(start)
	res.Metrics = a.Metrics()
	log.WithFields(logrus.Fields{
		"allocs":  res.Allocs,
		"resets":  res.Resets,
		"elapsed": res.Elapsed,
	}).Debug("Workload finished")
	return res, nil
}

func every(i, n int) bool {
	return n > 0 && (i+1)%n == 0
}

// touch writes the first and last byte so backends that commit lazily
// actually back the allocation.
func touch(b []byte) {
	if len(b) > 0 {
		b[0] = 1
		b[len(b)-1] = 1
	}
}
