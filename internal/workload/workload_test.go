package workload

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arena "github.com/pavanmanishd/regionarena"
	"github.com/pavanmanishd/regionarena/backend/backendtest"
)

func newArena(t *testing.T, opts ...arena.Option) *arena.Arena {
	t.Helper()
	a, err := arena.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Destroy() })
	return a
}

func TestLoad(t *testing.T) {
	w, err := Load(filepath.Join("testdata", "parser.toml"))
	require.NoError(t, err)
	assert.Equal(t, "parser", w.Name)
	assert.Equal(t, 2000, w.Iterations)
	assert.Equal(t, []int{24, 48, 16, 120}, w.Sizes)
	assert.Equal(t, 20000, w.LargeSize)
	assert.True(t, w.Verify)
	assert.Equal(t, arena.Config{MaxChunkSize: 8192, Backend: "heap"}, w.Arena)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_key.toml"))
	assert.ErrorContains(t, err, "unknown keys")

	_, err = Load(filepath.Join("testdata", "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Workload)
	}{
		{"no iterations", func(w *Workload) { w.Iterations = 0 }},
		{"no sizes", func(w *Workload) { w.Sizes = nil }},
		{"negative size", func(w *Workload) { w.Sizes = []int{8, -1} }},
		{"negative period", func(w *Workload) { w.ResetEvery = -1 }},
		{"negative large size", func(w *Workload) { w.LargeSize = -1 }},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Default()
			tt.mutate(&w)
			assert.Error(t, w.Validate())
		})
	}
}

func TestRun(t *testing.T) {
	cb := backendtest.NewCounting(nil)
	a := newArena(t, arena.WithMaxChunkSize(4096), arena.WithBackend(cb))

	res, err := Run(a, Workload{
		Name:       "small",
		Iterations: 10,
		Sizes:      []int{100},
		LargeEvery: 5,
		LargeSize:  5000,
		ResetEvery: 3,
		Verify:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Allocs)
	assert.Equal(t, 2, res.LargeAllocs)
	assert.Equal(t, 3, res.Resets)
	assert.Equal(t, 11000, res.Bytes)
	assert.GreaterOrEqual(t, res.PeakCapacity, 4096+5000)
	assert.Equal(t, uint64(10+2), res.Metrics.Allocs)
	assert.Empty(t, cb.Faults())
}

func TestRunGrowsInPlace(t *testing.T) {
	a := newArena(t, arena.WithMaxChunkSize(4096))

	res, err := Run(a, Workload{Name: "grow", Iterations: 4, Sizes: []int{32}, GrowEvery: 1, GrowBy: 8, Verify: true})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Grows)
	assert.Equal(t, 4, res.InPlaceGrows)
	assert.Equal(t, 4*40, a.SizeInUse())
	assert.Equal(t, uint64(4), res.Metrics.InPlaceResizes)
}

func TestRunBackendExhausted(t *testing.T) {
	lim := backendtest.NewLimited(nil, 0)
	a := newArena(t, arena.WithMaxChunkSize(1024), arena.WithBackend(lim))
	lim.FailAfter(0)

	_, err := Run(a, Workload{Name: "big", Iterations: 1, Sizes: []int{8}, LargeEvery: 1, LargeSize: 1 << 20})
	assert.ErrorIs(t, err, arena.ErrBackendExhausted)
}

func TestRunDefault(t *testing.T) {
	a := newArena(t)
	w := Default()
	w.Verify = true

	res, err := Run(a, w)
	require.NoError(t, err)
	assert.Equal(t, w.Iterations, res.Allocs)
	assert.Equal(t, w.Iterations/w.ResetEvery, res.Resets)
}

func TestScenario(t *testing.T) {
	cb := backendtest.NewCounting(nil)
	a := newArena(t, arena.WithMaxChunkSize(ScenarioChunkSize), arena.WithBackend(cb))

	tr, err := Scenario(a)
	require.NoError(t, err)
	assert.Equal(t, uintptr(104), tr.Gap)
	assert.True(t, tr.Moved)
	assert.True(t, tr.PrefixKept)
	assert.Equal(t, 104+56+60, tr.InUseAtReset)
	assert.Zero(t, tr.ChunkAllocs)
	assert.Equal(t, 1, cb.Count(backendtest.OpAllocate))
	assert.Equal(t, ScenarioChunkSize, tr.Metrics.SizeInUse)
}
