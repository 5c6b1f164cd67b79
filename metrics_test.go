package arena

import (
	"testing"
)

func TestArenaMetrics(t *testing.T) {
	a, _ := newTestArena(t, 1024)
	defer a.Destroy()

	if a.SizeInUse() != 0 {
		t.Errorf("Initial SizeInUse = %d, want 0", a.SizeInUse())
	}
	if a.NumChunks() != 1 {
		t.Errorf("Initial NumChunks = %d, want 1", a.NumChunks())
	}
	if a.Capacity() != 1024 {
		t.Errorf("Initial Capacity = %d, want 1024", a.Capacity())
	}
	if a.Utilization() != 0 {
		t.Errorf("Initial Utilization = %f, want 0", a.Utilization())
	}

	mustAlloc(t, a, 100)
	mustAlloc(t, a, 200) // 4 bytes of padding in front

	if a.SizeInUse() != 304 {
		t.Errorf("SizeInUse = %d, want 304", a.SizeInUse())
	}
	utilization := a.Utilization()
	if utilization <= 0 || utilization > 1 {
		t.Errorf("Utilization = %f, want 0 < x <= 1", utilization)
	}

	mustAlloc(t, a, 2000) // larger than the chunk size
	if a.NumChunks() != 2 {
		t.Errorf("NumChunks after large alloc = %d, want 2", a.NumChunks())
	}
	if a.Capacity() != 3024 {
		t.Errorf("Capacity after large alloc = %d, want 3024", a.Capacity())
	}

	metrics := a.Metrics()
	if metrics.SizeInUse != a.SizeInUse() {
		t.Errorf("Metrics.SizeInUse = %d, want %d", metrics.SizeInUse, a.SizeInUse())
	}
	if metrics.Capacity != a.Capacity() {
		t.Errorf("Metrics.Capacity = %d, want %d", metrics.Capacity, a.Capacity())
	}
	if metrics.NumChunks != a.NumChunks() {
		t.Errorf("Metrics.NumChunks = %d, want %d", metrics.NumChunks, a.NumChunks())
	}
	if metrics.MaxChunkSize != 1024 {
		t.Errorf("Metrics.MaxChunkSize = %d, want 1024", metrics.MaxChunkSize)
	}
	if metrics.Utilization != a.Utilization() {
		t.Errorf("Metrics.Utilization = %f, want %f", metrics.Utilization, a.Utilization())
	}
	if metrics.LargeChunks != 1 {
		t.Errorf("Metrics.LargeChunks = %d, want 1", metrics.LargeChunks)
	}
	if metrics.Allocs != 3 || metrics.BackendAllocs != 2 {
		t.Errorf("Metrics allocs = %d, backend allocs = %d, want 3, 2", metrics.Allocs, metrics.BackendAllocs)
	}
}

func TestArenaMetricsResizeCounters(t *testing.T) {
	a, _ := newTestArena(t, 1024)
	defer a.Destroy()

	b := mustAlloc(t, a, 10)
	b, _ = a.Resize(b, 20) // in place
	mustAlloc(t, a, 1)
	a.Resize(b, 40) // copy

	big := mustAlloc(t, a, 2048)
	if _, err := a.Resize(big, 4096); err != nil {
		t.Fatal(err)
	}

	m := a.Metrics()
	if m.Resizes != 3 || m.InPlaceResizes != 1 || m.CopyResizes != 1 || m.BackendResizes != 1 {
		t.Errorf("resizes = %d (in place %d, copy %d, backend %d), want 3 (1, 1, 1)",
			m.Resizes, m.InPlaceResizes, m.CopyResizes, m.BackendResizes)
	}
}

func TestArenaMetricsAfterReset(t *testing.T) {
	a, _ := newTestArena(t, 1024)
	defer a.Destroy()

	mustAlloc(t, a, 500)
	mustAlloc(t, a, 2000)
	if a.SizeInUse() == 0 {
		t.Error("Expected non-zero SizeInUse before reset")
	}

	if err := a.Reset(); err != nil {
		t.Fatal(err)
	}
	m := a.Metrics()
	if m.SizeInUse != 0 {
		t.Errorf("SizeInUse after Reset = %d, want 0", m.SizeInUse)
	}
	if m.Utilization != 0 {
		t.Errorf("Utilization after Reset = %f, want 0", m.Utilization)
	}
	if m.NumChunks != 1 || m.Capacity != 1024 {
		t.Errorf("after Reset NumChunks = %d, Capacity = %d, want 1, 1024", m.NumChunks, m.Capacity)
	}
	// the large chunk sat right behind current, so it is the cached one
	if m.CachedBytes != 2000 {
		t.Errorf("CachedBytes after Reset = %d, want 2000", m.CachedBytes)
	}
	if m.LargeChunks != 0 {
		t.Errorf("LargeChunks after Reset = %d, want 0", m.LargeChunks)
	}
}

func TestArenaMetricsAfterDestroy(t *testing.T) {
	a, _ := newTestArena(t, 1024)
	mustAlloc(t, a, 100)

	if err := a.Destroy(); err != nil {
		t.Fatal(err)
	}

	if a.SizeInUse() != 0 {
		t.Errorf("SizeInUse after Destroy = %d, want 0", a.SizeInUse())
	}
	if a.NumChunks() != 0 {
		t.Errorf("NumChunks after Destroy = %d, want 0", a.NumChunks())
	}
	if a.Capacity() != 0 {
		t.Errorf("Capacity after Destroy = %d, want 0", a.Capacity())
	}
	if a.Utilization() != 0 {
		t.Errorf("Utilization after Destroy = %f, want 0", a.Utilization())
	}
}

func TestSafeArenaMetrics(t *testing.T) {
	s, err := NewSafe(WithMaxChunkSize(2048))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Destroy()

	if _, err := s.Alloc(300); err != nil {
		t.Fatal(err)
	}

	if s.SizeInUse() != 300 {
		t.Errorf("SafeArena SizeInUse = %d, want 300", s.SizeInUse())
	}
	if s.NumChunks() != 1 {
		t.Errorf("SafeArena NumChunks = %d, want 1", s.NumChunks())
	}
	if s.Capacity() != 2048 {
		t.Errorf("SafeArena Capacity = %d, want 2048", s.Capacity())
	}

	utilization := s.Utilization()
	if utilization <= 0 || utilization > 1 {
		t.Errorf("SafeArena Utilization = %f, want 0 < x <= 1", utilization)
	}

	metrics := s.Metrics()
	if metrics.MaxChunkSize != 2048 {
		t.Errorf("SafeArena Metrics.MaxChunkSize = %d, want 2048", metrics.MaxChunkSize)
	}
	if metrics.SizeInUse != 300 {
		t.Errorf("SafeArena Metrics.SizeInUse = %d, want 300", metrics.SizeInUse)
	}
}

func TestUtilizationEdgeCases(t *testing.T) {
	a, _ := newTestArena(t, 1024)
	if a.Utilization() != 0 {
		t.Errorf("Empty arena Utilization = %f, want 0", a.Utilization())
	}
	a.Destroy()
	if a.Utilization() != 0 {
		t.Errorf("Destroyed arena Utilization = %f, want 0", a.Utilization())
	}

	// a request as big as the untouched chunk takes all of it
	full, _ := newTestArena(t, 100)
	defer full.Destroy()
	mustAlloc(t, full, full.Capacity())
	if util := full.Utilization(); util != 1 {
		t.Errorf("Full arena Utilization = %f, want 1.0", util)
	}
}

func BenchmarkMetrics(b *testing.B) {
	a, err := New(WithMaxChunkSize(64 * 1024))
	if err != nil {
		b.Fatal(err)
	}
	defer a.Destroy()
	for i := 0; i < 100; i++ {
		a.Alloc(1000)
	}

	b.Run("SizeInUse", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.SizeInUse()
		}
	})

	b.Run("NumChunks", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.NumChunks()
		}
	})

	b.Run("Capacity", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.Capacity()
		}
	})

	b.Run("Metrics", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.Metrics()
		}
	})
}

func BenchmarkSafeArenaMetrics(b *testing.B) {
	s, err := NewSafe(WithMaxChunkSize(64 * 1024))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Destroy()
	for i := 0; i < 100; i++ {
		s.Alloc(1000)
	}

	b.Run("SafeSizeInUse", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s.SizeInUse()
		}
	})

	b.Run("SafeMetrics", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s.Metrics()
		}
	})
}
