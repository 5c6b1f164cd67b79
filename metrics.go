package arena

// counters are cumulative since New.
type counters struct {
	allocs          uint64
	resizes         uint64
	inPlace         uint64
	copies          uint64
	reuses          uint64
	backendAllocs   uint64
	backendDeallocs uint64
	backendResizes  uint64
}

// SizeInUse returns the number of payload bytes bumped out of the chunk
// list, alignment padding included.
func (a *Arena) SizeInUse() int {
	if a.chunks == nil {
		return 0
	}
	sum := 0
	for s := a.current; s != nilSlot; s = a.chunks[s].prev {
		sum += a.chunks[s].pos - a.hdr
	}
	return sum
}

// NumChunks returns the number of chunks in the list, the cached chunk
// excluded.
func (a *Arena) NumChunks() int {
	if a.chunks == nil {
		return 0
	}
	n := 0
	for s := a.current; s != nilSlot; s = a.chunks[s].prev {
		n++
	}
	return n
}

// Capacity returns the payload capacity of all chunks in the list.
func (a *Arena) Capacity() int {
	if a.chunks == nil {
		return 0
	}
	sum := 0
	for s := a.current; s != nilSlot; s = a.chunks[s].prev {
		sum += a.chunks[s].span(a.hdr)
	}
	return sum
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// MaxChunkSize returns the payload size of ordinary chunks.
func (a *Arena) MaxChunkSize() int {
	return a.maxChunkSize
}

// Alignment returns the alignment of small allocations.
func (a *Arena) Alignment() int {
	return a.align
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	m := Metrics{
		SizeInUse:       a.SizeInUse(),
		Capacity:        a.Capacity(),
		NumChunks:       a.NumChunks(),
		MaxChunkSize:    a.maxChunkSize,
		Utilization:     a.Utilization(),
		Allocs:          a.stats.allocs,
		Resizes:         a.stats.resizes,
		InPlaceResizes:  a.stats.inPlace,
		CopyResizes:     a.stats.copies,
		ChunkReuses:     a.stats.reuses,
		BackendAllocs:   a.stats.backendAllocs,
		BackendDeallocs: a.stats.backendDeallocs,
		BackendResizes:  a.stats.backendResizes,
	}
	if a.chunks != nil {
		m.CachedBytes = a.free.held()
		for s := a.current; s != nilSlot; s = a.chunks[s].prev {
			if a.chunks[s].large {
				m.LargeChunks++
			}
		}
	}
	return m
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	SizeInUse    int     // Bytes bumped out of chunks
	Capacity     int     // Payload capacity of listed chunks
	NumChunks    int     // Chunks in the list
	LargeChunks  int     // Chunks dedicated to one large allocation
	CachedBytes  int     // Payload held by the cached free chunk
	MaxChunkSize int     // Ordinary chunk payload size
	Utilization  float64 // Ratio of used to total capacity (0.0-1.0)

	Allocs          uint64 // Alloc calls, including those made by Resize
	Resizes         uint64 // Resize calls
	InPlaceResizes  uint64 // Resizes served without moving
	CopyResizes     uint64 // Resizes served by allocate and copy
	ChunkReuses     uint64 // Chunks taken from the free cache
	BackendAllocs   uint64 // Backend Allocate calls
	BackendDeallocs uint64 // Backend Deallocate calls
	BackendResizes  uint64 // Backend Resize calls
}

// Thread-safe metrics for SafeArena

// SizeInUse thread-safely returns the bytes in use.
func (s *SafeArena) SizeInUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.SizeInUse()
}

// NumChunks thread-safely returns the number of chunks.
func (s *SafeArena) NumChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.NumChunks()
}

// Capacity thread-safely returns the payload capacity of all chunks.
func (s *SafeArena) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Capacity()
}

// Utilization thread-safely returns the ratio of bytes in use to capacity.
func (s *SafeArena) Utilization() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Utilization()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
