package arena

import "encoding/binary"

const (
	nilSlot = -1

	// headerBytes is the space a chunk header needs before alignment.
	headerBytes = 16
	chunkMagic  = 0x414e5241 // "ARNA"
)

// chunk is one backend region: a header followed by the payload that
// allocations are bumped out of. Chunks sit in the arena's slot table and
// link to each other by slot index, newest (current) to oldest (last).
type chunk struct {
	region []byte // whole backend allocation, header included
	pos    int    // next free byte, offset into region
	prev   int
	next   int
	large  bool // holds a single large allocation
}

// span is the payload capacity of the chunk.
func (c *chunk) span(hdr int) int {
	return len(c.region) - hdr
}

func (c *chunk) writeHeader(slot int) {
	binary.LittleEndian.PutUint32(c.region[0:], chunkMagic)
	binary.LittleEndian.PutUint32(c.region[4:], uint32(slot))
}

func (c *chunk) headerSlot() (int, bool) {
	if binary.LittleEndian.Uint32(c.region[0:]) != chunkMagic {
		return nilSlot, false
	}
	return int(binary.LittleEndian.Uint32(c.region[4:])), true
}

// takeSlot returns an unused slot index, growing the table if none is
// spare. Pointers into a.chunks do not survive this call.
func (a *Arena) takeSlot() int {
	if n := len(a.spare); n > 0 {
		slot := a.spare[n-1]
		a.spare = a.spare[:n-1]
		return slot
	}
	a.chunks = append(a.chunks, chunk{})
	return len(a.chunks) - 1
}

func (a *Arena) dropSlot(slot int) {
	a.chunks[slot] = chunk{}
	a.spare = append(a.spare, slot)
}

// freeList keeps detached chunks for reuse by later chunk creation.
type freeList interface {
	// tryReuse hands out a cached chunk with at least minSize payload
	// bytes, or nilSlot. Cached chunks too small to serve are returned in
	// evicted and must be released by the caller.
	tryReuse(minSize int) (slot int, evicted []int)

	// cache keeps slot for reuse; whatever it displaces is returned.
	cache(slot int) (evicted []int)

	// drain empties the list.
	drain() []int

	// held reports the payload bytes kept in the list.
	held() int
}

// oneSlot caches a single chunk.
type oneSlot struct {
	a    *Arena
	slot int
}

func newOneSlot(a *Arena) *oneSlot {
	return &oneSlot{a: a, slot: nilSlot}
}

func (f *oneSlot) tryReuse(minSize int) (int, []int) {
	if f.slot == nilSlot {
		return nilSlot, nil
	}
	slot := f.slot
	f.slot = nilSlot
	if f.a.chunks[slot].span(f.a.hdr) >= minSize {
		return slot, nil
	}
	return nilSlot, []int{slot}
}

func (f *oneSlot) cache(slot int) []int {
	prev := f.slot
	f.slot = slot
	if prev == nilSlot {
		return nil
	}
	return []int{prev}
}

func (f *oneSlot) drain() []int {
	if f.slot == nilSlot {
		return nil
	}
	slot := f.slot
	f.slot = nilSlot
	return []int{slot}
}

func (f *oneSlot) held() int {
	if f.slot == nilSlot {
		return 0
	}
	return f.a.chunks[f.slot].span(f.a.hdr)
}
