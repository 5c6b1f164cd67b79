package arena

import (
	"math"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pavanmanishd/regionarena/backend"
)

// Arena is a region allocator over a list of chunks. Not goroutine-safe:
// give each goroutine its own arena or use SafeArena.
type Arena struct {
	chunks []chunk // slot table, owns every chunk
	spare  []int   // unused slots in chunks
	free   freeList

	current int // chunk receiving small allocations, head of the list
	last    int // oldest chunk, tail of the list

	// lastAlloc is the address of the most recent small allocation, the
	// only one Resize can grow or shrink without copying.
	lastAlloc unsafe.Pointer

	maxChunkSize int
	align        int
	hdr          int // chunk header size, payload offset within a region

	backend backend.Backend
	log     *logrus.Entry
	stats   counters
}

// New creates an arena holding one empty chunk of the configured max chunk
// size.
func New(opts ...Option) (*Arena, error) {
	o := options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.validate(); err != nil {
		return nil, err
	}
	if o.backend == nil {
		b, err := backend.ByName(o.config.Backend)
		if err != nil {
			return nil, errors.WithMessage(err, "arena")
		}
		o.backend = b
	}
	if o.log == nil {
		o.log = logrus.WithField("component", "arena")
	}
	a := &Arena{
		current:      nilSlot,
		last:         nilSlot,
		maxChunkSize: o.config.MaxChunkSize,
		align:        o.config.Alignment,
		hdr:          alignUp(headerBytes, o.config.Alignment),
		backend:      o.backend,
		log:          o.log,
	}
	a.free = newOneSlot(a)
	slot, err := a.newChunk(a.maxChunkSize)
	if err != nil {
		return nil, err
	}
	a.current, a.last = slot, slot
	return a, nil
}

// Alloc returns size bytes of arena memory. The slice has no spare
// capacity and stays valid until Reset or Destroy. Memory is not zeroed.
//
// Requests of at least the max chunk size get a chunk of their own,
// linked in behind the current chunk so small allocations keep bumping
// where they were.
func (a *Arena) Alloc(size int) ([]byte, error) {
	a.panicIfDestroyed()
	if size < 0 {
		return nil, errors.WithMessagef(ErrInvalidSize, "alloc %d bytes", size)
	}
	a.stats.allocs++
	if size >= a.maxChunkSize {
		return a.allocLarge(size)
	}

	c := &a.chunks[a.current]
	pos := alignUp(c.pos, a.align)
	if pos+size > len(c.region) {
		slot, err := a.newChunk(a.maxChunkSize)
		if err != nil {
			return nil, err
		}
		c = &a.chunks[slot]
		c.prev = a.current
		a.chunks[a.current].next = slot
		a.current = slot
		pos = c.pos
	}
	c.pos = pos + size
	buf := c.region[pos : pos+size : pos+size]
	a.lastAlloc = unsafe.Pointer(unsafe.SliceData(buf))
	return buf, nil
}

func (a *Arena) allocLarge(size int) ([]byte, error) {
	if cur := &a.chunks[a.current]; cur.pos == a.hdr && size <= cur.span(a.hdr) {
		// nothing was bumped out of the current chunk yet, hand it over whole
		cur.pos, cur.large = len(cur.region), true
		a.lastAlloc = nil
		return cur.region[a.hdr : a.hdr+size : a.hdr+size], nil
	}
	slot, err := a.newChunk(size)
	if err != nil {
		return nil, err
	}
	c := &a.chunks[slot]
	c.pos, c.large = a.hdr+size, true

	cur := &a.chunks[a.current]
	prev := cur.prev
	cur.prev = slot
	c.next, c.prev = a.current, prev
	if prev != nilSlot {
		a.chunks[prev].next = slot
	} else {
		a.last = slot
	}
	return c.region[a.hdr : a.hdr+size : a.hdr+size], nil
}

// Resize grows or shrinks buf, a slice previously returned by Alloc or
// Resize, to newSize bytes. The first min(len(buf), newSize) bytes are
// preserved. Callers must continue with the returned slice: buf may have
// moved.
//
// Large allocations that stay large are resized by the backend. The most
// recent small allocation is resized in place when the chunk has room.
// Anything else is copied into a fresh allocation, the old bytes being
// reclaimed by the next Reset or Destroy.
func (a *Arena) Resize(buf []byte, newSize int) ([]byte, error) {
	a.panicIfDestroyed()
	if newSize < 0 {
		return nil, errors.WithMessagef(ErrInvalidSize, "resize to %d bytes", newSize)
	}
	a.stats.resizes++
	oldSize := len(buf)
	if oldSize >= a.maxChunkSize && newSize > a.maxChunkSize {
		return a.resizeLarge(buf, newSize)
	}

	if ptr := unsafe.Pointer(unsafe.SliceData(buf)); ptr != nil && ptr == a.lastAlloc {
		c := &a.chunks[a.current]
		c.pos -= oldSize
		if c.pos+newSize <= len(c.region) {
			start := c.pos
			c.pos += newSize
			a.stats.inPlace++
			return c.region[start:c.pos:c.pos], nil
		}
		a.lastAlloc = nil
		fresh, err := a.Alloc(newSize)
		if err != nil {
			a.chunks[a.current].pos += oldSize
			a.lastAlloc = ptr
			return nil, err
		}
		copy(fresh, buf)
		a.stats.copies++
		return fresh, nil
	}

	fresh, err := a.Alloc(newSize)
	if err != nil {
		return nil, err
	}
	copy(fresh, buf)
	a.stats.copies++
	return fresh, nil
}

func (a *Arena) resizeLarge(buf []byte, newSize int) ([]byte, error) {
	slot, err := a.owner(buf)
	if err != nil {
		return nil, err
	}
	if newSize > math.MaxInt-a.hdr {
		return nil, errors.WithMessagef(ErrBackendExhausted, "resize chunk to %d bytes", newSize)
	}
	c := &a.chunks[slot]
	oldSize := len(c.region)
	region, err := a.backend.Resize(c.region, a.hdr+newSize)
	if err != nil {
		a.log.WithError(err).WithField("size", newSize).Warn("Chunk resize failed")
		return nil, errors.Wrapf(err, "arena: resize chunk to %d bytes", newSize)
	}
	a.stats.backendResizes++
	c.region = region
	c.pos = len(region)
	if slot == a.current {
		a.lastAlloc = nil
	}
	if a.debugEnabled() {
		a.log.WithFields(logrus.Fields{
			"slot": slot,
			"from": humanize.IBytes(uint64(oldSize)),
			"to":   humanize.IBytes(uint64(len(region))),
		}).Debug("Resized large chunk")
	}
	return region[a.hdr:len(region):len(region)], nil
}

// owner finds the large chunk whose payload starts at buf.
func (a *Arena) owner(buf []byte) (int, error) {
	ptr := unsafe.Pointer(unsafe.SliceData(buf))
	for s := a.current; s != nilSlot; s = a.chunks[s].prev {
		c := &a.chunks[s]
		if c.large && unsafe.Pointer(&c.region[a.hdr]) == ptr {
			return s, nil
		}
	}
	return nilSlot, errors.WithMessagef(ErrForeignAllocation, "resize of %d bytes", len(buf))
}

// EnsureCapacity makes sure the next small allocation of n bytes is served
// from the current chunk, starting a new chunk now if it would not fit.
// Sizes at or above the max chunk size always get their own chunk, so
// EnsureCapacity ignores them.
func (a *Arena) EnsureCapacity(n int) error {
	a.panicIfDestroyed()
	if n < 0 || n >= a.maxChunkSize {
		return nil
	}
	c := &a.chunks[a.current]
	if alignUp(c.pos, a.align)+n <= len(c.region) {
		return nil
	}
	slot, err := a.newChunk(a.maxChunkSize)
	if err != nil {
		return err
	}
	a.chunks[slot].prev = a.current
	a.chunks[a.current].next = slot
	a.current = slot
	// the last allocation now lives in an older chunk
	a.lastAlloc = nil
	return nil
}

// Reset releases every allocation at once. The current chunk is kept and
// rewound, the chunk before it is cached for reuse and all older chunks go
// back to the backend. Slices handed out before Reset must not be used
// afterwards.
func (a *Arena) Reset() error {
	a.panicIfDestroyed()
	var errs *multierror.Error
	cur := a.current
	if cur != a.last {
		keep := a.chunks[cur].prev
		for s := a.chunks[keep].prev; s != nilSlot; {
			prev := a.chunks[s].prev
			if err := a.release(s); err != nil {
				errs = multierror.Append(errs, err)
			}
			s = prev
		}
		k := &a.chunks[keep]
		k.prev, k.next, k.large = nilSlot, nilSlot, false
		for _, s := range a.free.cache(keep) {
			if err := a.release(s); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		a.chunks[cur].prev = nilSlot
		a.last = cur
	}
	c := &a.chunks[cur]
	c.pos, c.next, c.large = a.hdr, nilSlot, false
	a.lastAlloc = nil
	return errs.ErrorOrNil()
}

// Destroy returns every chunk, including the cached one, to the backend.
// The arena cannot be used afterwards; any further call panics.
func (a *Arena) Destroy() error {
	a.panicIfDestroyed()
	var errs *multierror.Error
	n := 0
	for s := a.current; s != nilSlot; {
		prev := a.chunks[s].prev
		if err := a.release(s); err != nil {
			errs = multierror.Append(errs, err)
		}
		s = prev
		n++
	}
	for _, s := range a.free.drain() {
		if err := a.release(s); err != nil {
			errs = multierror.Append(errs, err)
		}
		n++
	}
	if a.debugEnabled() {
		a.log.WithField("chunks", n).Debug("Destroyed arena")
	}
	a.chunks, a.spare = nil, nil
	a.current, a.last = nilSlot, nilSlot
	a.lastAlloc = nil
	return errs.ErrorOrNil()
}

// newChunk produces a detached chunk with at least size payload bytes,
// reusing the cached chunk when it is big enough. On failure the arena is
// left as it was, apart from an undersized cached chunk having been
// released.
func (a *Arena) newChunk(size int) (int, error) {
	if size > math.MaxInt-a.hdr {
		return nilSlot, errors.WithMessagef(ErrBackendExhausted, "chunk of %d bytes", size)
	}
	slot, evicted := a.free.tryReuse(size)
	for _, s := range evicted {
		if err := a.release(s); err != nil {
			return nilSlot, err
		}
	}
	if slot != nilSlot {
		a.stats.reuses++
		if a.debugEnabled() {
			a.log.WithFields(logrus.Fields{
				"slot": slot,
				"size": humanize.IBytes(uint64(a.chunks[slot].span(a.hdr))),
			}).Debug("Reused cached chunk")
		}
	} else {
		region, err := a.backend.Allocate(a.hdr + size)
		if err != nil {
			a.log.WithError(err).WithField("size", size).Warn("Chunk allocation failed")
			return nilSlot, errors.Wrapf(err, "arena: allocate chunk of %d bytes", size)
		}
		a.stats.backendAllocs++
		slot = a.takeSlot()
		a.chunks[slot].region = region
		if a.debugEnabled() {
			a.log.WithFields(logrus.Fields{
				"slot": slot,
				"size": humanize.IBytes(uint64(size)),
			}).Debug("Allocated chunk")
		}
	}
	c := &a.chunks[slot]
	c.pos, c.prev, c.next, c.large = a.hdr, nilSlot, nilSlot, false
	c.writeHeader(slot)
	return slot, nil
}

// release hands a chunk's region back to the backend and frees its slot.
func (a *Arena) release(slot int) error {
	region := a.chunks[slot].region
	a.dropSlot(slot)
	a.stats.backendDeallocs++
	if err := a.backend.Deallocate(region); err != nil {
		a.log.WithError(err).WithField("size", len(region)).Warn("Chunk release failed")
		return errors.Wrapf(err, "arena: release chunk of %d bytes", len(region))
	}
	if a.debugEnabled() {
		a.log.WithFields(logrus.Fields{
			"slot": slot,
			"size": humanize.IBytes(uint64(len(region))),
		}).Debug("Released chunk")
	}
	return nil
}

func (a *Arena) debugEnabled() bool {
	return a.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// panicIfDestroyed panics if the arena has been destroyed.
func (a *Arena) panicIfDestroyed() {
	if a.chunks == nil {
		panic(useAfterDestroy)
	}
}

// alignUp rounds n up to a multiple of align, a power of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
