package arena

import "github.com/pkg/errors"

// Verify walks the chunk list and reports the first broken invariant:
// links that do not mirror each other, a list that does not end at the
// last chunk, a cursor outside its payload, a damaged chunk header, or a
// cached chunk still linked into the list.
func (a *Arena) Verify() error {
	a.panicIfDestroyed()
	if a.chunks[a.current].next != nilSlot {
		return errors.Errorf("arena: current chunk %d has a successor %d", a.current, a.chunks[a.current].next)
	}
	seen := make(map[int]bool)
	tail := nilSlot
	for s := a.current; s != nilSlot; s = a.chunks[s].prev {
		if seen[s] {
			return errors.Errorf("arena: chunk %d appears twice in the list", s)
		}
		seen[s] = true
		c := &a.chunks[s]
		if c.region == nil {
			return errors.Errorf("arena: chunk %d has no region", s)
		}
		if c.pos < a.hdr || c.pos > len(c.region) {
			return errors.Errorf("arena: chunk %d cursor %d outside [%d, %d]", s, c.pos, a.hdr, len(c.region))
		}
		if slot, ok := c.headerSlot(); !ok || slot != s {
			return errors.Errorf("arena: chunk %d header damaged", s)
		}
		if c.prev != nilSlot && a.chunks[c.prev].next != s {
			return errors.Errorf("arena: chunk %d and its predecessor %d disagree", s, c.prev)
		}
		if !c.large && s != a.current && c.span(a.hdr) < a.maxChunkSize {
			return errors.Errorf("arena: ordinary chunk %d smaller than max chunk size", s)
		}
		tail = s
	}
	if tail != a.last {
		return errors.Errorf("arena: list ends at %d, last is %d", tail, a.last)
	}
	for _, s := range a.cachedSlots() {
		if seen[s] {
			return errors.Errorf("arena: cached chunk %d is still linked", s)
		}
	}
	return nil
}

func (a *Arena) cachedSlots() []int {
	if f, ok := a.free.(*oneSlot); ok && f.slot != nilSlot {
		return []int{f.slot}
	}
	return nil
}
