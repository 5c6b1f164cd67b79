// Package arena implements a region allocator (memory arena) for Go.
//
// # Overview
//
// An arena hands out memory by bumping a cursor through large chunks and
// releases everything at once. It suits workloads that allocate many small,
// short-lived objects together:
//
//   - Request-scoped allocations in servers
//   - Parser and interpreter nodes
//   - Temporary buffers with batch cleanup
//
// # Basic Usage
//
//	a, err := arena.New()            // 16 KiB chunks on the Go heap
//	if err != nil {
//		return err
//	}
//	defer a.Destroy()
//
//	buf, err := a.Alloc(1024)        // raw bytes
//	buf, err = a.Resize(buf, 2048)   // in place if buf was the last allocation
//	p, err := arena.Alloc[MyStruct](a)
//
//	a.Reset()                        // drop every allocation at once
//
// # Chunks
//
// Small requests are bumped out of the current chunk, aligned to the arena
// alignment (pointer size by default). When the current chunk is full a new
// chunk of the max chunk size becomes current. Requests of at least the max
// chunk size get a chunk sized exactly to them, linked in behind the
// current chunk so it keeps serving small requests.
//
// Reset keeps the current chunk, caches the one before it for reuse and
// returns the rest to the backend. Destroy returns everything.
//
// # Backends
//
// Chunk memory comes from a backend.Backend chosen per arena: backend.Heap
// (Go heap, the default) or backend.VM (mmap/mremap or VirtualAlloc). VM
// memory is invisible to the garbage collector, so values stored there must
// not hold the only reference to heap objects.
//
// # Thread Safety
//
// Arena is not thread-safe. Use one arena per goroutine, or SafeArena:
//
//	s, err := arena.NewSafe()
//	buf, err := s.Alloc(64)
//
// # Errors
//
// Every allocating call returns an error wrapping ErrBackendExhausted when
// the backend runs out of memory. The failed call leaves the arena as it
// was.
package arena
