// Package evslot provides a concurrent slot map with lock-free reads and
// writes that are visible to readers before the write call returns.
//
// The map keeps two copies of a generation-tagged slot map. Readers always
// read the exposed copy; the writer mutates the other one, publishes it with a
// single atomic store, waits until no reader is still looking at the old copy,
// and then applies the same mutation to the old copy so both sides converge.
//
// Keys are opaque (index, generation) handles returned by Insert. There is no
// lookup from value to key.
//
// # Basic Usage
//
//	r, w := evslot.New(evslot.Options[string]{})
//	defer w.Close()
//
//	key := w.Insert("a")
//
//	// any goroutine with its own ReadHandle
//	v, ok := r.Get(key)
//
//	w.Update(key, "b")
//	w.Remove(key)
//
// # Concurrency
//
// evslot uses a multi-reader, single-writer model:
//   - A [ReadHandle] belongs to one goroutine at a time. Use [ReadHandle.Clone]
//     or a [ReadHandleFactory] to hand readers to other goroutines.
//   - Reads never take locks and never wait for the writer.
//   - Only one goroutine may call [WriteHandle] methods at a time. Use
//     [RWHandle] when several goroutines need to write.
//   - A write blocks until every reader that started before it has left its
//     read section. Keep [ReadRef] sections short.
//
// # Value Ownership
//
// Every stored value has two logical owners, one per copy. The [ShallowCopier]
// configured in [Options] creates the second owner and releases owners that
// the map drops. It must never panic: a partial duplication leaves the two
// copies diverged with no way to recover.
//
// # Error Handling
//
// Absence is not an error. Get, Update and Remove report ok=false for keys
// that were removed or never issued, and leave the map untouched.
//
// Using a handle after Close is a programming error and panics with
// [ErrClosed].
package evslot
