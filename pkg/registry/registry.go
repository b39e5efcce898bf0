// Package registry maps opaque numeric identifiers to backend-owned
// handles. One Table exists per resource kind; it is the single place
// identifier-to-handle resolution occurs, so the host never sees a raw
// native handle.
//
// Identifiers are slot indices tagged with a per-slot generation. Reusing
// a slot after removal bumps the generation, so a stale identifier held by
// the host misses instead of resolving to an unrelated live resource.
package registry

// ID is an opaque resource identifier handed to the host. The zero ID is
// reserved as invalid/none. The low 32 bits carry the slot index plus one,
// the high 32 bits the slot generation, so identifiers issued by
// consecutive inserts on a fresh table are 1, 2, 3, ...
type ID uint64

// Invalid is the reserved none identifier.
const Invalid ID = 0

func (id ID) index() int { return int(uint32(id)) - 1 }
func (id ID) generation() uint32 { return uint32(id >> 32) }

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Table is a registry for one resource kind. Not safe for concurrent use;
// calls are serialized by the host.
type Table[T any] struct {
	slots []slot[T]
	free  []int
	count int
}

// New returns an empty Table.
func New[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert registers a handle and returns its identifier.
func (t *Table[T]) Insert(v T) ID {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.value = v
		s.live = true
		t.count++
		return makeID(idx, s.gen)
	}
	t.slots = append(t.slots, slot[T]{value: v, live: true})
	t.count++
	return makeID(len(t.slots)-1, 0)
}

func makeID(index int, gen uint32) ID {
	return ID(gen)<<32 | ID(uint32(index+1))
}

// Lookup resolves an identifier to its handle. Unknown, stale, and invalid
// identifiers all miss.
func (t *Table[T]) Lookup(id ID) (T, bool) {
	var zero T
	s := t.slot(id)
	if s == nil {
		return zero, false
	}
	return s.value, true
}

// Remove drops an association and returns the removed handle. Removing an
// unknown identifier is a no-op, not an error.
func (t *Table[T]) Remove(id ID) (T, bool) {
	var zero T
	s := t.slot(id)
	if s == nil {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.live = false
	s.gen++ // invalidate outstanding identifiers for this slot
	t.free = append(t.free, id.index())
	t.count--
	return v, true
}

// slot returns the live slot for id, or nil when id is invalid, out of
// range, vacated, or from an earlier generation.
func (t *Table[T]) slot(id ID) *slot[T] {
	if id == Invalid {
		return nil
	}
	idx := id.index()
	if idx < 0 || idx >= len(t.slots) {
		return nil
	}
	s := &t.slots[idx]
	if !s.live || s.gen != id.generation() {
		return nil
	}
	return s
}

// Each visits every live association. The visit order is slot order, not
// insertion order. The callback must not mutate the table.
func (t *Table[T]) Each(fn func(ID, T)) {
	for i := range t.slots {
		if t.slots[i].live {
			fn(makeID(i, t.slots[i].gen), t.slots[i].value)
		}
	}
}

// Len returns the number of live associations.
func (t *Table[T]) Len() int { return t.count }

// Reset drops all associations and restarts identifier allocation, so the
// next Insert yields ID 1 again.
func (t *Table[T]) Reset() {
	t.slots = t.slots[:0]
	t.free = t.free[:0]
	t.count = 0
}
