// Package handle allocates the opaque identifiers handed out for publishers,
// subscribers, entries, multi-subscribers, listeners and pollers, and maps
// them back to their owning objects.
//
// Handles are never reused within a table's lifetime, so a released handle
// stays invalid forever instead of silently aliasing a newer object. The
// generic Lookup mirrors the type-safe retrieval pattern used elsewhere in
// the codebase: the caller states the type it expects and gets a checked
// result instead of a bare interface value.
package handle

import (
	"errors"
	"math"
	"sync"
)

// Handle is an opaque identifier. The zero Handle is never allocated and is
// safe to use as "no handle".
type Handle uint32

// Kind tags what sort of object a handle refers to.
type Kind uint8

const (
	KindPublisher Kind = iota + 1
	KindSubscriber
	KindEntry
	KindMultiSubscriber
	KindListener
	KindPoller
)

// String returns a short name for the kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindPublisher:
		return "publisher"
	case KindSubscriber:
		return "subscriber"
	case KindEntry:
		return "entry"
	case KindMultiSubscriber:
		return "multisubscriber"
	case KindListener:
		return "listener"
	case KindPoller:
		return "poller"
	default:
		return "unknown"
	}
}

// ErrExhausted is returned by Alloc when the handle space is used up. This is
// the one fatal condition the table reports rather than wrapping around and
// corrupting live references.
var ErrExhausted = errors.New("handle space exhausted")

type slot struct {
	kind  Kind
	owner any
}

// Table is a concurrent handle allocator. The zero value is not usable; use
// NewTable.
type Table struct {
	mu    sync.RWMutex
	next  uint32
	slots map[Handle]slot
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{slots: make(map[Handle]slot)}
}

// Alloc reserves a new handle of the given kind owned by owner.
func (t *Table) Alloc(kind Kind, owner any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.next == math.MaxUint32 {
		return 0, ErrExhausted
	}
	t.next++
	h := Handle(t.next)
	t.slots[h] = slot{kind: kind, owner: owner}
	return h, nil
}

// Kind returns the kind a handle was allocated with.
func (t *Table) Kind(h Handle) (Kind, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.slots[h]
	return s.kind, ok
}

// Release invalidates a handle and returns its owner so the caller can tear
// the object down. Releasing an unknown or already-released handle returns
// ok == false; it is not an error at this layer.
func (t *Table) Release(h Handle) (owner any, kind Kind, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[h]
	if !ok {
		return nil, 0, false
	}
	delete(t.slots, h)
	return s.owner, s.kind, true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.slots)
}

// Lookup retrieves the owner of h as type T. It fails if the handle is
// unknown, was released, carries a different kind, or the owner is not a T.
func Lookup[T any](t *Table, h Handle, kind Kind) (T, bool) {
	t.mu.RLock()
	s, ok := t.slots[h]
	t.mu.RUnlock()

	if !ok || s.kind != kind {
		var zero T
		return zero, false
	}
	owner, ok := s.owner.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return owner, true
}
