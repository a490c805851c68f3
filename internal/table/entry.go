package table

import (
	"github.com/nfrund/nettable/internal/handle"
	"github.com/nfrund/nettable/internal/value"
)

// Entry combines an eager subscriber with a lazily-created publisher on one
// topic. Reading works from the moment the entry exists; the publisher half,
// and with it the entry's share of the topic's publisher count, appears only
// on the first Set-like call.
type Entry struct {
	inst *Instance
	h    handle.Handle
	sub  *Subscriber
	pub  *Publisher // nil until first write; guarded by inst.mu
	kind value.Kind
	opts Options

	// released is guarded by inst.mu.
	released bool
}

// Topic returns the topic name the entry is bound to.
func (e *Entry) Topic() string { return e.sub.topic.name }

// Handle returns the entry's opaque identifier.
func (e *Entry) Handle() handle.Handle { return e.h }

// Get returns the most recent value delivered to the entry's subscriber
// half, or its default.
func (e *Entry) Get() value.Value { return e.sub.Get() }

// GetAtomic returns the current value and its timestamp as one snapshot.
func (e *Entry) GetAtomic() (value.Value, int64) { return e.sub.GetAtomic() }

// Exists reports whether any value has been delivered to the entry.
func (e *Entry) Exists() bool { return e.sub.Exists() }

// ReadQueue drains the entry's undelivered updates in arrival order.
func (e *Entry) ReadQueue() []value.Value { return e.sub.ReadQueue() }

// ReadQueueValues drains the undelivered updates with timestamps stripped.
func (e *Entry) ReadQueueValues() []any { return e.sub.ReadQueueValues() }

// Set writes a value through the entry, materializing the publisher half on
// first use. A type conflict with the topic's committed type fails the write
// and leaves the subscriber half untouched; the entry stays readable.
func (e *Entry) Set(v value.Value) error {
	return e.write(v, false)
}

// SetDefault writes v only if the topic has never held a value. Like Set, it
// materializes the publisher half on first use.
func (e *Entry) SetDefault(v value.Value) error {
	return e.write(v, true)
}

func (e *Entry) write(v value.Value, defaultOnly bool) error {
	i := e.inst
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}
	if e.released {
		return errInvalidHandle("entry")
	}

	t := e.sub.topic
	if defaultOnly && t.hasValue {
		return nil
	}

	if e.pub == nil {
		// Lazy publish. A typed entry publishes its configured kind; a
		// generic entry commits whatever kind it writes first.
		kind := e.kind
		if kind == value.KindUnassigned {
			kind = v.Kind()
		}
		pub, err := i.publishLocked(t, kind, "", e.opts)
		if err != nil {
			return err
		}
		e.pub = pub
	}

	if v.Kind() != t.kind {
		return errTypeMismatch(t.name, t.kind.String(), v.Kind().String())
	}
	return i.setLocked(t, v, originLocal, e.opts.KeepDuplicates)
}

// Unpublish drops only the publisher half, returning the entry to its
// read-only state. The next Set re-publishes. Unpublishing an entry that
// never wrote is a no-op.
func (e *Entry) Unpublish() error {
	i := e.inst
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}
	if e.released {
		return errInvalidHandle("entry")
	}
	if e.pub != nil {
		i.handles.Release(e.pub.h)
		i.releasePublisherLocked(e.pub)
		e.pub = nil
	}
	return nil
}

// Close releases both halves of the entry.
func (e *Entry) Close() error {
	return e.inst.Release(e.h)
}
