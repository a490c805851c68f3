package table

import (
	"github.com/nfrund/nettable/internal/handle"
	"github.com/nfrund/nettable/internal/value"
)

// Publisher is a write-capability handle bound to one topic and its committed
// type. It owns one share of the topic's publisher count until closed.
type Publisher struct {
	inst  *Instance
	h     handle.Handle
	topic *topicState
	opts  Options

	// closed is guarded by inst.mu.
	closed bool
}

// Topic returns the topic name the publisher is bound to.
func (p *Publisher) Topic() string { return p.topic.name }

// Handle returns the publisher's opaque identifier.
func (p *Publisher) Handle() handle.Handle { return p.h }

// Set applies a value to the topic and propagates it to every compatible
// subscriber. A zero timestamp on v is replaced with the engine clock. The
// value's kind must match the topic's committed type.
func (p *Publisher) Set(v value.Value) error {
	i := p.inst
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}
	if p.closed {
		return errInvalidHandle("publisher")
	}
	if v.Kind() != p.topic.kind {
		return errTypeMismatch(p.topic.name, p.topic.kind.String(), v.Kind().String())
	}
	return i.setLocked(p.topic, v, originLocal, p.opts.KeepDuplicates)
}

// SetDefault applies v only if the topic has never held a value: the first
// default wins, and after any successful Set it is a silent no-op.
func (p *Publisher) SetDefault(v value.Value) error {
	i := p.inst
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}
	if p.closed {
		return errInvalidHandle("publisher")
	}
	if p.topic.hasValue {
		return nil
	}
	if v.Kind() != p.topic.kind {
		return errTypeMismatch(p.topic.name, p.topic.kind.String(), v.Kind().String())
	}
	return i.setLocked(p.topic, v, originLocal, p.opts.KeepDuplicates)
}

// Close releases the publisher's share of the topic. When the last publisher
// releases, the topic retires: its last value stays visible but no further
// sets are accepted until it is published again.
func (p *Publisher) Close() error {
	return p.inst.Release(p.h)
}
