package table

import (
	"sync"

	"github.com/nfrund/nettable/internal/handle"
	"github.com/nfrund/nettable/internal/value"
)

// Subscriber is a read-capability handle on one topic: the latest value it
// received plus a bounded queue of undelivered updates. It owns one share of
// the topic's subscriber count until closed.
//
// A subscriber created with a concrete expected kind against a topic already
// bound to a different type is permanently inert: it reports its default and
// an empty queue.
type Subscriber struct {
	inst     *Instance
	h        handle.Handle
	topic    *topicState
	expected value.Kind
	def      value.Value
	opts     Options

	// closed is guarded by inst.mu; it gates propagation, not reads.
	closed bool

	mu      sync.Mutex
	last    value.Value
	hasLast bool
	queue   *valueQueue
	dropped uint64
}

// Topic returns the topic name the subscriber is attached to.
func (s *Subscriber) Topic() string { return s.topic.name }

// Handle returns the subscriber's opaque identifier.
func (s *Subscriber) Handle() handle.Handle { return s.h }

// accept is the propagation entry point; called with the instance lock held.
func (s *Subscriber) accept(v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = v
	s.hasLast = true
	if s.queue.push(v) {
		s.dropped++
	}
}

// refresh advances the timestamp of the held value after a suppressed
// duplicate set; called with the instance lock held.
func (s *Subscriber) refresh(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLast {
		s.last = s.last.WithTime(ts)
	}
}

// Get returns the most recent value delivered to this subscriber, or its
// configured default (possibly the invalid zero Value) when none has ever
// arrived.
func (s *Subscriber) Get() value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLast {
		return s.last
	}
	return s.def
}

// GetAtomic returns the current value together with its timestamp as one
// snapshot: the pair always co-occurred. A never-updated subscriber reports
// its default with a zero timestamp.
func (s *Subscriber) GetAtomic() (value.Value, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLast {
		return s.last, s.last.Time()
	}
	return s.def, 0
}

// Exists reports whether any value has been delivered to this subscriber.
func (s *Subscriber) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasLast
}

// ReadQueue drains and returns every queued update in arrival order. The
// drain is destructive: a later call never re-returns these values. Values
// carry their timestamps.
func (s *Subscriber) ReadQueue() []value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.drain()
}

// ReadQueueValues is ReadQueue with the timestamps stripped: just the
// payloads, in arrival order.
func (s *Subscriber) ReadQueueValues() []any {
	drained := s.ReadQueue()
	if len(drained) == 0 {
		return nil
	}
	out := make([]any, len(drained))
	for i, v := range drained {
		out[i] = v.Payload()
	}
	return out
}

// Dropped returns the number of values evicted from the queue because it was
// full. Eviction is diagnostic, not an error; the newest value is never the
// one dropped.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropped
}

// Close releases the subscriber's share of the topic. Values already drained
// remain with the caller; the undelivered queue is discarded.
func (s *Subscriber) Close() error {
	return s.inst.Release(s.h)
}
