package table

import "github.com/nfrund/nettable/internal/value"

// valueQueue is the bounded FIFO of undelivered values behind one subscriber.
// When full, push evicts the oldest entry; the newest value is never the one
// dropped. Not safe for concurrent use; the owning subscriber locks around it.
type valueQueue struct {
	buf  []value.Value
	head int
	size int
}

func newValueQueue(capacity int) *valueQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &valueQueue{buf: make([]value.Value, capacity)}
}

// push appends v, evicting the oldest entry when the queue is full.
func (q *valueQueue) push(v value.Value) (evicted bool) {
	if q.size == len(q.buf) {
		// Overwrite the oldest slot and advance.
		q.buf[q.head] = v
		q.head = (q.head + 1) % len(q.buf)
		return true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = v
	q.size++
	return false
}

// drain removes and returns all queued values in arrival order. A drained
// entry is never returned again.
func (q *valueQueue) drain() []value.Value {
	if q.size == 0 {
		return nil
	}
	out := make([]value.Value, q.size)
	for i := range out {
		idx := (q.head + i) % len(q.buf)
		out[i] = q.buf[idx]
		q.buf[idx] = value.Value{}
	}
	q.head = 0
	q.size = 0
	return out
}

func (q *valueQueue) len() int { return q.size }
