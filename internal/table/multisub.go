package table

import (
	"strings"

	"github.com/nfrund/nettable/internal/handle"
)

// MultiSubscriber is a prefix filter over the topic namespace. It holds no
// queue and no topic references; attach it to a listener (ScopeMultiSubscriber)
// to observe every matching topic, including topics created later.
type MultiSubscriber struct {
	inst     *Instance
	h        handle.Handle
	prefixes []string
	opts     Options

	// closed is guarded by inst.mu.
	closed bool
}

// Prefixes returns a copy of the prefix set, in registration order.
func (m *MultiSubscriber) Prefixes() []string {
	return append([]string(nil), m.prefixes...)
}

// Handle returns the multi-subscriber's opaque identifier.
func (m *MultiSubscriber) Handle() handle.Handle { return m.h }

// Matches reports whether a topic name starts with any of the prefixes.
// Matching is byte-wise and case-sensitive; an empty prefix matches every
// name, an empty prefix set matches none.
func (m *MultiSubscriber) Matches(name string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Close releases the multi-subscriber. Listeners scoped to it stop matching
// immediately; events they already queued stay readable.
func (m *MultiSubscriber) Close() error {
	return m.inst.Release(m.h)
}
