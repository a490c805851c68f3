package table

import (
	"strings"
	"sync"

	"github.com/nfrund/nettable/internal/handle"
	"github.com/nfrund/nettable/internal/value"
)

// EventKind is a bitmask of the event categories a listener observes.
type EventKind uint32

const (
	// EventTopicCreated fires when a topic is first materialized by an
	// active publish, subscribe or entry call.
	EventTopicCreated EventKind = 1 << iota
	// EventTopicRemoved fires when a topic's last reference is released.
	EventTopicRemoved
	// EventPropertiesChanged fires on every properties mutation.
	EventPropertiesChanged
	// EventValueLocal fires for sets originating in this instance.
	EventValueLocal
	// EventValueRemote fires for sets applied from a remote change record.
	EventValueRemote
)

// EventValueAll matches value updates regardless of origin.
const EventValueAll = EventValueLocal | EventValueRemote

// EventAll matches every event category.
const EventAll = EventTopicCreated | EventTopicRemoved | EventPropertiesChanged | EventValueAll

// Event is one dispatched occurrence. Value is set for value events;
// Properties carries the delta for properties events and the initial
// properties for topic-created events.
type Event struct {
	Listener   handle.Handle  `json:"listener"`
	Kind       EventKind      `json:"kind"`
	Topic      string         `json:"topic"`
	Value      value.Value    `json:"-"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Scope selects which topics a listener observes. Build one with the Scope*
// constructors; the zero Scope matches nothing.
type Scope struct {
	instance bool
	topic    string
	prefixes []string
	sub      *Subscriber
	multi    *MultiSubscriber
}

// ScopeInstance observes every topic in the instance.
func ScopeInstance() Scope { return Scope{instance: true} }

// ScopeTopic observes a single topic by exact name.
func ScopeTopic(name string) Scope { return Scope{topic: name} }

// ScopePrefixes observes every topic whose name starts with any of the given
// prefixes.
func ScopePrefixes(prefixes ...string) Scope {
	return Scope{prefixes: append([]string(nil), prefixes...)}
}

// ScopeSubscriber observes the topic bound to one subscriber, restricted to
// the values that subscriber actually receives.
func ScopeSubscriber(s *Subscriber) Scope { return Scope{sub: s} }

// ScopeMultiSubscriber observes every topic matched by a multi-subscriber,
// including topics created after the listener is added.
func ScopeMultiSubscriber(m *MultiSubscriber) Scope { return Scope{multi: m} }

// listener is one registration with the dispatcher. Exactly one of poller and
// callback is set.
type listener struct {
	id       handle.Handle
	scope    Scope
	mask     EventKind
	poller   *Poller
	callback func(Event)
}

// matches reports whether the listener observes topic t for an event of the
// given kind. Caller holds the instance lock.
func (l *listener) matches(kind EventKind, t *topicState) bool {
	if l.mask&kind == 0 {
		return false
	}
	sc := &l.scope
	switch {
	case sc.instance:
		return true
	case sc.topic != "":
		return sc.topic == t.name
	case sc.sub != nil:
		if sc.sub.closed || sc.sub.topic != t {
			return false
		}
		if kind&EventValueAll != 0 {
			return compatible(sc.sub.expected, t.kind)
		}
		return true
	case sc.multi != nil:
		return !sc.multi.closed && sc.multi.Matches(t.name)
	case len(sc.prefixes) > 0:
		for _, p := range sc.prefixes {
			if strings.HasPrefix(t.name, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Poller is a queued event consumer. All events for listeners attached to the
// poller accumulate until Read drains them. Pollers are the recommended
// delivery mode: they never run caller code inside the propagation lock.
type Poller struct {
	inst *Instance
	h    handle.Handle

	mu     sync.Mutex
	queue  []Event
	closed bool
}

// Handle returns the poller's opaque identifier.
func (p *Poller) Handle() handle.Handle { return p.h }

// Read drains and returns every queued event in arrival order. Draining is
// destructive; a later Read never re-returns these events.
func (p *Poller) Read() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.queue
	p.queue = nil
	return out
}

// Len returns the number of undelivered events.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

// Close unregisters every listener attached to the poller, drops its
// undelivered events, and releases its handle.
func (p *Poller) Close() error {
	return p.inst.Release(p.h)
}

// push appends an event. Safe to call while the instance lock is held; the
// poller lock is always acquired after it.
func (p *Poller) push(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.queue = append(p.queue, ev)
}

// dispatchLocked delivers an event for topic t to every matching listener.
// Queued listeners get a copy appended to their poller; immediate callbacks
// run synchronously on the calling goroutine, inside the propagation critical
// section, and must not call back into the instance.
func (i *Instance) dispatchLocked(kind EventKind, t *topicState, v value.Value, props map[string]any) {
	for _, l := range i.listeners {
		if !l.matches(kind, t) {
			continue
		}
		ev := Event{
			Listener:   l.id,
			Kind:       kind,
			Topic:      t.name,
			Value:      v,
			Properties: props,
		}
		if l.poller != nil {
			l.poller.push(ev)
		} else if l.callback != nil {
			l.callback(ev)
		}
	}
}
