package table

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nfrund/nettable/internal/handle"
	"github.com/nfrund/nettable/internal/value"
)

// origin tags where a value update entered the instance.
type origin uint8

const (
	originLocal origin = iota
	originRemote
)

// Instance is one independent topic table: a flat namespace of typed topics,
// the handle table for everything acquired against them, and the listener
// dispatcher. Instances are explicit objects rather than process-wide
// singletons so tests and multi-table processes can run several side by side.
//
// All mutations serialize on a single instance lock. Reads of subscriber
// state (Get, ReadQueue) take only the subscriber's own lock, so polling
// never contends with unrelated topics.
type Instance struct {
	id string

	mu        sync.Mutex
	closed    bool
	topics    map[string]*topicState
	listeners map[handle.Handle]*listener
	emitter   Emitter

	handles *handle.Table
}

// New creates an empty instance with a fresh identity.
func New() *Instance {
	return &Instance{
		id:        uuid.NewString(),
		topics:    make(map[string]*topicState),
		listeners: make(map[handle.Handle]*listener),
		handles:   handle.NewTable(),
	}
}

// ID returns the instance's unique identity, used by transports to tag the
// origin of change records.
func (i *Instance) ID() string { return i.id }

// SetEmitter installs the outbound change-record sink. See Emitter for the
// re-entrancy contract. A nil emitter disables emission.
func (i *Instance) SetEmitter(fn Emitter) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.emitter = fn
}

func (i *Instance) emitLocked(c Change) {
	if i.emitter != nil {
		i.emitter(c)
	}
}

// topicLocked returns the state for name, materializing it on first use.
// Materialization is what fires topic-created; a pure read never calls this.
func (i *Instance) topicLocked(name string) *topicState {
	if t, ok := i.topics[name]; ok {
		return t
	}
	t := newTopicState(name)
	i.topics[name] = t
	i.dispatchLocked(EventTopicCreated, t, value.Value{}, t.propertiesSnapshot())
	return t
}

// maybeRemoveLocked drops a topic whose last reference is gone. The last
// value is lost with the state; a recreated topic starts unbound.
func (i *Instance) maybeRemoveLocked(t *topicState) {
	if t.pubCount > 0 || t.subCount > 0 || t.remote {
		return
	}
	if _, ok := i.topics[t.name]; !ok {
		return
	}
	delete(i.topics, t.name)
	i.dispatchLocked(EventTopicRemoved, t, value.Value{}, nil)
}

// Publish acquires a write handle on a topic, committing the topic's type if
// this is its first publisher. Publishing against a topic already bound to a
// different type fails with a type-mismatch error and acquires nothing.
func (i *Instance) Publish(name string, kind value.Kind, opts ...Option) (*Publisher, error) {
	return i.publish(name, kind, "", resolveOptions(opts))
}

// PublishWithTypeString is Publish with an overridden type descriptor.
// Overriding is only meaningful for raw and string payloads; for anything
// else the override carries no compatibility guarantee.
func (i *Instance) PublishWithTypeString(name string, kind value.Kind, typeString string, opts ...Option) (*Publisher, error) {
	return i.publish(name, kind, typeString, resolveOptions(opts))
}

func (i *Instance) publish(name string, kind value.Kind, typeString string, o Options) (*Publisher, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if kind == value.KindUnassigned {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Topic:   name,
			Message: "cannot publish with an unassigned kind",
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errInstanceClosed()
	}
	return i.publishLocked(i.topicLocked(name), kind, typeString, o)
}

func (i *Instance) publishLocked(t *topicState, kind value.Kind, typeString string, o Options) (*Publisher, error) {
	if t.bound() && t.kind != kind {
		return nil, errTypeMismatch(t.name, t.kind.String(), kind.String())
	}
	if !t.bound() {
		t.commitType(kind, typeString)
	}

	pub := &Publisher{inst: i, topic: t, opts: o}
	h, err := i.handles.Alloc(handle.KindPublisher, pub)
	if err != nil {
		return nil, &Error{Code: ErrCodeHandleExhausted, Topic: t.name, Message: "cannot allocate publisher", Cause: err}
	}
	pub.h = h
	t.pubCount++

	if t.pubCount == 1 {
		i.emitLocked(Change{
			Kind:       ChangePublish,
			Topic:      t.name,
			ValueKind:  t.kind,
			TypeString: t.typeString,
			Properties: t.propertiesSnapshot(),
		})
	}
	return pub, nil
}

// Subscribe acquires a read handle with its own bounded queue. Subscribing
// never requires the topic to exist or be typed yet. A subscriber expecting a
// type the topic is already bound against is still created, but stays
// permanently inert: it observes no values unless the topic is removed and
// recreated with a compatible type. Pass value.KindUnassigned as expected to
// subscribe generically, and an invalid def for "no default".
func (i *Instance) Subscribe(name string, expected value.Kind, def value.Value, opts ...Option) (*Subscriber, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errInstanceClosed()
	}
	return i.subscribeLocked(i.topicLocked(name), expected, def, resolveOptions(opts))
}

func (i *Instance) subscribeLocked(t *topicState, expected value.Kind, def value.Value, o Options) (*Subscriber, error) {
	sub := &Subscriber{
		inst:     i,
		topic:    t,
		expected: expected,
		def:      def,
		opts:     o,
		queue:    newValueQueue(o.PollStorage),
	}
	h, err := i.handles.Alloc(handle.KindSubscriber, sub)
	if err != nil {
		return nil, &Error{Code: ErrCodeHandleExhausted, Topic: t.name, Message: "cannot allocate subscriber", Cause: err}
	}
	sub.h = h
	t.subCount++
	t.subs[sub] = struct{}{}

	// A late subscriber sees the retained current value through Get, but it
	// is not queued: the queue holds only updates that arrive afterwards.
	if t.bound() && t.hasValue && compatible(expected, t.kind) {
		sub.mu.Lock()
		sub.last = t.last
		sub.hasLast = true
		sub.mu.Unlock()
	}
	return sub, nil
}

// GetEntry composes an eager subscriber with a lazily-created publisher on
// the same topic. The publisher half is materialized by the first Set-like
// call, which is also when a type conflict surfaces; until then the entry
// holds no share of the topic's publisher count.
func (i *Instance) GetEntry(name string, kind value.Kind, def value.Value, opts ...Option) (*Entry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errInstanceClosed()
	}
	t := i.topicLocked(name)
	sub, err := i.subscribeLocked(t, kind, def, o)
	if err != nil {
		return nil, err
	}

	e := &Entry{inst: i, sub: sub, kind: kind, opts: o}
	h, err := i.handles.Alloc(handle.KindEntry, e)
	if err != nil {
		i.handles.Release(sub.h)
		i.releaseSubscriberLocked(sub)
		return nil, &Error{Code: ErrCodeHandleExhausted, Topic: name, Message: "cannot allocate entry", Cause: err}
	}
	e.h = h
	return e, nil
}

// SubscribeMultiple creates a prefix filter over the namespace for use with
// listeners. It matches dynamically: topics created after the call are
// included the moment they appear. It owns no queue and no topic references.
func (i *Instance) SubscribeMultiple(prefixes []string, opts ...Option) (*MultiSubscriber, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errInstanceClosed()
	}
	m := &MultiSubscriber{
		inst:     i,
		prefixes: append([]string(nil), prefixes...),
		opts:     resolveOptions(opts),
	}
	h, err := i.handles.Alloc(handle.KindMultiSubscriber, m)
	if err != nil {
		return nil, &Error{Code: ErrCodeHandleExhausted, Message: "cannot allocate multisubscriber", Cause: err}
	}
	m.h = h
	return m, nil
}

// setLocked is the single propagation point for value updates. The caller
// has already verified the type against the topic's committed kind.
func (i *Instance) setLocked(t *topicState, v value.Value, org origin, keepDuplicates bool) error {
	if v.Time() == value.TimeSentinel {
		v = v.WithTime(value.Now())
	}

	// Duplicate suppression: the value stays, the timestamp advances so Get
	// reflects freshness, and nothing is queued or dispatched.
	if !keepDuplicates && t.hasValue && t.last.Equal(v) {
		t.last = t.last.WithTime(v.Time())
		for sub := range t.subs {
			if sub.closed || !compatible(sub.expected, t.kind) {
				continue
			}
			sub.refresh(v.Time())
		}
		return nil
	}

	t.last = v
	t.hasValue = true

	for sub := range t.subs {
		if sub.closed || !compatible(sub.expected, t.kind) {
			continue
		}
		sub.accept(v)
	}

	evKind := EventValueLocal
	if org == originRemote {
		evKind = EventValueRemote
	}
	i.dispatchLocked(evKind, t, v, nil)

	if org == originLocal {
		i.emitLocked(Change{
			Kind:       ChangeValue,
			Topic:      t.name,
			ValueKind:  t.kind,
			TypeString: t.typeString,
			Value:      v,
		})
	}
	return nil
}

// SetProperties merges a properties delta into a topic. A nil entry value
// deletes its key. The operation never fails on well-formed names; setting
// properties on an unseen topic materializes it.
func (i *Instance) SetProperties(name string, delta map[string]any) error {
	if err := validateName(name); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}
	t := i.topicLocked(name)
	if !t.mergeProperties(delta) {
		return nil
	}
	props := cloneProps(delta)
	i.dispatchLocked(EventPropertiesChanged, t, value.Value{}, props)
	i.emitLocked(Change{Kind: ChangeProperties, Topic: name, Properties: props})
	return nil
}

// GetType returns the committed type of a topic, or value.KindUnassigned when
// the topic is unknown or not yet bound. Looking up a name never creates it.
func (i *Instance) GetType(name string) value.Kind {
	i.mu.Lock()
	defer i.mu.Unlock()

	if t, ok := i.topics[name]; ok {
		return t.kind
	}
	return value.KindUnassigned
}

// ApplyChange applies a change record received from a peer. It behaves like
// the matching local mutation except that it is tagged remote-origin for
// listener filtering and never re-emitted outbound. A type conflict fails
// this record only; the connection that delivered it is unaffected.
func (i *Instance) ApplyChange(c Change) error {
	if err := validateName(c.Topic); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errInstanceClosed()
	}

	switch c.Kind {
	case ChangePublish:
		t := i.topicLocked(c.Topic)
		if t.bound() && t.kind != c.ValueKind {
			return errTypeMismatch(c.Topic, t.kind.String(), c.ValueKind.String())
		}
		if !t.bound() {
			t.commitType(c.ValueKind, c.TypeString)
		}
		t.remote = true
		if t.mergeProperties(c.Properties) {
			i.dispatchLocked(EventPropertiesChanged, t, value.Value{}, cloneProps(c.Properties))
		}
		return nil

	case ChangeValue:
		t := i.topicLocked(c.Topic)
		if !t.bound() {
			// A value for an unseen topic doubles as its announcement.
			t.commitType(c.Value.Kind(), c.TypeString)
			t.remote = true
		}
		if c.Value.Kind() != t.kind {
			return errTypeMismatch(c.Topic, t.kind.String(), c.Value.Kind().String())
		}
		return i.setLocked(t, c.Value, originRemote, false)

	case ChangeProperties:
		t := i.topicLocked(c.Topic)
		if t.mergeProperties(c.Properties) {
			i.dispatchLocked(EventPropertiesChanged, t, value.Value{}, cloneProps(c.Properties))
		}
		return nil

	case ChangeRetire:
		t, ok := i.topics[c.Topic]
		if !ok {
			return nil
		}
		t.remote = false
		i.maybeRemoveLocked(t)
		return nil

	default:
		return fmt.Errorf("unknown change kind %d", c.Kind)
	}
}

// NewPoller creates a queued event consumer for AddListener.
func (i *Instance) NewPoller() (*Poller, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errInstanceClosed()
	}
	p := &Poller{inst: i}
	h, err := i.handles.Alloc(handle.KindPoller, p)
	if err != nil {
		return nil, &Error{Code: ErrCodeHandleExhausted, Message: "cannot allocate poller", Cause: err}
	}
	p.h = h
	return p, nil
}

// AddListener registers a queued listener: events matching scope and mask
// accumulate on the poller until read.
func (i *Instance) AddListener(p *Poller, scope Scope, mask EventKind) (handle.Handle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return 0, errInstanceClosed()
	}
	if p == nil || p.closed {
		return 0, errInvalidHandle("poller")
	}
	return i.addListenerLocked(&listener{scope: scope, mask: mask, poller: p})
}

// AddListenerCallback registers an immediate listener. The callback runs on
// the goroutine that produced the event, inside the propagation critical
// section: it must not block and must not call back into the instance.
// Re-entrancy is undefined behavior. Prefer AddListener with a poller.
func (i *Instance) AddListenerCallback(scope Scope, mask EventKind, fn func(Event)) (handle.Handle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return 0, errInstanceClosed()
	}
	if fn == nil {
		return 0, errInvalidHandle("listener callback")
	}
	return i.addListenerLocked(&listener{scope: scope, mask: mask, callback: fn})
}

func (i *Instance) addListenerLocked(l *listener) (handle.Handle, error) {
	h, err := i.handles.Alloc(handle.KindListener, l)
	if err != nil {
		return 0, &Error{Code: ErrCodeHandleExhausted, Message: "cannot allocate listener", Cause: err}
	}
	l.id = h
	i.listeners[h] = l
	return h, nil
}

// RemoveListener unregisters a listener. Events it already queued on a
// poller stay readable; nothing further is delivered to it.
func (i *Instance) RemoveListener(id handle.Handle) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	if kind, ok := i.handles.Kind(id); !ok || kind != handle.KindListener {
		return errInvalidHandle("listener")
	}
	return i.releaseLocked(id)
}

// Release invalidates any handle acquired from this instance and drops the
// reference counts it held. Releasing an unknown or already-released handle
// fails with an invalid-handle error.
func (i *Instance) Release(h handle.Handle) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		// Teardown already released everything; releasing again is a no-op
		// so deferred cleanup stays quiet.
		return nil
	}
	return i.releaseLocked(h)
}

func (i *Instance) releaseLocked(h handle.Handle) error {
	owner, kind, ok := i.handles.Release(h)
	if !ok {
		return errInvalidHandle("table")
	}

	switch kind {
	case handle.KindPublisher:
		i.releasePublisherLocked(owner.(*Publisher))
	case handle.KindSubscriber:
		i.releaseSubscriberLocked(owner.(*Subscriber))
	case handle.KindEntry:
		e := owner.(*Entry)
		e.released = true
		if e.pub != nil {
			i.handles.Release(e.pub.h)
			i.releasePublisherLocked(e.pub)
			e.pub = nil
		}
		i.handles.Release(e.sub.h)
		i.releaseSubscriberLocked(e.sub)
	case handle.KindMultiSubscriber:
		owner.(*MultiSubscriber).closed = true
	case handle.KindListener:
		delete(i.listeners, h)
	case handle.KindPoller:
		p := owner.(*Poller)
		p.mu.Lock()
		p.closed = true
		p.queue = nil
		p.mu.Unlock()
		for id, l := range i.listeners {
			if l.poller == p {
				delete(i.listeners, id)
				i.handles.Release(id)
			}
		}
	}
	return nil
}

func (i *Instance) releasePublisherLocked(p *Publisher) {
	if p.closed {
		return
	}
	p.closed = true
	t := p.topic
	t.pubCount--
	if t.pubCount == 0 {
		// The topic retires: the last value stays visible to subscribers,
		// but no further sets are possible until a new publisher binds.
		i.emitLocked(Change{Kind: ChangeRetire, Topic: t.name})
		i.maybeRemoveLocked(t)
	}
}

func (i *Instance) releaseSubscriberLocked(s *Subscriber) {
	if s.closed {
		return
	}
	s.closed = true
	t := s.topic
	delete(t.subs, s)
	t.subCount--
	if t.subCount == 0 {
		i.maybeRemoveLocked(t)
	}
}

// Close tears the instance down: every handle is invalidated, listeners are
// dropped, and further operations fail. Close is idempotent.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true

	for _, t := range i.topics {
		for s := range t.subs {
			s.closed = true
		}
	}
	for _, l := range i.listeners {
		if l.poller != nil {
			l.poller.mu.Lock()
			l.poller.closed = true
			l.poller.queue = nil
			l.poller.mu.Unlock()
		}
	}
	i.topics = make(map[string]*topicState)
	i.listeners = make(map[handle.Handle]*listener)
	i.emitter = nil

	slog.Debug("table instance closed", "instance", i.id)
	return nil
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// TopicInfo is the introspection snapshot of one topic, consumed by the HTTP
// API and the CLI.
type TopicInfo struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeString  string         `json:"type_string,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Publishers  int            `json:"publishers"`
	Subscribers int            `json:"subscribers"`
	Remote      bool           `json:"remote,omitempty"`
	Value       any            `json:"value,omitempty"`
	Timestamp   int64          `json:"timestamp,omitempty"`
}

func (t *topicState) info() TopicInfo {
	info := TopicInfo{
		Name:        t.name,
		Type:        t.kind.String(),
		TypeString:  t.typeString,
		Properties:  t.propertiesSnapshot(),
		Publishers:  t.pubCount,
		Subscribers: t.subCount,
		Remote:      t.remote,
	}
	if t.hasValue {
		info.Value = t.last.Payload()
		info.Timestamp = t.last.Time()
	}
	return info
}

// Info returns the snapshot for one topic. Looking a name up never creates
// the topic.
func (i *Instance) Info(name string) (TopicInfo, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	t, ok := i.topics[name]
	if !ok {
		return TopicInfo{}, false
	}
	return t.info(), true
}

// TopicNames returns the sorted names of materialized topics matching the
// prefix; an empty prefix matches everything.
func (i *Instance) TopicNames(prefix string) []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	var names []string
	for name := range i.topics {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Stats summarizes the instance's live objects.
type Stats struct {
	Instance  string `json:"instance"`
	Topics    int    `json:"topics"`
	Handles   int    `json:"handles"`
	Listeners int    `json:"listeners"`
}

// GetStats returns current instance statistics.
func (i *Instance) GetStats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()

	return Stats{
		Instance:  i.id,
		Topics:    len(i.topics),
		Handles:   i.handles.Len(),
		Listeners: len(i.listeners),
	}
}
