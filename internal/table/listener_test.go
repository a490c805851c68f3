package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/nettable/internal/value"
)

func eventsOfKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestPollerTopicLifecycleEvents(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeInstance(), EventAll)
	require.NoError(t, err)

	pub, err := inst.Publish("/life", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, inst.SetProperties("/life", map[string]any{"units": "s"}))
	require.NoError(t, pub.Set(value.MakeInt(1, 10)))
	require.NoError(t, pub.Close())

	events := p.Read()
	created := eventsOfKind(events, EventTopicCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "/life", created[0].Topic)

	props := eventsOfKind(events, EventPropertiesChanged)
	require.Len(t, props, 1)
	assert.Equal(t, "s", props[0].Properties["units"])

	values := eventsOfKind(events, EventValueLocal)
	require.Len(t, values, 1)
	got, _ := values[0].Value.Int()
	assert.Equal(t, int64(1), got)

	removed := eventsOfKind(events, EventTopicRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, "/life", removed[0].Topic)

	// Destructive drain.
	assert.Empty(t, p.Read())
}

func TestListenerMaskFilters(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeInstance(), EventTopicCreated)
	require.NoError(t, err)

	pub, err := inst.Publish("/masked", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(1, 0)))

	events := p.Read()
	require.Len(t, events, 1)
	assert.Equal(t, EventTopicCreated, events[0].Kind)
}

func TestTopicScopedListener(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeTopic("/only/this"), EventValueAll)
	require.NoError(t, err)

	pubA, err := inst.Publish("/only/this", value.KindInt)
	require.NoError(t, err)
	pubB, err := inst.Publish("/only/that", value.KindInt)
	require.NoError(t, err)

	require.NoError(t, pubA.Set(value.MakeInt(1, 0)))
	require.NoError(t, pubB.Set(value.MakeInt(2, 0)))

	events := p.Read()
	require.Len(t, events, 1)
	assert.Equal(t, "/only/this", events[0].Topic)
}

func TestSubscriberScopedListener(t *testing.T) {
	inst := newTestInstance(t)

	sub, err := inst.Subscribe("/scoped", value.KindDouble, value.Value{})
	require.NoError(t, err)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeSubscriber(sub), EventValueAll)
	require.NoError(t, err)

	pub, err := inst.Publish("/scoped", value.KindDouble)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeDouble(1, 0)))
	assert.Len(t, p.Read(), 1)

	// Once the subscriber is released the listener goes quiet.
	require.NoError(t, sub.Close())
	require.NoError(t, pub.Set(value.MakeDouble(2, 0)))
	assert.Empty(t, p.Read())
}

func TestMultiSubscriberDynamicMatch(t *testing.T) {
	inst := newTestInstance(t)

	m, err := inst.SubscribeMultiple([]string{"/table1/"})
	require.NoError(t, err)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeMultiSubscriber(m), EventValueAll|EventTopicCreated)
	require.NoError(t, err)

	// The topic is created after the multi-subscriber existed.
	pub, err := inst.Publish("/table1/x", value.KindDouble)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeDouble(9, 0)))

	other, err := inst.Publish("/table2/y", value.KindDouble)
	require.NoError(t, err)
	require.NoError(t, other.Set(value.MakeDouble(1, 0)))

	events := p.Read()
	created := eventsOfKind(events, EventTopicCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "/table1/x", created[0].Topic)

	values := eventsOfKind(events, EventValueLocal)
	require.Len(t, values, 1)
	assert.Equal(t, "/table1/x", values[0].Topic)

	// Closing the filter silences it immediately.
	require.NoError(t, m.Close())
	require.NoError(t, pub.Set(value.MakeDouble(10, 0)))
	assert.Empty(t, p.Read())
}

func TestMultiSubscriberMatchesRules(t *testing.T) {
	inst := newTestInstance(t)

	m, err := inst.SubscribeMultiple([]string{"/a/", "/b"})
	require.NoError(t, err)

	assert.True(t, m.Matches("/a/x"))
	assert.True(t, m.Matches("/b"))
	assert.True(t, m.Matches("/bcd"))
	assert.False(t, m.Matches("/A/x"), "matching is case-sensitive")
	assert.False(t, m.Matches("/c"))

	empty, err := inst.SubscribeMultiple(nil)
	require.NoError(t, err)
	assert.False(t, empty.Matches("/anything"))

	all, err := inst.SubscribeMultiple([]string{""})
	require.NoError(t, err)
	assert.True(t, all.Matches("/anything"))
}

func TestPrefixScopedListener(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopePrefixes("/sensors/"), EventValueAll)
	require.NoError(t, err)

	pub, err := inst.Publish("/sensors/temp", value.KindDouble)
	require.NoError(t, err)
	out, err := inst.Publish("/actuators/arm", value.KindDouble)
	require.NoError(t, err)

	require.NoError(t, pub.Set(value.MakeDouble(21.5, 0)))
	require.NoError(t, out.Set(value.MakeDouble(0.5, 0)))

	events := p.Read()
	require.Len(t, events, 1)
	assert.Equal(t, "/sensors/temp", events[0].Topic)
}

func TestImmediateCallbackListener(t *testing.T) {
	inst := newTestInstance(t)

	var got []Event
	id, err := inst.AddListenerCallback(ScopeInstance(), EventValueLocal, func(ev Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	pub, err := inst.Publish("/cb", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(5, 0)))

	// Delivery is synchronous with the set.
	require.Len(t, got, 1)
	v, _ := got[0].Value.Int()
	assert.Equal(t, int64(5), v)

	require.NoError(t, inst.RemoveListener(id))
	require.NoError(t, pub.Set(value.MakeInt(6, 0)))
	assert.Len(t, got, 1)
}

func TestRemoveListenerKeepsQueuedEvents(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	id, err := inst.AddListener(p, ScopeInstance(), EventValueLocal)
	require.NoError(t, err)

	pub, err := inst.Publish("/keep", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(1, 0)))

	require.NoError(t, inst.RemoveListener(id))
	require.NoError(t, pub.Set(value.MakeInt(2, 0)))

	// The event queued before removal stays readable; nothing newer arrives.
	events := p.Read()
	require.Len(t, events, 1)
	v, _ := events[0].Value.Int()
	assert.Equal(t, int64(1), v)
}

func TestPollerCloseDropsEverything(t *testing.T) {
	inst := newTestInstance(t)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeInstance(), EventAll)
	require.NoError(t, err)

	pub, err := inst.Publish("/dropme", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(1, 0)))
	require.NoError(t, p.Close())

	assert.Empty(t, p.Read())
	assert.Equal(t, 0, inst.GetStats().Listeners)

	// RemoveListener on an unknown id fails cleanly.
	err = inst.RemoveListener(12345)
	assert.True(t, IsInvalidHandle(err))
}
