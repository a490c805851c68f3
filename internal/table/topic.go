package table

import (
	"maps"

	"github.com/nfrund/nettable/internal/value"
)

// topicState is the registry-side record for one topic. All fields are
// guarded by the owning instance's lock.
//
// Lifecycle: a topicState is materialized on the first active publish,
// subscribe or entry call that names it; its type is committed by the first
// successful publish; the value retires (stays readable, stops accepting
// sets) when the last publisher releases; the state is removed once both
// reference counts are zero and no remote announcement retains it.
type topicState struct {
	name       string
	kind       value.Kind // committed type; KindUnassigned until first publish
	typeString string
	properties map[string]any

	last     value.Value
	hasValue bool

	pubCount int
	subCount int
	subs     map[*Subscriber]struct{}

	// remote marks a topic announced by a peer. It retains the state even
	// with no local publishers or subscribers, until the peer retires it.
	remote bool
}

func newTopicState(name string) *topicState {
	return &topicState{
		name: name,
		subs: make(map[*Subscriber]struct{}),
	}
}

// bound reports whether the topic's type has been committed.
func (t *topicState) bound() bool { return t.kind != value.KindUnassigned }

// commitType binds the topic to a kind and type descriptor. Only valid on an
// unbound topic.
func (t *topicState) commitType(kind value.Kind, typeString string) {
	t.kind = kind
	if typeString == "" {
		typeString = kind.String()
	}
	t.typeString = typeString
}

// propertiesSnapshot returns a copy of the properties map, never nil.
func (t *topicState) propertiesSnapshot() map[string]any {
	if len(t.properties) == 0 {
		return map[string]any{}
	}
	return maps.Clone(t.properties)
}

// mergeProperties applies a delta: a nil entry value deletes the key. Returns
// false when the delta is empty.
func (t *topicState) mergeProperties(delta map[string]any) bool {
	if len(delta) == 0 {
		return false
	}
	if t.properties == nil {
		t.properties = make(map[string]any, len(delta))
	}
	for k, v := range delta {
		if v == nil {
			delete(t.properties, k)
		} else {
			t.properties[k] = v
		}
	}
	return true
}

// compatible reports whether a subscriber expecting kind `expected` accepts
// values from a topic committed to `actual`. KindUnassigned subscribes
// generically and accepts anything.
func compatible(expected, actual value.Kind) bool {
	return expected == value.KindUnassigned || expected == actual
}
