package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/nettable/internal/value"
)

func TestEmitterSeesLocalMutations(t *testing.T) {
	inst := newTestInstance(t)

	var changes []Change
	inst.SetEmitter(func(c Change) { changes = append(changes, c) })

	pub, err := inst.Publish("/out", value.KindDouble)
	require.NoError(t, err)
	require.NoError(t, inst.SetProperties("/out", map[string]any{"units": "m"}))
	require.NoError(t, pub.Set(value.MakeDouble(1, 10)))
	require.NoError(t, pub.Close())

	require.Len(t, changes, 4)

	assert.Equal(t, ChangePublish, changes[0].Kind)
	assert.Equal(t, "/out", changes[0].Topic)
	assert.Equal(t, value.KindDouble, changes[0].ValueKind)
	assert.Equal(t, "double", changes[0].TypeString)

	assert.Equal(t, ChangeProperties, changes[1].Kind)
	assert.Equal(t, "m", changes[1].Properties["units"])

	assert.Equal(t, ChangeValue, changes[2].Kind)
	d, _ := changes[2].Value.Double()
	assert.Equal(t, 1.0, d)

	assert.Equal(t, ChangeRetire, changes[3].Kind)
}

func TestEmitterSkipsSuppressedDuplicates(t *testing.T) {
	inst := newTestInstance(t)

	var values int
	inst.SetEmitter(func(c Change) {
		if c.Kind == ChangeValue {
			values++
		}
	})

	pub, err := inst.Publish("/dupout", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(1, 10)))
	require.NoError(t, pub.Set(value.MakeInt(1, 20)))
	assert.Equal(t, 1, values)
}

func TestApplyChangeValueBehavesLikeRemoteSet(t *testing.T) {
	inst := newTestInstance(t)

	sub, err := inst.Subscribe("/remote", value.KindDouble, value.Value{}, WithPollStorage(4))
	require.NoError(t, err)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, ScopeInstance(), EventValueRemote)
	require.NoError(t, err)

	localOnly, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(localOnly, ScopeInstance(), EventValueLocal)
	require.NoError(t, err)

	err = inst.ApplyChange(Change{
		Kind:  ChangeValue,
		Topic: "/remote",
		Value: value.MakeDouble(7, 70),
	})
	require.NoError(t, err)

	// The remote set reached the subscriber like a local one would.
	got, _ := sub.Get().Double()
	assert.Equal(t, 7.0, got)
	assert.Len(t, sub.ReadQueue(), 1)

	// Origin filtering: remote listeners fire, local-only ones do not.
	assert.Len(t, p.Read(), 1)
	assert.Empty(t, localOnly.Read())
}

func TestApplyChangeCommitsTypeForUnseenTopic(t *testing.T) {
	inst := newTestInstance(t)

	err := inst.ApplyChange(Change{
		Kind:       ChangePublish,
		Topic:      "/peer",
		ValueKind:  value.KindString,
		TypeString: "string",
	})
	require.NoError(t, err)
	assert.Equal(t, value.KindString, inst.GetType("/peer"))

	// The remote announcement retains the topic with no local references.
	info, ok := inst.Info("/peer")
	require.True(t, ok)
	assert.True(t, info.Remote)
	assert.Equal(t, 0, info.Publishers)

	// Retire from the peer releases the retention.
	require.NoError(t, inst.ApplyChange(Change{Kind: ChangeRetire, Topic: "/peer"}))
	_, ok = inst.Info("/peer")
	assert.False(t, ok)
}

func TestApplyChangeTypeMismatchFailsRecordOnly(t *testing.T) {
	inst := newTestInstance(t)

	pub, err := inst.Publish("/strict", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(3, 30)))

	err = inst.ApplyChange(Change{
		Kind:  ChangeValue,
		Topic: "/strict",
		Value: value.MakeString("bad", 40),
	})
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))

	// Prior state untouched, and further records still apply.
	info, _ := inst.Info("/strict")
	assert.Equal(t, int64(3), info.Value)

	require.NoError(t, inst.ApplyChange(Change{
		Kind:  ChangeValue,
		Topic: "/strict",
		Value: value.MakeInt(4, 50),
	}))
}

func TestApplyChangeIsNotReEmitted(t *testing.T) {
	inst := newTestInstance(t)

	var outbound []Change
	inst.SetEmitter(func(c Change) { outbound = append(outbound, c) })

	require.NoError(t, inst.ApplyChange(Change{
		Kind:  ChangeValue,
		Topic: "/loop",
		Value: value.MakeInt(1, 10),
	}))
	assert.Empty(t, outbound, "remote records must never loop back outbound")
}

func TestChangeKindRoundTrip(t *testing.T) {
	for _, k := range []ChangeKind{ChangePublish, ChangeValue, ChangeProperties, ChangeRetire} {
		assert.Equal(t, k, ChangeKindFromString(k.String()))
	}
	assert.Equal(t, ChangeKind(0), ChangeKindFromString("nonsense"))
}
