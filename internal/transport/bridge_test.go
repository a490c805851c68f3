package transport

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/nettable/internal/table"
	"github.com/nfrund/nettable/internal/value"
)

func newTestBus(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func startBridge(t *testing.T, inst *table.Instance, bus *gochannel.GoChannel) *Bridge {
	t.Helper()
	b := NewBridgeWithBus(inst, bus, bus, DefaultBusTopic)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBridgeSyncsTwoInstances(t *testing.T) {
	bus := newTestBus(t)

	instA := table.New()
	instB := table.New()
	t.Cleanup(func() { _ = instA.Close(); _ = instB.Close() })

	startBridge(t, instA, bus)
	startBridge(t, instB, bus)

	pub, err := instA.Publish("/sync/speed", value.KindDouble)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeDouble(3.25, 100)))

	require.Eventually(t, func() bool {
		info, ok := instB.Info("/sync/speed")
		return ok && info.Value == 3.25
	}, 2*time.Second, 5*time.Millisecond, "value never reached the peer")

	info, _ := instB.Info("/sync/speed")
	assert.Equal(t, "double", info.Type)
	assert.True(t, info.Remote)
	assert.Equal(t, int64(100), info.Timestamp)
}

func TestBridgePropagatesProperties(t *testing.T) {
	bus := newTestBus(t)

	instA := table.New()
	instB := table.New()
	t.Cleanup(func() { _ = instA.Close(); _ = instB.Close() })

	startBridge(t, instA, bus)
	startBridge(t, instB, bus)

	pub, err := instA.Publish("/cfg", value.KindInt)
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, instA.SetProperties("/cfg", map[string]any{"units": "ms"}))

	require.Eventually(t, func() bool {
		info, ok := instB.Info("/cfg")
		return ok && info.Properties["units"] == "ms"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBridgeRetirePropagates(t *testing.T) {
	bus := newTestBus(t)

	instA := table.New()
	instB := table.New()
	t.Cleanup(func() { _ = instA.Close(); _ = instB.Close() })

	startBridge(t, instA, bus)
	startBridge(t, instB, bus)

	pub, err := instA.Publish("/ephemeral", value.KindBoolean)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := instB.Info("/ephemeral")
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	// Retiring the last publisher releases the peer's retention too.
	require.NoError(t, pub.Close())
	require.Eventually(t, func() bool {
		_, ok := instB.Info("/ephemeral")
		return !ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBridgeIgnoresOwnRecords(t *testing.T) {
	bus := newTestBus(t)

	inst := table.New()
	t.Cleanup(func() { _ = inst.Close() })
	startBridge(t, inst, bus)

	p, err := inst.NewPoller()
	require.NoError(t, err)
	_, err = inst.AddListener(p, table.ScopeInstance(), table.EventValueRemote)
	require.NoError(t, err)

	pub, err := inst.Publish("/self", value.KindInt)
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.Set(value.MakeInt(1, 10)))

	// Give the bus time to loop the record back.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, p.Read(), "own records must not come back as remote values")
}

func TestBridgeRemoteValueReachesSubscribers(t *testing.T) {
	bus := newTestBus(t)

	instA := table.New()
	instB := table.New()
	t.Cleanup(func() { _ = instA.Close(); _ = instB.Close() })

	startBridge(t, instA, bus)
	startBridge(t, instB, bus)

	sub, err := instB.Subscribe("/relay", value.KindString, value.MakeString("none", 0), table.WithPollStorage(4))
	require.NoError(t, err)
	defer sub.Close()

	pub, err := instA.Publish("/relay", value.KindString)
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.Set(value.MakeString("hello", 10)))

	require.Eventually(t, func() bool {
		got, _ := sub.Get().StringVal()
		return got == "hello"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBridgeCloseDetaches(t *testing.T) {
	inst := table.New()
	t.Cleanup(func() { _ = inst.Close() })

	b := NewBridge(inst)
	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	// Mutations after Close must not block on the detached bridge.
	pub, err := inst.Publish("/after", value.KindInt)
	require.NoError(t, err)
	require.NoError(t, pub.Set(value.MakeInt(1, 10)))
	assert.EqualValues(t, 0, b.Dropped())
}
