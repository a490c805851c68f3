package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/nfrund/nettable/internal/table"
)

// DefaultBusTopic is the watermill topic all instance traffic travels on.
const DefaultBusTopic = "nettable.changes"

// defaultOutboundBuffer bounds how many un-shipped change records an instance
// may accumulate before new ones are dropped.
const defaultOutboundBuffer = 1024

// Bridge connects one table instance to a message bus. Outbound change
// records are buffered off the instance's critical section and shipped by a
// background goroutine; inbound records from peers are applied back onto the
// instance. Records stamped with the instance's own origin ID are ignored on
// receipt, so several bridges can share one bus without feedback.
type Bridge struct {
	inst     *table.Instance
	pub      message.Publisher
	sub      message.Subscriber
	busTopic string
	ownsBus  bool

	outbound chan table.Change

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	dropped atomic.Int64
}

// NewBridge creates a bridge backed by its own in-memory GoChannel bus. Use
// NewBridgeWithBus to attach several instances to one shared bus.
func NewBridge(inst *table.Instance) *Bridge {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	b := NewBridgeWithBus(inst, bus, bus, DefaultBusTopic)
	b.ownsBus = true
	return b
}

// NewBridgeWithBus creates a bridge over an existing publisher/subscriber
// pair. The caller keeps ownership of the bus.
func NewBridgeWithBus(inst *table.Instance, pub message.Publisher, sub message.Subscriber, busTopic string) *Bridge {
	if busTopic == "" {
		busTopic = DefaultBusTopic
	}
	return &Bridge{
		inst:     inst,
		pub:      pub,
		sub:      sub,
		busTopic: busTopic,
		outbound: make(chan table.Change, defaultOutboundBuffer),
	}
}

// Start wires the bridge up: it installs the instance emitter, begins
// shipping buffered records, and subscribes for peer traffic. It returns once
// the subscription is active.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	messages, err := b.sub.Subscribe(ctx, b.busTopic)
	if err != nil {
		cancel()
		return err
	}

	b.cancel = cancel
	b.done = make(chan struct{})
	b.started = true

	// The emitter runs inside the instance's critical section: it must not
	// block, so a full buffer drops the record instead.
	b.inst.SetEmitter(func(c table.Change) {
		select {
		case b.outbound <- c:
		default:
			b.dropped.Add(1)
			slog.Warn("outbound change buffer full, dropping record",
				"topic", c.Topic, "kind", c.Kind.String())
		}
	})

	go b.ship(ctx)
	go b.receive(messages)
	return nil
}

func (b *Bridge) ship(ctx context.Context) {
	defer close(b.done)
	origin := b.inst.ID()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-b.outbound:
			rec, err := EncodeRecord(origin, c)
			if err != nil {
				slog.Error("failed to encode change record", "topic", c.Topic, "error", err)
				continue
			}
			body, err := json.Marshal(rec)
			if err != nil {
				slog.Error("failed to marshal change record", "topic", c.Topic, "error", err)
				continue
			}
			msg := message.NewMessage(watermill.NewUUID(), body)
			if err := b.pub.Publish(b.busTopic, msg); err != nil {
				slog.Error("failed to publish change record", "topic", c.Topic, "error", err)
			}
		}
	}
}

// receive runs until the bus closes the subscription channel, which the
// GoChannel does when the bridge's context is canceled.
func (b *Bridge) receive(messages <-chan *message.Message) {
	origin := b.inst.ID()
	for msg := range messages {
		var rec Record
		if err := json.Unmarshal(msg.Payload, &rec); err != nil {
			slog.Error("failed to unmarshal change record", "msg_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}
		if rec.Origin == origin {
			msg.Ack()
			continue
		}
		change, err := DecodeRecord(rec)
		if err != nil {
			slog.Error("failed to decode change record", "msg_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}
		// A bad record fails alone; the stream keeps flowing.
		if err := b.inst.ApplyChange(change); err != nil {
			slog.Warn("rejected change record", "topic", change.Topic, "error", err)
		}
		msg.Ack()
	}
	slog.Debug("bridge receive loop ended", "bus_topic", b.busTopic)
}

// Dropped returns how many outbound records were discarded because the buffer
// was full.
func (b *Bridge) Dropped() int64 { return b.dropped.Load() }

// Close detaches the bridge from the instance and stops its goroutines. A
// bridge that owns its bus also closes the bus.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.started = false
	b.inst.SetEmitter(nil)
	b.cancel()
	<-b.done

	if b.ownsBus {
		return b.sub.(*gochannel.GoChannel).Close()
	}
	return nil
}
