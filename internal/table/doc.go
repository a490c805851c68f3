// Package table implements a typed key-value publish/subscribe table: a flat
// namespace of named topics, each holding a typed current value plus a
// bounded backlog per subscriber.
//
// The package enforces type safety between producers and consumers of the
// same topic, reference-counts topic lifetime across publishers and
// subscribers, and delivers lifecycle and value events to listeners through
// pollable queues or immediate callbacks.
//
// Key pieces:
//   - Instance: one independent table with explicit construction and Close
//   - Publisher / Subscriber / Entry: write, read, and combined handles
//   - MultiSubscriber: dynamic prefix filter for listeners
//   - Poller + AddListener: queued event delivery (the recommended mode)
//   - Change / ApplyChange: the boundary a network transport plugs into
//
// Usage:
//
//	inst := table.New()
//	defer inst.Close()
//
//	pub, err := inst.Publish("/speed", value.KindDouble)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pub.Close()
//
//	sub, err := inst.Subscribe("/speed", value.KindDouble, value.MakeDouble(0, 0))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sub.Close()
//
//	pub.Set(value.MakeDouble(3.0, 0)) // zero timestamp: engine clock
//	v := sub.Get()                    // latest value
//	backlog := sub.ReadQueue()        // undelivered updates, oldest first
//
// Subscribers that poll slower than the publish rate lose the oldest values
// first: the queue is a bounded FIFO of capacity PollStorage and the newest
// value is never dropped.
package table
