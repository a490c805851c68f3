package table

import "time"

// DefaultPeriodic is the advisory minimum interval between outbound
// transmissions of a topic's updates when no explicit rate is requested.
const DefaultPeriodic = 100 * time.Millisecond

// Options control publish/subscribe behavior. They are resolved once, at the
// call that creates the publisher, subscriber or entry.
type Options struct {
	// KeepDuplicates queues a set even when the new value is structurally
	// equal to the topic's current value. Off by default: a duplicate set
	// advances the current timestamp but is not propagated to queues.
	KeepDuplicates bool

	// PollStorage is the subscriber queue capacity. When more values arrive
	// than the queue can hold, the oldest is evicted. Minimum and default 1.
	PollStorage int

	// Periodic is the advisory minimum interval between outbound
	// transmissions. It never affects local delivery.
	Periodic time.Duration
}

// Option mutates Options at acquire time.
type Option func(*Options)

// WithKeepDuplicates queues structurally-equal consecutive values instead of
// suppressing them.
func WithKeepDuplicates(keep bool) Option {
	return func(o *Options) { o.KeepDuplicates = keep }
}

// WithPollStorage sets the subscriber queue capacity. Values below 1 are
// treated as 1.
func WithPollStorage(n int) Option {
	return func(o *Options) { o.PollStorage = n }
}

// WithPeriodic sets the advisory outbound transmission interval.
func WithPeriodic(d time.Duration) Option {
	return func(o *Options) { o.Periodic = d }
}

// resolveOptions applies opts over the defaults and normalizes the result.
func resolveOptions(opts []Option) Options {
	o := Options{
		PollStorage: 1,
		Periodic:    DefaultPeriodic,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.PollStorage < 1 {
		o.PollStorage = 1
	}
	if o.Periodic <= 0 {
		o.Periodic = DefaultPeriodic
	}
	return o
}
