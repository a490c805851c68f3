package table

import (
	"github.com/nfrund/nettable/internal/value"
)

// TypedEntry[T] is a thin validating layer over the polymorphic Entry API:
// the compiler pins the payload type, and the wrapper handles Value
// construction and extraction. The underlying contract (eager subscriber,
// lazy publisher, explicit Close) is unchanged.
type TypedEntry[T any] struct {
	entry *Entry
	make  func(T, int64) value.Value
	get   func(value.Value) (T, bool)
	def   T
}

// Get returns the entry's current payload, or the typed default when no
// value has arrived.
func (te *TypedEntry[T]) Get() T {
	v := te.entry.Get()
	if got, ok := te.get(v); ok {
		return got
	}
	return te.def
}

// GetAtomic returns the current payload with its timestamp as one snapshot.
func (te *TypedEntry[T]) GetAtomic() (T, int64) {
	v, ts := te.entry.GetAtomic()
	if got, ok := te.get(v); ok {
		return got, ts
	}
	return te.def, 0
}

// Set writes a payload stamped with the engine clock.
func (te *TypedEntry[T]) Set(v T) error {
	return te.entry.Set(te.make(v, value.TimeSentinel))
}

// SetTime writes a payload with an explicit microsecond timestamp.
func (te *TypedEntry[T]) SetTime(v T, ts int64) error {
	return te.entry.Set(te.make(v, ts))
}

// SetDefault writes v only if the topic has never held a value.
func (te *TypedEntry[T]) SetDefault(v T) error {
	return te.entry.SetDefault(te.make(v, value.TimeSentinel))
}

// ReadQueue drains the undelivered payloads in arrival order, skipping any
// update whose kind the wrapper cannot represent.
func (te *TypedEntry[T]) ReadQueue() []T {
	drained := te.entry.ReadQueue()
	if len(drained) == 0 {
		return nil
	}
	out := make([]T, 0, len(drained))
	for _, v := range drained {
		if got, ok := te.get(v); ok {
			out = append(out, got)
		}
	}
	return out
}

// Exists reports whether any value has been delivered to the entry.
func (te *TypedEntry[T]) Exists() bool { return te.entry.Exists() }

// Topic returns the topic name.
func (te *TypedEntry[T]) Topic() string { return te.entry.Topic() }

// Unpublish drops the publisher half only.
func (te *TypedEntry[T]) Unpublish() error { return te.entry.Unpublish() }

// Close releases both halves of the underlying entry.
func (te *TypedEntry[T]) Close() error { return te.entry.Close() }

// DoubleEntry acquires a float64-typed entry on a topic.
func DoubleEntry(i *Instance, name string, def float64, opts ...Option) (*TypedEntry[float64], error) {
	e, err := i.GetEntry(name, value.KindDouble, value.MakeDouble(def, 0), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedEntry[float64]{
		entry: e,
		make:  value.MakeDouble,
		get:   value.Value.Double,
		def:   def,
	}, nil
}

// IntEntry acquires an int64-typed entry on a topic.
func IntEntry(i *Instance, name string, def int64, opts ...Option) (*TypedEntry[int64], error) {
	e, err := i.GetEntry(name, value.KindInt, value.MakeInt(def, 0), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedEntry[int64]{
		entry: e,
		make:  value.MakeInt,
		get:   value.Value.Int,
		def:   def,
	}, nil
}

// BooleanEntry acquires a boolean-typed entry on a topic.
func BooleanEntry(i *Instance, name string, def bool, opts ...Option) (*TypedEntry[bool], error) {
	e, err := i.GetEntry(name, value.KindBoolean, value.MakeBoolean(def, 0), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedEntry[bool]{
		entry: e,
		make:  value.MakeBoolean,
		get:   value.Value.Boolean,
		def:   def,
	}, nil
}

// StringEntry acquires a string-typed entry on a topic.
func StringEntry(i *Instance, name string, def string, opts ...Option) (*TypedEntry[string], error) {
	e, err := i.GetEntry(name, value.KindString, value.MakeString(def, 0), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedEntry[string]{
		entry: e,
		make:  value.MakeString,
		get:   value.Value.StringVal,
		def:   def,
	}, nil
}

// RawEntry acquires a raw-bytes entry on a topic.
func RawEntry(i *Instance, name string, def []byte, opts ...Option) (*TypedEntry[[]byte], error) {
	e, err := i.GetEntry(name, value.KindRaw, value.MakeRaw(def, 0), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedEntry[[]byte]{
		entry: e,
		make:  value.MakeRaw,
		get:   value.Value.Raw,
		def:   def,
	}, nil
}
