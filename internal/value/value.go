// Package value defines the immutable, type-tagged payload that flows through
// the table: a kind discriminator, the typed data, and a microsecond timestamp.
//
// Values are immutable once constructed. Constructors copy slice payloads so a
// caller cannot mutate a value after handing it to the engine, and accessors
// return copies for the same reason. Structural equality (Equal) compares kind
// and payload only; the timestamp is metadata, never part of identity.
package value

import (
	"bytes"
	"fmt"
	"slices"
)

// Kind discriminates the payload type carried by a Value.
type Kind uint8

const (
	KindUnassigned Kind = iota
	KindBoolean
	KindInt
	KindFloat
	KindDouble
	KindString
	KindRaw
	KindBooleanArray
	KindIntArray
	KindFloatArray
	KindDoubleArray
	KindStringArray
)

// String returns the default type descriptor for the kind. This is the
// typeString a topic advertises unless a publisher overrides it.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindRaw:
		return "raw"
	case KindBooleanArray:
		return "boolean[]"
	case KindIntArray:
		return "int[]"
	case KindFloatArray:
		return "float[]"
	case KindDoubleArray:
		return "double[]"
	case KindStringArray:
		return "string[]"
	default:
		return "unassigned"
	}
}

// KindFromString parses a type descriptor produced by Kind.String. Unknown
// descriptors map to KindUnassigned.
func KindFromString(s string) Kind {
	switch s {
	case "boolean":
		return KindBoolean
	case "int":
		return KindInt
	case "float":
		return KindFloat
	case "double":
		return KindDouble
	case "string":
		return KindString
	case "raw":
		return KindRaw
	case "boolean[]":
		return KindBooleanArray
	case "int[]":
		return KindIntArray
	case "float[]":
		return KindFloatArray
	case "double[]":
		return KindDoubleArray
	case "string[]":
		return KindStringArray
	default:
		return KindUnassigned
	}
}

// Value is one immutable datum: a kind, the payload, and a signed microsecond
// timestamp. The zero Value has KindUnassigned and reports IsValid() == false;
// the engine uses it as "no value".
type Value struct {
	kind Kind
	data any
	ts   int64
}

// MakeBoolean returns a boolean Value with the given timestamp.
// A zero timestamp means "let the engine substitute its clock" (see Now).
func MakeBoolean(v bool, ts int64) Value {
	return Value{kind: KindBoolean, data: v, ts: ts}
}

// MakeInt returns a 64-bit integer Value.
func MakeInt(v int64, ts int64) Value {
	return Value{kind: KindInt, data: v, ts: ts}
}

// MakeFloat returns a 32-bit float Value.
func MakeFloat(v float32, ts int64) Value {
	return Value{kind: KindFloat, data: v, ts: ts}
}

// MakeDouble returns a 64-bit float Value.
func MakeDouble(v float64, ts int64) Value {
	return Value{kind: KindDouble, data: v, ts: ts}
}

// MakeString returns a string Value.
func MakeString(v string, ts int64) Value {
	return Value{kind: KindString, data: v, ts: ts}
}

// MakeRaw returns a raw byte Value. The payload is copied.
func MakeRaw(v []byte, ts int64) Value {
	return Value{kind: KindRaw, data: slices.Clone(v), ts: ts}
}

// MakeBooleanArray returns a boolean array Value. The payload is copied.
func MakeBooleanArray(v []bool, ts int64) Value {
	return Value{kind: KindBooleanArray, data: slices.Clone(v), ts: ts}
}

// MakeIntArray returns an integer array Value. The payload is copied.
func MakeIntArray(v []int64, ts int64) Value {
	return Value{kind: KindIntArray, data: slices.Clone(v), ts: ts}
}

// MakeFloatArray returns a 32-bit float array Value. The payload is copied.
func MakeFloatArray(v []float32, ts int64) Value {
	return Value{kind: KindFloatArray, data: slices.Clone(v), ts: ts}
}

// MakeDoubleArray returns a 64-bit float array Value. The payload is copied.
func MakeDoubleArray(v []float64, ts int64) Value {
	return Value{kind: KindDoubleArray, data: slices.Clone(v), ts: ts}
}

// MakeStringArray returns a string array Value. The payload is copied.
func MakeStringArray(v []string, ts int64) Value {
	return Value{kind: KindStringArray, data: slices.Clone(v), ts: ts}
}

// Kind returns the payload kind.
func (v Value) Kind() Kind { return v.kind }

// Time returns the value's microsecond timestamp.
func (v Value) Time() int64 { return v.ts }

// IsValid reports whether the value carries a payload (kind != unassigned).
func (v Value) IsValid() bool { return v.kind != KindUnassigned }

// WithTime returns a copy of v carrying the given timestamp. The payload is
// shared, which is safe because payloads are never mutated after construction.
func (v Value) WithTime(ts int64) Value {
	v.ts = ts
	return v
}

// Boolean returns the boolean payload. ok is false on a kind mismatch.
func (v Value) Boolean() (b bool, ok bool) {
	b, ok = v.data.(bool)
	return b, ok && v.kind == KindBoolean
}

// Int returns the integer payload.
func (v Value) Int() (i int64, ok bool) {
	i, ok = v.data.(int64)
	return i, ok && v.kind == KindInt
}

// Float returns the 32-bit float payload.
func (v Value) Float() (f float32, ok bool) {
	f, ok = v.data.(float32)
	return f, ok && v.kind == KindFloat
}

// Double returns the 64-bit float payload.
func (v Value) Double() (f float64, ok bool) {
	f, ok = v.data.(float64)
	return f, ok && v.kind == KindDouble
}

// StringVal returns the string payload. Named to avoid colliding with the
// fmt.Stringer convention on a struct that is not one.
func (v Value) StringVal() (s string, ok bool) {
	s, ok = v.data.(string)
	return s, ok && v.kind == KindString
}

// Raw returns a copy of the raw byte payload.
func (v Value) Raw() (b []byte, ok bool) {
	raw, ok := v.data.([]byte)
	if !ok || v.kind != KindRaw {
		return nil, false
	}
	return slices.Clone(raw), true
}

// BooleanArray returns a copy of the boolean array payload.
func (v Value) BooleanArray() (a []bool, ok bool) {
	arr, ok := v.data.([]bool)
	if !ok || v.kind != KindBooleanArray {
		return nil, false
	}
	return slices.Clone(arr), true
}

// IntArray returns a copy of the integer array payload.
func (v Value) IntArray() (a []int64, ok bool) {
	arr, ok := v.data.([]int64)
	if !ok || v.kind != KindIntArray {
		return nil, false
	}
	return slices.Clone(arr), true
}

// FloatArray returns a copy of the 32-bit float array payload.
func (v Value) FloatArray() (a []float32, ok bool) {
	arr, ok := v.data.([]float32)
	if !ok || v.kind != KindFloatArray {
		return nil, false
	}
	return slices.Clone(arr), true
}

// DoubleArray returns a copy of the 64-bit float array payload.
func (v Value) DoubleArray() (a []float64, ok bool) {
	arr, ok := v.data.([]float64)
	if !ok || v.kind != KindDoubleArray {
		return nil, false
	}
	return slices.Clone(arr), true
}

// StringArray returns a copy of the string array payload.
func (v Value) StringArray() (a []string, ok bool) {
	arr, ok := v.data.([]string)
	if !ok || v.kind != KindStringArray {
		return nil, false
	}
	return slices.Clone(arr), true
}

// Payload returns the raw payload for generic consumers (JSON encoding, the
// CLI). Slice payloads are copied.
func (v Value) Payload() any {
	switch d := v.data.(type) {
	case []byte:
		return slices.Clone(d)
	case []bool:
		return slices.Clone(d)
	case []int64:
		return slices.Clone(d)
	case []float32:
		return slices.Clone(d)
	case []float64:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	default:
		return d
	}
}

// Equal reports structural equality of kind and payload. Timestamps are
// excluded: two values set at different times are still "the same value" for
// duplicate suppression.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnassigned:
		return true
	case KindRaw:
		a, _ := v.data.([]byte)
		b, _ := o.data.([]byte)
		return bytes.Equal(a, b)
	case KindBooleanArray:
		a, _ := v.data.([]bool)
		b, _ := o.data.([]bool)
		return slices.Equal(a, b)
	case KindIntArray:
		a, _ := v.data.([]int64)
		b, _ := o.data.([]int64)
		return slices.Equal(a, b)
	case KindFloatArray:
		a, _ := v.data.([]float32)
		b, _ := o.data.([]float32)
		return slices.Equal(a, b)
	case KindDoubleArray:
		a, _ := v.data.([]float64)
		b, _ := o.data.([]float64)
		return slices.Equal(a, b)
	case KindStringArray:
		a, _ := v.data.([]string)
		b, _ := o.data.([]string)
		return slices.Equal(a, b)
	default:
		return v.data == o.data
	}
}

// GoString helps debugging output in tests.
func (v Value) GoString() string {
	return fmt.Sprintf("value.Value{kind: %s, data: %v, ts: %d}", v.kind, v.data, v.ts)
}
