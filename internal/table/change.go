package table

import "github.com/nfrund/nettable/internal/value"

// ChangeKind discriminates the change records exchanged with the transport
// collaborator.
type ChangeKind uint8

const (
	// ChangePublish announces a topic binding: name, kind, type string and
	// current properties.
	ChangePublish ChangeKind = iota + 1
	// ChangeValue carries one applied value update.
	ChangeValue
	// ChangeProperties carries a properties delta (nil entry = delete key).
	ChangeProperties
	// ChangeRetire announces that the topic's last local publisher released.
	ChangeRetire
)

// String returns the wire name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangePublish:
		return "publish"
	case ChangeValue:
		return "value"
	case ChangeProperties:
		return "properties"
	case ChangeRetire:
		return "retire"
	default:
		return "unknown"
	}
}

// ChangeKindFromString parses a wire name produced by ChangeKind.String.
func ChangeKindFromString(s string) ChangeKind {
	switch s {
	case "publish":
		return ChangePublish
	case "value":
		return ChangeValue
	case "properties":
		return ChangeProperties
	case "retire":
		return ChangeRetire
	default:
		return 0
	}
}

// Change is the abstract record emitted for every locally-applied mutation
// and accepted back from the transport for remote mutations. The core never
// serializes it; that is the transport's job.
type Change struct {
	Kind       ChangeKind
	Topic      string
	ValueKind  value.Kind
	TypeString string
	Value      value.Value
	Properties map[string]any
}

// Emitter receives outbound change records. It is invoked synchronously
// inside the instance's critical section and must neither block nor call back
// into the instance; hand the record to a channel or buffer instead.
type Emitter func(Change)
