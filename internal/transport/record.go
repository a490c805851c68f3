package transport

import (
	"encoding/json"
	"fmt"

	"github.com/nfrund/nettable/internal/table"
	"github.com/nfrund/nettable/internal/value"
)

// Record is the wire form of a change record. Payload encoding follows the
// value kind: numbers as JSON numbers, raw bytes as base64 strings, arrays as
// JSON arrays.
type Record struct {
	Origin     string          `json:"origin"`
	Kind       string          `json:"kind"`
	Topic      string          `json:"topic"`
	Type       string          `json:"type,omitempty"`
	TypeString string          `json:"type_string,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

// EncodeRecord converts a change record to its wire form, stamped with the
// emitting instance's origin ID.
func EncodeRecord(origin string, c table.Change) (Record, error) {
	r := Record{
		Origin:     origin,
		Kind:       c.Kind.String(),
		Topic:      c.Topic,
		Properties: c.Properties,
	}

	switch c.Kind {
	case table.ChangePublish:
		r.Type = c.ValueKind.String()
		r.TypeString = c.TypeString
	case table.ChangeValue:
		r.Type = c.Value.Kind().String()
		r.Timestamp = c.Value.Time()
		payload, err := json.Marshal(c.Value.Payload())
		if err != nil {
			return Record{}, fmt.Errorf("encoding %s payload for %q: %w", r.Type, c.Topic, err)
		}
		r.Payload = payload
	}
	return r, nil
}

// DecodeRecord converts a wire record back to a change record.
func DecodeRecord(r Record) (table.Change, error) {
	kind := table.ChangeKindFromString(r.Kind)
	if kind == 0 {
		return table.Change{}, fmt.Errorf("unknown record kind %q", r.Kind)
	}

	c := table.Change{
		Kind:       kind,
		Topic:      r.Topic,
		Properties: r.Properties,
	}

	switch kind {
	case table.ChangePublish:
		vk := value.KindFromString(r.Type)
		if vk == value.KindUnassigned {
			return table.Change{}, fmt.Errorf("unknown value type %q for %q", r.Type, r.Topic)
		}
		c.ValueKind = vk
		c.TypeString = r.TypeString

	case table.ChangeValue:
		v, err := DecodeValue(r.Type, r.Payload, r.Timestamp)
		if err != nil {
			return table.Change{}, fmt.Errorf("topic %q: %w", r.Topic, err)
		}
		c.Value = v
		c.TypeString = r.TypeString
	}
	return c, nil
}

// DecodeValue builds a value from its wire type name and JSON payload. The
// same encoding is shared by the bus records and the HTTP API.
func DecodeValue(typ string, payload json.RawMessage, ts int64) (value.Value, error) {
	switch value.KindFromString(typ) {
	case value.KindBoolean:
		var v bool
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeBoolean(v, ts), nil
	case value.KindInt:
		var v int64
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeInt(v, ts), nil
	case value.KindFloat:
		var v float32
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeFloat(v, ts), nil
	case value.KindDouble:
		var v float64
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeDouble(v, ts), nil
	case value.KindString:
		var v string
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeString(v, ts), nil
	case value.KindRaw:
		var v []byte
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeRaw(v, ts), nil
	case value.KindBooleanArray:
		var v []bool
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeBooleanArray(v, ts), nil
	case value.KindIntArray:
		var v []int64
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeIntArray(v, ts), nil
	case value.KindFloatArray:
		var v []float32
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeFloatArray(v, ts), nil
	case value.KindDoubleArray:
		var v []float64
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeDoubleArray(v, ts), nil
	case value.KindStringArray:
		var v []string
		if err := json.Unmarshal(payload, &v); err != nil {
			return value.Value{}, payloadErr(typ, err)
		}
		return value.MakeStringArray(v, ts), nil
	default:
		return value.Value{}, fmt.Errorf("unknown value type %q", typ)
	}
}

func payloadErr(typ string, err error) error {
	return fmt.Errorf("decoding %s payload: %w", typ, err)
}
