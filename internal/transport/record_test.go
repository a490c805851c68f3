package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/nettable/internal/table"
	"github.com/nfrund/nettable/internal/value"
)

func TestEncodeDecodeValueRecord(t *testing.T) {
	in := table.Change{
		Kind:  table.ChangeValue,
		Topic: "/drive/speed",
		Value: value.MakeDouble(3.25, 1234),
	}

	rec, err := EncodeRecord("origin-a", in)
	require.NoError(t, err)
	assert.Equal(t, "origin-a", rec.Origin)
	assert.Equal(t, "value", rec.Kind)
	assert.Equal(t, "double", rec.Type)
	assert.Equal(t, int64(1234), rec.Timestamp)

	out, err := DecodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, table.ChangeValue, out.Kind)
	assert.Equal(t, "/drive/speed", out.Topic)
	assert.True(t, out.Value.Equal(in.Value))
	assert.Equal(t, int64(1234), out.Value.Time())
}

func TestEncodeDecodePublishRecord(t *testing.T) {
	in := table.Change{
		Kind:       table.ChangePublish,
		Topic:      "/camera/frame",
		ValueKind:  value.KindRaw,
		TypeString: "image/jpeg",
		Properties: map[string]any{"persistent": true},
	}

	rec, err := EncodeRecord("origin-a", in)
	require.NoError(t, err)

	out, err := DecodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, value.KindRaw, out.ValueKind)
	assert.Equal(t, "image/jpeg", out.TypeString)
	assert.Equal(t, true, out.Properties["persistent"])
}

func TestRawPayloadSurvivesJSONTransit(t *testing.T) {
	in := table.Change{
		Kind:  table.ChangeValue,
		Topic: "/blob",
		Value: value.MakeRaw([]byte{0x00, 0xff, 0x10}, 50),
	}

	rec, err := EncodeRecord("a", in)
	require.NoError(t, err)

	// Through the wire as the bridge ships it.
	body, err := json.Marshal(rec)
	require.NoError(t, err)
	var back Record
	require.NoError(t, json.Unmarshal(body, &back))

	out, err := DecodeRecord(back)
	require.NoError(t, err)
	raw, ok := out.Value.Raw()
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, raw)
}

func TestArrayPayloadRoundTrip(t *testing.T) {
	in := table.Change{
		Kind:  table.ChangeValue,
		Topic: "/names",
		Value: value.MakeStringArray([]string{"a", "b"}, 60),
	}

	rec, err := EncodeRecord("a", in)
	require.NoError(t, err)
	out, err := DecodeRecord(rec)
	require.NoError(t, err)

	got, ok := out.Value.StringArray()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestDecodeRejectsMalformedRecords(t *testing.T) {
	_, err := DecodeRecord(Record{Kind: "bogus", Topic: "/x"})
	assert.Error(t, err)

	_, err = DecodeRecord(Record{Kind: "publish", Topic: "/x", Type: "bogus"})
	assert.Error(t, err)

	_, err = DecodeRecord(Record{
		Kind:    "value",
		Topic:   "/x",
		Type:    "int",
		Payload: json.RawMessage(`"not an int"`),
	})
	assert.Error(t, err)
}

func TestRetireRecordRoundTrip(t *testing.T) {
	rec, err := EncodeRecord("a", table.Change{Kind: table.ChangeRetire, Topic: "/gone"})
	require.NoError(t, err)
	assert.Empty(t, rec.Payload)

	out, err := DecodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, table.ChangeRetire, out.Kind)
	assert.Equal(t, "/gone", out.Topic)
}
