package types

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// cdcEncode returns the wire encoding of a scalar as the single field of a
// protobuf wrapper message (StringValue, Int64Value, BytesValue). Zero
// values encode to nil, matching proto3 default omission.
func cdcEncode(item interface{}) []byte {
	var bz []byte
	switch v := item.(type) {
	case string:
		if v != "" {
			bz = protowire.AppendTag(bz, 1, protowire.BytesType)
			bz = protowire.AppendString(bz, v)
		}
	case int64:
		if v != 0 {
			bz = protowire.AppendTag(bz, 1, protowire.VarintType)
			bz = protowire.AppendVarint(bz, uint64(v))
		}
	case []byte:
		if len(v) > 0 {
			bz = protowire.AppendTag(bz, 1, protowire.BytesType)
			bz = protowire.AppendBytes(bz, v)
		}
	default:
		panic("cdcEncode: unsupported type")
	}
	return bz
}

func appendBytesField(bz []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return bz
	}
	bz = protowire.AppendTag(bz, num, protowire.BytesType)
	return protowire.AppendBytes(bz, v)
}

func appendVarintField(bz []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return bz
	}
	bz = protowire.AppendTag(bz, num, protowire.VarintType)
	return protowire.AppendVarint(bz, v)
}

func appendSfixed64Field(bz []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return bz
	}
	bz = protowire.AppendTag(bz, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(bz, uint64(v))
}

// appendMessageField always emits the field, even when msg is empty, the way
// non-nullable embedded messages are encoded.
func appendMessageField(bz []byte, num protowire.Number, msg []byte) []byte {
	bz = protowire.AppendTag(bz, num, protowire.BytesType)
	return protowire.AppendBytes(bz, msg)
}

// encodeTimestamp encodes t as a google.protobuf.Timestamp.
func encodeTimestamp(t time.Time) []byte {
	var bz []byte
	bz = appendVarintField(bz, 1, uint64(t.Unix()))
	bz = appendVarintField(bz, 2, uint64(t.Nanosecond()))
	return bz
}
