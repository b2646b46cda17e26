package historykv

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Name is a 64-bit packed identifier (EOSIO-style short name), used both as
// a table short-name and as an index name.
type Name uint64

// Digest256 is a 256-bit digest. Reused from chainhash rather than hand-
// rolled: it is already a fixed [32]byte, comparable, zero-alloc array type,
// which is exactly the shape a 256-bit key component needs.
type Digest256 = chainhash.Hash

// VarUint32 is the decoded widened form of a LEB128 varuint32 canonical
// value; per §4.1 it key-encodes exactly as a plain uint32.
type VarUint32 uint32

// TimePoint is a microsecond tick count since the Unix epoch.
type TimePoint uint64

// TimePointSec is a second tick count since the Unix epoch.
type TimePointSec uint32

// BlockTimestampType is a half-second tick count since a fixed epoch, the
// compact timestamp form used on block headers.
type BlockTimestampType uint32

// TypeOps bundles the per-scalar-type function pointers KeyCodec exposes
// (§4.1), plus the canonical DecodeValue that EncodeQueryArgAsKey builds on.
// This is the Go vtable standing in for the source's template-specialization
// dispatch.
type TypeOps struct {
	SchemaType string

	// FixedSize returns the byte width of the key encoding, or 0 if variable.
	FixedSize func() uint32

	// DecodeValue parses one value of T from src in canonical (little-endian)
	// form, returning the decoded value and the remaining bytes.
	DecodeValue func(src []byte) (value interface{}, rest []byte, err error)

	// EncodeValue appends v's canonical binary form (not key-ordered).
	EncodeValue func(dest []byte, v interface{}) ([]byte, error)

	// EncodeKey appends a byte sequence whose lexicographic order matches
	// T's natural order. Returns UnsupportedKeyType if T cannot be a key.
	EncodeKey func(dest []byte, v interface{}) ([]byte, error)

	// DecodeKey is the inverse of EncodeKey.
	DecodeKey func(src []byte) (value interface{}, rest []byte, err error)

	// LowerBoundPad / UpperBoundPad append a minimal/maximal byte pattern of
	// T's key width.
	LowerBoundPad func(dest []byte) []byte
	UpperBoundPad func(dest []byte) []byte
}

// EncodeQueryArgAsKey parses one value of T from src in canonical form and
// emits its key encoding to dest, per §4.1. It is also used, unmodified, to
// extract a join key from a row payload slice — both cases are "read
// canonical bytes off some stream, re-encode as key bytes."
func (t *TypeOps) EncodeQueryArgAsKey(dest, src []byte) ([]byte, []byte, error) {
	if t.DecodeValue == nil {
		return dest, src, newErr(UnsupportedKeyType, "schema type %q cannot be key-encoded", t.SchemaType)
	}
	v, rest, err := t.DecodeValue(src)
	if err != nil {
		return dest, rest, err
	}
	dest, err = t.EncodeKey(dest, v)
	if err != nil {
		return dest, rest, err
	}
	return dest, rest, nil
}

func requireLen(src []byte, n int, what string) error {
	if len(src) < n {
		return newErr(DeserializeError, "%s needs %d bytes, got %d", what, n, len(src))
	}
	return nil
}

// --- canonical (little-endian) value codecs, one per registered type ---

func decodeU8Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 1, "uint8"); err != nil {
		return nil, src, err
	}
	return uint8(src[0]), src[1:], nil
}

func decodeU16Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 2, "uint16"); err != nil {
		return nil, src, err
	}
	return binary.LittleEndian.Uint16(src), src[2:], nil
}

func decodeU32Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 4, "uint32"); err != nil {
		return nil, src, err
	}
	return binary.LittleEndian.Uint32(src), src[4:], nil
}

func decodeU64Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 8, "uint64"); err != nil {
		return nil, src, err
	}
	return binary.LittleEndian.Uint64(src), src[8:], nil
}

func decodeU128Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 16, "uint128"); err != nil {
		return nil, src, err
	}
	lo := binary.LittleEndian.Uint64(src[0:8])
	hi := binary.LittleEndian.Uint64(src[8:16])
	return [2]uint64{hi, lo}, src[16:], nil
}

func decodeBoolValue(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 1, "bool"); err != nil {
		return nil, src, err
	}
	return src[0] != 0, src[1:], nil
}

// decodeVarUint32Value reads a LEB128-encoded varuint32 (up to 5 bytes).
func decodeVarUint32Value(src []byte) (interface{}, []byte, error) {
	var result uint32
	var shift uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return VarUint32(result), src[i+1:], nil
		}
		shift += 7
		if shift > 35 {
			return nil, src, newErr(DeserializeError, "varuint32 overflow")
		}
	}
	return nil, src, newErr(DeserializeError, "truncated varuint32")
}

func decodeNameValue(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 8, "name"); err != nil {
		return nil, src, err
	}
	return Name(binary.LittleEndian.Uint64(src)), src[8:], nil
}

func decodeChecksum256Value(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 32, "checksum256"); err != nil {
		return nil, src, err
	}
	var d Digest256
	copy(d[:], src[:32])
	return d, src[32:], nil
}

func decodeTimePointValue(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 8, "time_point"); err != nil {
		return nil, src, err
	}
	return TimePoint(binary.LittleEndian.Uint64(src)), src[8:], nil
}

func decodeTimePointSecValue(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 4, "time_point_sec"); err != nil {
		return nil, src, err
	}
	return TimePointSec(binary.LittleEndian.Uint32(src)), src[4:], nil
}

func decodeBlockTimestampValue(src []byte) (interface{}, []byte, error) {
	if err := requireLen(src, 4, "block_timestamp_type"); err != nil {
		return nil, src, err
	}
	return BlockTimestampType(binary.LittleEndian.Uint32(src)), src[4:], nil
}

// --- canonical value encoders (append little-endian form) ---

func encodeU8Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(uint8)
	if !ok {
		return dest, newErr(DeserializeError, "expected uint8, got %T", v)
	}
	return append(dest, x), nil
}

func encodeU16Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(uint16)
	if !ok {
		return dest, newErr(DeserializeError, "expected uint16, got %T", v)
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], x)
	return append(dest, buf[:]...), nil
}

func encodeU32Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(uint32)
	if !ok {
		return dest, newErr(DeserializeError, "expected uint32, got %T", v)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], x)
	return append(dest, buf[:]...), nil
}

func encodeU64Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(uint64)
	if !ok {
		return dest, newErr(DeserializeError, "expected uint64, got %T", v)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return append(dest, buf[:]...), nil
}

func encodeU128Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.([2]uint64) // {hi, lo}
	if !ok {
		return dest, newErr(DeserializeError, "expected [2]uint64, got %T", v)
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], x[1])
	binary.LittleEndian.PutUint64(buf[8:16], x[0])
	return append(dest, buf[:]...), nil
}

func encodeBoolValue(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(bool)
	if !ok {
		return dest, newErr(DeserializeError, "expected bool, got %T", v)
	}
	if x {
		return append(dest, 0x01), nil
	}
	return append(dest, 0x00), nil
}

func encodeNameValue(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(Name)
	if !ok {
		return dest, newErr(DeserializeError, "expected Name, got %T", v)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(x))
	return append(dest, buf[:]...), nil
}

func encodeChecksum256Value(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(Digest256)
	if !ok {
		return dest, newErr(DeserializeError, "expected Digest256, got %T", v)
	}
	return append(dest, x[:]...), nil
}

func encodeTimePointValue(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(TimePoint)
	if !ok {
		return dest, newErr(DeserializeError, "expected TimePoint, got %T", v)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(x))
	return append(dest, buf[:]...), nil
}

func encodeTimePointSecValue(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(TimePointSec)
	if !ok {
		return dest, newErr(DeserializeError, "expected TimePointSec, got %T", v)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(x))
	return append(dest, buf[:]...), nil
}

func encodeBlockTimestampValue(dest []byte, v interface{}) ([]byte, error) {
	x, ok := v.(BlockTimestampType)
	if !ok {
		return dest, newErr(DeserializeError, "expected BlockTimestampType, got %T", v)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(x))
	return append(dest, buf[:]...), nil
}
