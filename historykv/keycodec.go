package historykv

import "encoding/binary"

// EncodeUint8Key/16/32/64/128 append the big-endian key encoding of an
// unsigned integer. Since the canonical (encode_value) form is little-endian,
// big-endian here is exactly the byte-reverse of the canonical form, which is
// the rule §4.1 calls out for every unsigned scalar and fixed-width id.

func EncodeUint8Key(dest []byte, v uint8) []byte {
	return append(dest, v)
}

func EncodeUint16Key(dest []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dest, buf[:]...)
}

func EncodeUint32Key(dest []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dest, buf[:]...)
}

func EncodeUint64Key(dest []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(dest, buf[:]...)
}

// EncodeUint128Key appends the 16-byte big-endian encoding of a 128-bit
// unsigned integer given as (hi, lo) native 64-bit halves.
func EncodeUint128Key(dest []byte, hi, lo uint64) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], hi)
	binary.BigEndian.PutUint64(buf[8:16], lo)
	return append(dest, buf[:]...)
}

func DecodeUint8Key(src []byte) (uint8, error) {
	if len(src) < 1 {
		return 0, newErr(KeyPositionOutOfRange, "uint8 key needs 1 byte, got %d", len(src))
	}
	return src[0], nil
}

func DecodeUint16Key(src []byte) (uint16, error) {
	if len(src) < 2 {
		return 0, newErr(KeyPositionOutOfRange, "uint16 key needs 2 bytes, got %d", len(src))
	}
	return binary.BigEndian.Uint16(src), nil
}

func DecodeUint32Key(src []byte) (uint32, error) {
	if len(src) < 4 {
		return 0, newErr(KeyPositionOutOfRange, "uint32 key needs 4 bytes, got %d", len(src))
	}
	return binary.BigEndian.Uint32(src), nil
}

func DecodeUint64Key(src []byte) (uint64, error) {
	if len(src) < 8 {
		return 0, newErr(KeyPositionOutOfRange, "uint64 key needs 8 bytes, got %d", len(src))
	}
	return binary.BigEndian.Uint64(src), nil
}

func DecodeUint128Key(src []byte) (hi, lo uint64, err error) {
	if len(src) < 16 {
		return 0, 0, newErr(KeyPositionOutOfRange, "uint128 key needs 16 bytes, got %d", len(src))
	}
	return binary.BigEndian.Uint64(src[0:8]), binary.BigEndian.Uint64(src[8:16]), nil
}

// EncodeBoolKey appends a single 0x00/0x01 byte.
func EncodeBoolKey(dest []byte, v bool) []byte {
	if v {
		return append(dest, 0x01)
	}
	return append(dest, 0x00)
}

func DecodeBoolKey(src []byte) (bool, error) {
	if len(src) < 1 {
		return false, newErr(KeyPositionOutOfRange, "bool key needs 1 byte, got %d", len(src))
	}
	return src[0] != 0, nil
}

// LowerBoundPad appends k zero bytes; UpperBoundPad appends k 0xFF bytes.
// Both bracket a prefix scan over a k-byte-wide key component without
// knowing its value.
func LowerBoundPad(dest []byte, k uint32) []byte {
	for i := uint32(0); i < k; i++ {
		dest = append(dest, 0x00)
	}
	return dest
}

func UpperBoundPad(dest []byte, k uint32) []byte {
	for i := uint32(0); i < k; i++ {
		dest = append(dest, 0xFF)
	}
	return dest
}

// IncKey treats k as a big-endian integer and adds 1, propagating carry from
// the last byte toward the first. Silently wraps (all-0x00) at overflow. The
// input is not mutated; a new slice is returned.
func IncKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			return out
		}
	}
	return out // all bytes wrapped to 0x00: overflow
}
