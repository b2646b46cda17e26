package historykv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRegistryLookupKnownTypes(t *testing.T) {
	r := NewTypeRegistry()
	for _, name := range []string{
		"bool", "uint8", "uint16", "uint32", "uint64", "uint128",
		"varuint32", "name", "checksum256", "time_point", "time_point_sec",
		"block_timestamp_type",
	} {
		ops, ok := r.Lookup(name)
		require.True(t, ok, "expected %q registered", name)
		assert.Equal(t, name, ops.SchemaType)
	}
}

func TestTypeRegistryIsSingleton(t *testing.T) {
	a := NewTypeRegistry()
	b := NewTypeRegistry()
	assert.Same(t, a, b)
}

func TestUnsupportedKeyTypesRejectEncodeKey(t *testing.T) {
	r := NewTypeRegistry()
	for _, name := range []string{"int32", "int64", "float64", "string", "bytes", "public_key", "signature"} {
		ops, ok := r.Lookup(name)
		require.True(t, ok, "expected %q registered as a value-only type", name)
		_, err := ops.EncodeKey(nil, nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, UnsupportedKeyType))
	}
}

func TestNameTypeRoundTrip(t *testing.T) {
	r := NewTypeRegistry()
	ops, _ := r.Lookup("name")
	enc, err := ops.EncodeKey(nil, Name(0x0102030405060708))
	require.NoError(t, err)
	v, rest, err := ops.DecodeKey(enc)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, Name(0x0102030405060708), v)
}

func TestChecksum256KeyRoundTrip(t *testing.T) {
	r := NewTypeRegistry()
	ops, _ := r.Lookup("checksum256")
	var d Digest256
	for i := range d {
		d[i] = byte(i)
	}
	enc, err := ops.EncodeKey(nil, d)
	require.NoError(t, err)
	v, _, err := ops.DecodeKey(enc)
	require.NoError(t, err)
	assert.Equal(t, d, v)
}

func TestChecksum256KeyOrderReversesCanonicalBytes(t *testing.T) {
	// Canonical (little-endian, as produced by encode_value) byte order for
	// a 256-bit digest does not determine key order; the key encoding
	// byte-reverses the digest so its most-significant stored byte sorts
	// first, matching the fixed-width-identifier rule (§4.1).
	r := NewTypeRegistry()
	ops, _ := r.Lookup("checksum256")
	var d Digest256
	d[31] = 0x01 // canonical form's most-significant byte
	enc, err := ops.EncodeKey(nil, d)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), enc[0])
}

func TestVarUint32EncodeQueryArgAsKey(t *testing.T) {
	r := NewTypeRegistry()
	ops, _ := r.Lookup("varuint32")
	var canonical []byte
	canonical = encodeVarUint32(canonical, 300)
	key, rest, err := ops.EncodeQueryArgAsKey(nil, canonical)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, EncodeUint32Key(nil, 300), key)
}

func TestBoolFixedSize(t *testing.T) {
	r := NewTypeRegistry()
	ops, _ := r.Lookup("bool")
	assert.Equal(t, uint32(1), ops.FixedSize())
}
