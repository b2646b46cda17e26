package historykv

import "sync"

// TypeRegistry is the static mapping from schema type names to a TypeOps
// capability bundle (§4.3). It is built once and never mutated after
// publish — lookups return a borrowed handle good for the process lifetime.
type TypeRegistry struct {
	byName map[string]*TypeOps
}

var (
	globalRegistry     *TypeRegistry
	globalRegistryOnce sync.Once
)

// NewTypeRegistry returns the process-wide TypeRegistry, building it on the
// first call and reusing it thereafter.
func NewTypeRegistry() *TypeRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = buildTypeRegistry()
	})
	return globalRegistry
}

// Lookup resolves a schema type name to its TypeOps, or (nil, false) if the
// name is unregistered.
func (r *TypeRegistry) Lookup(schemaType string) (*TypeOps, bool) {
	ops, ok := r.byName[schemaType]
	return ops, ok
}

func fixedSizeOf(n uint32) func() uint32 {
	return func() uint32 { return n }
}

func unsupportedKey(schemaType string) func(dest []byte, v interface{}) ([]byte, error) {
	return func(dest []byte, v interface{}) ([]byte, error) {
		return dest, newErr(UnsupportedKeyType, "schema type %q cannot be key-encoded", schemaType)
	}
}

func buildTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{byName: make(map[string]*TypeOps)}

	r.byName["bool"] = &TypeOps{
		SchemaType:  "bool",
		FixedSize:   fixedSizeOf(1),
		DecodeValue: decodeBoolValue,
		EncodeValue: encodeBoolValue,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(bool)
			if !ok {
				return dest, newErr(DeserializeError, "expected bool, got %T", v)
			}
			return EncodeBoolKey(dest, x), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeBoolKey(src)
			if err != nil {
				return nil, src, err
			}
			return v, src[1:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 1) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 1) },
	}

	r.byName["uint8"] = &TypeOps{
		SchemaType:  "uint8",
		FixedSize:   fixedSizeOf(1),
		DecodeValue: decodeU8Value,
		EncodeValue: encodeU8Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(uint8)
			if !ok {
				return dest, newErr(DeserializeError, "expected uint8, got %T", v)
			}
			return EncodeUint8Key(dest, x), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint8Key(src)
			if err != nil {
				return nil, src, err
			}
			return v, src[1:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 1) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 1) },
	}

	r.byName["uint16"] = &TypeOps{
		SchemaType:  "uint16",
		FixedSize:   fixedSizeOf(2),
		DecodeValue: decodeU16Value,
		EncodeValue: encodeU16Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(uint16)
			if !ok {
				return dest, newErr(DeserializeError, "expected uint16, got %T", v)
			}
			return EncodeUint16Key(dest, x), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint16Key(src)
			if err != nil {
				return nil, src, err
			}
			return v, src[2:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 2) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 2) },
	}

	r.byName["uint32"] = &TypeOps{
		SchemaType:  "uint32",
		FixedSize:   fixedSizeOf(4),
		DecodeValue: decodeU32Value,
		EncodeValue: encodeU32Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(uint32)
			if !ok {
				return dest, newErr(DeserializeError, "expected uint32, got %T", v)
			}
			return EncodeUint32Key(dest, x), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint32Key(src)
			if err != nil {
				return nil, src, err
			}
			return v, src[4:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 4) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 4) },
	}

	r.byName["uint64"] = &TypeOps{
		SchemaType:  "uint64",
		FixedSize:   fixedSizeOf(8),
		DecodeValue: decodeU64Value,
		EncodeValue: encodeU64Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(uint64)
			if !ok {
				return dest, newErr(DeserializeError, "expected uint64, got %T", v)
			}
			return EncodeUint64Key(dest, x), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint64Key(src)
			if err != nil {
				return nil, src, err
			}
			return v, src[8:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 8) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 8) },
	}

	r.byName["uint128"] = &TypeOps{
		SchemaType:  "uint128",
		FixedSize:   fixedSizeOf(16),
		DecodeValue: decodeU128Value,
		EncodeValue: encodeU128Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.([2]uint64)
			if !ok {
				return dest, newErr(DeserializeError, "expected [2]uint64, got %T", v)
			}
			return EncodeUint128Key(dest, x[0], x[1]), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			hi, lo, err := DecodeUint128Key(src)
			if err != nil {
				return nil, src, err
			}
			return [2]uint64{hi, lo}, src[16:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 16) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 16) },
	}

	// varuint32 widens to u32 then key-encodes as u32 (§4.1).
	r.byName["varuint32"] = &TypeOps{
		SchemaType:  "varuint32",
		FixedSize:   fixedSizeOf(4),
		DecodeValue: decodeVarUint32Value,
		EncodeValue: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(VarUint32)
			if !ok {
				return dest, newErr(DeserializeError, "expected VarUint32, got %T", v)
			}
			return encodeVarUint32(dest, uint32(x)), nil
		},
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(VarUint32)
			if !ok {
				return dest, newErr(DeserializeError, "expected VarUint32, got %T", v)
			}
			return EncodeUint32Key(dest, uint32(x)), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint32Key(src)
			if err != nil {
				return nil, src, err
			}
			return VarUint32(v), src[4:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 4) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 4) },
	}

	r.byName["name"] = &TypeOps{
		SchemaType:  "name",
		FixedSize:   fixedSizeOf(8),
		DecodeValue: decodeNameValue,
		EncodeValue: encodeNameValue,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(Name)
			if !ok {
				return dest, newErr(DeserializeError, "expected Name, got %T", v)
			}
			return EncodeUint64Key(dest, uint64(x)), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint64Key(src)
			if err != nil {
				return nil, src, err
			}
			return Name(v), src[8:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 8) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 8) },
	}

	r.byName["checksum256"] = &TypeOps{
		SchemaType:  "checksum256",
		FixedSize:   fixedSizeOf(32),
		DecodeValue: decodeChecksum256Value,
		EncodeValue: encodeChecksum256Value,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(Digest256)
			if !ok {
				return dest, newErr(DeserializeError, "expected Digest256, got %T", v)
			}
			var rev [32]byte
			for i := 0; i < 32; i++ {
				rev[i] = x[31-i]
			}
			return append(dest, rev[:]...), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			if len(src) < 32 {
				return nil, src, newErr(KeyPositionOutOfRange, "checksum256 key needs 32 bytes, got %d", len(src))
			}
			var d Digest256
			for i := 0; i < 32; i++ {
				d[i] = src[31-i]
			}
			return d, src[32:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 32) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 32) },
	}

	r.byName["time_point"] = &TypeOps{
		SchemaType:  "time_point",
		FixedSize:   fixedSizeOf(8),
		DecodeValue: decodeTimePointValue,
		EncodeValue: encodeTimePointValue,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(TimePoint)
			if !ok {
				return dest, newErr(DeserializeError, "expected TimePoint, got %T", v)
			}
			return EncodeUint64Key(dest, uint64(x)), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint64Key(src)
			if err != nil {
				return nil, src, err
			}
			return TimePoint(v), src[8:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 8) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 8) },
	}

	r.byName["time_point_sec"] = &TypeOps{
		SchemaType:  "time_point_sec",
		FixedSize:   fixedSizeOf(4),
		DecodeValue: decodeTimePointSecValue,
		EncodeValue: encodeTimePointSecValue,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(TimePointSec)
			if !ok {
				return dest, newErr(DeserializeError, "expected TimePointSec, got %T", v)
			}
			return EncodeUint32Key(dest, uint32(x)), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint32Key(src)
			if err != nil {
				return nil, src, err
			}
			return TimePointSec(v), src[4:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 4) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 4) },
	}

	r.byName["block_timestamp_type"] = &TypeOps{
		SchemaType:  "block_timestamp_type",
		FixedSize:   fixedSizeOf(4),
		DecodeValue: decodeBlockTimestampValue,
		EncodeValue: encodeBlockTimestampValue,
		EncodeKey: func(dest []byte, v interface{}) ([]byte, error) {
			x, ok := v.(BlockTimestampType)
			if !ok {
				return dest, newErr(DeserializeError, "expected BlockTimestampType, got %T", v)
			}
			return EncodeUint32Key(dest, uint32(x)), nil
		},
		DecodeKey: func(src []byte) (interface{}, []byte, error) {
			v, err := DecodeUint32Key(src)
			if err != nil {
				return nil, src, err
			}
			return BlockTimestampType(v), src[4:], nil
		},
		LowerBoundPad: func(dest []byte) []byte { return LowerBoundPad(dest, 4) },
		UpperBoundPad: func(dest []byte) []byte { return UpperBoundPad(dest, 4) },
	}

	// Types valid as row value fields but never as key components (§4.1's
	// table): registered as variable-width (FixedSize 0) with no value
	// codecs (DecodeValue/EncodeValue are nil), and a key side that always
	// fails with UnsupportedKeyType.
	for _, unsupported := range []string{"int8", "int16", "int32", "int64", "float64", "string", "bytes", "public_key", "signature"} {
		schemaType := unsupported
		r.byName[schemaType] = &TypeOps{
			SchemaType: schemaType,
			FixedSize:  fixedSizeOf(0),
			EncodeKey:  unsupportedKey(schemaType),
			DecodeKey: func(src []byte) (interface{}, []byte, error) {
				return nil, src, newErr(UnsupportedKeyType, "schema type %q cannot be key-decoded", schemaType)
			},
		}
	}

	return r
}

// encodeVarUint32 appends v as LEB128.
func encodeVarUint32(dest []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dest = append(dest, b|0x80)
		} else {
			dest = append(dest, b)
			return dest
		}
	}
}
