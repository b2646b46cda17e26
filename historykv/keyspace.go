package historykv

// Tag identifies the logical relation a key belongs to. The first byte of
// every key produced by KeyspaceLayout is one of these values; no other tag
// values are ever produced (§6, stable on disk).
type Tag byte

const (
	TagFillStatus     Tag = 0x10
	TagBlock          Tag = 0x20
	TagReceivedBlock  Tag = 0x30
	TagTableRow       Tag = 0x50
	TagTableDelta     Tag = 0x60
	TagTableIndex     Tag = 0x70
	TagTableIndexRef  Tag = 0x80
)

// FillStatusKey is the singleton key for ingestion-progress bookkeeping.
func FillStatusKey() []byte {
	return []byte{byte(TagFillStatus)}
}

// BlockKey returns block ∥ n, the common prefix for every per-block family
// at height n. Appending further fields beneath this prefix (table_row,
// table_delta tags) keeps all of a block's data range-truncatable together.
func BlockKey(n uint32) []byte {
	dest := []byte{byte(TagBlock)}
	return EncodeUint32Key(dest, n)
}

// BlockUpperSentinel returns the exclusive upper bound of the entire `block`
// tag family: block ∥ 0xFFFFFFFF, incremented. Paired with BlockKey(n) this
// brackets "every block at height >= n".
func BlockUpperSentinel() []byte {
	dest := []byte{byte(TagBlock)}
	dest = UpperBoundPad(dest, 4)
	return IncKey(dest)
}

// ReceivedBlockKey is block ∥ n ∥ received_block, nesting the record inside
// the block family rather than addressing it at the top level, so that
// Truncator.Truncate's [BlockKey(n), BlockUpperSentinel()) range-delete
// erases it along with every other per-block record at height >= n.
func ReceivedBlockKey(n uint32) []byte {
	dest := []byte{byte(TagBlock)}
	dest = EncodeUint32Key(dest, n)
	dest = append(dest, byte(TagReceivedBlock))
	return dest
}

// RowKey is block ∥ n ∥ table_row ∥ table_name ∥ pk…, the address of a
// non-state table's row payload. pkEncoded is the already key-encoded
// concatenation of the primary-key field values.
func RowKey(n uint32, tableName Name, pkEncoded []byte) []byte {
	dest := []byte{byte(TagBlock)}
	dest = EncodeUint32Key(dest, n)
	dest = append(dest, byte(TagTableRow))
	dest = EncodeUint64Key(dest, uint64(tableName))
	dest = append(dest, pkEncoded...)
	return dest
}

// DeltaKey is block ∥ n ∥ table_delta ∥ table_name ∥ present ∥ pk…, the
// address of one version of a state-table row.
func DeltaKey(n uint32, tableName Name, present bool, pkEncoded []byte) []byte {
	dest := []byte{byte(TagBlock)}
	dest = EncodeUint32Key(dest, n)
	dest = append(dest, byte(TagTableDelta))
	dest = EncodeUint64Key(dest, uint64(tableName))
	dest = EncodeBoolKey(dest, present)
	dest = append(dest, pkEncoded...)
	return dest
}

// MakeTableIndexKey is the fixed prefix shared by every index entry of one
// (table, index): table_index ∥ table_name ∥ index_name. Callers append
// index-field values (and, for state tables, the version suffix) after it.
func MakeTableIndexKey(tableName, indexName Name) []byte {
	dest := []byte{byte(TagTableIndex)}
	dest = EncodeUint64Key(dest, uint64(tableName))
	dest = EncodeUint64Key(dest, uint64(indexName))
	return dest
}

// AppendTableIndexStateSuffixLimit appends only the inverted block number,
// ~block — the 4-byte-only threshold marker used to bound the as-of
// sub-scan (§4.5 step 5a). It deliberately omits the present byte real index
// entries carry, so it sorts strictly between the real entries for block+1
// and block (see QueryEngine.Query and QueryEngine.resolveAsOfSingle).
func AppendTableIndexStateSuffixLimit(dest []byte, block uint32) []byte {
	return EncodeUint32Key(dest, ^block)
}

// AppendTableIndexStateSuffix appends the full state-table version suffix,
// (~block, !present), to an index key. Inverting the block number makes
// byte-ascending order rank newest-block-first; at equal block, encoding
// !present makes present=true (suffix byte 0) sort before present=false
// (suffix byte 1), matching "live precedes tombstone" (§4.2, §8).
func AppendTableIndexStateSuffix(dest []byte, block uint32, present bool) []byte {
	dest = EncodeUint32Key(dest, ^block)
	return EncodeBoolKey(dest, !present)
}

// IndexRefKey is table_index_ref ∥ n ∥ len(primary_row_key) ∥
// primary_row_key ∥ index_key, the back-reference written alongside every
// index entry so that reverting block n can erase all of block n's index
// entries via a range scan. The explicit length prefix (rather than
// scanning for index_key's tag byte) keeps parsing unambiguous even though
// primary_row_key's own bytes may coincidentally contain a table_index tag
// byte.
func IndexRefKey(n uint32, primaryRowKey, indexKey []byte) []byte {
	dest := []byte{byte(TagTableIndexRef)}
	dest = EncodeUint32Key(dest, n)
	dest = EncodeUint32Key(dest, uint32(len(primaryRowKey)))
	dest = append(dest, primaryRowKey...)
	dest = append(dest, indexKey...)
	return dest
}

// SplitIndexRefKey parses an IndexRefKey back into its primary_row_key and
// index_key components, given the full key bytes including the tag.
func SplitIndexRefKey(key []byte) (primaryRowKey, indexKey []byte, err error) {
	if len(key) < 9 {
		return nil, nil, newErr(KeyPositionOutOfRange, "index-ref key too short: %x", key)
	}
	pkLenRaw, err := DecodeUint32Key(key[5:9])
	if err != nil {
		return nil, nil, err
	}
	pkLen := int(pkLenRaw)
	if len(key) < 9+pkLen {
		return nil, nil, newErr(KeyPositionOutOfRange, "index-ref key truncated primary_row_key: %x", key)
	}
	return key[9 : 9+pkLen], key[9+pkLen:], nil
}

// IndexRefRangeForBlock brackets the table_index_ref family at exactly
// block n: [tag∥n, tag∥n+1), covering the back-references of one height.
func IndexRefRangeForBlock(n uint32) (lower, upper []byte) {
	lower = []byte{byte(TagTableIndexRef)}
	lower = EncodeUint32Key(lower, n)
	upper = IncKey(lower)
	return lower, upper
}

// IndexRefRangeFrom brackets the table_index_ref family at every height
// >= n: [tag∥n, tag∥0xFFFFFFFF incremented).
func IndexRefRangeFrom(n uint32) (lower, upper []byte) {
	lower = []byte{byte(TagTableIndexRef)}
	lower = EncodeUint32Key(lower, n)
	upper = []byte{byte(TagTableIndexRef)}
	upper = UpperBoundPad(upper, 4)
	upper = IncKey(upper)
	return lower, upper
}

// IndexRefRangeBelow brackets the table_index_ref family at every height
// < n: [tag, tag∥n).
func IndexRefRangeBelow(n uint32) (lower, upper []byte) {
	lower = []byte{byte(TagTableIndexRef)}
	upper = []byte{byte(TagTableIndexRef)}
	upper = EncodeUint32Key(upper, n)
	return lower, upper
}
