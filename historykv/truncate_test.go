package historykv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockKeyRangeTruncationScenario(t *testing.T) {
	// Scenario 3: insert dummy rows at blocks 10, 11, 12; range-erase
	// [block_key(11), block_key() ∥ 0xFF…] leaves only block 10 reachable.
	s := openTestStore(t)
	ps := s.(*pebbleStore)

	tableName := PackName("dummy")
	for _, n := range []uint32{10, 11, 12} {
		key := RowKey(n, tableName, EncodeUint32Key(nil, n))
		require.NoError(t, ps.db.Set(key, []byte("row"), nil))
	}

	tr := NewTruncator(s)
	require.NoError(t, tr.Truncate(11))

	var seenBlocks []uint32
	err := s.RangeIter([]byte{byte(TagBlock)}, BlockUpperSentinel(), func(key, value []byte) (bool, error) {
		n, derr := DecodeUint32Key(key[1:5])
		require.NoError(t, derr)
		seenBlocks = append(seenBlocks, n)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{10}, seenBlocks)
}

func TestTruncateErasesDanglingIndexEntries(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)

	tableName := PackName("dummy")
	indexName := PackName("by_id")
	rowKey := RowKey(12, tableName, EncodeUint32Key(nil, 1))
	indexKey := append(MakeTableIndexKey(tableName, indexName), EncodeUint32Key(nil, 1)...)
	refKey := IndexRefKey(12, rowKey, indexKey)

	require.NoError(t, ps.db.Set(rowKey, []byte("row"), nil))
	require.NoError(t, ps.db.Set(indexKey, rowKey, nil))
	require.NoError(t, ps.db.Set(refKey, nil, nil))

	tr := NewTruncator(s)
	require.NoError(t, tr.Truncate(12))

	_, found, err := s.Get(indexKey)
	require.NoError(t, err)
	assert.False(t, found, "index entry must be erased when its block is truncated")

	var refsLeft int
	lower, upper := IndexRefRangeFrom(0)
	err = s.RangeIter(lower, upper, func(key, value []byte) (bool, error) {
		refsLeft++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, refsLeft, "back-reference parity: ref erased alongside its index entry")
}

func TestTrimBeforeErasesOlderBlocks(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)

	tableName := PackName("dummy")
	for _, n := range []uint32{5, 10, 15} {
		key := RowKey(n, tableName, EncodeUint32Key(nil, n))
		require.NoError(t, ps.db.Set(key, []byte("row"), nil))
	}

	tr := NewTruncator(s)
	require.NoError(t, tr.TrimBefore(10))

	var seenBlocks []uint32
	err := s.RangeIter([]byte{byte(TagBlock)}, BlockUpperSentinel(), func(key, value []byte) (bool, error) {
		n, derr := DecodeUint32Key(key[1:5])
		require.NoError(t, derr)
		seenBlocks = append(seenBlocks, n)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 15}, seenBlocks)
}

func TestOldestBlock(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)

	tr := NewTruncator(s)
	_, found, err := tr.OldestBlock()
	require.NoError(t, err)
	assert.False(t, found)

	tableName := PackName("dummy")
	for _, n := range []uint32{7, 3, 9} {
		key := RowKey(n, tableName, EncodeUint32Key(nil, n))
		require.NoError(t, ps.db.Set(key, []byte("row"), nil))
	}

	height, found, err := tr.OldestBlock()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(3), height)
}
