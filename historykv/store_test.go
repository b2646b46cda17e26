package historykv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historykv/config"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	cfg := config.DefaultConfig().Store
	cfg.Path = t.TempDir()
	s, err := OpenStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreRangeIterAscending(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, ps.db.Set([]byte(k), []byte("v-"+k), nil))
	}

	var seen []string
	err := s.RangeIter([]byte("b"), []byte("d"), func(key, value []byte) (bool, error) {
		seen = append(seen, string(key))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, seen)
}

func TestStoreRangeIterEarlyStop(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, ps.db.Set([]byte(k), []byte("v"), nil))
	}

	var seen []string
	err := s.RangeIter([]byte("a"), []byte("z"), func(key, value []byte) (bool, error) {
		seen = append(seen, string(key))
		return len(seen) < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestStoreReverseRangeIter(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, ps.db.Set([]byte(k), []byte("v"), nil))
	}

	var seen []string
	err := s.ReverseRangeIter([]byte("b"), []byte("c"), func(key, value []byte) (bool, error) {
		seen = append(seen, string(key))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, seen)
}

func TestStoreDeleteRange(t *testing.T) {
	s := openTestStore(t)
	ps := s.(*pebbleStore)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, ps.db.Set([]byte(k), []byte("v"), nil))
	}

	require.NoError(t, s.DeleteRange([]byte("b"), []byte("d")))

	var seen []string
	err := s.RangeIter([]byte("a"), []byte("z"), func(key, value []byte) (bool, error) {
		seen = append(seen, string(key))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, seen)
}
