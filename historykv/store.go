package historykv

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"historykv/config"
	"historykv/logs"
)

// Store is the ordered key-value contract the engine consumes (§6 "Store
// API consumed"). It is a read side only: writes are the external
// ingestion layer's job (§1 Non-goals), except for DeleteRange, which backs
// the one destructive operation this module does own — block truncation.
type Store interface {
	// Get returns the value for key, and false if absent.
	Get(key []byte) (value []byte, found bool, err error)

	// RangeIter iterates ascending over [lower, upper). fn is called once
	// per entry in increasing key order; returning false from fn stops the
	// scan early without error.
	RangeIter(lower, upper []byte, fn func(key, value []byte) (bool, error)) error

	// ReverseRangeIter iterates descending over [lowerInclusive,
	// upperInclusive], starting at the greatest key <= upperInclusive.
	ReverseRangeIter(lowerInclusive, upperInclusive []byte, fn func(key, value []byte) (bool, error)) error

	// DeleteRange erases every key in [lower, upper).
	DeleteRange(lower, upper []byte) error

	// Close releases the underlying engine handle. The engine never closes
	// a handle it did not open itself (§2 "external collaborator" boundary).
	Close() error
}

// pebbleStore adapts cockroachdb/pebble to the Store contract. Chosen over
// the teacher's other embedded option, dgraph-io/badger, because pebble's
// pebble.IterOptions{LowerBound, UpperBound} maps directly onto the
// [lower, upper) / [lower, upper] range contract this module needs in both
// directions; badger's iterator only takes a single Prefix/Seek option and
// would need hand-rolled upper-bound checks inside every callback.
type pebbleStore struct {
	db       *pebble.DB
	writeOpt *pebble.WriteOptions
}

// OpenStore opens (creating if absent) a pebble-backed Store at cfg.Path.
func OpenStore(cfg config.StoreConfig) (Store, error) {
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("historykv: create store dir %s: %w", cfg.Path, err)
	}
	opts := &pebble.Options{
		MaxConcurrentCompactions: func() int { return cfg.MaxConcurrentCompactions },
		MemTableSize:             uint64(cfg.MemTableSize),
		L0CompactionThreshold:    cfg.L0CompactionThreshold,
	}
	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("historykv: open store at %s: %w", cfg.Path, err)
	}
	logs.Info("historykv: store opened at %s", cfg.Path)
	writeOpt := pebble.NoSync
	if cfg.Sync {
		writeOpt = pebble.Sync
	}
	return &pebbleStore{db: db, writeOpt: writeOpt}, nil
}

func (s *pebbleStore) Get(key []byte) ([]byte, bool, error) {
	raw, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, wrapErr(StoreError, err, "get key %x", key)
	}
	value := make([]byte, len(raw))
	copy(value, raw)
	closer.Close()
	return value, true, nil
}

func (s *pebbleStore) RangeIter(lower, upper []byte, fn func(key, value []byte) (bool, error)) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return wrapErr(StoreError, err, "open range iterator")
	}
	defer iter.Close()

	for iter.SeekGE(lower); iter.Valid(); iter.Next() {
		cont, err := fn(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return wrapErr(StoreError, err, "range iterator")
	}
	return nil
}

func (s *pebbleStore) ReverseRangeIter(lowerInclusive, upperInclusive []byte, fn func(key, value []byte) (bool, error)) error {
	// pebble's UpperBound is exclusive; upperInclusive ∥ 0x00 is the smallest
	// key greater than upperInclusive, so upperInclusive itself is the last
	// key reachable from SeekLT.
	upperExclusive := append(append([]byte(nil), upperInclusive...), 0x00)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lowerInclusive, UpperBound: upperExclusive})
	if err != nil {
		return wrapErr(StoreError, err, "open reverse range iterator")
	}
	defer iter.Close()

	for iter.SeekLT(upperExclusive); iter.Valid(); iter.Prev() {
		cont, err := fn(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return wrapErr(StoreError, err, "reverse range iterator")
	}
	return nil
}

func (s *pebbleStore) DeleteRange(lower, upper []byte) error {
	if err := s.db.DeleteRange(lower, upper, s.writeOpt); err != nil {
		return wrapErr(StoreError, err, "delete range [%x, %x)", lower, upper)
	}
	return nil
}

func (s *pebbleStore) Close() error {
	if err := s.db.Close(); err != nil {
		return wrapErr(StoreError, err, "close store")
	}
	return nil
}

// FillStatus reads the singleton ingestion-progress record, recovered from
// the original's get_fill_status direct accessor (§3 "Recovered from
// original_source").
func FillStatus(s Store) (value []byte, found bool, err error) {
	return s.Get(FillStatusKey())
}

// ReceivedBlock reads the per-block observed-block record, recovered from
// the original's get_received_block direct accessor.
func ReceivedBlock(s Store, blockNum uint32) (value []byte, found bool, err error) {
	return s.Get(ReceivedBlockKey(blockNum))
}
