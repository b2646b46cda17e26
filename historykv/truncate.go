package historykv

import "historykv/logs"

// Truncator implements the block-truncation lifecycle operation (§3
// Lifecycles): erase every per-block family at height >= n, then walk
// TableIndexRef entries at height >= n to erase their corresponding
// TableIndex entries, preserving the back-reference-parity invariant.
type Truncator struct {
	store Store
}

// NewTruncator returns a Truncator operating on store.
func NewTruncator(store Store) *Truncator {
	return &Truncator{store: store}
}

// Truncate discards all per-block data at height >= n: rows, deltas,
// received-block records (all addressed under the `block` tag family,
// which shares the common block ∥ n prefix, §4.2), then erases every
// dangling index entry those blocks' index-refs point at.
func (t *Truncator) Truncate(n uint32) error {
	lower := BlockKey(n)
	upper := BlockUpperSentinel()
	if err := t.store.DeleteRange(lower, upper); err != nil {
		return err
	}
	logs.Info("historykv: truncated block family at height >= %d", n)

	if err := t.eraseDanglingIndexEntries(n); err != nil {
		return err
	}
	refLower, refUpper := IndexRefRangeFrom(n)
	if err := t.store.DeleteRange(refLower, refUpper); err != nil {
		return err
	}
	logs.Info("historykv: erased index-ref family at height >= %d", n)
	return nil
}

// TrimBefore erases per-block data at height < n, the mirror-image range
// of Truncate. This is pure retention housekeeping, recovered from the
// original's trim_history bookkeeping (§3 "Recovered from
// original_source"): it changes no invariant the engine defines, since
// both the fill-status singleton and the as-of semantics (§4.5) are
// defined relative to head_block, not to the oldest retained block.
func (t *Truncator) TrimBefore(n uint32) error {
	lower := []byte{byte(TagBlock)}
	upper := BlockKey(n)
	if err := t.store.DeleteRange(lower, upper); err != nil {
		return err
	}
	logs.Info("historykv: trimmed block family at height < %d", n)

	if err := t.eraseDanglingIndexEntriesBelow(n); err != nil {
		return err
	}
	refLower, refUpper := IndexRefRangeBelow(n)
	if err := t.store.DeleteRange(refLower, refUpper); err != nil {
		return err
	}
	logs.Info("historykv: erased index-ref family at height < %d", n)
	return nil
}

// OldestBlock scans forward from the start of the `block` tag family and
// returns the height encoded in the first key found, recovering the
// lowest block height still retained. Returns found=false if the store
// holds no block-tagged data at all.
func (t *Truncator) OldestBlock() (height uint32, found bool, err error) {
	lower := []byte{byte(TagBlock)}
	upper := BlockUpperSentinel()
	err = t.store.RangeIter(lower, upper, func(key, value []byte) (bool, error) {
		if len(key) < 5 {
			return false, newErr(KeyPositionOutOfRange, "block key too short: %x", key)
		}
		h, derr := DecodeUint32Key(key[1:5])
		if derr != nil {
			return false, derr
		}
		height = h
		found = true
		return false, nil
	})
	return height, found, err
}

// eraseDanglingIndexEntries walks every TableIndexRef with block_num >= n
// and erases the TableIndex entry it points at before the ref itself is
// erased by the caller's range-delete, preserving back-reference parity.
func (t *Truncator) eraseDanglingIndexEntries(n uint32) error {
	refLower, refUpper := IndexRefRangeFrom(n)
	return t.eraseIndexEntriesInRefRange(refLower, refUpper)
}

func (t *Truncator) eraseDanglingIndexEntriesBelow(n uint32) error {
	refLower, refUpper := IndexRefRangeBelow(n)
	return t.eraseIndexEntriesInRefRange(refLower, refUpper)
}

func (t *Truncator) eraseIndexEntriesInRefRange(refLower, refUpper []byte) error {
	var indexKeys [][]byte
	err := t.store.RangeIter(refLower, refUpper, func(key, value []byte) (bool, error) {
		// IndexRefKey's value holds nothing (§3 "empty value") — the
		// index_key to erase is embedded in the ref key itself.
		_, indexKey, serr := SplitIndexRefKey(key)
		if serr != nil {
			return false, serr
		}
		cp := make([]byte, len(indexKey))
		copy(cp, indexKey)
		indexKeys = append(indexKeys, cp)
		return true, nil
	})
	if err != nil {
		return err
	}
	for _, ik := range indexKeys {
		if err := t.store.DeleteRange(ik, IncKey(ik)); err != nil {
			return err
		}
	}
	return nil
}
