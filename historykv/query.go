package historykv

import (
	"bytes"
	"encoding/binary"
)

// QueryEngine executes named queries against a Prepared Catalog and a
// Store (§4.5). It is stateless per invocation; all working state lives on
// the call stack of Query.
type QueryEngine struct {
	catalog *Catalog
	store   Store
}

// NewQueryEngine returns a QueryEngine bound to a Prepared catalog and a
// Store. Returns an error if catalog is not yet Prepared (§4.5 "State
// machine").
func NewQueryEngine(catalog *Catalog, store Store) (*QueryEngine, error) {
	if !catalog.IsPrepared() {
		return nil, newErr(StoreError, "catalog must be Prepared before use")
	}
	return &QueryEngine{catalog: catalog, store: store}, nil
}

// Query runs one named query (§4.5 "Public operation"): queryBin is the
// wire-format argument stream, headBlock bounds the as-of ceiling. Returns
// a length-prefixed array of row payloads in scan order.
func (e *QueryEngine) Query(queryBin []byte, headBlock uint32) ([]byte, error) {
	cursor := queryBin

	nameVal, cursor, err := decodeU64Value(cursor)
	if err != nil {
		return nil, wrapErr(DeserializeError, err, "reading query name")
	}
	queryName := Name(nameVal.(uint64))

	q := e.findQueryByShortName(queryName)
	if q == nil {
		return nil, newErr(UnknownQuery, "no query with name %d", uint64(queryName))
	}
	if len(q.ArgTypes) > 0 {
		return nil, newErr(NotImplemented, "query %q declares scalar filters beyond range bounds", q.QueryName)
	}

	var maxBlock uint32
	if q.LimitBlockNum {
		asOfVal, rest, err := decodeU32Value(cursor)
		if err != nil {
			return nil, wrapErr(DeserializeError, err, "reading as-of ceiling")
		}
		cursor = rest
		maxBlock = min32(headBlock, asOfVal.(uint32))
	}

	first := MakeTableIndexKey(q.Table().ShortName, queryName)
	last := append([]byte(nil), first...)

	for _, ops := range q.RangeOps() {
		var ferr, lerr error
		first, cursor, ferr = ops.EncodeQueryArgAsKey(first, cursor)
		if ferr != nil {
			return nil, ferr
		}
		last, cursor, lerr = ops.EncodeQueryArgAsKey(last, cursor)
		if lerr != nil {
			return nil, lerr
		}
	}
	prefixLen := len(first)

	capVal, cursor, err := decodeU32Value(cursor)
	if err != nil {
		return nil, wrapErr(DeserializeError, err, "reading result cap")
	}
	_ = cursor
	requestedCap := capVal.(uint32)

	resultCap := requestedCap
	if resultCap == 0 {
		// A cap of 0 substitutes the query's own max_results rather than
		// meaning "unbounded" — every query is capped (§4.5 "Result cap
		// default").
		resultCap = q.MaxResults
	} else if resultCap > q.MaxResults {
		resultCap = q.MaxResults
	}

	upperExclusive := IncKey(last)

	var rows [][]byte
	var groupsEmitted uint32
	var curGroupPrefix []byte
	var resolvedThisGroup bool
	var thresholdMarker []byte

	scanErr := e.store.RangeIter(first, upperExclusive, func(key, value []byte) (bool, error) {
		groupPrefix := key
		if q.IsState {
			if len(key) < prefixLen {
				return false, newErr(KeyPositionOutOfRange, "index key shorter than group prefix: %x", key)
			}
			groupPrefix = key[:prefixLen]
		}

		sameGroup := curGroupPrefix != nil && bytes.Equal(groupPrefix, curGroupPrefix)
		if !sameGroup {
			curGroupPrefix = append([]byte(nil), groupPrefix...)
			resolvedThisGroup = false
			if q.IsState {
				thresholdMarker = AppendTableIndexStateSuffixLimit(append([]byte(nil), groupPrefix...), maxBlock)
			}
		}

		if resolvedThisGroup {
			return true, nil // already have this group's newest-qualifying version
		}

		// As-of sub-scan (§4.5 step 5a). The (~block) suffix ranks entries
		// newest-block-first under ascending byte order, so within a group
		// the earliest-encountered entries are the newest; entries newer
		// than max_block sort *below* the threshold marker group_prefix ∥
		// encode_key(~max_block) (since a larger block number inverts to a
		// smaller suffix), so skipping forward past them and taking the
		// first entry at or above the threshold yields exactly "newest
		// version at or before max_block" in one ascending pass — see the
		// threshold derivation in DESIGN.md.
		if q.IsState && bytes.Compare(key, thresholdMarker) < 0 {
			return true, nil // too new; keep scanning this group
		}

		if err := e.resolveGroup(q, key, value, maxBlock, &rows); err != nil {
			return false, err
		}
		resolvedThisGroup = true
		groupsEmitted++
		return groupsEmitted < resultCap, nil
	})
	if scanErr != nil {
		return nil, scanErr
	}

	return serializeRows(rows)
}

// resolveGroup performs steps 5b-5d for one resolved index entry: point-get
// the delta, optionally join, and append (or drop) the outer row.
func (e *QueryEngine) resolveGroup(q *Query, indexKey, deltaKeyValue []byte, maxBlock uint32, rows *[][]byte) error {
	deltaValue, found, err := e.store.Get(deltaKeyValue)
	if err != nil {
		return wrapErr(StoreError, err, "point-get delta key %x", deltaKeyValue)
	}
	if !found {
		return newErr(IndexDangling, "index entry %x references missing key %x", indexKey, deltaKeyValue)
	}

	row := append([]byte(nil), deltaValue...)
	*rows = append(*rows, row)
	rowIdx := len(*rows) - 1

	if q.JoinTable() == nil {
		return nil
	}

	joinFirst := MakeTableIndexKey(q.JoinTable().ShortName, PackName(q.JoinQueryName))
	for _, jkv := range q.JoinKeyValues {
		f := jkv.field
		pos, ok := f.BytePosition()
		if !ok {
			return newErr(FieldPositionUnknown, "join key field %q has no known byte_position", jkv.FieldName)
		}
		size := f.Ops().FixedSize()
		if uint32(len(deltaValue)) < pos+size {
			return newErr(KeyPositionOutOfRange, "join key field %q exceeds payload length", jkv.FieldName)
		}
		var jerr error
		joinFirst, _, jerr = f.Ops().EncodeQueryArgAsKey(joinFirst, deltaValue[pos:pos+size])
		if jerr != nil {
			return jerr
		}
	}

	hit, joinValue, err := e.resolveAsOfSingle(q.JoinQuery().IsState, joinFirst, maxBlock)
	if err != nil {
		return err
	}
	if !hit {
		// Drop the outer row: no join match at max_block (§4.5 step 5d,
		// Scenario 5).
		*rows = append((*rows)[:rowIdx], (*rows)[rowIdx+1:]...)
		return nil
	}

	for _, ffj := range q.FieldsFromJoin {
		f := ffj.field
		pos, ok := f.BytePosition()
		if !ok {
			return newErr(FieldPositionUnknown, "join-lifted field %q has no known byte_position", ffj.FieldName)
		}
		size := f.Ops().FixedSize()
		if uint32(len(joinValue)) < pos+size {
			return newErr(KeyPositionOutOfRange, "join-lifted field %q exceeds payload length", ffj.FieldName)
		}
		(*rows)[rowIdx] = append((*rows)[rowIdx], joinValue[pos:pos+size]...)
	}
	return nil
}

// resolveAsOfSingle resolves one join-index group (fixed join-key prefix)
// to its newest-at-or-before-max_block delta value, using the same
// forward-threshold logic as the outer scan's as-of sub-scan.
func (e *QueryEngine) resolveAsOfSingle(isState bool, joinIndexPrefix []byte, maxBlock uint32) (hit bool, deltaValue []byte, err error) {
	upper := IncKey(joinIndexPrefix)
	thresholdMarker := AppendTableIndexStateSuffixLimit(append([]byte(nil), joinIndexPrefix...), maxBlock)

	var resolvedIndexValue []byte
	scanErr := e.store.RangeIter(joinIndexPrefix, upper, func(key, value []byte) (bool, error) {
		if !isState || bytes.Compare(key, thresholdMarker) >= 0 {
			resolvedIndexValue = append([]byte(nil), value...)
			return false, nil
		}
		return true, nil
	})
	if scanErr != nil {
		return false, nil, scanErr
	}
	if resolvedIndexValue == nil {
		return false, nil, nil
	}

	dv, found, err := e.store.Get(resolvedIndexValue)
	if err != nil {
		return false, nil, wrapErr(StoreError, err, "point-get join delta key %x", resolvedIndexValue)
	}
	if !found {
		return false, nil, newErr(IndexDangling, "join index entry references missing key %x", resolvedIndexValue)
	}
	return true, dv, nil
}

func (e *QueryEngine) findQueryByShortName(name Name) *Query {
	for _, q := range e.catalog.queries {
		if PackName(q.QueryName) == name {
			return q
		}
	}
	return nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// serializeRows encodes rows as a length-prefixed array of length-prefixed
// byte-arrays (§6 "Query/result wire format"), failing with ResultTooLarge
// if the total size would exceed uint32 capacity (§9 "result.size()
// self-comparison guard", implemented here as an explicit overflow check).
func serializeRows(rows [][]byte) ([]byte, error) {
	var total uint64 = 4
	for _, r := range rows {
		total += 4 + uint64(len(r))
	}
	const u32Max = 1<<32 - 1
	if total > u32Max {
		return nil, newErr(ResultTooLarge, "serialized result is %d bytes, exceeds uint32 capacity", total)
	}

	out := make([]byte, 0, total)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(rows)))
	out = append(out, countBuf[:]...)
	for _, r := range rows {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(r)))
		out = append(out, lenBuf[:]...)
		out = append(out, r...)
	}
	return out, nil
}
