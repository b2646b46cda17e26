package historykv

// Field describes one schema field: its external schema type, resolved
// TypeOps, and (once Catalog.Prepare runs) its byte_position within the
// fixed-size prefix run of a row payload, if it has one.
type Field struct {
	FieldName  string
	SchemaType string

	ops         *TypeOps
	bytePos     uint32
	bytePosSet  bool
}

// Ops returns the field's resolved TypeOps. Valid only after Prepare.
func (f *Field) Ops() *TypeOps { return f.ops }

// BytePosition returns the field's offset within the fixed-size prefix run
// and whether it is known. A field past the first variable-width field has
// no known offset (§3 invariant, §4.4 step 3).
func (f *Field) BytePosition() (uint32, bool) { return f.bytePos, f.bytePosSet }

// Key names one or more fields forming a primary key, history key, or index
// key component list.
type Key struct {
	KeyName string
	Fields  []*Field
}

// Table is a catalog-resolved schema table.
type Table struct {
	TableName   string
	ShortName   Name
	Fields      []*Field
	PrimaryKey  *Key
	HistoryKeys []*Key
	Indexes     map[string]*Key // index name -> key fields
}

// FieldByName returns the named field, or nil if absent.
func (t *Table) FieldByName(name string) *Field {
	for _, f := range t.Fields {
		if f.FieldName == name {
			return f
		}
	}
	return nil
}

// JoinKeyValue names one field of the outer row whose value, key-encoded,
// extends the join index scan.
type JoinKeyValue struct {
	FieldName string
	field     *Field
}

// FieldFromJoin names one field of the join row to lift, raw canonical
// form, into the outer result row.
type FieldFromJoin struct {
	FieldName string
	field     *Field
}

// Query is a named, pre-declared query descriptor (§3, §4.5).
type Query struct {
	QueryName     string
	TableName     string
	ArgTypes      []string // scalar filters beyond range bounds; must be empty
	RangeTypes    []string // consumed twice each: lower bound, upper bound
	MaxResults    uint32
	LimitBlockNum bool
	IsState       bool

	JoinTableName  string // empty if no join
	JoinQueryName  string
	JoinKeyValues  []JoinKeyValue
	FieldsFromJoin []FieldFromJoin

	table      *Table
	rangeOps   []*TypeOps
	joinTable  *Table
	joinQuery  *Query
}

// Table returns the query's resolved Table. Valid only after Prepare.
func (q *Query) Table() *Table { return q.table }

// JoinTable returns the query's resolved join Table, or nil if JoinTableName
// is empty. Valid only after Prepare.
func (q *Query) JoinTable() *Table { return q.joinTable }

// JoinQuery returns the query's resolved join Query, or nil if JoinQueryName
// is empty. Valid only after Prepare. Its IsState, not the outer query's,
// governs whether the join index scan carries a version suffix
// (wasm_ql_rocksdb_plugin.cpp: `if (query.join_query->is_state)`).
func (q *Query) JoinQuery() *Query { return q.joinQuery }

// RangeOps returns the resolved TypeOps for each range argument, in order.
func (q *Query) RangeOps() []*TypeOps { return q.rangeOps }

// state tracks whether Catalog.Prepare has run.
type state int

const (
	stateUnprepared state = iota
	statePrepared
)

// Catalog resolves schema-declared tables/fields/keys/queries against the
// TypeRegistry (§4.4). It is built unprepared, populated via AddTable /
// AddQuery, then made immutable by Prepare. QueryEngine.Query requires a
// Prepared catalog.
type Catalog struct {
	registry *TypeRegistry
	tables   map[string]*Table
	queries  map[string]*Query
	st       state
}

// NewCatalog returns an empty, Unprepared catalog bound to registry.
func NewCatalog(registry *TypeRegistry) *Catalog {
	return &Catalog{
		registry: registry,
		tables:   make(map[string]*Table),
		queries:  make(map[string]*Query),
		st:       stateUnprepared,
	}
}

// AddTable registers a table descriptor. Must be called before Prepare.
func (c *Catalog) AddTable(t *Table) error {
	if c.st != stateUnprepared {
		return newErr(StoreError, "catalog already prepared")
	}
	c.tables[t.TableName] = t
	return nil
}

// AddQuery registers a named query descriptor. Must be called before Prepare.
func (c *Catalog) AddQuery(q *Query) error {
	if c.st != stateUnprepared {
		return newErr(StoreError, "catalog already prepared")
	}
	c.queries[q.QueryName] = q
	return nil
}

// TableShortNames is the fixed, stable-on-disk mapping from schema table
// name to 64-bit short name (§6). contract_index128 and contract_index256
// intentionally share "c.index128" — preserved from the source catalog; see
// DESIGN.md for the open-question note (§9).
var TableShortNames = map[string]string{
	"block_info":                 "block.info",
	"transaction_trace":          "ttrace",
	"action_trace":               "atrace",
	"transaction_trace_received": "ttrace.rec",
	"contract_row":               "c.row",
	"contract_table":             "c.table",
	"contract_index64":           "c.index64",
	"contract_index128":          "c.index128",
	"contract_index256":          "c.index128",
	"contract_index_double":      "c.index.d",
	"contract_index_long_double": "c.index.ld",
	"key_value":                  "kv",
	"global_property":            "global.prop",
	"generated_transaction":      "gtrx",
	"permission":                 "permission",
	"permission_link":            "permission.link",
	"resource_limits":            "resrc.lim",
	"resource_usage":             "resrc.use",
	"account":                    "account",
	"account_metadata":           "account.meta",
	"code":                       "code",
}

// nameSymbol maps one name character to its 5-bit code, the same alphabet
// the authoritative-types library's name packing uses: '.' (0), '1'-'5'
// (1-5), 'a'-'z' (6-31). Any other byte maps to 0, matching the source's
// masking behavior for out-of-alphabet characters rather than rejecting
// them outright.
func nameSymbol(c byte) uint64 {
	switch {
	case c == '.':
		return 0
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6
	default:
		return 0
	}
}

// PackName packs up to 13 characters into a 64-bit Name: the first 12
// characters occupy 5 bits each (most significant first), the 13th
// occupies the low 4 bits. Because nameSymbol assigns codes in the same
// relative order as the characters' byte values ('.' < '1'..'5' < 'a'..'z'),
// packing preserves lexicographic order over names built from this
// alphabet — encode_key(PackName("a")) < encode_key(PackName("z")) (§8
// Scenario 2) — the same property the source's name packing exists for.
func PackName(s string) Name {
	var value uint64
	for i := 0; i <= 12; i++ {
		var c uint64
		if i < len(s) {
			c = nameSymbol(s[i])
		}
		if i < 12 {
			c &= 0x1f
			c <<= uint(64 - 5*(i+1))
		} else {
			c &= 0x0f
		}
		value |= c
	}
	return Name(value)
}

// Prepare resolves every added table and query against the TypeRegistry and
// the short-name dictionary, computing fixed byte offsets. Idempotent after
// the first successful call.
func (c *Catalog) Prepare() error {
	if c.st == statePrepared {
		return nil
	}
	for _, t := range c.tables {
		shortName, ok := TableShortNames[t.TableName]
		if !ok {
			return newErr(UnknownTable, "table %q has no short-name mapping", t.TableName)
		}
		t.ShortName = PackName(shortName)

		if err := c.resolveFields(t.Fields); err != nil {
			return err
		}
	}

	for _, q := range c.queries {
		t, ok := c.tables[q.TableName]
		if !ok {
			return newErr(UnknownTable, "query %q references unknown table %q", q.QueryName, q.TableName)
		}
		q.table = t

		if len(q.ArgTypes) > 0 {
			// ArgTypes are not resolved here; QueryEngine.Query rejects
			// such queries at call time with NotImplemented (§4.5 step 1).
		}

		q.rangeOps = make([]*TypeOps, len(q.RangeTypes))
		for i, st := range q.RangeTypes {
			ops, ok := c.registry.Lookup(st)
			if !ok {
				return newErr(UnknownType, "query %q range type %q unresolved", q.QueryName, st)
			}
			q.rangeOps[i] = ops
		}

		if q.JoinTableName != "" {
			jt, ok := c.tables[q.JoinTableName]
			if !ok {
				return newErr(UnknownTable, "query %q references unknown join table %q", q.QueryName, q.JoinTableName)
			}
			q.joinTable = jt

			jq, ok := c.queries[q.JoinQueryName]
			if !ok {
				return newErr(UnknownQuery, "query %q references unknown join query %q", q.QueryName, q.JoinQueryName)
			}
			q.joinQuery = jq

			for i := range q.JoinKeyValues {
				f := t.FieldByName(q.JoinKeyValues[i].FieldName)
				if f == nil {
					return newErr(UnknownType, "query %q join key field %q not on table %q", q.QueryName, q.JoinKeyValues[i].FieldName, t.TableName)
				}
				q.JoinKeyValues[i].field = f
			}
			for i := range q.FieldsFromJoin {
				f := jt.FieldByName(q.FieldsFromJoin[i].FieldName)
				if f == nil {
					return newErr(UnknownType, "query %q join-lifted field %q not on table %q", q.QueryName, q.FieldsFromJoin[i].FieldName, jt.TableName)
				}
				q.FieldsFromJoin[i].field = f
			}
		}
	}

	c.st = statePrepared
	return nil
}

// IsPrepared reports whether Prepare has run successfully.
func (c *Catalog) IsPrepared() bool { return c.st == statePrepared }

// Table returns a registered table by name, or nil.
func (c *Catalog) Table(name string) *Table { return c.tables[name] }

// Query returns a registered query by name, or nil.
func (c *Catalog) Query(name string) *Query { return c.queries[name] }

func (c *Catalog) resolveFields(fields []*Field) error {
	var pos uint32
	stopped := false
	for _, f := range fields {
		ops, ok := c.registry.Lookup(f.SchemaType)
		if !ok {
			return newErr(UnknownType, "field %q schema type %q unresolved", f.FieldName, f.SchemaType)
		}
		f.ops = ops
		if stopped {
			continue
		}
		size := ops.FixedSize()
		if size == 0 {
			stopped = true
			continue
		}
		f.bytePos = pos
		f.bytePosSet = true
		pos += size
	}
	return nil
}
