package historykv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(name string, fieldSpecs ...[2]string) *Table {
	t := &Table{TableName: name}
	for _, fs := range fieldSpecs {
		t.Fields = append(t.Fields, &Field{FieldName: fs[0], SchemaType: fs[1]})
	}
	return t
}

func TestCatalogPrepareComputesFixedOffsets(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	tbl := newTestTable("account",
		[2]string{"balance", "uint64"},
		[2]string{"flags", "uint8"},
		[2]string{"memo", "string"}, // variable width: stops offset accumulation
		[2]string{"nonce", "uint32"},
	)
	require.NoError(t, c.AddTable(tbl))
	require.NoError(t, c.Prepare())

	balance := tbl.FieldByName("balance")
	pos, ok := balance.BytePosition()
	require.True(t, ok)
	assert.Equal(t, uint32(0), pos)

	flags := tbl.FieldByName("flags")
	pos, ok = flags.BytePosition()
	require.True(t, ok)
	assert.Equal(t, uint32(8), pos)

	memo := tbl.FieldByName("memo")
	_, ok = memo.BytePosition()
	assert.False(t, ok)

	nonce := tbl.FieldByName("nonce")
	_, ok = nonce.BytePosition()
	assert.False(t, ok, "fields after the first variable-width field have unset offsets")
}

func TestCatalogUnknownTableFails(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	require.NoError(t, c.AddTable(newTestTable("not_a_real_table")))
	err := c.Prepare()
	require.Error(t, err)
	assert.True(t, IsKind(err, UnknownTable))
}

func TestCatalogUnknownTypeFails(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	require.NoError(t, c.AddTable(newTestTable("account", [2]string{"weird", "not_a_type"})))
	err := c.Prepare()
	require.Error(t, err)
	assert.True(t, IsKind(err, UnknownType))
}

func TestCatalogAssignsShortNames(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	tbl := newTestTable("account")
	require.NoError(t, c.AddTable(tbl))
	require.NoError(t, c.Prepare())
	assert.Equal(t, PackName("account"), tbl.ShortName)
}

func TestContractIndex128And256ShareShortName(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	i128 := newTestTable("contract_index128")
	i256 := newTestTable("contract_index256")
	require.NoError(t, c.AddTable(i128))
	require.NoError(t, c.AddTable(i256))
	require.NoError(t, c.Prepare())
	assert.Equal(t, i128.ShortName, i256.ShortName, "intentional collision, §9")
}

func TestCatalogQueryResolution(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	require.NoError(t, c.AddTable(newTestTable("account", [2]string{"balance", "uint64"})))
	require.NoError(t, c.AddQuery(&Query{
		QueryName:  "get_account",
		TableName:  "account",
		RangeTypes: []string{"uint64"},
		MaxResults: 100,
	}))
	require.NoError(t, c.Prepare())

	q := c.Query("get_account")
	require.NotNil(t, q)
	assert.Equal(t, "account", q.Table().TableName)
	require.Len(t, q.RangeOps(), 1)
	assert.Equal(t, "uint64", q.RangeOps()[0].SchemaType)
}

func TestCatalogQueryUnknownTableFails(t *testing.T) {
	c := NewCatalog(NewTypeRegistry())
	require.NoError(t, c.AddQuery(&Query{QueryName: "q", TableName: "nope"}))
	err := c.Prepare()
	require.Error(t, err)
	assert.True(t, IsKind(err, UnknownTable))
}
