// Package schema provides the Go struct literals a deployment uses to
// declare its tables and queries (Non-goal: schema reflection/parsing —
// the Catalog consumes an already-typed descriptor set, and this package
// is exactly that set, not a loader).
package schema

import "historykv/historykv"

// field is a small constructor to keep the literals below readable.
func field(name, schemaType string) *historykv.Field {
	return &historykv.Field{FieldName: name, SchemaType: schemaType}
}

// key is a small constructor composing a named key from fields already
// declared on the owning table.
func key(name string, fields ...*historykv.Field) *historykv.Key {
	return &historykv.Key{KeyName: name, Fields: fields}
}

// Tables returns the fixed set of tables this deployment tracks, grounded
// on the account/contract-row tables the original's state_history_kv.hpp
// wraps (`contract_row`, with owner/scope/table/primary_key history keys).
func Tables() []*historykv.Table {
	accountID := field("id", "uint64")
	accountFlag := field("active", "bool")
	accountUpdated := field("last_updated_block", "uint32")
	accountTbl := &historykv.Table{
		TableName: "account",
		Fields:    []*historykv.Field{accountID, accountFlag, accountUpdated},
		PrimaryKey: key("by_id", accountID),
	}

	rowCode := field("code", "name")
	rowScope := field("scope", "name")
	rowTable := field("table", "name")
	rowPrimaryKey := field("primary_key", "uint64")
	rowPayer := field("payer", "name")
	contractRowTbl := &historykv.Table{
		TableName: "contract_row",
		Fields:    []*historykv.Field{rowCode, rowScope, rowTable, rowPrimaryKey, rowPayer},
		PrimaryKey: key("by_code_scope_table_primary", rowCode, rowScope, rowTable, rowPrimaryKey),
	}

	return []*historykv.Table{accountTbl, contractRowTbl}
}

// Queries returns the fixed set of named queries this deployment exposes.
// get_account is a direct state lookup; get_contract_rows_by_scope_table demonstrates
// a non-state range scan over the secondary index.
func Queries() []*historykv.Query {
	return []*historykv.Query{
		{
			QueryName:     "get_account",
			TableName:     "account",
			RangeTypes:    []string{"uint64"},
			MaxResults:    1,
			LimitBlockNum: true,
			IsState:       true,
		},
		{
			QueryName:  "get_contract_rows_by_scope_table",
			TableName:  "contract_row",
			RangeTypes: []string{"name", "name", "name"},
			MaxResults: 1000,
			IsState:    false,
		},
	}
}
