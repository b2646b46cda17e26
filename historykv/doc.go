// Package historykv implements a sort-order-preserving binary key encoding
// and an indexed query engine layered atop an ordered embedded key-value
// store. It serves historical blockchain state: blocks, transaction traces,
// action traces, and versioned contract/state tables.
//
// KeyCodec (keycodec.go, types.go, typeregistry.go) encodes scalars so byte
// order matches natural order. KeyspaceLayout (keyspace.go) multiplexes
// several logical relations into one tagged namespace. Catalog
// (catalog.go) resolves schema-declared tables, fields, keys, and queries
// against the TypeRegistry. QueryEngine (query.go) executes a named query
// as index range scan, primary-row resolution, optional join, and bounded
// result materialization. Store (store.go) and Truncator (truncate.go) are
// the embedded-engine adapter and the block-truncation lifecycle operation,
// respectively.
package historykv
