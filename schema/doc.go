// Package schema holds the declared table state a segment is reconciled
// against: field specs with their types, single/multi-value flags and
// default values, plus the indexing config that enrolls columns in text
// indexing and tunes raw forward indexes.
//
// Schemas load from Pinot-style JSON documents; indexing configs load from
// TOML or JSON.
package schema
