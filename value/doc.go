// Package value defines the typed scalar values that populate synthetic
// columns and their on-disk encodings.
//
// Every supported Type has a stored type (BOOLEAN is stored as INT,
// TIMESTAMP as LONG, JSON as STRING) and an encoding: fixed-width little
// endian for the numeric stored types, raw bytes for STRING and BYTES, and
// a scale plus two's-complement unscaled value for BIG_DECIMAL.
package value
