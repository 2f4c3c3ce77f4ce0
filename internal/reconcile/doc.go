// Package reconcile brings the default columns of an immutable segment in
// line with a schema.
//
// A pass classifies every column once into a Plan, then runs each
// non-trivial Decision through a ColumnReconciler: REMOVE and UPDATE tear
// down the column's artifacts and descriptor, ADD and UPDATE synthesize a
// dictionary plus fixed-bit forward index (or a raw forward index for
// text-indexed columns) holding the default on every row, and the column
// descriptor is committed last.
package reconcile
