// Package dataset holds the immutable data model the template language
// queries: Vector (ordered scalars or a bound key/value pair), Projection
// (row-aligned key/value pairs of one column against a value column) and
// Namespace (ordered name → member mapping).
//
// Every operation is pure and returns a new value. Two projections built from
// the same rows stay index-aligned, which SliceFrom relies on.
package dataset
