// Package expr implements the template expression language: accessor paths
// such as names.sort[0].key and boolean conditions such as
// counts.mean > 4 && names.slice("Bob").value > 5.
//
// The language is closed. A path head is looked up in a Scope; every later
// segment is either a namespace member or one of the whitelisted operations
// on *dataset.Projection and *dataset.Vector. Literals, comparisons and
// and/or/not are the only other constructs. Nothing reaches host code.
//
// Parsed expressions are memoized per distinct text in a Cache.
package expr
