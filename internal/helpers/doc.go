// Package helpers holds the named value transforms that placeholders such
// as {{round counts.mean}} apply, and the builtin round and month helpers.
package helpers
