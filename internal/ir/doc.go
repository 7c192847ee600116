// Package ir provides the foundational types shared by every other package:
// scalar cell values, rows, the template node tree, and their canonical JSON
// and content hashes.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value and Node are sealed interfaces (unexported marker methods)
//   - Record and Branch are ordered slices, never maps: column order and
//     authored template key order are both semantically significant
//   - Templates and rows are immutable once built
package ir
