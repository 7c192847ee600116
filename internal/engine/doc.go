// Package engine evaluates a rule template against tabular data and produces
// narrative findings.
//
// Construction turns the rows into a data namespace (one projection per
// non-value column, keyed by its plural) and a root Context. The first
// request for a result walks the template once:
//
//  1. Expression and literal entries of a branch are bound, in authored order.
//  2. The branch's text leaf is rendered for the active locale, and each
//     nested branch is entered only if its key, read as a condition, holds.
//
// Rendered leaves become findings; joined together they are the finding.
// All output is entity-decoded and NFC-normalized.
//
// The walk is a pure function of rows, template, parameters and helper
// registry. Its result, or its error, is memoized per Engine.
package engine
