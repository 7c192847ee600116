// Package harness runs template scenarios as executable contract tests.
//
// A scenario names a template, its rows and value columns, and the
// outcomes the evaluation must produce. Each run is recorded in a fresh
// in-memory run log and compared against a golden snapshot.
//
// # Scenario Format
//
//	name: best_apples
//	description: "The top collector is named with their count"
//	template: ../templates/best.yml     # or an inline mapping
//	rows: ../rows/apples.json           # or an inline list of mappings
//	value_columns: [count]
//	locale: GB_en                       # optional
//	params: { cat: meow }               # optional
//	assertions:
//	  - type: finding
//	    text: "Alan collected 14 apples, higher than anyone else!"
//	  - type: binding
//	    name: best_value
//	    text: "14"
//
// Paths are relative to the scenario file.
//
// # Assertion Types
//
//   - finding: the joined finding equals text
//   - finding_contains: the joined finding contains text
//   - findings: the per-leaf findings equal items
//   - no_finding: no leaf contributed text
//   - pre_parsed: the raw joined text equals text
//   - binding: a root-level name renders as text
//   - error: evaluation failed with code, and the message contains text
//
// # Deterministic Testing
//
// Every run gets a new condition cache, an in-memory SQLite run log and
// sequential run IDs derived from the scenario name, so the recorded run
// is identical across executions. Golden snapshots leave out the run ID
// and content hashes.
package harness
