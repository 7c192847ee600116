// Package loader reads rule templates and data rows from files.
//
// Templates come in three shapes that produce the same ir.Branch:
//
//   - YAML or JSON documents (ParseYAML), walked as yaml.Node so that key
//     order survives
//   - CUE files or packages (ParseCUE, LoadCUE)
//   - two-column condition/text tables (FromTable, ParseTableCSV)
//
// Rows are JSON or YAML lists of mappings, or CSV with a header row.
// Failures are reported as *LoadError with a stable code and, where the
// source format provides one, a file position.
package loader
