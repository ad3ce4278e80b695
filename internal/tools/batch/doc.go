// Package batch provides the helpers behind bulk task creation.
//
// This package includes helpers for:
//   - Parsing parameters that accept a string, a JSON array or an array
//   - Running one operation per item without aborting on item failures
//   - Aggregating per-item results into a BulkResult
package batch
