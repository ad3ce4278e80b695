// Package resources provides MCP resources for exposing task data.
// Resources are read-only data sources that MCP clients can fetch and
// attach as context without a tool call:
//
//   - tasks://lists: every task list
//   - tasks://lists/{tasklist_id}/tasks: the open tasks of one list
//
// Both are rendered as JSON with the same shapes the tools return in json
// mode.
package resources
