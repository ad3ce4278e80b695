// Package tasks_tools provides the MCP tools for managing Google Tasks.
//
// Every handler follows the same steps. It binds the call arguments into a
// typed request, fills defaults from the configuration (the default task
// list and the response format) and validates the request. Only then does
// it touch the task store. Failures become tool error results carrying a
// corrective message. They are never returned as protocol errors.
//
// # Available Tools
//
// Task List Management:
//   - tasks_create_task_list, tasks_list_task_lists, tasks_get_task_list
//   - tasks_update_task_list, tasks_delete_task_list
//
// Task Management:
//   - tasks_create_task, tasks_list_tasks, tasks_get_task
//   - tasks_update_task, tasks_delete_task, tasks_move_task
//   - tasks_clear_completed
//
// Workflow:
//   - tasks_quick_add: natural language entry ("Buy milk tomorrow")
//   - tasks_bulk_create: many titles in one call
//   - tasks_search: text search across lists
//   - tasks_summary: tasks due in a named window across lists
//
// In read-only mode only the listing, get, search and summary tools are
// registered.
package tasks_tools
