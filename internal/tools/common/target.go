package common

// TargetFromArgs extracts the task list and task a tool call operates on,
// for audit records and span attributes. Missing or non-string values
// yield empty strings.
func TargetFromArgs(args map[string]interface{}) (listID, taskID string) {
	if v, ok := args["tasklist_id"].(string); ok {
		listID = v
	}
	if v, ok := args["task_id"].(string); ok {
		taskID = v
	}
	return listID, taskID
}
