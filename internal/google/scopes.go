package google

import tasksapi "google.golang.org/api/tasks/v1"

// DefaultOAuthScopes are the Google OAuth scopes the server requests.
// Read-only mode still asks for full access so one token serves both modes.
var DefaultOAuthScopes = []string{
	tasksapi.TasksScope,
}
