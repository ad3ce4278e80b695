// Package tasks is the task store behind every tool.
//
// Store is the narrow interface the tools and the aggregator depend on.
// Client implements it over the Google Tasks API (tasks/v1); each call runs
// under a per-call timeout inside an OpenTelemetry span and is recorded in
// the Google API metrics.
//
// Due dates are calendar dates. The API stores them as midnight UTC
// timestamps and discards the time part, so they are converted with the
// dates package at the boundary and never carry a time of day here.
//
// Errors are mapped into the apperr taxonomy: 401 and most 403 responses
// become AuthError, 404 becomes NotFoundError, rate limiting and every
// other failure becomes UpstreamError.
//
// # Example Usage
//
//	client, err := tasks.NewClient(ctx, tokenSource)
//	if err != nil {
//	    return err
//	}
//
//	page, err := client.ListTasks(ctx, tasks.DefaultListID, tasks.TaskFilter{
//	    MaxResults: 50,
//	    DueMax:     time.Now(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	done := tasks.StatusCompleted
//	_, err = client.UpdateTask(ctx, tasks.DefaultListID, page.Items[0].ID, tasks.TaskPatch{Status: &done})
package tasks
