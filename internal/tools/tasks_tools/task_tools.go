package tasks_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/validation"
)

const noMatchingTasks = "No tasks found matching your criteria."

func (h *handlers) taskTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("tasks_create_task",
				mcp.WithDescription(`Create a new task in Google Tasks.

Creates a task with optional notes and due date, optionally as a subtask of
an existing task. Tasks go to the default list unless tasklist_id is given.

Examples:
- Simple task: "Buy groceries"
- With due date: "Submit report" with due_date 2024-01-15
- As subtask: set parent_task_id to nest it under another task

Returns: The created task with its ID for future operations.`),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("Task title (1-500 characters)"),
				),
				mcp.WithString("notes",
					mcp.Description("Notes or description (up to 8192 characters)"),
				),
				mcp.WithString("due_date",
					mcp.Description("Due date in YYYY-MM-DD format"),
				),
				withListID("Task list to add the task to."),
				mcp.WithString("parent_task_id",
					mcp.Description("Parent task ID to create a subtask"),
				),
				mcp.WithString("previous_task_id",
					mcp.Description("Sibling task ID to insert the task after"),
				),
				withFormat("Output format (default: detailed)"),
				mcp.WithDestructiveHintAnnotation(false),
			),
			handler:   h.createTask,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationCreate,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_list_tasks",
				mcp.WithDescription(`List tasks from a task list with filtering options.

Filters:
- Date ranges on due, completion and update dates (YYYY-MM-DD, inclusive)
- Status: show or hide completed, deleted and hidden tasks
- Pagination for large lists

Use this to view upcoming tasks, find overdue ones or review completed work.

Returns: The tasks matching the filters, subtasks nested under their parents.`),
				withListID("Task list to read."),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of tasks to return (1-100, default 30)"),
					mcp.Min(1),
					mcp.Max(100),
				),
				mcp.WithString("page_token",
					mcp.Description("Token from a previous call to fetch the next page"),
				),
				mcp.WithBoolean("show_completed", mcp.Description("Include completed tasks (default: false)")),
				mcp.WithBoolean("show_deleted", mcp.Description("Include deleted tasks (default: false)")),
				mcp.WithBoolean("show_hidden", mcp.Description("Include hidden tasks (default: false)")),
				mcp.WithString("due_min", mcp.Description("Earliest due date, YYYY-MM-DD")),
				mcp.WithString("due_max", mcp.Description("Latest due date, YYYY-MM-DD")),
				mcp.WithString("completed_min", mcp.Description("Earliest completion date, YYYY-MM-DD")),
				mcp.WithString("completed_max", mcp.Description("Latest completion date, YYYY-MM-DD")),
				mcp.WithString("updated_min", mcp.Description("Earliest last-modified date, YYYY-MM-DD")),
				withFormat("Output format (default: markdown)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.listTasks,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationList,
		},
		{
			def: mcp.NewTool("tasks_get_task",
				mcp.WithDescription("Get full details of a single task."),
				mcp.WithString("task_id",
					mcp.Required(),
					mcp.Description("ID of the task"),
				),
				withListID("Task list holding the task."),
				withFormat("Output format (default: detailed)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.getTask,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationGet,
		},
		{
			def: mcp.NewTool("tasks_update_task",
				mcp.WithDescription(`Update an existing task.

Change any of:
- title: rename the task
- notes: replace the description
- status: "completed" or "needsAction"
- due_date: set a new date (YYYY-MM-DD) or "clear" to remove it

At least one change is required.

Returns: The updated task.`),
				mcp.WithString("task_id",
					mcp.Required(),
					mcp.Description("ID of the task to update"),
				),
				withListID("Task list holding the task."),
				mcp.WithString("title", mcp.Description("New title (1-500 characters)")),
				mcp.WithString("notes", mcp.Description("New notes (up to 8192 characters); empty clears them")),
				mcp.WithString("status",
					mcp.Description("New status"),
					mcp.Enum(tasks.StatusNeedsAction, tasks.StatusCompleted),
				),
				mcp.WithString("due_date", mcp.Description(`New due date (YYYY-MM-DD), or "clear" to remove it`)),
				withFormat("Output format (default: detailed)"),
				mcp.WithIdempotentHintAnnotation(true),
			),
			handler:   h.updateTask,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationUpdate,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_delete_task",
				mcp.WithDescription(`Delete a task permanently.

WARNING: This cannot be undone.`),
				mcp.WithString("task_id",
					mcp.Required(),
					mcp.Description("ID of the task to delete"),
				),
				withListID("Task list holding the task."),
				mcp.WithDestructiveHintAnnotation(true),
			),
			handler:   h.deleteTask,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationDelete,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_move_task",
				mcp.WithDescription(`Move a task to a different position or parent.

- Set parent_task_id to make it a subtask; omit it to move it to the top level
- Set previous_task_id to place it after that sibling; omit it to make it first

Returns: The task in its new position.`),
				mcp.WithString("task_id",
					mcp.Required(),
					mcp.Description("ID of the task to move"),
				),
				withListID("Task list holding the task."),
				mcp.WithString("parent_task_id", mcp.Description("New parent task ID")),
				mcp.WithString("previous_task_id", mcp.Description("Sibling to place the task after")),
			),
			handler:   h.moveTask,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationMove,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_clear_completed",
				mcp.WithDescription(`Clear all completed tasks from a task list.

Completed tasks are hidden from the list while active tasks stay untouched.

WARNING: This affects every completed task in the list.`),
				withListID("Task list to clean up."),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
			),
			handler:   h.clearCompleted,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationClear,
			mutating:  true,
		},
	}
}

func (h *handlers) createTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req createTaskRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	input := tasks.NewTask{
		Title:    req.Title,
		Notes:    req.Notes,
		Parent:   req.ParentTaskID,
		Previous: req.PreviousTaskID,
	}
	if req.DueDate != "" {
		// already validated
		input.Due, _ = dates.Parse(req.DueDate)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	task, err := store.CreateTask(ctx, req.TaskListID, input)
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult("✅ Task created successfully!\n\n" + r.Task(*task))
}

func (h *handlers) listTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req listTasksRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	filter := tasks.TaskFilter{
		MaxResults:    int64(*req.MaxResults),
		PageToken:     req.PageToken,
		ShowCompleted: req.ShowCompleted,
		ShowDeleted:   req.ShowDeleted,
		ShowHidden:    req.ShowHidden,
		DueMin:        day(req.DueMin),
		DueMax:        day(req.DueMax),
		CompletedMin:  day(req.CompletedMin),
		CompletedMax:  day(req.CompletedMax),
		UpdatedMin:    day(req.UpdatedMin),
	}
	if err := checkOrder("due", filter.DueMin, filter.DueMax); err != nil {
		return errorResult(ctx, err)
	}
	if err := checkOrder("completed", filter.CompletedMin, filter.CompletedMax); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	page, err := store.ListTasks(ctx, req.TaskListID, filter)
	if err != nil {
		return errorResult(ctx, err)
	}

	if render.Mode(strings.ToLower(req.ResponseFormat)) == render.JSON {
		return textResult(r.Tasks("", page.Items, page.NextPageToken))
	}
	if len(page.Items) == 0 && page.NextPageToken == "" {
		return textResult(noMatchingTasks)
	}
	return textResult(r.Tasks(tasksHeading(ctx, store, req.TaskListID), page.Items, page.NextPageToken))
}

// tasksHeading names the list by its title. The lookup is best effort, a
// failure only costs the title.
func tasksHeading(ctx context.Context, store tasks.Store, listID string) string {
	l, err := store.GetTaskList(ctx, listID)
	if err != nil || l.Title == "" {
		return "Tasks"
	}
	return fmt.Sprintf("Tasks in %s", l.Title)
}

func (h *handlers) getTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req getTaskRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	task, err := store.GetTask(ctx, req.TaskListID, req.TaskID)
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult(r.Task(*task))
}

func (h *handlers) updateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req updateTaskRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	patch := tasks.TaskPatch{
		Title:  req.Title,
		Notes:  req.Notes,
		Status: req.Status,
	}
	if req.DueDate != nil {
		if strings.EqualFold(*req.DueDate, validation.ClearDue) {
			patch.Due = tasks.ClearDue()
		} else {
			d, _ := dates.Parse(*req.DueDate)
			patch.Due = tasks.SetDue(d)
		}
	}
	if patch.Empty() {
		return errorResult(ctx, apperr.Validation("", "", "no changes requested",
			"Provide at least one of title, notes, status or due_date."))
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	task, err := store.UpdateTask(ctx, req.TaskListID, req.TaskID, patch)
	if err != nil {
		return errorResult(ctx, err)
	}

	status := "updated"
	if patch.Completes() {
		status = "✅ completed"
	}
	return textResult(fmt.Sprintf("Task %s successfully!\n\n%s", status, r.Task(*task)))
}

func (h *handlers) deleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req deleteTaskRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	if err := store.DeleteTask(ctx, req.TaskListID, req.TaskID); err != nil {
		return errorResult(ctx, err)
	}

	return textResult(fmt.Sprintf("✅ Task '%s' has been permanently deleted.", req.TaskID))
}

func (h *handlers) moveTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req moveTaskRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	if req.ParentTaskID == req.TaskID {
		return errorResult(ctx, apperr.Validation("parent_task_id", req.ParentTaskID,
			"a task cannot be its own parent", "Choose a different parent task, or omit it to move the task to the top level."))
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	task, err := store.MoveTask(ctx, req.TaskListID, req.TaskID, tasks.MoveOptions{
		Parent:   req.ParentTaskID,
		Previous: req.PreviousTaskID,
	})
	if err != nil {
		return errorResult(ctx, err)
	}

	r, _ := h.renderer(string(render.Markdown))
	return textResult("✅ Task moved successfully!\n\n" + r.Task(*task))
}

func (h *handlers) clearCompleted(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req clearCompletedRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	if err := store.ClearCompleted(ctx, req.TaskListID); err != nil {
		return errorResult(ctx, err)
	}

	return textResult(fmt.Sprintf("✅ All completed tasks have been cleared from task list '%s'.", req.TaskListID))
}

// day parses a validated YYYY-MM-DD value; empty yields the zero time.
func day(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, _ := dates.Parse(s)
	return d
}

func checkOrder(field string, lower, upper time.Time) error {
	if lower.IsZero() || upper.IsZero() || !upper.Before(lower) {
		return nil
	}
	return apperr.Validation(field+"_max", dates.Format(upper),
		fmt.Sprintf("is before %s_min %s", field, dates.Format(lower)),
		fmt.Sprintf("Use a %s_max on or after %s_min.", field, field))
}
