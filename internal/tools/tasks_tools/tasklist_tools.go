package tasks_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/tasks"
)

func (h *handlers) taskListTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("tasks_create_task_list",
				mcp.WithDescription(`Create a new task list in Google Tasks.

Use this to organize tasks into a new category or project.

Returns: The created task list with its ID for future operations.`),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("Title of the new task list (1-200 characters)"),
				),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			handler:   h.createTaskList,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationCreate,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_list_task_lists",
				mcp.WithDescription(`List all task lists in the user's Google Tasks account.

Use this to discover available task lists before working on a specific list.

Returns: Task lists with their IDs and titles, paginated.`),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of task lists to return (1-50, default 20)"),
					mcp.Min(1),
					mcp.Max(50),
				),
				mcp.WithString("page_token",
					mcp.Description("Token from a previous call to fetch the next page"),
				),
				withFormat("Output format (default: markdown)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.listTaskLists,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationList,
		},
		{
			def: mcp.NewTool("tasks_get_task_list",
				mcp.WithDescription("Get details of a specific task list."),
				withListID("ID of the task list."),
				withFormat("Output format (default: markdown)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.getTaskList,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationGet,
		},
		{
			def: mcp.NewTool("tasks_update_task_list",
				mcp.WithDescription(`Rename an existing task list.

Returns: The updated task list.`),
				mcp.WithString("tasklist_id",
					mcp.Required(),
					mcp.Description("ID of the task list to rename"),
				),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("New title (1-200 characters)"),
				),
				mcp.WithIdempotentHintAnnotation(true),
			),
			handler:   h.updateTaskList,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationUpdate,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_delete_task_list",
				mcp.WithDescription(`Delete a task list permanently.

WARNING: This deletes the task list and every task in it. It cannot be undone.`),
				mcp.WithString("tasklist_id",
					mcp.Required(),
					mcp.Description("ID of the task list to delete"),
				),
				mcp.WithDestructiveHintAnnotation(true),
			),
			handler:   h.deleteTaskList,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationDelete,
			mutating:  true,
		},
	}
}

func (h *handlers) createTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req createTaskListRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	list, err := store.CreateTaskList(ctx, req.Title)
	if err != nil {
		return errorResult(ctx, err)
	}

	r, _ := h.renderer(string(render.Markdown))
	return textResult("✅ Task list created successfully!\n\n" + r.TaskList(*list))
}

func (h *handlers) listTaskLists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req listTaskListsRequest
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
	page, err := store.ListTaskLists(ctx, tasks.ListOptions{
		MaxResults: int64(*req.MaxResults),
		PageToken:  req.PageToken,
	})
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult(r.TaskLists(page.Items, page.NextPageToken))
}

func (h *handlers) getTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req getTaskListRequest
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
	list, err := store.GetTaskList(ctx, req.TaskListID)
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult(r.TaskList(*list))
}

func (h *handlers) updateTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req updateTaskListRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	list, err := store.UpdateTaskList(ctx, req.TaskListID, req.Title)
	if err != nil {
		return errorResult(ctx, err)
	}

	r, _ := h.renderer(string(render.Markdown))
	return textResult("✅ Task list updated successfully!\n\n" + r.TaskList(*list))
}

func (h *handlers) deleteTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req deleteTaskListRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	if err := store.DeleteTaskList(ctx, req.TaskListID); err != nil {
		return errorResult(ctx, err)
	}

	return textResult(fmt.Sprintf("✅ Task list '%s' has been permanently deleted.", req.TaskListID))
}
