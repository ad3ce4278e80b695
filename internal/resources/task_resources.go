package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gtasks-mcp/internal/logging"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/server"
	"github.com/teemow/gtasks-mcp/internal/tasks"
)

// Resource URIs.
const (
	TaskListsURI     = "tasks://lists"
	taskListPrefix   = TaskListsURI + "/"
	tasksSuffix      = "/tasks"
	TasksTemplateURI = taskListPrefix + "{tasklist_id}" + tasksSuffix
)

const jsonMIME = "application/json"

// RegisterTaskResources registers the task list resource and the per-list
// tasks template.
func RegisterTaskResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listsResource := mcp.NewResource(
		TaskListsURI,
		"Task Lists",
		mcp.WithResourceDescription("All Google Tasks lists of the authorized account"),
		mcp.WithMIMEType(jsonMIME),
	)
	s.AddResource(listsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTaskLists(ctx, request, sc)
	})

	tasksTemplate := mcp.NewResourceTemplate(
		TasksTemplateURI,
		"Open Tasks",
		mcp.WithTemplateDescription("Tasks of one list that are not completed, in list order"),
		mcp.WithTemplateMIMEType(jsonMIME),
	)
	s.AddResourceTemplate(tasksTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleListTasks(ctx, request, sc)
	})

	return nil
}

func handleTaskLists(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	store, err := sc.Store()
	if err != nil {
		return nil, err
	}
	page, err := store.ListTaskLists(ctx, tasks.ListOptions{
		MaxResults: int64(sc.Config().Limits.MaxLists),
		AllPages:   true,
	})
	if err != nil {
		sc.Logger().Debug("failed to read task lists resource", logging.Err(err))
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}

	r, err := sc.Renderer(string(render.JSON))
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, r.TaskLists(page.Items, page.NextPageToken)), nil
}

func handleListTasks(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	listID, err := listIDFromURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	store, err := sc.Store()
	if err != nil {
		return nil, err
	}
	page, err := store.ListTasks(ctx, listID, tasks.TaskFilter{
		MaxResults: int64(sc.Config().Limits.TasksPerList),
		AllPages:   true,
	})
	if err != nil {
		sc.Logger().Debug("failed to read tasks resource", logging.ListID(listID), logging.Err(err))
		return nil, fmt.Errorf("failed to list tasks of %s: %w", listID, err)
	}

	r, err := sc.Renderer(string(render.JSON))
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, r.Tasks("", page.Items, page.NextPageToken)), nil
}

// listIDFromURI extracts the list id from tasks://lists/{id}/tasks.
func listIDFromURI(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, taskListPrefix)
	if ok {
		id, ok = strings.CutSuffix(id, tasksSuffix)
	}
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid tasks resource URI %q: want %s", uri, TasksTemplateURI)
	}
	return id, nil
}

func jsonContents(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     text,
		},
	}
}
