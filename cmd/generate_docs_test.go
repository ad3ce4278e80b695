package cmd

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := map[string]string{
		"tasks_list_task_lists": "Task List Tools",
		"tasks_delete_task":     "Task Tools",
		"tasks_move_task":       "Task Tools",
		"tasks_summary":         "Workflow Tools",
		"gmail_send":            "Other",
	}
	for name, want := range tests {
		if got := getCategoryFromToolName(name); got != want {
			t.Errorf("getCategoryFromToolName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("tasks_get_task",
			mcp.WithDescription("Get a task."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool("tasks_delete_task",
			mcp.WithDescription("Delete a task."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithReadOnlyHintAnnotation(false),
		),
	}

	md := generateToolsMarkdown(tools)

	for _, want := range []string{
		"# MCP Tools Reference",
		"- [Task Tools](#task-tools)",
		"### tasks_get_task\n\n*Read-only*",
		"- `task_id` (required): Task ID",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown misses %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "### tasks_delete_task\n\n*Read-only*") {
		t.Error("mutating tool marked read-only")
	}
	if strings.Index(md, "### tasks_delete_task") > strings.Index(md, "### tasks_get_task") {
		t.Error("tools are not sorted by name")
	}
}
