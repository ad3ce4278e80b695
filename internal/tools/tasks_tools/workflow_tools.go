package tasks_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/quickadd"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/timerange"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
	"github.com/teemow/gtasks-mcp/internal/validation"
)

func (h *handlers) workflowTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("tasks_quick_add",
				mcp.WithDescription(`Quickly add a task using natural language.

Understands:
- Due dates: today, tomorrow, weekday names (friday, next monday), next week, YYYY-MM-DD
- Urgency words: urgent, asap, important (kept as tags in the notes)

Examples:
- "Buy milk tomorrow"
- "Call the dentist next friday"
- "Urgent: fix login bug"

Returns: The created task with the parsed due date and tags.`),
				mcp.WithString("text",
					mcp.Required(),
					mcp.Description("Free-form task description (1-1000 characters)"),
				),
				withListID("Task list to add the task to."),
				withFormat("Output format (default: detailed)"),
				mcp.WithDestructiveHintAnnotation(false),
			),
			handler:   h.quickAdd,
			service:   instrumentation.ServiceQuickAdd,
			operation: instrumentation.OperationQuickAdd,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_bulk_create",
				mcp.WithDescription(fmt.Sprintf(`Create multiple tasks at once.

Pass the titles as a JSON array ('["Task 1", "Task 2"]') or one title per
line. Up to %d titles per call, each 1-500 characters. Titles are created in
order; a failure does not stop the remaining titles.

Returns: How many tasks were created and which ones failed.`, maxBulkTitles)),
				mcp.WithString("tasks",
					mcp.Required(),
					mcp.Description("Task titles as a JSON array, or newline separated"),
				),
				withListID("Task list to add the tasks to."),
				mcp.WithString("due_date", mcp.Description("Due date applied to every task, YYYY-MM-DD")),
				withFormat("Output format (default: markdown)"),
				mcp.WithDestructiveHintAnnotation(false),
			),
			handler:   h.bulkCreate,
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationBulk,
			mutating:  true,
		},
		{
			def: mcp.NewTool("tasks_search",
				mcp.WithDescription(`Search tasks across task lists.

Matches the query case-insensitively against task titles and notes in every
list, or only in tasklist_ids when given. Lists that cannot be read are
reported alongside the results.

Returns: Matching tasks with the list each one belongs to.`),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Text to look for (1-200 characters)"),
				),
				mcp.WithBoolean("include_completed", mcp.Description("Also search completed tasks (default: false)")),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of matches (1-50, default 20)"),
					mcp.Min(1),
					mcp.Max(50),
				),
				mcp.WithString("tasklist_ids",
					mcp.Description("Restrict the search to these list IDs (JSON array or single ID)"),
				),
				withFormat("Output format (default: markdown)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.search,
			service:   instrumentation.ServiceAggregate,
			operation: instrumentation.OperationSearch,
		},
		{
			def: mcp.NewTool("tasks_summary",
				mcp.WithDescription(`Summarize tasks due in a time range across task lists.

Ranges: today, tomorrow, week (today and the next 6 days), overdue (due
before today), all (including tasks without a due date).

Returns: Tasks grouped by list with pending and completed counts.`),
				mcp.WithString("time_range",
					mcp.Description("Window to summarize (default: today)"),
					mcp.Enum(timerange.Names()...),
				),
				mcp.WithBoolean("include_completed", mcp.Description("Include completed tasks (default: false)")),
				mcp.WithString("tasklist_ids",
					mcp.Description("Restrict the summary to these list IDs (JSON array or single ID)"),
				),
				withFormat("Output format (default: concise)"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			handler:   h.summary,
			service:   instrumentation.ServiceAggregate,
			operation: instrumentation.OperationSummary,
		},
	}
}

func (h *handlers) quickAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req quickAddRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	parsed := quickadd.Extract(req.Text, h.sc.Now())
	if parsed.Title == "" {
		return errorResult(ctx, apperr.Validation("text", req.Text, "contains no task title",
			"Describe the task itself, e.g. \"Buy milk tomorrow\"."))
	}

	input := tasks.NewTask{Title: parsed.Title, Due: parsed.Due}
	if len(parsed.Tags) > 0 {
		input.Notes = "Tags: " + strings.Join(parsed.Tags, ", ")
	}

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}
	task, err := store.CreateTask(ctx, req.TaskListID, input)
	if err != nil {
		return errorResult(ctx, err)
	}

	var sb strings.Builder
	sb.WriteString("✅ Task added via quick add!")
	if parsed.HasDue() {
		sb.WriteString("\n📅 Parsed due date: " + dates.Format(parsed.Due))
	}
	if len(parsed.Tags) > 0 {
		sb.WriteString("\n🏷️ Tags: " + strings.Join(parsed.Tags, ", "))
	}
	sb.WriteString("\n\n" + r.Task(*task))
	return textResult(sb.String())
}

func (h *handlers) bulkCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req bulkCreateRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}

	titles, err := batch.Titles(req.Tasks)
	if err != nil {
		return errorResult(ctx, err)
	}
	for i := range titles {
		titles[i] = validation.SanitizeText(titles[i])
	}
	if err := validation.Struct(bulkTitles{Titles: titles}); err != nil {
		return errorResult(ctx, err)
	}
	due := day(req.DueDate)

	store, err := h.sc.Store()
	if err != nil {
		return errorResult(ctx, err)
	}

	results := batch.ProcessBatch(ctx, titles, func(ctx context.Context, title string) (string, error) {
		task, err := store.CreateTask(ctx, req.TaskListID, tasks.NewTask{Title: title, Due: due})
		if err != nil {
			return "", err
		}
		return task.ID, nil
	})

	return textResult(r.Bulk(batch.Collect(results)))
}

func (h *handlers) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req searchRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}
	ids, err := listIDs(req.TaskListIDs)
	if err != nil {
		return errorResult(ctx, err)
	}

	agg, err := h.sc.Aggregator()
	if err != nil {
		return errorResult(ctx, err)
	}
	scope, err := agg.Lists(ctx, ids)
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := agg.Search(ctx, scope, req.Query, req.IncludeCompleted, *req.MaxResults)
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult(r.Search(req.Query, res))
}

func (h *handlers) summary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req summaryRequest
	if err := bind(request, &req, h); err != nil {
		return errorResult(ctx, err)
	}
	r, err := h.renderer(req.ResponseFormat)
	if err != nil {
		return errorResult(ctx, err)
	}
	ids, err := listIDs(req.TaskListIDs)
	if err != nil {
		return errorResult(ctx, err)
	}

	agg, err := h.sc.Aggregator()
	if err != nil {
		return errorResult(ctx, err)
	}
	scope, err := agg.Lists(ctx, ids)
	if err != nil {
		return errorResult(ctx, err)
	}
	sum, err := agg.Summarize(ctx, scope, req.TimeRange, req.IncludeCompleted, h.sc.Now())
	if err != nil {
		return errorResult(ctx, err)
	}

	return textResult(r.Summary(sum))
}

// listIDs parses the optional tasklist_ids argument. Nothing given means
// every list.
func listIDs(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ids, err := batch.ParseStringOrArray(v, "tasklist_ids")
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
