package render

import (
	"fmt"
	"strings"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
)

type markdownRenderer struct {
	limit int
}

func (r markdownRenderer) Task(t tasks.Task) string {
	var sb strings.Builder
	if t.IsCompleted() {
		fmt.Fprintf(&sb, "### ✅ ~~%s~~", t.Title)
	} else {
		fmt.Fprintf(&sb, "### ⏳ %s", t.Title)
	}
	if t.Notes != "" {
		for _, line := range strings.Split(t.Notes, "\n") {
			sb.WriteString("\n> " + line)
		}
	}
	if !t.Due.IsZero() {
		sb.WriteString("\n📅 **Due:** " + dates.Human(t.Due))
	}
	if t.ID != "" {
		fmt.Fprintf(&sb, "\n🆔 `%s`", t.ID)
	}
	return sb.String()
}

// bullet is the one-line form used inside collections.
func (r markdownRenderer) bullet(t tasks.Task, depth int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	if t.IsCompleted() {
		fmt.Fprintf(&sb, "- ✅ ~~%s~~", t.Title)
	} else {
		fmt.Fprintf(&sb, "- ⏳ %s", t.Title)
	}
	if !t.Due.IsZero() {
		sb.WriteString(" 📅 " + dates.Human(t.Due))
	}
	if t.ID != "" {
		fmt.Fprintf(&sb, " `%s`", t.ID)
	}
	if t.Notes != "" {
		indent := strings.Repeat("  ", depth+1)
		for _, line := range strings.Split(t.Notes, "\n") {
			sb.WriteString("\n" + indent + "> " + line)
		}
	}
	return sb.String()
}

func (r markdownRenderer) bullets(ts []tasks.Task) string {
	lines := make([]string, 0, len(ts))
	for _, n := range tree(ts) {
		lines = append(lines, r.bullet(n.task, n.depth))
	}
	return strings.Join(lines, "\n")
}

func (r markdownRenderer) TaskList(l tasks.TaskList) string {
	return fmt.Sprintf("## 📋 %s\n**ID:** `%s`", l.Title, l.ID)
}

func (r markdownRenderer) Tasks(heading string, ts []tasks.Task, nextPageToken string) string {
	if len(ts) == 0 {
		return NoTasks + pageHint(nextPageToken)
	}
	out := fmt.Sprintf("# %s\n\n%s", heading, r.bullets(ts))
	return truncate(out+pageHint(nextPageToken), r.limit)
}

func (r markdownRenderer) TaskLists(ls []tasks.TaskList, nextPageToken string) string {
	if len(ls) == 0 {
		return NoTaskLists + pageHint(nextPageToken)
	}
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		parts = append(parts, r.TaskList(l))
	}
	out := "# Task Lists\n\n" + strings.Join(parts, "\n\n")
	return truncate(out+pageHint(nextPageToken), r.limit)
}

func (r markdownRenderer) Search(query string, res aggregate.SearchResult) string {
	return truncate(searchText(query, res, r.Task), r.limit)
}

func (r markdownRenderer) Summary(s aggregate.Summary) string {
	return truncate(summaryText(s, r.bullets), r.limit)
}

func (r markdownRenderer) Bulk(res batch.BulkResult) string {
	return truncate(bulkText(res, false), r.limit)
}

// searchText lays out matches for the markdown and detailed modes.
func searchText(query string, res aggregate.SearchResult, task func(tasks.Task) string) string {
	if len(res.Matches) == 0 {
		return fmt.Sprintf("No tasks found matching '%s'.", query) + failureSection(res.Failures)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for '%s'\n\n", query)
	fmt.Fprintf(&sb, "Found %d matching task(s)", len(res.Matches))
	for _, m := range res.Matches {
		fmt.Fprintf(&sb, "\n\n**List:** %s\n%s", listName(m.List), task(m.Task))
	}
	sb.WriteString(failureSection(res.Failures))
	return sb.String()
}

// summaryText groups a summary by list, pending before completed.
func summaryText(s aggregate.Summary, list func([]tasks.Task) string) string {
	title := s.Window.Title()
	pending, completed := s.Counts()
	if pending+completed == 0 {
		return fmt.Sprintf("No tasks found for %s.", strings.ToLower(title)) + failureSection(s.Failures)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n**Summary:** %d pending", title, pending)
	if s.IncludeCompleted {
		fmt.Fprintf(&sb, ", %d completed", completed)
	}

	for _, g := range s.Groups {
		if len(g.Tasks) == 0 {
			continue
		}
		var open, done []tasks.Task
		for _, t := range g.Tasks {
			if t.IsCompleted() {
				done = append(done, t)
			} else {
				open = append(open, t)
			}
		}

		fmt.Fprintf(&sb, "\n\n## 📋 %s", listName(g.List))
		if len(open) > 0 {
			sb.WriteString("\n\n### ⏳ Pending\n\n" + list(open))
		}
		if len(done) > 0 {
			sb.WriteString("\n\n### ✅ Completed\n\n" + list(done))
		}
	}
	sb.WriteString(failureSection(s.Failures))
	return sb.String()
}
