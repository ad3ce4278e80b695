package render

import (
	"fmt"
	"strings"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
)

// conciseRenderer prints one line per entity, without identifiers or
// notes.
type conciseRenderer struct {
	limit int
}

func (r conciseRenderer) Task(t tasks.Task) string {
	line := statusIcon(t) + " " + t.Title
	if !t.Due.IsZero() {
		line += " 📅 " + dates.Format(t.Due)
	}
	return line
}

func (r conciseRenderer) lines(ts []tasks.Task) string {
	out := make([]string, 0, len(ts))
	for _, n := range tree(ts) {
		out = append(out, strings.Repeat("  ", n.depth)+r.Task(n.task))
	}
	return strings.Join(out, "\n")
}

func (r conciseRenderer) TaskList(l tasks.TaskList) string {
	return "📋 " + l.Title
}

func (r conciseRenderer) Tasks(heading string, ts []tasks.Task, nextPageToken string) string {
	if len(ts) == 0 {
		return NoTasks + pageHint(nextPageToken)
	}
	out := fmt.Sprintf("# %s\n\n%s", heading, r.lines(ts))
	return truncate(out+pageHint(nextPageToken), r.limit)
}

func (r conciseRenderer) TaskLists(ls []tasks.TaskList, nextPageToken string) string {
	if len(ls) == 0 {
		return NoTaskLists + pageHint(nextPageToken)
	}
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, r.TaskList(l))
	}
	return truncate(strings.Join(out, "\n")+pageHint(nextPageToken), r.limit)
}

func (r conciseRenderer) Search(query string, res aggregate.SearchResult) string {
	if len(res.Matches) == 0 {
		return truncate(fmt.Sprintf("No tasks found matching '%s'.", query)+failureSection(res.Failures), r.limit)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for '%s'\n\nFound %d matching task(s)\n", query, len(res.Matches))
	for _, m := range res.Matches {
		fmt.Fprintf(&sb, "\n**List:** %s · %s", listName(m.List), r.Task(m.Task))
	}
	sb.WriteString(failureSection(res.Failures))
	return truncate(sb.String(), r.limit)
}

func (r conciseRenderer) Summary(s aggregate.Summary) string {
	return truncate(summaryText(s, r.lines), r.limit)
}

func (r conciseRenderer) Bulk(res batch.BulkResult) string {
	return truncate(bulkText(res, false), r.limit)
}
