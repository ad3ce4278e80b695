package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
)

const (
	headingPending   = "### ⏳ "
	headingCompleted = "### ✅ "
	notesLabel       = "**Notes:**"
	separator        = "\n\n---\n\n"
)

// detailedRenderer prints every attribute. Its single-task form can be read
// back with ParseDetailed.
type detailedRenderer struct {
	limit int
}

func (r detailedRenderer) Task(t tasks.Task) string {
	var sb strings.Builder
	if t.IsCompleted() {
		sb.WriteString(headingCompleted + t.Title)
	} else {
		sb.WriteString(headingPending + t.Title)
	}

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "\n**%s:** %s", label, value)
		}
	}
	field("ID", t.ID)
	field("Status", t.Status)
	field("Due", dates.Format(t.Due))
	field("Parent", t.Parent)
	field("Position", t.Position)
	field("List", t.ListID)
	field("Updated", timestamp(t.Updated))
	field("Completed", timestamp(t.Completed))
	if t.Hidden {
		field("Hidden", "true")
	}
	if t.Deleted {
		field("Deleted", "true")
	}
	if len(t.Links) > 0 {
		sb.WriteString("\n**Links:**")
		for _, l := range t.Links {
			desc := l.Description
			if desc == "" {
				desc = l.Link
			}
			fmt.Fprintf(&sb, "\n- [%s](%s)", desc, l.Link)
			if l.Type != "" {
				fmt.Fprintf(&sb, " (%s)", l.Type)
			}
		}
	}
	if t.Notes != "" {
		sb.WriteString("\n" + notesLabel + "\n" + t.Notes)
	}
	return sb.String()
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (r detailedRenderer) TaskList(l tasks.TaskList) string {
	out := fmt.Sprintf("## 📋 %s\n**ID:** %s", l.Title, l.ID)
	if ts := timestamp(l.Updated); ts != "" {
		out += "\n**Updated:** " + ts
	}
	return out
}

func (r detailedRenderer) list(ts []tasks.Task) string {
	parts := make([]string, 0, len(ts))
	for _, n := range tree(ts) {
		parts = append(parts, r.Task(n.task))
	}
	return strings.Join(parts, separator)
}

func (r detailedRenderer) Tasks(heading string, ts []tasks.Task, nextPageToken string) string {
	if len(ts) == 0 {
		return NoTasks + pageHint(nextPageToken)
	}
	out := fmt.Sprintf("# %s\n\n%s", heading, r.list(ts))
	return truncate(out+pageHint(nextPageToken), r.limit)
}

func (r detailedRenderer) TaskLists(ls []tasks.TaskList, nextPageToken string) string {
	if len(ls) == 0 {
		return NoTaskLists + pageHint(nextPageToken)
	}
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		parts = append(parts, r.TaskList(l))
	}
	out := "# Task Lists\n\n" + strings.Join(parts, separator)
	return truncate(out+pageHint(nextPageToken), r.limit)
}

func (r detailedRenderer) Search(query string, res aggregate.SearchResult) string {
	return truncate(searchText(query, res, r.Task), r.limit)
}

func (r detailedRenderer) Summary(s aggregate.Summary) string {
	return truncate(summaryText(s, r.list), r.limit)
}

func (r detailedRenderer) Bulk(res batch.BulkResult) string {
	return truncate(bulkText(res, true), r.limit)
}

// ParseDetailed reads a task rendered by the detailed Renderer back. It
// recovers the identifier, title, status, due date, parent, position, list
// and notes.
func ParseDetailed(s string) (tasks.Task, error) {
	var t tasks.Task

	head, body, _ := strings.Cut(s, "\n")
	switch {
	case strings.HasPrefix(head, headingPending):
		t.Title = strings.TrimPrefix(head, headingPending)
	case strings.HasPrefix(head, headingCompleted):
		t.Title = strings.TrimPrefix(head, headingCompleted)
	default:
		return tasks.Task{}, fmt.Errorf("failed to parse detailed task: unexpected heading %q", head)
	}

	for body != "" {
		var line string
		line, body, _ = strings.Cut(body, "\n")
		if line == notesLabel {
			t.Notes = body
			break
		}

		label, value, ok := strings.Cut(line, ":** ")
		if !ok || !strings.HasPrefix(label, "**") {
			continue
		}
		switch strings.TrimPrefix(label, "**") {
		case "ID":
			t.ID = value
		case "Status":
			t.Status = value
		case "Due":
			due, err := dates.Parse(value)
			if err != nil {
				return tasks.Task{}, fmt.Errorf("failed to parse detailed task: %w", err)
			}
			t.Due = due
		case "Parent":
			t.Parent = value
		case "Position":
			t.Position = value
		case "List":
			t.ListID = value
		}
	}
	return t, nil
}
