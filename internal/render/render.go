// Package render turns tasks, task lists and aggregate results into the
// text returned to the agent.
//
// Each output mode has its own Renderer; For picks one by name:
//
//	r, err := render.For("markdown")
//	if err != nil {
//	    return err // *InvalidFormatError
//	}
//	out := r.Tasks("Tasks", page.Items, page.NextPageToken)
//
// Renderers are pure. They never modify their input and never call the
// task store. Collections never render as an empty string, and text output
// is cut at the character limit.
package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
)

// Mode names an output representation.
type Mode string

const (
	JSON     Mode = "json"
	Markdown Mode = "markdown"
	Concise  Mode = "concise"
	Detailed Mode = "detailed"
)

var modes = []Mode{JSON, Markdown, Concise, Detailed}

// DefaultCharLimit caps rendered output, in characters.
const DefaultCharLimit = 25000

// Messages for empty collections.
const (
	NoTasks     = "No tasks found."
	NoTaskLists = "No task lists found."
)

const truncatedNotice = "\n\n... (truncated due to length)"

// Modes returns the accepted mode names.
func Modes() []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// InvalidFormatError is returned for an unknown mode name.
type InvalidFormatError struct {
	Value string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid response_format %q: must be one of %s", e.Value, strings.Join(Modes(), ", "))
}

func (e *InvalidFormatError) Is(target error) bool { return target == apperr.ErrValidation }

// ParseMode validates a mode name. Matching ignores case.
func ParseMode(s string) (Mode, error) {
	for _, m := range modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", &InvalidFormatError{Value: s}
}

// Renderer renders every result shape of the tool surface.
type Renderer interface {
	Task(t tasks.Task) string
	TaskList(l tasks.TaskList) string
	Tasks(heading string, ts []tasks.Task, nextPageToken string) string
	TaskLists(ls []tasks.TaskList, nextPageToken string) string
	Search(query string, res aggregate.SearchResult) string
	Summary(s aggregate.Summary) string
	Bulk(res batch.BulkResult) string
}

type options struct {
	charLimit int
}

// Option configures a Renderer.
type Option func(*options)

// WithCharLimit overrides DefaultCharLimit.
func WithCharLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.charLimit = n
		}
	}
}

// For returns the Renderer for mode.
func For(mode string, opts ...Option) (Renderer, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	o := options{charLimit: DefaultCharLimit}
	for _, opt := range opts {
		opt(&o)
	}

	switch m {
	case JSON:
		return jsonRenderer{limit: o.charLimit}, nil
	case Concise:
		return conciseRenderer{limit: o.charLimit}, nil
	case Detailed:
		return detailedRenderer{limit: o.charLimit}, nil
	default:
		return markdownRenderer{limit: o.charLimit}, nil
	}
}

// truncate cuts s to limit characters, keeping room for the notice.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(truncatedNotice)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + truncatedNotice
}

func pageHint(token string) string {
	if token == "" {
		return ""
	}
	return fmt.Sprintf("\n\n**More results available.** Use page_token: `%s`", token)
}

func statusIcon(t tasks.Task) string {
	if t.IsCompleted() {
		return "✅"
	}
	return "⏳"
}

func firstLine(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

func listName(l tasks.TaskList) string {
	if l.Title != "" {
		return l.Title
	}
	return l.ID
}

// failureSection lists lists that could not be read. Empty when none.
func failureSection(failures []aggregate.Failure) string {
	if len(failures) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n## ⚠️ Partial results\n\nThese lists could not be read:\n")
	for _, f := range failures {
		fmt.Fprintf(&sb, "- **%s**: %s\n", listName(f.List), firstLine(f.Err))
	}
	return strings.TrimRight(sb.String(), "\n")
}

type node struct {
	task  tasks.Task
	depth int
}

// tree orders ts depth-first: siblings by position key, children right
// after their parent. Tasks whose parent is not in ts count as top level.
func tree(ts []tasks.Task) []node {
	present := make(map[string]bool, len(ts))
	for _, t := range ts {
		present[t.ID] = true
	}

	children := make(map[string][]int)
	var roots []int
	for i, t := range ts {
		if t.Parent == "" || !present[t.Parent] || t.Parent == t.ID {
			roots = append(roots, i)
			continue
		}
		children[t.Parent] = append(children[t.Parent], i)
	}

	byPosition := func(idx []int) {
		sort.SliceStable(idx, func(a, b int) bool {
			return ts[idx[a]].Position < ts[idx[b]].Position
		})
	}

	out := make([]node, 0, len(ts))
	visited := make(map[int]bool, len(ts))
	var walk func(idx []int, depth int)
	walk = func(idx []int, depth int) {
		byPosition(idx)
		for _, i := range idx {
			if visited[i] {
				continue
			}
			visited[i] = true
			out = append(out, node{task: ts[i], depth: depth})
			walk(children[ts[i].ID], depth+1)
		}
	}
	walk(roots, 0)

	// Parent cycles never reach a root; emit them at top level.
	for i := range ts {
		if !visited[i] {
			visited[i] = true
			out = append(out, node{task: ts[i]})
		}
	}
	return out
}

// bulkText is shared by the text modes. withIDs adds created task IDs.
func bulkText(res batch.BulkResult, withIDs bool) string {
	var sb strings.Builder
	sb.WriteString("# Bulk Task Creation Results\n\n")
	fmt.Fprintf(&sb, "✅ **Successfully created:** %d tasks\n", res.Successful)

	created := res.Succeeded()
	if len(created) > 0 {
		sb.WriteString("\n**Created tasks:**\n")
		for i, r := range created {
			if i == 10 {
				fmt.Fprintf(&sb, "... and %d more\n", len(created)-10)
				break
			}
			if withIDs && r.Result != "" {
				fmt.Fprintf(&sb, "- %s (`%s`)\n", r.ID, r.Result)
			} else {
				fmt.Fprintf(&sb, "- %s\n", r.ID)
			}
		}
	}

	failed := res.Failures()
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "\n❌ **Failed:** %d tasks\n", res.Failed)
		for i, r := range failed {
			if i == 5 {
				fmt.Fprintf(&sb, "... and %d more\n", len(failed)-5)
				break
			}
			fmt.Fprintf(&sb, "- %s: %s\n", r.ID, r.Error)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
