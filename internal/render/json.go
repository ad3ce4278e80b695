package render

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tools/batch"
)

type taskView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Status    string     `json:"status"`
	Due       string     `json:"due,omitempty"`
	Parent    string     `json:"parent,omitempty"`
	Position  string     `json:"position,omitempty"`
	Updated   string     `json:"updated,omitempty"`
	Completed string     `json:"completed,omitempty"`
	ListID    string     `json:"list_id,omitempty"`
	Hidden    bool       `json:"hidden,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	Links     []linkView `json:"links,omitempty"`
}

type linkView struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link"`
}

type listView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Updated string `json:"updated,omitempty"`
}

type failureView struct {
	ListID    string `json:"list_id"`
	ListTitle string `json:"list_title"`
	Error     string `json:"error"`
}

type collection[T any] struct {
	Items         []T           `json:"items"`
	Count         int           `json:"count"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	Message       string        `json:"message,omitempty"`
	Truncated     bool          `json:"truncated,omitempty"`
	Failures      []failureView `json:"failures,omitempty"`
}

type matchView struct {
	ListID    string   `json:"list_id"`
	ListTitle string   `json:"list_title"`
	Task      taskView `json:"task"`
}

type searchView struct {
	Query string `json:"query"`
	collection[matchView]
}

type groupView struct {
	ListID    string     `json:"list_id"`
	ListTitle string     `json:"list_title"`
	Tasks     []taskView `json:"tasks"`
}

type summaryView struct {
	Range     string        `json:"range"`
	Title     string        `json:"title"`
	DueMin    string        `json:"due_min,omitempty"`
	DueBefore string        `json:"due_before,omitempty"`
	Pending   int           `json:"pending"`
	Completed int           `json:"completed"`
	Groups    []groupView   `json:"groups"`
	Message   string        `json:"message,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Failures  []failureView `json:"failures,omitempty"`
}

func newTaskView(t tasks.Task) taskView {
	v := taskView{
		ID:        t.ID,
		Title:     t.Title,
		Notes:     t.Notes,
		Status:    t.Status,
		Due:       dates.Format(t.Due),
		Parent:    t.Parent,
		Position:  t.Position,
		Updated:   timestamp(t.Updated),
		Completed: timestamp(t.Completed),
		ListID:    t.ListID,
		Hidden:    t.Hidden,
		Deleted:   t.Deleted,
	}
	for _, l := range t.Links {
		v.Links = append(v.Links, linkView{Type: l.Type, Description: l.Description, Link: l.Link})
	}
	return v
}

func newListView(l tasks.TaskList) listView {
	return listView{ID: l.ID, Title: l.Title, Updated: timestamp(l.Updated)}
}

func newFailureViews(failures []aggregate.Failure) []failureView {
	out := make([]failureView, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureView{ListID: f.List.ID, ListTitle: f.List.Title, Error: firstLine(f.Err)})
	}
	return out
}

// jsonRenderer emits indented JSON. Instead of cutting text at the limit
// it drops trailing items and marks the document truncated.
type jsonRenderer struct {
	limit int
}

func marshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return `{"error":"failed to encode response"}`
	}
	return string(b)
}

// fit returns the largest prefix build(n) of total items that stays under
// the limit. build must report truncation when n < total.
func (r jsonRenderer) fit(total int, build func(n int) any) string {
	out := marshal(build(total))
	if r.limit <= 0 || utf8.RuneCountInString(out) <= r.limit {
		return out
	}
	lo, hi := 0, total-1
	best := marshal(build(0))
	for lo <= hi {
		mid := (lo + hi) / 2
		candidate := marshal(build(mid))
		if utf8.RuneCountInString(candidate) <= r.limit {
			best = candidate
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func (r jsonRenderer) Task(t tasks.Task) string {
	return marshal(newTaskView(t))
}

func (r jsonRenderer) TaskList(l tasks.TaskList) string {
	return marshal(newListView(l))
}

func (r jsonRenderer) Tasks(_ string, ts []tasks.Task, nextPageToken string) string {
	ordered := tree(ts)
	return r.fit(len(ordered), func(n int) any {
		c := collection[taskView]{
			Items:         make([]taskView, 0, n),
			NextPageToken: nextPageToken,
			Truncated:     n < len(ordered),
		}
		for _, node := range ordered[:n] {
			c.Items = append(c.Items, newTaskView(node.task))
		}
		c.Count = len(c.Items)
		if len(ts) == 0 {
			c.Message = NoTasks
		}
		return c
	})
}

func (r jsonRenderer) TaskLists(ls []tasks.TaskList, nextPageToken string) string {
	return r.fit(len(ls), func(n int) any {
		c := collection[listView]{
			Items:         make([]listView, 0, n),
			NextPageToken: nextPageToken,
			Truncated:     n < len(ls),
		}
		for _, l := range ls[:n] {
			c.Items = append(c.Items, newListView(l))
		}
		c.Count = len(c.Items)
		if len(ls) == 0 {
			c.Message = NoTaskLists
		}
		return c
	})
}

func (r jsonRenderer) Search(query string, res aggregate.SearchResult) string {
	failures := newFailureViews(res.Failures)
	return r.fit(len(res.Matches), func(n int) any {
		v := searchView{Query: query}
		v.Items = make([]matchView, 0, n)
		v.Truncated = n < len(res.Matches)
		v.Failures = failures
		for _, m := range res.Matches[:n] {
			v.Items = append(v.Items, matchView{ListID: m.List.ID, ListTitle: m.List.Title, Task: newTaskView(m.Task)})
		}
		v.Count = len(v.Items)
		if len(res.Matches) == 0 {
			v.Message = NoTasks
		}
		return v
	})
}

func (r jsonRenderer) Summary(s aggregate.Summary) string {
	pending, completed := s.Counts()
	total := pending + completed
	failures := newFailureViews(s.Failures)

	return r.fit(total, func(n int) any {
		v := summaryView{
			Range:     string(s.Window.Range),
			Title:     s.Window.Title(),
			DueMin:    dates.Format(s.Window.Lower),
			DueBefore: dates.Format(s.Window.Upper),
			Pending:   pending,
			Completed: completed,
			Groups:    []groupView{},
			Truncated: n < total,
			Failures:  failures,
		}
		if total == 0 {
			v.Message = NoTasks
		}
		left := n
		for _, g := range s.Groups {
			gv := groupView{ListID: g.List.ID, ListTitle: g.List.Title, Tasks: []taskView{}}
			for _, t := range g.Tasks {
				if left == 0 {
					break
				}
				gv.Tasks = append(gv.Tasks, newTaskView(t))
				left--
			}
			v.Groups = append(v.Groups, gv)
		}
		return v
	})
}

func (r jsonRenderer) Bulk(res batch.BulkResult) string {
	return marshal(res)
}
