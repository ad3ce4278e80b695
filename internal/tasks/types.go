package tasks

import (
	"time"

	tasksapi "google.golang.org/api/tasks/v1"

	"github.com/teemow/gtasks-mcp/internal/dates"
)

// Task status values as used by the Tasks API.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// DefaultListID is the alias the Tasks API resolves to the user's default list.
const DefaultListID = "@default"

// TaskList represents a Google Tasks task list
type TaskList struct {
	ID      string
	Title   string
	Updated time.Time
}

// Task represents a Google Tasks task
type Task struct {
	ID        string
	ListID    string // list the task was read from
	Title     string
	Notes     string
	Status    string    // StatusNeedsAction or StatusCompleted
	Due       time.Time // date only, zero when unset
	Completed time.Time
	Updated   time.Time
	Parent    string // Parent task ID for subtasks
	Position  string // lexicographic sort key among siblings
	Hidden    bool
	Deleted   bool
	Links     []Link
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// Link represents a related link in a task
type Link struct {
	Type        string
	Description string
	Link        string
}

// ListOptions pages through task lists.
type ListOptions struct {
	MaxResults int64
	PageToken  string

	// AllPages follows next-page tokens until MaxResults items were
	// collected or the store has no more.
	AllPages bool
}

// TaskListPage is one page of task lists.
type TaskListPage struct {
	Items         []TaskList
	NextPageToken string
}

// TaskFilter narrows ListTasks. Date bounds are calendar dates and
// inclusive on both ends; zero means unbounded.
type TaskFilter struct {
	MaxResults int64
	PageToken  string
	AllPages   bool

	ShowCompleted bool
	ShowDeleted   bool
	ShowHidden    bool

	DueMin       time.Time
	DueMax       time.Time
	CompletedMin time.Time
	CompletedMax time.Time
	UpdatedMin   time.Time
}

// TaskPage is one page of tasks.
type TaskPage struct {
	Items         []Task
	NextPageToken string
}

// NewTask is the input for CreateTask.
type NewTask struct {
	Title    string
	Notes    string
	Due      time.Time // zero for none
	Parent   string    // Parent task ID for subtasks
	Previous string    // Previous sibling task ID for positioning
}

type dueOp int

const (
	dueKeep dueOp = iota
	dueSet
	dueClear
)

// DueChange describes what an update does to the due date: leave it,
// set it, or remove it.
type DueChange struct {
	op   dueOp
	date time.Time
}

// KeepDue leaves the due date untouched.
func KeepDue() DueChange { return DueChange{} }

// SetDue replaces the due date.
func SetDue(d time.Time) DueChange { return DueChange{op: dueSet, date: dates.Day(d)} }

// ClearDue removes the due date.
func ClearDue() DueChange { return DueChange{op: dueClear} }

func (c DueChange) IsKeep() bool    { return c.op == dueKeep }
func (c DueChange) IsSet() bool     { return c.op == dueSet }
func (c DueChange) IsClear() bool   { return c.op == dueClear }
func (c DueChange) Date() time.Time { return c.date }

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title  *string
	Notes  *string
	Status *string
	Due    DueChange
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Notes == nil && p.Status == nil && p.Due.IsKeep()
}

// Completes reports whether the patch marks the task completed.
func (p TaskPatch) Completes() bool {
	return p.Status != nil && *p.Status == StatusCompleted
}

// MoveOptions places a task. An empty Parent moves it to the top level,
// an empty Previous makes it the first sibling.
type MoveOptions struct {
	Parent   string
	Previous string
}

// toTaskList converts a Google Tasks TaskList to our TaskList type
func toTaskList(tl *tasksapi.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}

	result := TaskList{
		ID:    tl.Id,
		Title: tl.Title,
	}

	if tl.Updated != "" {
		if t, err := time.Parse(time.RFC3339, tl.Updated); err == nil {
			result.Updated = t
		}
	}

	return result
}

// toTask converts a Google Tasks Task to our Task type
func toTask(listID string, t *tasksapi.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:       t.Id,
		ListID:   listID,
		Title:    t.Title,
		Notes:    t.Notes,
		Status:   t.Status,
		Parent:   t.Parent,
		Position: t.Position,
		Hidden:   t.Hidden,
		Deleted:  t.Deleted,
	}

	// The API only stores the date part of due; the time is always midnight UTC.
	if t.Due != "" {
		if due, err := dates.FromRFC3339(t.Due); err == nil {
			result.Due = due
		}
	}

	if t.Completed != nil && *t.Completed != "" {
		if completed, err := time.Parse(time.RFC3339, *t.Completed); err == nil {
			result.Completed = completed
		}
	}

	if t.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, t.Updated); err == nil {
			result.Updated = updated
		}
	}

	if t.Links != nil {
		result.Links = make([]Link, len(t.Links))
		for i, link := range t.Links {
			result.Links[i] = Link{
				Type:        link.Type,
				Description: link.Description,
				Link:        link.Link,
			}
		}
	}

	return result
}
