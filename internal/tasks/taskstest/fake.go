// Package taskstest provides an in-memory tasks.Store for tests.
package taskstest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/tasks"
)

// Method names used as keys of Calls.
const (
	MethodCreateTaskList = "CreateTaskList"
	MethodListTaskLists  = "ListTaskLists"
	MethodGetTaskList    = "GetTaskList"
	MethodUpdateTaskList = "UpdateTaskList"
	MethodDeleteTaskList = "DeleteTaskList"
	MethodCreateTask     = "CreateTask"
	MethodListTasks      = "ListTasks"
	MethodGetTask        = "GetTask"
	MethodUpdateTask     = "UpdateTask"
	MethodDeleteTask     = "DeleteTask"
	MethodMoveTask       = "MoveTask"
	MethodClearCompleted = "ClearCompleted"
)

// FakeStore is a concurrency-safe in-memory tasks.Store. The @default
// alias resolves to the first list.
//
// Setting one of the *Err fields makes the matching method fail with that
// error; ListTasksErr fails ListTasks for individual lists only.
type FakeStore struct {
	// Now stamps Updated and Completed; defaults to time.Now.
	Now func() time.Time

	CreateTaskListErr error
	ListTaskListsErr  error
	GetTaskListErr    error
	UpdateTaskListErr error
	DeleteTaskListErr error
	CreateTaskErr     error
	ListTasksErr      map[string]error
	GetTaskErr        error
	UpdateTaskErr     error
	DeleteTaskErr     error
	MoveTaskErr       error
	ClearCompletedErr error

	mu    sync.Mutex
	lists []*tasks.TaskList
	items map[string][]*tasks.Task
	calls map[string]int
}

var _ tasks.Store = (*FakeStore)(nil)

// NewFakeStore returns an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		items:        make(map[string][]*tasks.Task),
		calls:        make(map[string]int),
		ListTasksErr: make(map[string]error),
	}
}

// Calls returns how often method was invoked.
func (f *FakeStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// AddList seeds a task list and returns it.
func (f *FakeStore) AddList(title string) tasks.TaskList {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.addList(title)
}

// AddTask seeds a task. Missing ID and status are filled in; Position is
// recomputed from insertion order among siblings.
func (f *FakeStore) AddTask(listID string, t tasks.Task) tasks.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	listID = f.resolve(listID)
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = tasks.StatusNeedsAction
	}
	if t.Updated.IsZero() {
		t.Updated = f.now()
	}
	t.ListID = listID
	stored := t
	f.items[listID] = append(f.items[listID], &stored)
	f.renumber(listID)
	return stored
}

// Tasks returns a copy of every task of a list, deleted ones included.
func (f *FakeStore) Tasks(listID string) []tasks.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tasks.Task
	for _, t := range f.items[f.resolve(listID)] {
		out = append(out, *t)
	}
	return out
}

func (f *FakeStore) CreateTaskList(_ context.Context, title string) (*tasks.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodCreateTaskList]++

	if f.CreateTaskListErr != nil {
		return nil, f.CreateTaskListErr
	}
	l := *f.addList(title)
	return &l, nil
}

func (f *FakeStore) ListTaskLists(_ context.Context, opts tasks.ListOptions) (tasks.TaskListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodListTaskLists]++

	if f.ListTaskListsErr != nil {
		return tasks.TaskListPage{}, f.ListTaskListsErr
	}

	all := make([]tasks.TaskList, 0, len(f.lists))
	for _, l := range f.lists {
		all = append(all, *l)
	}
	items, next, err := paginate(all, opts.PageToken, opts.MaxResults, opts.AllPages)
	if err != nil {
		return tasks.TaskListPage{}, err
	}
	return tasks.TaskListPage{Items: items, NextPageToken: next}, nil
}

func (f *FakeStore) GetTaskList(_ context.Context, listID string) (*tasks.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodGetTaskList]++

	if f.GetTaskListErr != nil {
		return nil, f.GetTaskListErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	out := *l
	return &out, nil
}

func (f *FakeStore) UpdateTaskList(_ context.Context, listID, title string) (*tasks.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodUpdateTaskList]++

	if f.UpdateTaskListErr != nil {
		return nil, f.UpdateTaskListErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	l.Title = title
	l.Updated = f.now()
	out := *l
	return &out, nil
}

func (f *FakeStore) DeleteTaskList(_ context.Context, listID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodDeleteTaskList]++

	if f.DeleteTaskListErr != nil {
		return f.DeleteTaskListErr
	}
	l, err := f.list(listID)
	if err != nil {
		return err
	}
	for i, candidate := range f.lists {
		if candidate == l {
			f.lists = append(f.lists[:i], f.lists[i+1:]...)
			break
		}
	}
	delete(f.items, l.ID)
	return nil
}

func (f *FakeStore) CreateTask(_ context.Context, listID string, input tasks.NewTask) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodCreateTask]++

	if f.CreateTaskErr != nil {
		return nil, f.CreateTaskErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	if input.Parent != "" {
		if _, err := f.task(l.ID, input.Parent); err != nil {
			return nil, err
		}
	}
	if input.Previous != "" {
		if _, err := f.task(l.ID, input.Previous); err != nil {
			return nil, err
		}
	}

	t := &tasks.Task{
		ID:      newID(),
		ListID:  l.ID,
		Title:   input.Title,
		Notes:   input.Notes,
		Status:  tasks.StatusNeedsAction,
		Parent:  input.Parent,
		Updated: f.now(),
	}
	if !input.Due.IsZero() {
		t.Due = dates.Day(input.Due)
	}
	f.place(l.ID, t, input.Previous)

	out := *t
	return &out, nil
}

func (f *FakeStore) ListTasks(_ context.Context, listID string, filter tasks.TaskFilter) (tasks.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodListTasks]++

	if err := f.ListTasksErr[listID]; err != nil {
		return tasks.TaskPage{}, err
	}
	l, err := f.list(listID)
	if err != nil {
		return tasks.TaskPage{}, err
	}
	if err := f.ListTasksErr[l.ID]; err != nil {
		return tasks.TaskPage{}, err
	}

	var matched []tasks.Task
	for _, t := range f.items[l.ID] {
		if matches(*t, filter) {
			matched = append(matched, *t)
		}
	}
	items, next, err := paginate(matched, filter.PageToken, filter.MaxResults, filter.AllPages)
	if err != nil {
		return tasks.TaskPage{}, err
	}
	return tasks.TaskPage{Items: items, NextPageToken: next}, nil
}

func (f *FakeStore) GetTask(_ context.Context, listID, taskID string) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodGetTask]++

	if f.GetTaskErr != nil {
		return nil, f.GetTaskErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	t, err := f.task(l.ID, taskID)
	if err != nil {
		return nil, err
	}
	out := *t
	return &out, nil
}

func (f *FakeStore) UpdateTask(_ context.Context, listID, taskID string, patch tasks.TaskPatch) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodUpdateTask]++

	if f.UpdateTaskErr != nil {
		return nil, f.UpdateTaskErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	t, err := f.task(l.ID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		if t.Status == tasks.StatusCompleted {
			t.Completed = f.now()
		} else {
			t.Completed = time.Time{}
		}
	}
	switch {
	case patch.Due.IsSet():
		t.Due = patch.Due.Date()
	case patch.Due.IsClear():
		t.Due = time.Time{}
	}
	t.Updated = f.now()

	out := *t
	return &out, nil
}

func (f *FakeStore) DeleteTask(_ context.Context, listID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodDeleteTask]++

	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	l, err := f.list(listID)
	if err != nil {
		return err
	}
	t, err := f.task(l.ID, taskID)
	if err != nil {
		return err
	}
	t.Deleted = true
	t.Updated = f.now()
	return nil
}

func (f *FakeStore) MoveTask(_ context.Context, listID, taskID string, opts tasks.MoveOptions) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodMoveTask]++

	if f.MoveTaskErr != nil {
		return nil, f.MoveTaskErr
	}
	l, err := f.list(listID)
	if err != nil {
		return nil, err
	}
	t, err := f.task(l.ID, taskID)
	if err != nil {
		return nil, err
	}
	if opts.Parent != "" {
		if _, err := f.task(l.ID, opts.Parent); err != nil {
			return nil, err
		}
	}
	if opts.Previous != "" {
		if _, err := f.task(l.ID, opts.Previous); err != nil {
			return nil, err
		}
	}

	items := f.items[l.ID]
	for i, candidate := range items {
		if candidate == t {
			f.items[l.ID] = append(items[:i], items[i+1:]...)
			break
		}
	}
	t.Parent = opts.Parent
	t.Updated = f.now()
	f.place(l.ID, t, opts.Previous)

	out := *t
	return &out, nil
}

func (f *FakeStore) ClearCompleted(_ context.Context, listID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[MethodClearCompleted]++

	if f.ClearCompletedErr != nil {
		return f.ClearCompletedErr
	}
	l, err := f.list(listID)
	if err != nil {
		return err
	}
	for _, t := range f.items[l.ID] {
		if t.IsCompleted() {
			t.Hidden = true
		}
	}
	return nil
}

func (f *FakeStore) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FakeStore) addList(title string) *tasks.TaskList {
	l := &tasks.TaskList{ID: newID(), Title: title, Updated: f.now()}
	f.lists = append(f.lists, l)
	return l
}

func (f *FakeStore) resolve(listID string) string {
	if listID == tasks.DefaultListID && len(f.lists) > 0 {
		return f.lists[0].ID
	}
	return listID
}

func (f *FakeStore) list(listID string) (*tasks.TaskList, error) {
	id := f.resolve(listID)
	for _, l := range f.lists {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "task list", ID: listID}
}

func (f *FakeStore) task(listID, taskID string) (*tasks.Task, error) {
	for _, t := range f.items[listID] {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "task", ID: taskID}
}

// place inserts t right after previous, or as the first child of its
// parent when previous is empty, then renumbers positions.
func (f *FakeStore) place(listID string, t *tasks.Task, previous string) {
	items := f.items[listID]
	at := len(items)
	for i, candidate := range items {
		if previous != "" && candidate.ID == previous {
			at = i + 1
			break
		}
		if previous == "" && candidate.Parent == t.Parent {
			at = i
			break
		}
	}
	items = append(items, nil)
	copy(items[at+1:], items[at:])
	items[at] = t
	f.items[listID] = items
	f.renumber(listID)
}

// renumber assigns zero-padded position keys in slice order per parent.
func (f *FakeStore) renumber(listID string) {
	next := make(map[string]int)
	for _, t := range f.items[listID] {
		t.Position = fmt.Sprintf("%020d", next[t.Parent])
		next[t.Parent]++
	}
}

func matches(t tasks.Task, filter tasks.TaskFilter) bool {
	if t.IsCompleted() && !filter.ShowCompleted {
		return false
	}
	if t.Deleted && !filter.ShowDeleted {
		return false
	}
	if t.Hidden && !filter.ShowHidden {
		return false
	}
	if !filter.DueMin.IsZero() && (t.Due.IsZero() || t.Due.Before(dates.Day(filter.DueMin))) {
		return false
	}
	if !filter.DueMax.IsZero() && (t.Due.IsZero() || t.Due.After(dates.Day(filter.DueMax))) {
		return false
	}
	if !filter.CompletedMin.IsZero() && (t.Completed.IsZero() || dates.Day(t.Completed).Before(dates.Day(filter.CompletedMin))) {
		return false
	}
	if !filter.CompletedMax.IsZero() && (t.Completed.IsZero() || dates.Day(t.Completed).After(dates.Day(filter.CompletedMax))) {
		return false
	}
	if !filter.UpdatedMin.IsZero() && t.Updated.Before(dates.Day(filter.UpdatedMin)) {
		return false
	}
	return true
}

// paginate uses the decimal offset as page token.
func paginate[T any](all []T, token string, maxResults int64, allPages bool) ([]T, string, error) {
	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(all) {
			return nil, "", &apperr.UpstreamError{Op: "list", Status: 400, Err: fmt.Errorf("invalid page token %q", token)}
		}
		offset = n
	}
	rest := all[offset:]

	limit := int(maxResults)
	if limit <= 0 || (!allPages && limit > 100) {
		limit = 100
	}
	if allPages && maxResults <= 0 {
		limit = len(rest)
	}
	if len(rest) <= limit {
		return rest, "", nil
	}
	if allPages {
		return rest[:limit], "", nil
	}
	return rest[:limit], strconv.Itoa(offset + limit), nil
}

func newID() string {
	return ulid.Make().String()
}
