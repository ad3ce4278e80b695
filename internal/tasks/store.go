package tasks

import "context"

// Store is the task store the tools operate on. Client implements it over
// the Google Tasks API; taskstest.FakeStore implements it in memory.
//
// Implementations return errors from the apperr taxonomy: AuthError for
// credential problems, NotFoundError for unknown identifiers and
// UpstreamError for everything else.
type Store interface {
	CreateTaskList(ctx context.Context, title string) (*TaskList, error)
	ListTaskLists(ctx context.Context, opts ListOptions) (TaskListPage, error)
	GetTaskList(ctx context.Context, listID string) (*TaskList, error)
	UpdateTaskList(ctx context.Context, listID, title string) (*TaskList, error)
	DeleteTaskList(ctx context.Context, listID string) error

	CreateTask(ctx context.Context, listID string, task NewTask) (*Task, error)
	ListTasks(ctx context.Context, listID string, filter TaskFilter) (TaskPage, error)
	GetTask(ctx context.Context, listID, taskID string) (*Task, error)
	UpdateTask(ctx context.Context, listID, taskID string, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) error
	MoveTask(ctx context.Context, listID, taskID string, opts MoveOptions) (*Task, error)
	ClearCompleted(ctx context.Context, listID string) error
}

var _ Store = (*Client)(nil)
