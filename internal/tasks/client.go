package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	tasksapi "google.golang.org/api/tasks/v1"

	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
)

// DefaultAPITimeout bounds every Tasks API call.
const DefaultAPITimeout = 15 * time.Second

// maxPageSize is the largest page the Tasks API returns.
const maxPageSize = 100

var errStopPaging = errors.New("stop paging")

// Client wraps the Google Tasks service
type Client struct {
	svc     *tasksapi.Service
	timeout time.Duration
	metrics *instrumentation.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPITimeout overrides DefaultAPITimeout.
func WithAPITimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records every API call in m.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Tasks client authenticated through ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	svc, err := tasksapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return NewClientFromService(svc, opts...), nil
}

// NewClientFromService wraps an existing service, e.g. one pointed at a
// test server.
func NewClientFromService(svc *tasksapi.Service, opts ...ClientOption) *Client {
	c := &Client{svc: svc, timeout: DefaultAPITimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call runs fn with the per-call timeout inside a Google API span and
// records the outcome.
func (c *Client) call(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceTasks, operation, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceTasks, operation, status, time.Since(start))

	return err
}

func target(listID, taskID string) []attribute.KeyValue {
	return instrumentation.NewSpanAttributeBuilder().WithList(listID).WithTask(taskID).Build()
}

// CreateTaskList creates a new task list
func (c *Client) CreateTaskList(ctx context.Context, title string) (*TaskList, error) {
	var created *tasksapi.TaskList
	err := c.call(ctx, instrumentation.OperationCreate, nil, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Tasklists.Insert(&tasksapi.TaskList{Title: title}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("create task list", resourceTaskList, title, err)
	}

	result := toTaskList(created)
	return &result, nil
}

// ListTaskLists lists the task lists of the authenticated user
func (c *Client) ListTaskLists(ctx context.Context, opts ListOptions) (TaskListPage, error) {
	var page TaskListPage
	err := c.call(ctx, instrumentation.OperationList, nil, func(ctx context.Context) error {
		call := c.svc.Tasklists.List().MaxResults(pageSize(opts.MaxResults))
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}

		if !opts.AllPages {
			result, err := call.Context(ctx).Do()
			if err != nil {
				return err
			}
			for _, tl := range result.Items {
				page.Items = append(page.Items, toTaskList(tl))
			}
			page.NextPageToken = result.NextPageToken
			return nil
		}

		err := call.Pages(ctx, func(result *tasksapi.TaskLists) error {
			for _, tl := range result.Items {
				page.Items = append(page.Items, toTaskList(tl))
				if opts.MaxResults > 0 && int64(len(page.Items)) >= opts.MaxResults {
					return errStopPaging
				}
			}
			return nil
		})
		if errors.Is(err, errStopPaging) {
			return nil
		}
		return err
	})
	if err != nil {
		return TaskListPage{}, mapError("list task lists", resourceTaskList, "", err)
	}

	return page, nil
}

// GetTaskList retrieves a specific task list by ID
func (c *Client) GetTaskList(ctx context.Context, listID string) (*TaskList, error) {
	var tl *tasksapi.TaskList
	err := c.call(ctx, instrumentation.OperationGet, target(listID, ""), func(ctx context.Context) error {
		var err error
		tl, err = c.svc.Tasklists.Get(listID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("get task list", resourceTaskList, listID, err)
	}

	result := toTaskList(tl)
	return &result, nil
}

// UpdateTaskList renames a task list
func (c *Client) UpdateTaskList(ctx context.Context, listID, title string) (*TaskList, error) {
	var updated *tasksapi.TaskList
	err := c.call(ctx, instrumentation.OperationUpdate, target(listID, ""), func(ctx context.Context) error {
		var err error
		updated, err = c.svc.Tasklists.Patch(listID, &tasksapi.TaskList{Title: title}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("update task list", resourceTaskList, listID, err)
	}

	result := toTaskList(updated)
	return &result, nil
}

// DeleteTaskList deletes a task list and all of its tasks
func (c *Client) DeleteTaskList(ctx context.Context, listID string) error {
	err := c.call(ctx, instrumentation.OperationDelete, target(listID, ""), func(ctx context.Context) error {
		return c.svc.Tasklists.Delete(listID).Context(ctx).Do()
	})
	return mapError("delete task list", resourceTaskList, listID, err)
}

// CreateTask creates a new task
func (c *Client) CreateTask(ctx context.Context, listID string, input NewTask) (*Task, error) {
	t := &tasksapi.Task{
		Title:  input.Title,
		Notes:  input.Notes,
		Status: StatusNeedsAction,
	}
	if !input.Due.IsZero() {
		t.Due = dates.ToRFC3339(input.Due)
	}

	var created *tasksapi.Task
	err := c.call(ctx, instrumentation.OperationCreate, target(listID, ""), func(ctx context.Context) error {
		call := c.svc.Tasks.Insert(listID, t)
		if input.Parent != "" {
			call = call.Parent(input.Parent)
		}
		if input.Previous != "" {
			call = call.Previous(input.Previous)
		}
		var err error
		created, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("create task", resourceTaskList, listID, err)
	}

	result := toTask(listID, created)
	return &result, nil
}

// ListTasks lists tasks in a task list. Date bounds in filter are
// inclusive calendar days.
func (c *Client) ListTasks(ctx context.Context, listID string, filter TaskFilter) (TaskPage, error) {
	var page TaskPage
	err := c.call(ctx, instrumentation.OperationList, target(listID, ""), func(ctx context.Context) error {
		call := c.svc.Tasks.List(listID).
			MaxResults(pageSize(filter.MaxResults)).
			ShowCompleted(filter.ShowCompleted).
			ShowDeleted(filter.ShowDeleted).
			ShowHidden(filter.ShowHidden)

		if filter.PageToken != "" {
			call = call.PageToken(filter.PageToken)
		}
		if !filter.DueMin.IsZero() {
			call = call.DueMin(dates.ToRFC3339(filter.DueMin))
		}
		if !filter.DueMax.IsZero() {
			call = call.DueMax(dates.EndOfDayRFC3339(filter.DueMax))
		}
		if !filter.CompletedMin.IsZero() {
			call = call.CompletedMin(dates.ToRFC3339(filter.CompletedMin))
		}
		if !filter.CompletedMax.IsZero() {
			call = call.CompletedMax(dates.EndOfDayRFC3339(filter.CompletedMax))
		}
		if !filter.UpdatedMin.IsZero() {
			call = call.UpdatedMin(dates.ToRFC3339(filter.UpdatedMin))
		}

		if !filter.AllPages {
			result, err := call.Context(ctx).Do()
			if err != nil {
				return err
			}
			for _, t := range result.Items {
				page.Items = append(page.Items, toTask(listID, t))
			}
			page.NextPageToken = result.NextPageToken
			return nil
		}

		err := call.Pages(ctx, func(result *tasksapi.Tasks) error {
			for _, t := range result.Items {
				page.Items = append(page.Items, toTask(listID, t))
				if filter.MaxResults > 0 && int64(len(page.Items)) >= filter.MaxResults {
					return errStopPaging
				}
			}
			return nil
		})
		if errors.Is(err, errStopPaging) {
			return nil
		}
		return err
	})
	if err != nil {
		return TaskPage{}, mapError("list tasks", resourceTaskList, listID, err)
	}

	return page, nil
}

// GetTask retrieves a specific task by ID
func (c *Client) GetTask(ctx context.Context, listID, taskID string) (*Task, error) {
	var t *tasksapi.Task
	err := c.call(ctx, instrumentation.OperationGet, target(listID, taskID), func(ctx context.Context) error {
		var err error
		t, err = c.svc.Tasks.Get(listID, taskID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("get task", resourceTask, taskID, err)
	}

	result := toTask(listID, t)
	return &result, nil
}

// UpdateTask applies a partial update. Fields the patch leaves nil are
// not sent; a cleared due date is sent as JSON null.
func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, patch TaskPatch) (*Task, error) {
	t := &tasksapi.Task{}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
		t.ForceSendFields = append(t.ForceSendFields, "Notes")
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		if *patch.Status == StatusNeedsAction {
			// Reopening a task drops its completion timestamp.
			t.NullFields = append(t.NullFields, "Completed")
		}
	}
	switch {
	case patch.Due.IsSet():
		t.Due = dates.ToRFC3339(patch.Due.Date())
	case patch.Due.IsClear():
		t.NullFields = append(t.NullFields, "Due")
	}

	var updated *tasksapi.Task
	err := c.call(ctx, instrumentation.OperationUpdate, target(listID, taskID), func(ctx context.Context) error {
		var err error
		updated, err = c.svc.Tasks.Patch(listID, taskID, t).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("update task", resourceTask, taskID, err)
	}

	result := toTask(listID, updated)
	return &result, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	err := c.call(ctx, instrumentation.OperationDelete, target(listID, taskID), func(ctx context.Context) error {
		return c.svc.Tasks.Delete(listID, taskID).Context(ctx).Do()
	})
	return mapError("delete task", resourceTask, taskID, err)
}

// MoveTask moves a task to a different position or parent
func (c *Client) MoveTask(ctx context.Context, listID, taskID string, opts MoveOptions) (*Task, error) {
	var moved *tasksapi.Task
	err := c.call(ctx, instrumentation.OperationMove, target(listID, taskID), func(ctx context.Context) error {
		call := c.svc.Tasks.Move(listID, taskID)
		if opts.Parent != "" {
			call = call.Parent(opts.Parent)
		}
		if opts.Previous != "" {
			call = call.Previous(opts.Previous)
		}
		var err error
		moved, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("move task", resourceTask, taskID, err)
	}

	result := toTask(listID, moved)
	return &result, nil
}

// ClearCompleted hides all completed tasks of a list
func (c *Client) ClearCompleted(ctx context.Context, listID string) error {
	err := c.call(ctx, instrumentation.OperationClear, target(listID, ""), func(ctx context.Context) error {
		return c.svc.Tasks.Clear(listID).Context(ctx).Do()
	})
	return mapError("clear completed tasks", resourceTaskList, listID, err)
}

func pageSize(n int64) int64 {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}
