package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	tasksapi "google.golang.org/api/tasks/v1"

	"github.com/teemow/gtasks-mcp/internal/apperr"
)

func TestToTaskList(t *testing.T) {
	assert.Equal(t, TaskList{}, toTaskList(nil))

	result := toTaskList(&tasksapi.TaskList{
		Id:      "test-list-id",
		Title:   "My Tasks",
		Updated: "2025-10-31T14:00:00Z",
	})

	assert.Equal(t, "test-list-id", result.ID)
	assert.Equal(t, "My Tasks", result.Title)
	assert.False(t, result.Updated.IsZero())
}

func TestToTask(t *testing.T) {
	assert.Equal(t, Task{}, toTask("l1", nil))

	completed := "2025-10-31T10:00:00Z"
	result := toTask("l1", &tasksapi.Task{
		Id:        "test-task-id",
		Title:     "Complete project",
		Notes:     "Implementation notes",
		Status:    StatusCompleted,
		Due:       "2025-11-07T00:00:00.000Z",
		Completed: &completed,
		Updated:   "2025-10-31T10:00:01Z",
		Parent:    "parent-task-id",
		Position:  "00000000000000000001",
		Hidden:    true,
		Links: []*tasksapi.TaskLinks{
			{Type: "email", Description: "Related email", Link: "https://mail.google.com/x"},
		},
	})

	assert.Equal(t, "test-task-id", result.ID)
	assert.Equal(t, "l1", result.ListID)
	assert.Equal(t, "Complete project", result.Title)
	assert.True(t, result.IsCompleted())
	assert.True(t, result.Due.Equal(time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)))
	assert.False(t, result.Completed.IsZero())
	assert.False(t, result.Updated.IsZero())
	assert.Equal(t, "parent-task-id", result.Parent)
	assert.True(t, result.Hidden)
	require.Len(t, result.Links, 1)
	assert.Equal(t, "Related email", result.Links[0].Description)
}

func TestTaskPatch(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())

	done := StatusCompleted
	p := TaskPatch{Status: &done}
	assert.False(t, p.Empty())
	assert.True(t, p.Completes())

	assert.False(t, TaskPatch{Due: ClearDue()}.Empty())
	assert.True(t, ClearDue().IsClear())
	assert.True(t, KeepDue().IsKeep())

	set := SetDue(time.Date(2024, 2, 15, 18, 0, 0, 0, time.UTC))
	assert.True(t, set.IsSet())
	assert.True(t, set.Date().Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))
}

// fakeAPI is a minimal stand-in for the Tasks REST API.
type fakeAPI struct {
	t        *testing.T
	handlers map[string]http.HandlerFunc // "METHOD path"
	requests []*http.Request
	bodies   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))

	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/tasks/v1")
	h, ok := f.handlers[key]
	if !ok {
		f.t.Errorf("unexpected request %s", key)
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func newTestClient(t *testing.T, handlers map[string]http.HandlerFunc) (*Client, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{t: t, handlers: handlers}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := tasksapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return NewClientFromService(svc, WithAPITimeout(5*time.Second)), api
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(code int, reason, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"errors":[{"reason":%q,"message":%q}]}}`,
			code, message, reason, message)
	}
}

func TestClient_ListTasksFilters(t *testing.T) {
	client, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /lists/l1/tasks": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{
				"items":         []map[string]any{{"id": "t1", "title": "Write report", "status": "needsAction", "due": "2024-02-15T00:00:00.000Z"}},
				"nextPageToken": "next",
			})
		},
	})

	page, err := client.ListTasks(context.Background(), "l1", TaskFilter{
		MaxResults: 30,
		DueMin:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DueMax:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "l1", page.Items[0].ListID)
	assert.Equal(t, "next", page.NextPageToken)

	q := api.requests[0].URL.Query()
	assert.Equal(t, "30", q.Get("maxResults"))
	assert.Equal(t, "false", q.Get("showCompleted"))
	assert.Equal(t, "2024-02-01T00:00:00.000Z", q.Get("dueMin"))
	assert.Equal(t, "2024-02-29T23:59:59.999Z", q.Get("dueMax"))
}

func TestClient_ListTaskListsAllPages(t *testing.T) {
	client, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /users/@me/lists": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(w, map[string]any{
					"items":         []map[string]any{{"id": "a", "title": "A"}, {"id": "b", "title": "B"}},
					"nextPageToken": "p2",
				})
				return
			}
			writeJSON(w, map[string]any{
				"items":         []map[string]any{{"id": "c", "title": "C"}, {"id": "d", "title": "D"}},
				"nextPageToken": "p3",
			})
		},
	})

	page, err := client.ListTaskLists(context.Background(), ListOptions{MaxResults: 3, AllPages: true})
	require.NoError(t, err)

	ids := make([]string, 0, len(page.Items))
	for _, l := range page.Items {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Len(t, api.requests, 2, "paging stops once enough lists were collected")
}

func TestClient_UpdateTaskClearsDue(t *testing.T) {
	client, api := newTestClient(t, map[string]http.HandlerFunc{
		"PATCH /lists/l1/tasks/t1": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"id": "t1", "title": "Renamed", "status": "needsAction"})
		},
	})

	title := "Renamed"
	reopen := StatusNeedsAction
	task, err := client.UpdateTask(context.Background(), "l1", "t1", TaskPatch{
		Title:  &title,
		Status: &reopen,
		Due:    ClearDue(),
	})
	require.NoError(t, err)
	assert.True(t, task.Due.IsZero())

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(api.bodies[0]), &sent))
	assert.Equal(t, "Renamed", sent["title"])
	due, ok := sent["due"]
	assert.True(t, ok, "due must be sent")
	assert.Nil(t, due, "due must be null")
	completed, ok := sent["completed"]
	assert.True(t, ok)
	assert.Nil(t, completed)
	_, hasNotes := sent["notes"]
	assert.False(t, hasNotes, "untouched fields are omitted")
}

func TestClient_UpdateTaskSetsDue(t *testing.T) {
	client, api := newTestClient(t, map[string]http.HandlerFunc{
		"PATCH /lists/l1/tasks/t1": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"id": "t1", "due": "2024-03-01T00:00:00.000Z"})
		},
	})

	_, err := client.UpdateTask(context.Background(), "l1", "t1", TaskPatch{
		Due: SetDue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Contains(t, api.bodies[0], `"due":"2024-03-01T00:00:00.000Z"`)
}

func TestClient_CreateTaskPlacement(t *testing.T) {
	client, api := newTestClient(t, map[string]http.HandlerFunc{
		"POST /lists/l1/tasks": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"id": "t9", "title": "Child", "parent": "p1"})
		},
	})

	task, err := client.CreateTask(context.Background(), "l1", NewTask{Title: "Child", Parent: "p1", Previous: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", task.Parent)

	q := api.requests[0].URL.Query()
	assert.Equal(t, "p1", q.Get("parent"))
	assert.Equal(t, "s1", q.Get("previous"))
	assert.NotContains(t, api.bodies[0], `"due"`)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   error
		wantStatus int
	}{
		{name: "not found", handler: apiError(http.StatusNotFound, "notFound", "Not Found"), wantKind: apperr.ErrNotFound},
		{name: "unauthorized", handler: apiError(http.StatusUnauthorized, "authError", "Invalid Credentials"), wantKind: apperr.ErrAuth},
		{name: "forbidden", handler: apiError(http.StatusForbidden, "forbidden", "Insufficient Permission"), wantKind: apperr.ErrAuth},
		{name: "rate limited via 403", handler: apiError(http.StatusForbidden, "userRateLimitExceeded", "Rate Limit Exceeded"), wantKind: apperr.ErrUpstream, wantStatus: http.StatusTooManyRequests},
		{name: "rate limited", handler: apiError(http.StatusTooManyRequests, "rateLimitExceeded", "Too Many Requests"), wantKind: apperr.ErrUpstream, wantStatus: http.StatusTooManyRequests},
		{name: "server error", handler: apiError(http.StatusServiceUnavailable, "backendError", "Backend Error"), wantKind: apperr.ErrUpstream, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, map[string]http.HandlerFunc{
				"GET /lists/l1/tasks/t1": tt.handler,
			})

			_, err := client.GetTask(context.Background(), "l1", "t1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				assert.Equal(t, "t1", nf.ID)
				assert.Equal(t, "task", nf.Resource)
			}
			var up *apperr.UpstreamError
			if errors.As(err, &up) {
				assert.Equal(t, tt.wantStatus, up.Status)
				assert.Equal(t, "get task", up.Op)
			}
		})
	}
}

func TestMapError_TransportAndAuth(t *testing.T) {
	authErr := &apperr.AuthError{Err: errors.New("no token")}
	wrapped := &url.Error{Op: "Get", URL: "https://tasks.googleapis.com", Err: authErr}
	assert.Same(t, authErr, mapError("list tasks", resourceTaskList, "l1", wrapped))

	err := mapError("list tasks", resourceTaskList, "l1", context.DeadlineExceeded)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "timed out")

	assert.NoError(t, mapError("x", "", "", nil))
}
