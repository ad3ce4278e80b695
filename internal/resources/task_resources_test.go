package resources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/config"
	"github.com/teemow/gtasks-mcp/internal/server"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/tasks/taskstest"
)

func newTestContext(t *testing.T) (*server.ServerContext, *taskstest.FakeStore) {
	t.Helper()
	store := taskstest.NewFakeStore()
	cfg := config.Default()
	cfg.TimeZone = "UTC"
	sc, err := server.NewServerContext(context.Background(), &cfg, server.WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func read(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", tc.MIMEType)
	require.True(t, json.Valid([]byte(tc.Text)), tc.Text)
	return tc.Text
}

func TestHandleTaskLists(t *testing.T) {
	sc, store := newTestContext(t)
	store.AddList("Work")
	store.AddList("Home")

	contents, err := handleTaskLists(context.Background(), read(TaskListsURI), sc)
	require.NoError(t, err)

	out := text(t, contents)
	assert.Contains(t, out, `"Work"`)
	assert.Contains(t, out, `"Home"`)
}

func TestHandleListTasks(t *testing.T) {
	sc, store := newTestContext(t)
	list := store.AddList("Work")
	store.AddTask(list.ID, tasks.Task{Title: "Open"})
	store.AddTask(list.ID, tasks.Task{Title: "Closed", Status: tasks.StatusCompleted})

	contents, err := handleListTasks(context.Background(), read("tasks://lists/"+list.ID+"/tasks"), sc)
	require.NoError(t, err)

	out := text(t, contents)
	assert.Contains(t, out, `"Open"`)
	assert.NotContains(t, out, `"Closed"`)
}

func TestHandleListTasksErrors(t *testing.T) {
	sc, store := newTestContext(t)
	list := store.AddList("Work")
	store.ListTasksErr[list.ID] = &apperr.NotFoundError{Resource: "task list", ID: list.ID}

	_, err := handleListTasks(context.Background(), read("tasks://lists/"+list.ID+"/tasks"), sc)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)

	_, err = handleListTasks(context.Background(), read("tasks://lists//tasks"), sc)
	assert.Error(t, err)
}

func TestListIDFromURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "tasks://lists/abc/tasks", want: "abc"},
		{uri: "tasks://lists/@default/tasks", want: "@default"},
		{uri: "tasks://lists/abc", wantErr: true},
		{uri: "tasks://lists/a/b/tasks", wantErr: true},
		{uri: "other://lists/abc/tasks", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := listIDFromURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
