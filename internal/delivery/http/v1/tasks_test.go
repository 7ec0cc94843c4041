package v1

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTasksRouter(t *testing.T) (http.Handler, *fakeTaskService) {
	t.Helper()
	tasks := newFakeTaskService()
	return newTestRouter(t, &fakeAuthService{}, tasks, fakePinger{}, ""), tasks
}

func createTask(t *testing.T, router http.Handler, token string, body map[string]any) getTaskResponse {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/tasks", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[getTaskResponse](t, w)
}

func TestTasksRequireAuthentication(t *testing.T) {
	router, _ := newTasksRouter(t)

	tests := []struct {
		method string
		path   string
		token  string
	}{
		{method: http.MethodGet, path: "/tasks"},
		{method: http.MethodPost, path: "/tasks"},
		{method: http.MethodGet, path: "/tasks/1"},
		{method: http.MethodPut, path: "/tasks/1"},
		{method: http.MethodPatch, path: "/tasks/1/complete"},
		{method: http.MethodDelete, path: "/tasks/1"},
		{method: http.MethodGet, path: "/tasks", token: "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doRequest(t, router, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, errUnauthorized.Error(), decode[map[string]string](t, w)["error"])
		})
	}
}

func TestHandleCreateTask(t *testing.T) {
	router, _ := newTasksRouter(t)

	task := createTask(t, router, "alice", map[string]any{"description": "buy milk"})
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, "alice", task.UserID)
	assert.Equal(t, "buy milk", task.Description)
	assert.False(t, task.Completed)
	assert.Equal(t, "General", task.Category)
	assert.Equal(t, "Medium", task.Priority)
}

func TestHandleCreateTask_Invalid(t *testing.T) {
	router, _ := newTasksRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing description", body: map[string]any{"category": "Work"}},
		{name: "blank description", body: map[string]any{"description": "   "}},
		{name: "unknown priority", body: map[string]any{"description": "x", "priority": "Urgent"}},
		{name: "malformed json", body: `{"description":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/tasks", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestHandleGetTasks_ScopedAndFiltered(t *testing.T) {
	router, _ := newTasksRouter(t)

	createTask(t, router, "alice", map[string]any{"description": "Buy milk", "category": "Errand"})
	createTask(t, router, "alice", map[string]any{"description": "Write report", "category": "Work"})
	createTask(t, router, "bob", map[string]any{"description": "Bob's milk"})

	w := doRequest(t, router, http.MethodGet, "/tasks", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[[]getTaskResponse](t, w)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "alice", task.UserID)
	}

	w = doRequest(t, router, http.MethodGet, "/tasks?search=MILK", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks = decode[[]getTaskResponse](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Description)

	w = doRequest(t, router, http.MethodGet, "/tasks?category=Work", "alice", nil)
	tasks = decode[[]getTaskResponse](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Description)

	w = doRequest(t, router, http.MethodGet, "/tasks?category=all", "alice", nil)
	assert.Len(t, decode[[]getTaskResponse](t, w), 2)
}

func TestHandleGetTasks_EmptyIsArray(t *testing.T) {
	router, _ := newTasksRouter(t)

	w := doRequest(t, router, http.MethodGet, "/tasks", "carol", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandleTask_ForeignTaskIsNotFound(t *testing.T) {
	router, tasks := newTasksRouter(t)

	task := createTask(t, router, "alice", map[string]any{"description": "private"})
	path := fmt.Sprintf("/tasks/%d", task.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "get", method: http.MethodGet, path: path},
		{name: "update", method: http.MethodPut, path: path, body: map[string]any{"description": "hijacked"}},
		{name: "complete", method: http.MethodPatch, path: path + "/complete", body: map[string]any{"completed": true}},
		{name: "delete", method: http.MethodDelete, path: path},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, tt.method, tt.path, "bob", tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"task not found"}`, w.Body.String())
		})
	}

	stored := tasks.tasks[task.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "private", stored.Description)
	assert.False(t, stored.Completed)
}

func TestHandleGetTask(t *testing.T) {
	router, _ := newTasksRouter(t)

	created := createTask(t, router, "alice", map[string]any{"description": "read", "priority": "Low"})

	w := doRequest(t, router, http.MethodGet, fmt.Sprintf("/tasks/%d", created.ID), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[getTaskResponse](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Low", got.Priority)

	w = doRequest(t, router, http.MethodGet, "/tasks/999", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTask_InvalidID(t *testing.T) {
	router, _ := newTasksRouter(t)

	w := doRequest(t, router, http.MethodGet, "/tasks/abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errInvalidTaskID.Error(), decode[map[string]string](t, w)["error"])
}

func TestHandleTask_IDOutOfRangeIsNotFound(t *testing.T) {
	router, tasks := newTasksRouter(t)
	tasks.failAll = true

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "get", method: http.MethodGet, path: "/tasks/3000000000"},
		{name: "get max int32 plus one", method: http.MethodGet, path: "/tasks/2147483648"},
		{name: "get negative", method: http.MethodGet, path: "/tasks/-3000000000"},
		{name: "update", method: http.MethodPut, path: "/tasks/3000000000", body: map[string]any{"priority": "Low"}},
		{name: "complete", method: http.MethodPatch, path: "/tasks/3000000000/complete", body: map[string]any{"completed": true}},
		{name: "delete", method: http.MethodDelete, path: "/tasks/3000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, tt.method, tt.path, "alice", tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"task not found"}`, w.Body.String())
		})
	}
}

func TestHandleUpdateTask(t *testing.T) {
	router, _ := newTasksRouter(t)

	created := createTask(t, router, "alice", map[string]any{"description": "draft", "category": "Work"})
	path := fmt.Sprintf("/tasks/%d", created.ID)

	w := doRequest(t, router, http.MethodPut, path, "alice", map[string]any{"priority": "High"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[getTaskResponse](t, w)
	assert.Equal(t, "draft", updated.Description)
	assert.Equal(t, "Work", updated.Category)
	assert.Equal(t, "High", updated.Priority)

	w = doRequest(t, router, http.MethodPut, path, "alice", map[string]any{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSetTaskCompleted(t *testing.T) {
	router, _ := newTasksRouter(t)

	created := createTask(t, router, "alice", map[string]any{"description": "ship"})
	path := fmt.Sprintf("/tasks/%d/complete", created.ID)

	for range 2 {
		w := doRequest(t, router, http.MethodPatch, path, "alice", map[string]any{"completed": true})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[getTaskResponse](t, w).Completed)
	}

	w := doRequest(t, router, http.MethodPatch, path, "alice", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteTask(t *testing.T) {
	router, tasks := newTasksRouter(t)

	created := createTask(t, router, "alice", map[string]any{"description": "temp"})
	path := fmt.Sprintf("/tasks/%d", created.ID)

	w := doRequest(t, router, http.MethodDelete, path, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, w.Body.String())
	assert.Empty(t, tasks.tasks)

	w = doRequest(t, router, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTasks_StoreFailureIsGeneric(t *testing.T) {
	router, tasks := newTasksRouter(t)
	tasks.failAll = true

	w := doRequest(t, router, http.MethodGet, "/tasks/1", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/tasks", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
