package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/minimal-todo/internal/auth"
	"github.com/adanyl0v/minimal-todo/internal/models"
	"github.com/adanyl0v/minimal-todo/internal/services"
)

const testAdminToken = "admin-secret"

// fakeAuthService treats a bearer token as the user id it identifies.
type fakeAuthService struct {
	signup   func(params services.SignupParams) (*services.AuthResult, error)
	login    func(params services.LoginParams) (*services.AuthResult, error)
	me       func(userID string) (*models.PublicUser, error)
	clearAll func() (*services.ClearResult, error)
}

func (f *fakeAuthService) Signup(_ context.Context, params services.SignupParams) (*services.AuthResult, error) {
	return f.signup(params)
}

func (f *fakeAuthService) Login(_ context.Context, params services.LoginParams) (*services.AuthResult, error) {
	return f.login(params)
}

func (f *fakeAuthService) Me(_ context.Context, userID string) (*models.PublicUser, error) {
	return f.me(userID)
}

func (f *fakeAuthService) ExtractIdentity(header http.Header) (string, error) {
	scheme, token, ok := strings.Cut(header.Get("Authorization"), " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", auth.ErrMissingCredentials
	}
	if token == "expired" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func (f *fakeAuthService) ClearAll(_ context.Context) (*services.ClearResult, error) {
	return f.clearAll()
}

// fakeTaskService keeps tasks in memory and scopes them by owner.
type fakeTaskService struct {
	nextID  int64
	tasks   map[int64]*models.Task
	failAll bool
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{tasks: make(map[int64]*models.Task)}
}

func (f *fakeTaskService) owned(userID string, taskID int64) (*models.Task, error) {
	if f.failAll {
		return nil, fmt.Errorf("%w: connection refused", services.ErrStoreUnavailable)
	}
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, services.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTaskService) CreateTask(_ context.Context, userID string, params services.CreateTaskParams) (*models.Task, error) {
	if f.failAll {
		return nil, services.ErrStoreUnavailable
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", services.ErrInvalidTask)
	}
	if params.Category == "" {
		params.Category = models.DefaultCategory
	}
	if params.Priority == "" {
		params.Priority = models.DefaultPriority
	}
	if !models.IsValidPriority(params.Priority) {
		return nil, fmt.Errorf("%w: priority must be one of Low, Medium, High", services.ErrInvalidTask)
	}

	f.nextID++
	now := time.Now().UTC()
	task := &models.Task{
		ID:          f.nextID,
		UserID:      userID,
		Description: params.Description,
		Completed:   params.Completed,
		Category:    params.Category,
		Priority:    params.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskService) GetTask(_ context.Context, userID string, taskID int64) (*models.Task, error) {
	return f.owned(userID, taskID)
}

func (f *fakeTaskService) ListTasks(_ context.Context, userID string, filter services.TaskFilter) ([]*models.Task, error) {
	if f.failAll {
		return nil, services.ErrStoreUnavailable
	}
	tasks := make([]*models.Task, 0)
	for id := int64(1); id <= f.nextID; id++ {
		task, ok := f.tasks[id]
		if !ok || task.UserID != userID {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(filter.Category, "all") && task.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(task.Description), strings.ToLower(filter.Search)) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (f *fakeTaskService) UpdateTask(_ context.Context, userID string, taskID int64, params services.UpdateTaskParams) (*models.Task, error) {
	if params.Priority != nil && !models.IsValidPriority(*params.Priority) {
		return nil, services.ErrInvalidTask
	}
	task, err := f.owned(userID, taskID)
	if err != nil {
		return nil, err
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	if params.Category != nil {
		task.Category = *params.Category
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	return task, nil
}

func (f *fakeTaskService) SetTaskCompleted(_ context.Context, userID string, taskID int64, completed bool) (*models.Task, error) {
	task, err := f.owned(userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Completed = completed
	return task, nil
}

func (f *fakeTaskService) DeleteTask(_ context.Context, userID string, taskID int64) error {
	_, err := f.owned(userID, taskID)
	if err != nil {
		return err
	}
	delete(f.tasks, taskID)
	return nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func newTestRouter(t *testing.T, authService services.AuthService, taskService services.TaskService, db Pinger, adminToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := New(zerolog.Nop(), db, authService, taskService, adminToken)
	router := gin.New()
	router.Use(h.HandleLoggerMiddleware)
	RegisterRoutes(router, h, adminToken != "")
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHandleRoot(t *testing.T) {
	router := newTestRouter(t, &fakeAuthService{}, newFakeTaskService(), fakePinger{}, "")

	w := doRequest(t, router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantBody: "healthy"},
		{name: "database down", pingErr: errors.New("dial tcp: connection refused"), wantStatus: http.StatusServiceUnavailable, wantBody: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeAuthService{}, newFakeTaskService(), fakePinger{err: tt.pingErr}, "")

			w := doRequest(t, router, http.MethodGet, "/health", "", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decode[map[string]string](t, w)["status"])
		})
	}
}

func newAdminRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/auth/admin/clear-all", nil)
	if token != "" {
		req.Header.Set(adminTokenHeader, token)
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
