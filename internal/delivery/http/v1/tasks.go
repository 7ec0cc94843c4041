package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/minimal-todo/internal/models"
	"github.com/adanyl0v/minimal-todo/internal/services"
)

type getTaskResponse struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID,
		Description: task.Description,
		Completed:   task.Completed,
		Category:    task.Category,
		Priority:    task.Priority,
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Description string `json:"description" binding:"required"`
	Completed   bool   `json:"completed"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, userID, services.CreateTaskParams{
		Description: req.Description,
		Completed:   req.Completed,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		h.abortTaskError(c, err, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(c, userID, services.TaskFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		h.abortTaskError(c, err, "failed to get tasks")
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}

	h.logger.Debug().
		Int("count", len(response)).
		Msg("fetched tasks")
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.mustGetTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err, "failed to get task")
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type updateTaskRequest struct {
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Category    *string `json:"category,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.mustGetTaskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, userID, taskID, services.UpdateTaskParams{
		Description: req.Description,
		Completed:   req.Completed,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		h.abortTaskError(c, err, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type setTaskCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *handlerImpl) HandleSetTaskCompleted(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.mustGetTaskID(c)
	if !ok {
		return
	}

	var req setTaskCompletedRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.SetTaskCompleted(c, userID, taskID, *req.Completed)
	if err != nil {
		h.abortTaskError(c, err, "failed to set task completion")
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.mustGetTaskID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err, "failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// mustGetTaskID parses the id path param. Task ids are int4 in the
// database, so a numeric id outside that range names no task.
func (h *handlerImpl) mustGetTaskID(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		h.logger.Warn().
			Str("id", c.Param("id")).
			Msg("task id out of range")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return 0, false
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return 0, false
	}
	return taskID, true
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error, msg string) {
	h.logger.Error().
		Err(err).
		Msg(msg)
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrInvalidTask):
		abort(c, newBadRequestError(err.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
