package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/models"
)

const categoryAll = "all"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type taskServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewTaskService(
	logger zerolog.Logger,
	db DB,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, userID string, params CreateTaskParams) (*models.Task, error) {
	params, err := normalizeCreateTaskParams(params)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("rejected task")
		return nil, err
	}

	now := timestamp()
	task := &models.Task{
		UserID:      userID,
		Description: params.Description,
		Completed:   params.Completed,
		Category:    params.Category,
		Priority:    params.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   description,
                   completed,
                   category,
                   priority,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`
	err = s.db.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Description,
		task.Completed,
		task.Category,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to insert task")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", userID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID string, taskID int64) (*models.Task, error) {
	const selectTaskQuery = `
SELECT id,
       user_id,
       description,
       completed,
       category,
       priority,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	task, err := scanTask(s.db.QueryRow(
		ctx,
		selectTaskQuery,
		taskID,
		userID,
	))
	if err != nil {
		return nil, s.handleRowError(err, userID, taskID, "failed to select task")
	}

	s.logger.Debug().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("selected task")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]*models.Task, error) {
	var search, category *string
	if filter.Search != "" {
		pattern := likeEscaper.Replace(filter.Search)
		search = &pattern
	}
	if filter.Category != "" && !strings.EqualFold(filter.Category, categoryAll) {
		category = &filter.Category
	}

	const selectTasksByUserIDQuery = `
SELECT id,
       user_id,
       description,
       completed,
       category,
       priority,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
  AND ($2::text IS NULL OR description ILIKE '%' || $2 || '%')
  AND ($3::text IS NULL OR category = $3)
ORDER BY id
`
	rows, err := s.db.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
		search,
		category,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by user id")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, userID string, taskID int64, params UpdateTaskParams) (*models.Task, error) {
	err := validateUpdateTaskParams(params)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("task_id", taskID).
			Msg("rejected task update")
		return nil, err
	}

	if params.IsEmpty() {
		s.logger.Debug().
			Int64("task_id", taskID).
			Msg("no fields to update")
		return s.GetTask(ctx, userID, taskID)
	}

	// Ownership is checked by the same statement that mutates the row.
	const updateTaskQuery = `
UPDATE tasks
SET description = COALESCE($1, description),
    completed = COALESCE($2, completed),
    category = COALESCE($3, category),
    priority = COALESCE($4, priority),
    updated_at = $5
WHERE id = $6 AND user_id = $7
RETURNING id, user_id, description, completed, category, priority, created_at, updated_at
`
	task, err := scanTask(s.db.QueryRow(
		ctx,
		updateTaskQuery,
		params.Description,
		params.Completed,
		params.Category,
		params.Priority,
		timestamp(),
		taskID,
		userID,
	))
	if err != nil {
		return nil, s.handleRowError(err, userID, taskID, "failed to update task")
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) SetTaskCompleted(ctx context.Context, userID string, taskID int64, completed bool) (*models.Task, error) {
	const updateTaskCompletedQuery = `
UPDATE tasks
SET completed = $1,
    updated_at = $2
WHERE id = $3 AND user_id = $4
RETURNING id, user_id, description, completed, category, priority, created_at, updated_at
`
	task, err := scanTask(s.db.QueryRow(
		ctx,
		updateTaskCompletedQuery,
		completed,
		timestamp(),
		taskID,
		userID,
	))
	if err != nil {
		return nil, s.handleRowError(err, userID, taskID, "failed to update task completion")
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Bool("completed", completed).
		Msg("updated task completion")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.db.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) handleRowError(err error, userID string, taskID int64, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Error().
		Err(err).
		Int64("task_id", taskID).
		Msg(msg)
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Description,
		&task.Completed,
		&task.Category,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func normalizeCreateTaskParams(params CreateTaskParams) (CreateTaskParams, error) {
	if strings.TrimSpace(params.Description) == "" {
		return params, fmt.Errorf("%w: description is required", ErrInvalidTask)
	}
	if params.Category == "" {
		params.Category = models.DefaultCategory
	}
	if params.Priority == "" {
		params.Priority = models.DefaultPriority
	}
	if !models.IsValidPriority(params.Priority) {
		return params, fmt.Errorf("%w: priority must be one of Low, Medium, High", ErrInvalidTask)
	}
	return params, nil
}

func validateUpdateTaskParams(params UpdateTaskParams) error {
	if params.Description != nil && strings.TrimSpace(*params.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrInvalidTask)
	}
	if params.Category != nil && *params.Category == "" {
		return fmt.Errorf("%w: category must not be empty", ErrInvalidTask)
	}
	if params.Priority != nil && !models.IsValidPriority(*params.Priority) {
		return fmt.Errorf("%w: priority must be one of Low, Medium, High", ErrInvalidTask)
	}
	return nil
}

// timestamp returns the current time at the precision Postgres stores.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
