package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/minimal-todo/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTask        = errors.New("invalid task")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// DB is the subset of *pgxpool.Pool the services use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AuthService interface {
	// Signup creates a user with the given email, password and name
	// and issues an access token for it.
	//
	// It returns ErrDuplicateEmail if a user with exactly the same
	// email already exists. No user is created in that case.
	Signup(ctx context.Context, params SignupParams) (*AuthResult, error)

	// Login authenticates the user by email and password.
	//
	// Unknown emails, accounts without a password hash and wrong
	// passwords all return ErrInvalidCredentials.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// Me returns the public info of the user with the given ID or
	// ErrUserNotFound.
	Me(ctx context.Context, userID string) (*models.PublicUser, error)

	// ExtractIdentity verifies the bearer token of a request and
	// returns the user ID it was issued for. It never hits the database.
	ExtractIdentity(header http.Header) (string, error)

	// ClearAll deletes every task and every user in one transaction.
	ClearAll(ctx context.Context) (*ClearResult, error)
}

type TaskService interface {
	// CreateTask creates a task owned by userID. Empty category and
	// priority fall back to their defaults.
	//
	// It returns ErrInvalidTask if the description is empty or
	// the priority is not one of the enumerated values.
	CreateTask(ctx context.Context, userID string, params CreateTaskParams) (*models.Task, error)

	// GetTask returns the task with the given ID if it is owned by userID
	// and ErrTaskNotFound otherwise.
	GetTask(ctx context.Context, userID string, taskID int64) (*models.Task, error)

	// ListTasks returns the tasks owned by userID ordered by ID.
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]*models.Task, error)

	// UpdateTask changes only the fields set in params.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or is owned
	// by another user, and ErrInvalidTask if a supplied field is invalid.
	UpdateTask(ctx context.Context, userID string, taskID int64, params UpdateTaskParams) (*models.Task, error)

	// SetTaskCompleted sets the completed flag. Setting the same value
	// twice is not an error.
	SetTaskCompleted(ctx context.Context, userID string, taskID int64, completed bool) (*models.Task, error)

	// DeleteTask deletes the task or returns ErrTaskNotFound.
	DeleteTask(ctx context.Context, userID string, taskID int64) error
}

type SignupParams struct {
	Email    string
	Password string
	Name     string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token          string
	TokenExpiresAt time.Time
	User           models.PublicUser
}

type ClearResult struct {
	UsersDeleted int64
	TasksDeleted int64
}

type CreateTaskParams struct {
	Description string
	Completed   bool
	Category    string
	Priority    string
}

// UpdateTaskParams lists the mutable task fields. A nil field is left
// untouched.
type UpdateTaskParams struct {
	Description *string
	Completed   *bool
	Category    *string
	Priority    *string
}

func (p UpdateTaskParams) IsEmpty() bool {
	return p.Description == nil &&
		p.Completed == nil &&
		p.Category == nil &&
		p.Priority == nil
}

type TaskFilter struct {
	// Search is matched case-insensitively as a substring of the description.
	Search string
	// Category is matched exactly. Empty or "all" disables the filter.
	Category string
}
