package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/auth"
	"github.com/adanyl0v/minimal-todo/internal/models"
)

type authServiceImpl struct {
	logger zerolog.Logger
	db     DB
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewAuthService(
	logger zerolog.Logger,
	db DB,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		db:     db,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *authServiceImpl) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	now := time.Now().UTC()
	user := models.User{
		Email:     params.Email,
		Name:      params.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.PasswordHash = &passwordHash

	const insertUserQuery = `
INSERT INTO "user" (id,
                    email,
                    name,
                    password_hash,
                    "emailVerified",
                    "createdAt",
                    "updatedAt")
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = s.db.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Warn().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrDuplicateEmail
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("inserted user")

	result, err := s.issue(&user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("signed up user")
	return result, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user := models.User{Email: params.Email}

	const selectUserByEmailQuery = `
SELECT id,
       COALESCE(name, ''),
       password_hash
FROM "user"
WHERE email = $1
`
	err := s.db.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Name,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Spend the same time as a real comparison so that the
			// response time doesn't tell registered emails apart.
			s.hasher.Verify(params.Password, s.getDummyHash())
			s.logger.Warn().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if user.PasswordHash == nil {
		s.hasher.Verify(params.Password, s.getDummyHash())
		s.logger.Warn().
			Str("user_id", user.ID).
			Msg("user has no password hash and requires a password reset")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(params.Password, *user.PasswordHash) {
		s.logger.Warn().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(&user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return result, nil
}

func (s *authServiceImpl) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user := models.PublicUser{ID: userID}

	const selectUserByIDQuery = `
SELECT email,
       COALESCE(name, '')
FROM "user"
WHERE id = $1
`
	err := s.db.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Email,
		&user.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("user_id", userID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user by id")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return &user, nil
}

func (s *authServiceImpl) ExtractIdentity(header http.Header) (string, error) {
	return s.tokens.ExtractIdentity(header)
}

func (s *authServiceImpl) ClearAll(ctx context.Context) (*ClearResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const deleteTasksQuery = `DELETE FROM tasks`
	tasksTag, err := tx.Exec(ctx, deleteTasksQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete tasks")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	const deleteUsersQuery = `DELETE FROM "user"`
	usersTag, err := tx.Exec(ctx, deleteUsersQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete users")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	result := &ClearResult{
		UsersDeleted: usersTag.RowsAffected(),
		TasksDeleted: tasksTag.RowsAffected(),
	}
	s.logger.Warn().
		Int64("users_deleted", result.UsersDeleted).
		Int64("tasks_deleted", result.TasksDeleted).
		Msg("cleared all data")
	return result, nil
}

func (s *authServiceImpl) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to issue token")
		return nil, err
	}

	return &AuthResult{
		Token:          token,
		TokenExpiresAt: expiresAt,
		User:           user.Public(),
	}, nil
}

func (s *authServiceImpl) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
