package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/minimal-todo/internal/models"
	"github.com/adanyl0v/minimal-todo/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

type signupRequest struct {
	loginRequest
	Name string `json:"name" form:"name" binding:"required,max=255"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(user models.PublicUser) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

type authResponse struct {
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

func (h *handlerImpl) HandleSignup(c *gin.Context) {
	var req signupRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Debug().
		Str("email", req.Email).
		Msg("signup request")

	result, err := h.auth.Signup(c, services.SignupParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign up")
		switch {
		case errors.Is(err, services.ErrDuplicateEmail):
			abort(c, newConflictError(services.ErrDuplicateEmail.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		Token:   result.Token,
		User:    newUserResponse(result.User),
		Message: "Account created successfully",
	})
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			abort(c, newUnauthorizedError(services.ErrInvalidCredentials.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:   result.Token,
		User:    newUserResponse(result.User),
		Message: "Login successful",
	})
}

func (h *handlerImpl) HandleMe(c *gin.Context) {
	userID, ok := h.mustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to get current user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newUnauthorizedError(errUnauthorized.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newUserResponse(*user))
}

type clearAllResponse struct {
	Message      string `json:"message"`
	UsersDeleted int64  `json:"users_deleted"`
	TasksDeleted int64  `json:"tasks_deleted"`
}

func (h *handlerImpl) HandleClearAll(c *gin.Context) {
	result, err := h.auth.ClearAll(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to clear all data")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, clearAllResponse{
		Message:      "All data cleared",
		UsersDeleted: result.UsersDeleted,
		TasksDeleted: result.TasksDeleted,
	})
}
