package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/services"
)

type Handler interface {
	HandleSignup(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleMe(c *gin.Context)
	HandleClearAll(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleAdminMiddleware(c *gin.Context)
	HandleLoggerMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSetTaskCompleted(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleRoot(c *gin.Context)
	HandleHealth(c *gin.Context)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger     zerolog.Logger
	auth       services.AuthService
	tasks      services.TaskService
	db         Pinger
	adminToken string
}

func New(
	logger zerolog.Logger,
	db Pinger,
	authService services.AuthService,
	taskService services.TaskService,
	adminToken string,
) Handler {
	return &handlerImpl{
		logger:     logger,
		auth:       authService,
		tasks:      taskService,
		db:         db,
		adminToken: adminToken,
	}
}

// RegisterRoutes mounts every endpoint on router. The admin purge route is
// only mounted when an admin token is configured.
func RegisterRoutes(router gin.IRouter, h Handler, adminEnabled bool) {
	router.GET("/", h.HandleRoot)
	router.GET("/health", h.HandleHealth)

	authRouter := router.Group("/auth")
	authRouter.POST("/signup", h.HandleSignup)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.GET("/me", h.HandleAuthMiddleware, h.HandleMe)
	if adminEnabled {
		authRouter.DELETE("/admin/clear-all", h.HandleAdminMiddleware, h.HandleClearAll)
	}

	tasksRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.PATCH("/:id/complete", h.HandleSetTaskCompleted)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
}
