package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/auth"
	"github.com/leon2m/arlmsv004-sub001/internal/handlers"
	"github.com/leon2m/arlmsv004-sub001/internal/middleware"
)

func SetupRoutes(h *handlers.Handler, tokens *auth.Manager, log *slog.Logger) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", h.Health)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", h.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(tokens))
	{
		protected.GET("/ws", h.WebSocket)
		protected.GET("/users", h.GetAllUsers)

		protected.GET("/projects", h.ListProjects)
		protected.GET("/projects/:id", h.GetProject)
		protected.GET("/projects/:id/statuses", h.ListStatuses)
		protected.GET("/projects/:id/transitions", h.ListTransitions)
		protected.GET("/projects/:id/priorities", h.ListPriorities)
		protected.GET("/projects/:id/types", h.ListTypes)

		protected.GET("/projects/:id/tasks", h.ListTasks)
		protected.POST("/projects/:id/tasks", h.CreateTask)
		protected.GET("/tasks/:id", h.GetTask)
		protected.PATCH("/tasks/:id", h.UpdateTask)
		protected.DELETE("/tasks/:id", h.DeleteTask)
		protected.POST("/tasks/:id/move", h.MoveTask)
		protected.GET("/tasks/:id/transitions", h.GetTransitions)
		protected.GET("/tasks/:id/activity", h.GetActivity)
		protected.PUT("/tasks/:id/sprint", h.AssignSprint)
		protected.DELETE("/tasks/:id/sprint", h.RemoveSprint)

		protected.GET("/projects/:id/boards", h.ListBoards)
		protected.GET("/boards/:id", h.GetBoard)
		protected.GET("/boards/:id/columns", h.GetColumns)
		protected.GET("/boards/:id/columns/:columnId/tasks", h.GetColumnTasks)
		protected.GET("/boards/:id/columns/:columnId/accept", h.CanAcceptTask)
		protected.POST("/boards/:id/columns/:columnId/reorder", h.ReorderColumn)

		protected.GET("/projects/:id/sprints", h.ListSprints)
		protected.POST("/projects/:id/sprints", h.CreateSprint)
		protected.POST("/projects/:id/sprints/:sprintId/start", h.StartSprint)
		protected.POST("/sprints/:id/complete", h.CompleteSprint)
		protected.POST("/sprints/:id/carry-over", h.CarryOver)
		protected.GET("/sprints/:id/tasks", h.SprintTasks)
	}

	// Catalog and board structure changes need the manage capability.
	manage := protected.Group("")
	manage.Use(middleware.RequireCapability())
	{
		manage.POST("/projects", h.CreateProject)
		manage.DELETE("/projects/:id", h.ArchiveProject)
		manage.POST("/projects/:id/statuses", h.AddStatus)
		manage.PUT("/projects/:id/statuses/:statusId/default", h.SetDefaultStatus)
		manage.POST("/projects/:id/transitions", h.AddTransition)
		manage.POST("/projects/:id/priorities", h.AddPriority)
		manage.POST("/projects/:id/types", h.AddType)
		manage.POST("/projects/:id/boards", h.CreateBoard)
		manage.POST("/boards/:id/columns", h.AddColumn)
		manage.PUT("/boards/:id/columns/:columnId/limit", h.SetColumnLimit)
	}

	return ginRouter
}
