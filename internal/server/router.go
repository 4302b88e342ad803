package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/callsim/callsim-backend/internal/handlers"
	"github.com/callsim/callsim-backend/internal/middleware"
	"github.com/callsim/callsim-backend/internal/utils"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserHandler        *handlers.UserHandler
	SimulationHandler  *handlers.SimulationHandler
	AchievementHandler *handlers.AchievementHandler
	SSEHandler         *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("callsim-backend"))

	// Generated avatars
	router.Static("/media", utils.GetEnv("AVATAR_MEDIA_DIR", "./media/avatars", nil))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// Simulations
	protected.POST("/simulations", cfg.SimulationHandler.Start)
	protected.GET("/simulations/active", cfg.SimulationHandler.GetActive)
	protected.GET("/simulations/:simulationID/messages", cfg.SimulationHandler.GetMessages)
	protected.POST("/simulations/:simulationID/messages", cfg.SimulationHandler.SendMessage)
	protected.POST("/simulations/:simulationID/end", cfg.SimulationHandler.End)
	// Achievements
	protected.GET("/achievements", cfg.AchievementHandler.GetMine)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
