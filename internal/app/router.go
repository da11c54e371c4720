package app

import (
	"goalpath_backend/docs"
	"goalpath_backend/internal/config"
	"goalpath_backend/internal/controller"
	"goalpath_backend/internal/middleware"
	"goalpath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.Use(middleware.ConfigMiddleware(cfg))

	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		registerProgressionRoutes(authGroup, c.progression)
	}
}

func registerProgressionRoutes(group *gin.RouterGroup, pc *controller.ProgressionController) {
	progression := group.Group("/progression")
	{
		progression.POST("/complete-action", pc.CompleteAction)
		progression.POST("/mark-incomplete", pc.MarkIncomplete)
		progression.GET("/today", pc.Today)
		progression.POST("/select-goal", pc.SelectGoal)
	}
}
