package router

import (
	"net/http"

	"myshelf/backend/internal/auth"
	"myshelf/backend/internal/config"
	"myshelf/backend/internal/handler"
	"myshelf/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New assembles the gin engine with every route and its middleware chain.
// Per-route middleware order matters: id validation runs before
// authentication, which runs before authorization.
func New(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authHandler := handler.NewAuthHandler(db, cfg.JWTSecret, cfg.JWTExpiry)
	userHandler := handler.NewUserHandler(db)
	gameHandler := handler.NewGameHandler(db)
	tagHandler := handler.NewTagHandler(db)

	requireAuth := auth.Middleware(cfg.JWTSecret)
	requireAdmin := auth.AdminMiddleware()
	validID := middleware.ValidateID()

	api := router.Group("/api")
	{
		// Auth routes
		api.POST("/login", authHandler.Login)
		api.POST("/refresh", requireAuth, authHandler.Refresh)
		api.POST("/hard-refresh", requireAuth, authHandler.HardRefresh)

		// User routes
		userRoutes := api.Group("/users")
		{
			userRoutes.POST("", userHandler.Register)
			userRoutes.GET("", requireAuth, requireAdmin, userHandler.List)
			userRoutes.GET("/me/shelf", requireAuth, gameHandler.GetShelf) // Must be before /:id
			userRoutes.GET("/:id", validID, userHandler.Get)
			userRoutes.PUT("/:id", validID, requireAuth, userHandler.Update)
			userRoutes.DELETE("/:id", validID, requireAuth, userHandler.Delete)
		}

		// Public game routes and shelf operations
		gameRoutes := api.Group("/games")
		{
			gameRoutes.GET("", gameHandler.List)
			gameRoutes.GET("/:id", validID, gameHandler.Get)
			gameRoutes.POST("", requireAuth, gameHandler.Create)
			gameRoutes.POST("/:id/shelf", validID, requireAuth, gameHandler.AddToShelf)
			gameRoutes.DELETE("/:id/shelf", validID, requireAuth, gameHandler.RemoveFromShelf)
		}

		// Tag routes (shared vocabulary: open reads, authenticated writes)
		tagRoutes := api.Group("/tags")
		{
			tagRoutes.GET("", tagHandler.List)
			tagRoutes.GET("/:id", validID, tagHandler.Get)
			tagRoutes.POST("", requireAuth, tagHandler.Create)
			tagRoutes.PUT("/:id", validID, requireAuth, tagHandler.Update)
			tagRoutes.DELETE("/:id", validID, requireAuth, tagHandler.Delete)
		}

		// Admin routes: moderation and unfiltered reads. Id validation
		// stays ahead of the auth chain on the routes that take one.
		adminRoutes := api.Group("/admin")
		{
			adminRoutes.GET("/games", requireAuth, requireAdmin, gameHandler.AdminList)
			adminRoutes.GET("/games/:id", validID, requireAuth, requireAdmin, gameHandler.AdminGet)
			adminRoutes.PUT("/games/:id", validID, requireAuth, requireAdmin, gameHandler.Update)
			adminRoutes.DELETE("/games/:id", validID, requireAuth, requireAdmin, gameHandler.Delete)
		}
	}

	return router
}
