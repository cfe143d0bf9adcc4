package route

import (
	"meshforge/backend/api/handler"
	"meshforge/backend/api/middleware"

	"github.com/gin-gonic/gin"
)

func SetApiRouter(route *gin.Engine) {
	apiRouter := route.Group("/api")
	{
		// Public routes (no authentication required)
		apiRouter.GET("/status", handler.GetStatus)
		apiRouter.GET("/profiles/public", handler.GetPublicProfiles)

		// Inbound reports from the external build runner
		apiRouter.POST("/webhook/build", middleware.WebhookSignature(), handler.BuildWebhook)

		// Authentication routes
		authRoutes := apiRouter.Group("/auth")
		{
			authRoutes.POST("/register", handler.Register)
			authRoutes.POST("/login", handler.Login)
			authRoutes.POST("/logout", middleware.JWTAuth(), handler.Logout)
		}

		// User routes that require authentication
		userRoute := apiRouter.Group("/user")
		userRoute.Use(middleware.JWTAuth())
		{
			userRoute.GET("/self", handler.GetSelf)
		}

		// Admin-only account management
		usersRoute := apiRouter.Group("/users")
		usersRoute.Use(middleware.JWTAuth(), middleware.AdminAuth())
		{
			usersRoute.GET("", handler.GetAllUsers)
		}

		// Profile routes
		profileRoute := apiRouter.Group("/profiles")
		profileRoute.Use(middleware.JWTAuth())
		{
			profileRoute.GET("", handler.GetProfiles)
			profileRoute.POST("", handler.CreateProfile)
			profileRoute.PUT("/:id", handler.UpdateProfile)
			profileRoute.DELETE("/:id", handler.DeleteProfile)
			profileRoute.POST("/:id/build", handler.RequestBuild)
			profileRoute.GET("/:id/builds", handler.GetProfileBuilds)
		}

		// Build ledger routes
		buildRoute := apiRouter.Group("/builds")
		buildRoute.Use(middleware.JWTAuth())
		{
			buildRoute.GET("/:id", handler.GetBuild)
		}
	}
}
