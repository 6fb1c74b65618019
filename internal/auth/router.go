package auth

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	jwtSecret  string
}

func NewRouter(controller *Controller, jwtSecret string) *Router {
	return &Router{
		controller: controller,
		jwtSecret:  jwtSecret,
	}
}

// SetupRoutes registers the auth routes and the admin user listing
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.RefreshToken)
		auth.POST("/logout", authRouter.controller.Logout)

		protected := auth.Group("")
		protected.Use(middleware.JWTAuth(authRouter.jwtSecret))
		{
			protected.PUT("/change-password", authRouter.controller.ChangePassword)
			protected.GET("/me", authRouter.controller.GetMe)
		}
	}

	profile := rg.Group("/users/profile")
	profile.Use(middleware.JWTAuth(authRouter.jwtSecret))
	{
		profile.GET("", authRouter.controller.GetProfile)
		profile.PUT("", authRouter.controller.UpdateProfile)
	}

	admin := rg.Group("/admin/users")
	admin.Use(middleware.JWTAuth(authRouter.jwtSecret), middleware.RequireAdmin())
	admin.GET("", authRouter.controller.ListUsers)
}
