package routes

import (
	"github.com/ashkan-django/bookstore-api/auth"
	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, s Services) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.Register(s.DB, s.Tokens))
		authGroup.POST("/token", auth.Login(s.DB, s.Tokens, s.Sessions))
		authGroup.POST("/token/refresh", auth.Refresh(s.DB, s.Tokens))
		authGroup.POST("/guest", auth.CreateGuestUser(s.Tokens, s.Sessions))

		if s.Google != nil {
			authGroup.POST("/google", auth.GoogleUserLogin(s.DB, s.Tokens, s.Sessions, s.Google))
		}
	}
}
