package routes

import (
	bookcontroller "github.com/ashkan-django/bookstore-api/controllers/book"
	cartControllers "github.com/ashkan-django/bookstore-api/controllers/cart"
	userControllers "github.com/ashkan-django/bookstore-api/controllers/user"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers the profile, cart and guest cart endpoints.
func SetupUserRoutes(r *gin.Engine, s Services) {
	userGroup := r.Group("/")
	userGroup.Use(middleware.ValidateToken(s.Tokens))
	{
		// Profile
		userGroup.GET("/user", userControllers.GetUser(s.DB))
		userGroup.PUT("/user", userControllers.UpdateUser(s.DB))

		// Shopping cart
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(s.DB))
			cartGroup.POST("", cartControllers.CreateUserCart(s.DB))
			cartGroup.POST("/add-item", cartControllers.AddCartItem(s.DB))
			cartGroup.DELETE("/items/:id", cartControllers.DeleteCartItem(s.DB))
			cartGroup.DELETE("", cartControllers.ClearUserCart(s.DB))
			cartGroup.GET("/count", cartControllers.CountUserCart(s.DB))
		}

		// Ratings and favorites
		userGroup.POST("/books/:id/rate", bookcontroller.RateBook(s.DB))
		userGroup.POST("/books/:id/favorite", bookcontroller.FavoriteBook(s.DB))
		userGroup.GET("/favorites", bookcontroller.GetFavorites(s.DB))
		userGroup.GET("/recommendations", bookcontroller.GetRecommendations(s.DB, s.Recommender))
	}

	guestGroup := r.Group("/guest/cart")
	guestGroup.Use(middleware.ValidateGuestToken(s.Tokens))
	{
		guestGroup.GET("", cartControllers.GetGuestCart(s.DB, s.Sessions))
		guestGroup.POST("/add-item", cartControllers.AddGuestCartItem(s.DB, s.Sessions))
		guestGroup.DELETE("/:book_id", cartControllers.DeleteGuestCartItem(s.Sessions))
		guestGroup.GET("/count", cartControllers.CountGuestCart(s.Sessions))
	}
}
