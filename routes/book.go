package routes

import (
	bookcontroller "github.com/ashkan-django/bookstore-api/controllers/book"
	cartControllers "github.com/ashkan-django/bookstore-api/controllers/cart"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupBookRoutes registers the public catalog and the staff-only writes.
func SetupBookRoutes(r *gin.Engine, s Services) {
	books := r.Group("/books")
	{
		public := books.Group("", middleware.OptionalToken(s.Tokens))
		public.GET("", bookcontroller.GetBooks(s.DB, s.Sessions))
		public.GET("/:id", bookcontroller.GetBookByID(s.DB))

		books.POST("/:id/purchase", middleware.ValidateVisitor(s.Tokens), cartControllers.QuickPurchase(s.DB, s.Sessions))

		staff := books.Group("", middleware.ValidateToken(s.Tokens), middleware.StaffRequired())
		staff.POST("", bookcontroller.CreateBook(s.DB))
		staff.PUT("/:id", bookcontroller.UpdateBook(s.DB))
		staff.PATCH("/:id/stock", bookcontroller.UpdateStock(s.DB))
		staff.DELETE("/:id", bookcontroller.DeleteBook(s.DB))
	}
}
