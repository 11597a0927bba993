package routes

import (
	adminController "github.com/ashkan-django/bookstore-api/controllers/admin"
	bookcontroller "github.com/ashkan-django/bookstore-api/controllers/book"
	orderControllers "github.com/ashkan-django/bookstore-api/controllers/order"
	userControllers "github.com/ashkan-django/bookstore-api/controllers/user"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, s Services) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(s.Config.AdminAPIKey))
	{
		// Orders
		adminGroup.GET("/orders", orderControllers.GetAllOrdersHandler(s.DB))
		adminGroup.GET("/orders/ws", s.Hub.ServeWS)

		// Catalog spreadsheets
		adminGroup.GET("/books/export", bookcontroller.ExportBooksToExcel(s.DB))
		adminGroup.POST("/books/import", bookcontroller.ImportBooksFromExcel(s.DB))

		// Users and staff
		adminGroup.GET("/users", userControllers.GetAllUsers(s.DB))
		staff := adminGroup.Group("/staff")
		{
			staff.GET("", adminController.GetAllStaff(s.DB))
			staff.POST("/promote", adminController.PromoteStaff(s.DB))
			staff.POST("/demote", adminController.DemoteStaff(s.DB))
		}
	}
}
