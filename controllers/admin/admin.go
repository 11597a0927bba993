package adminController

import (
	"log"
	"net/http"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GET /admin/staff
func GetAllStaff(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var staff []models.User

		if err := db.Where("is_staff = ?", true).Order("email").Find(&staff).Error; err != nil {
			log.Println("failed to fetch staff:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch staff"})
			return
		}

		c.JSON(http.StatusOK, staff)
	}
}
