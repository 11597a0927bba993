package adminController

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type staffRequest struct {
	Email string `json:"email"`
}

// setStaff flips is_staff for the user with the given email. Tokens issued
// before the change keep their old role until they expire.
func setStaff(db *gorm.DB, staff bool, done string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		if err := db.Model(&user).Update("is_staff", staff).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": done, "email": user.Email, "is_staff": staff})
	}
}

// POST /admin/staff/promote
func PromoteStaff(db *gorm.DB) gin.HandlerFunc {
	return setStaff(db, true, "User promoted to staff")
}

// POST /admin/staff/demote
func DemoteStaff(db *gorm.DB) gin.HandlerFunc {
	return setStaff(db, false, "User demoted")
}
